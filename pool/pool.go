// Package pool implements the mempool's core engine (spec.md §4.5, C5): a
// thread-safe, sender-bucketed store of verified transactions with
// capacity-bounded admission and a pull interface for ready transactions.
// Grounded on core/txpool/txpool.go's subpool-splitting Add and its
// reservation-guarded per-account exclusion, adapted here to one pool with
// per-bucket locks instead of per-subpool locks.
package pool

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/luxfi/log"
	"golang.org/x/sync/errgroup"

	"github.com/luxfi/mempool/account"
	"github.com/luxfi/mempool/chainapi"
	"github.com/luxfi/mempool/extrinsic"
	"github.com/luxfi/mempool/metrics"
	"github.com/luxfi/mempool/verifier"
	"github.com/luxfi/mempool/vtx"
)

// Config bounds the pool's admitted state (spec.md §6).
type Config struct {
	// MaxCount is the maximum number of resident records, verified and
	// partial combined. Zero means unbounded.
	MaxCount int
	// MaxBytes is the maximum total EncodedSize of resident records. Zero
	// means unbounded.
	MaxBytes int64
	// MaxPerSender is an optional soft cap on one sender's resident record
	// count. Zero means unbounded.
	MaxPerSender int
	// VerifyConcurrency bounds how many extrinsics in one Submit batch are
	// verified in parallel. Zero means unbounded (errgroup.SetLimit(-1)).
	VerifyConcurrency int
}

// Pool is the mempool's engine. The zero value is not usable; construct via
// New.
type Pool struct {
	mu      sync.Mutex
	byHash  map[account.Hash]*vtx.Transaction
	buckets map[bucketKey]*bucket

	totalCount int
	totalBytes int64

	config Config
	log    log.Logger
	met    *metrics.Set

	// seq is shared with every Verifier constructed against this pool so
	// that Seq(), used as the eviction tiebreak, reflects a single global
	// insertion order even under concurrent verification.
	seq atomic.Uint64

	// retryLoop is the background RetryVerification loop started by
	// StartRetryLoop, if any. Guarded by mu.
	retryLoop *RetryLoop
}

// New constructs an empty Pool.
func New(cfg Config, logger log.Logger, met *metrics.Set) *Pool {
	return &Pool{
		byHash:  make(map[account.Hash]*vtx.Transaction),
		buckets: make(map[bucketKey]*bucket),
		config:  cfg,
		log:     logger,
		met:     met,
	}
}

// Seq exposes the pool's shared insertion-sequence counter. Pass it to every
// verifier.New constructed for this pool.
func (p *Pool) Seq() *atomic.Uint64 {
	return &p.seq
}

// SubmitResult is one batch item's outcome.
type SubmitResult struct {
	Hash account.Hash
	Err  error
}

// Submit verifies each raw extrinsic in batch against the chain state pinned
// at `at`, then applies the replacement and capacity policies independently
// per item, preserving the batch's original order in the returned slice
// (spec.md §4.2, §4.3, §4.5). Verification runs concurrently, bounded by
// Config.VerifyConcurrency; admission runs sequentially so the capacity and
// replacement checks observe a consistent pool state per item.
func (p *Pool) Submit(ctx context.Context, v *verifier.Verifier, at chainapi.CheckedBlockID, batch []extrinsic.Raw) []SubmitResult {
	verified := make([]*vtx.Transaction, len(batch))
	verifyErr := make([]error, len(batch))

	g, gctx := errgroup.WithContext(ctx)
	if p.config.VerifyConcurrency > 0 {
		g.SetLimit(p.config.VerifyConcurrency)
	}
	for i := range batch {
		i := i
		g.Go(func() error {
			tx, err := v.Verify(gctx, at, batch[i])
			verified[i] = tx
			verifyErr[i] = err
			return nil
		})
	}
	_ = g.Wait()

	results := make([]SubmitResult, len(batch))
	for i := range batch {
		if err := verifyErr[i]; err != nil {
			results[i] = SubmitResult{Err: err}
			p.met.IncRejected(rejectReason(err))
			continue
		}
		hash, err := p.insert(verified[i])
		results[i] = SubmitResult{Hash: hash, Err: err}
		if err != nil {
			p.met.IncRejected(rejectReason(err))
		} else {
			p.met.IncSubmitted()
			p.log.Debug("admitted extrinsic", "hash", hash.String())
		}
	}
	p.refreshGauges()
	return results
}

func rejectReason(err error) string {
	if _, ok := AsAlreadyImported(err); ok {
		return "already_imported"
	}
	return "verification_failed"
}

// insert applies the §4.3 replacement table and §6 capacity bounds to one
// verified record.
func (p *Pool) insert(t *vtx.Transaction) (account.Hash, error) {
	hash := t.Hash()

	p.mu.Lock()
	if _, exists := p.byHash[hash]; exists {
		p.mu.Unlock()
		return hash, &AlreadyImportedError{Hash: hash}
	}
	key := keyFor(t)
	b := p.buckets[key]
	if b == nil {
		b = newBucket(key)
		p.buckets[key] = b
	}
	p.mu.Unlock()

	b.mu.Lock()
	if conflict, ok := b.conflictFor(t); ok {
		b.mu.Unlock()
		return conflict, &AlreadyImportedError{Hash: conflict}
	}
	b.insert(t)
	b.mu.Unlock()

	p.mu.Lock()
	p.byHash[hash] = t
	p.totalCount++
	p.totalBytes += int64(t.EncodedSize())
	p.mu.Unlock()

	if p.config.MaxPerSender > 0 && key.resolved {
		if err := p.enforcePerSenderCap(key, t); err != nil {
			p.refreshGauges()
			return hash, err
		}
	}
	if err := p.enforceCapacity(t); err != nil {
		p.refreshGauges()
		return hash, err
	}
	return hash, nil
}

// Remove deletes the record with the given hash, if present, and reports
// whether it was found.
func (p *Pool) Remove(hash account.Hash) bool {
	p.mu.Lock()
	t, ok := p.byHash[hash]
	p.mu.Unlock()
	if !ok {
		return false
	}
	p.removeFromBucketAndIndex(keyFor(t), t)
	p.refreshGauges()
	return true
}

// Get returns the record with the given hash, if resident.
func (p *Pool) Get(hash account.Hash) (*vtx.Transaction, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.byHash[hash]
	return t, ok
}

// Status is a point-in-time snapshot of the pool's occupancy (spec.md §6,
// the pull interface's companion status surface).
type Status struct {
	Count      int
	Bytes      int64
	Senders    int
	Unresolved int
}

// Status returns the pool's current occupancy.
func (p *Pool) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := Status{Count: p.totalCount, Bytes: p.totalBytes}
	for key, b := range p.buckets {
		if key.resolved {
			st.Senders++
		} else {
			b.mu.Lock()
			st.Unresolved += b.count
			b.mu.Unlock()
		}
	}
	return st
}

// Close stops the pool's background retry-verification loop, if one was
// started with StartRetryLoop, and blocks until it has exited. Close on a
// pool with no running loop is a no-op.
func (p *Pool) Close() {
	p.mu.Lock()
	loop := p.retryLoop
	p.retryLoop = nil
	p.mu.Unlock()
	if loop != nil {
		loop.Close()
	}
}

func (p *Pool) refreshGauges() {
	st := p.Status()
	p.met.SetSize(st.Count)
	p.met.SetBytes(st.Bytes)
	p.met.SetSenders(st.Senders)
	p.met.SetUnresolved(st.Unresolved)
}
