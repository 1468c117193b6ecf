// Package gossip adapts a pool.Pool to a peer-to-peer transaction relay
// (spec.md §4.6, C6). Grounded on plugin/evm/gossip_eth_tx_pool.go's
// Add/Has surface and plugin/evm/tx_gossip_handler.go's throttled-handler
// wrapping, adapted from go-ethereum-style tx gossip to this pool's
// extrinsic/vtx types.
package gossip

import (
	"context"
	"errors"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/time/rate"

	"github.com/luxfi/log"

	"github.com/luxfi/mempool/account"
	"github.com/luxfi/mempool/chainapi"
	"github.com/luxfi/mempool/extrinsic"
	"github.com/luxfi/mempool/pool"
	"github.com/luxfi/mempool/ready"
	"github.com/luxfi/mempool/verifier"
	"github.com/luxfi/mempool/vtx"
)

// PeerID names a remote peer in the gossip network. The pool never
// interprets its bytes; it is only used as a set member.
type PeerID [20]byte

// ErrThrottled is returned by Import when the configured import rate limit
// is exceeded — the concrete behavior behind
// tx_gossip_handler.go's two `// TODO: Implement throttling logic` markers,
// which the teacher leaves unfilled.
var ErrThrottled = errors.New("gossip: import throttled")

// Entry is one transaction offered for gossip: its content hash (for dedup)
// and the canonical bytes a peer can re-submit through Import.
type Entry struct {
	Hash  account.Hash
	Bytes []byte
}

// Config bounds the adapter's behavior (spec.md §6).
type Config struct {
	// ImportsExternal gates whether Import accepts gossiped extrinsics at
	// all. False makes the node gossip-only (publish, never ingest).
	ImportsExternal bool
	// BroadcastTrackerSize bounds the LRU tracking which peers have already
	// received which transaction hashes.
	BroadcastTrackerSize int
	// ImportRateLimit and ImportRateBurst configure the token bucket
	// guarding Import against a flooding peer. Zero ImportRateLimit
	// disables throttling.
	ImportRateLimit rate.Limit
	ImportRateBurst int
}

// Adapter is the pool's network-facing surface.
type Adapter struct {
	pool     *pool.Pool
	verifier *verifier.Verifier
	api      chainapi.ChainAPI
	cfg      Config
	log      log.Logger

	limiter *rate.Limiter

	ackMu sync.Mutex
	acked *lru.Cache // account.Hash -> mapset.Set[PeerID]
}

// New builds an Adapter wrapping pool p. p and api must outlive the Adapter.
func New(p *pool.Pool, v *verifier.Verifier, api chainapi.ChainAPI, cfg Config, logger log.Logger) (*Adapter, error) {
	size := cfg.BroadcastTrackerSize
	if size <= 0 {
		size = 1024
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}

	a := &Adapter{
		pool:     p,
		verifier: v,
		api:      api,
		cfg:      cfg,
		log:      logger,
		acked:    cache,
	}
	if cfg.ImportRateLimit > 0 {
		a.limiter = rate.NewLimiter(cfg.ImportRateLimit, cfg.ImportRateBurst)
	}
	return a, nil
}

// Transactions returns the pool's currently Ready transactions, re-encoded
// for gossip, as of head. A chain lookup failure is treated as "nothing to
// offer right now" rather than a hard error — gossip is best-effort
// (spec.md §4.6).
func (a *Adapter) Transactions(ctx context.Context, head chainapi.BlockID) ([]Entry, error) {
	at, err := a.api.CheckID(ctx, head)
	if err != nil {
		a.log.Debug("gossip: skipping transactions, chain lookup failed", "err", err)
		return nil, nil
	}

	ev := ready.New(ctx, at, a.api)
	pending := pool.CullAndGetPending(a.pool, ev, func(ts []*vtx.Transaction) []*vtx.Transaction {
		return ts
	})

	entries := make([]Entry, 0, len(pending))
	for _, t := range pending {
		b, err := t.Bytes()
		if err != nil {
			a.log.Debug("gossip: skipping transaction, re-encode failed", "hash", t.Hash().String(), "err", err)
			continue
		}
		entries = append(entries, Entry{Hash: t.Hash(), Bytes: b})
	}
	return entries, nil
}

// Import admits a gossiped extrinsic into the pool at the given checked
// block id. It returns the transaction's hash whether the extrinsic was
// newly admitted or already resident, so the caller can tell peers it need
// not be re-sent; a nil hash and nil error means the extrinsic was silently
// dropped (decode failure, any Submit rejection other than a duplicate —
// verification failure or ErrCapacityExceeded, for instance — or
// ImportsExternal is false) — spec.md §4.6 treats all of these as
// non-fatal. A throttled import is the one case reported as an error
// (ErrThrottled).
func (a *Adapter) Import(ctx context.Context, at chainapi.CheckedBlockID, raw []byte) (*account.Hash, error) {
	if !a.cfg.ImportsExternal {
		return nil, nil
	}
	if a.limiter != nil && !a.limiter.Allow() {
		return nil, ErrThrottled
	}

	decoded, err := extrinsic.Decode(raw)
	if err != nil {
		a.log.Debug("gossip: import decode failed", "err", err)
		return nil, nil
	}

	results := a.pool.Submit(ctx, a.verifier, at, []extrinsic.Raw{decoded})
	res := results[0]
	if res.Err == nil {
		hash := res.Hash
		return &hash, nil
	}
	if ai, ok := pool.AsAlreadyImported(res.Err); ok {
		hash := ai.Hash
		return &hash, nil
	}
	a.log.Debug("gossip: import rejected", "err", res.Err)
	return nil, nil
}

// OnBroadcasted records that the given hashes were just broadcast to the
// given peers, so a caller consulting HasBeenSentTo can avoid re-sending to
// a peer that already has it. Transactions does not consult this record.
func (a *Adapter) OnBroadcasted(sent map[account.Hash][]PeerID) {
	a.ackMu.Lock()
	defer a.ackMu.Unlock()
	for hash, peers := range sent {
		var set mapset.Set[PeerID]
		if v, ok := a.acked.Get(hash); ok {
			set = v.(mapset.Set[PeerID])
		} else {
			set = mapset.NewThreadUnsafeSet[PeerID]()
			a.acked.Add(hash, set)
		}
		for _, p := range peers {
			set.Add(p)
		}
	}
}

// HasBeenSentTo reports whether hash has already been broadcast to peer.
func (a *Adapter) HasBeenSentTo(hash account.Hash, peer PeerID) bool {
	a.ackMu.Lock()
	defer a.ackMu.Unlock()
	v, ok := a.acked.Get(hash)
	if !ok {
		return false
	}
	return v.(mapset.Set[PeerID]).Contains(peer)
}
