package pool

import (
	"sort"
	"sync"

	"github.com/luxfi/mempool/account"
	"github.com/luxfi/mempool/scoring"
	"github.com/luxfi/mempool/vtx"
)

// bucketKey names a sender bucket. Records whose sender could not yet be
// resolved share the zero-value unresolved key rather than colliding with a
// legitimately all-zero account.ID, via the resolved flag.
type bucketKey struct {
	id       account.ID
	resolved bool
}

var unresolvedKey = bucketKey{}

func keyFor(t *vtx.Transaction) bucketKey {
	if sender, ok := t.Sender(); ok {
		return bucketKey{id: sender, resolved: true}
	}
	return unresolvedKey
}

// bucket holds every record for one sender (or the synthetic unresolved
// bucket), indexed by nonce to support the §4.3 per-nonce replacement table.
// Each bucket carries its own mutex so sweeps and submits touching different
// senders never contend (spec.md §5).
type bucket struct {
	mu      sync.Mutex
	key     bucketKey
	byNonce map[account.Nonce][]*vtx.Transaction
	count   int
	bytes   int64
}

func newBucket(key bucketKey) *bucket {
	return &bucket{key: key, byNonce: make(map[account.Nonce][]*vtx.Transaction)}
}

// conflictFor reports the hash of an existing record occupying candidate's
// nonce that scoring.Choose rejects candidate in favor of, if any. Callers
// must hold b.mu.
func (b *bucket) conflictFor(candidate *vtx.Transaction) (account.Hash, bool) {
	for _, existing := range b.byNonce[candidate.Nonce()] {
		if scoring.Choose(existing, candidate) == scoring.RejectNew {
			return existing.Hash(), true
		}
	}
	return account.Hash{}, false
}

// insert appends t to its nonce slot. Callers must hold b.mu and must have
// already applied the §4.3 replacement table via conflictFor.
func (b *bucket) insert(t *vtx.Transaction) {
	n := t.Nonce()
	b.byNonce[n] = append(b.byNonce[n], t)
	b.count++
	b.bytes += int64(t.EncodedSize())
}

// removeLocked deletes t from its nonce slot. Callers must hold b.mu.
func (b *bucket) removeLocked(t *vtx.Transaction) bool {
	n := t.Nonce()
	slot := b.byNonce[n]
	for i, existing := range slot {
		if existing.Hash() == t.Hash() {
			slot = append(slot[:i], slot[i+1:]...)
			if len(slot) == 0 {
				delete(b.byNonce, n)
			} else {
				b.byNonce[n] = slot
			}
			b.count--
			b.bytes -= int64(t.EncodedSize())
			return true
		}
	}
	return false
}

// lowestScored returns the least valuable record in the bucket — the
// scoring.ShouldReplace candidate — or nil if the bucket is empty. Ties break
// on smaller EncodedSize, then older Seq, matching the pool-wide eviction
// tiebreak (DESIGN.md Open Question 1).
func (b *bucket) lowestScored() *vtx.Transaction {
	var worst *vtx.Transaction
	for _, slot := range b.byNonce {
		for _, t := range slot {
			if worst == nil || lessEvictable(t, worst) {
				worst = t
			}
		}
	}
	return worst
}

// lessEvictable reports whether a should be evicted before b: lower score
// first, then smaller size, then older insertion sequence.
func lessEvictable(a, b *vtx.Transaction) bool {
	sa, sb := scoring.ScoreOf(a), scoring.ScoreOf(b)
	if sa != sb {
		return sa < sb
	}
	if a.EncodedSize() != b.EncodedSize() {
		return a.EncodedSize() < b.EncodedSize()
	}
	return a.Seq() < b.Seq()
}

// sortedTransactions returns every record in the bucket ordered by
// scoring.Compare — the bucket's strict total order (ascending nonce).
// Callers must hold b.mu.
func (b *bucket) sortedTransactions() []*vtx.Transaction {
	all := make([]*vtx.Transaction, 0, b.count)
	for _, slot := range b.byNonce {
		all = append(all, slot...)
	}
	sort.Slice(all, func(i, j int) bool { return scoring.Compare(all[i], all[j]) < 0 })
	return all
}
