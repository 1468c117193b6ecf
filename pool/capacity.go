package pool

import (
	"github.com/luxfi/mempool/scoring"
	"github.com/luxfi/mempool/vtx"
)

// overCapacity reports whether the pool currently exceeds either configured
// global bound.
func (p *Pool) overCapacity() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.config.MaxCount > 0 && p.totalCount > p.config.MaxCount {
		return true
	}
	if p.config.MaxBytes > 0 && p.totalBytes > p.config.MaxBytes {
		return true
	}
	return false
}

// enforceCapacity evicts the globally lowest-scored resident that
// scoring.ShouldReplace permits evicting on justInserted's behalf, repeatedly,
// until the pool is within its configured bounds. If no resident is
// evictable — every candidate is fully-verified, per §4.3's "old is not
// fully-verified" rule — justInserted itself is removed and
// ErrCapacityExceeded is returned (spec.md §7, "the new record's score does
// not exceed the lowest-scored resident").
func (p *Pool) enforceCapacity(justInserted *vtx.Transaction) error {
	for p.overCapacity() {
		key, victim, ok := p.findEvictionVictim(justInserted)
		if !ok {
			p.removeFromBucketAndIndex(keyFor(justInserted), justInserted)
			return ErrCapacityExceeded
		}
		rejectNew := victim.Hash() == justInserted.Hash()
		p.removeFromBucketAndIndex(key, victim)
		if rejectNew {
			return ErrCapacityExceeded
		}
	}
	return nil
}

// enforcePerSenderCap evicts the bucket's lowest-scored resident, repeatedly,
// until the bucket is within Config.MaxPerSender, subject to the same
// scoring.ShouldReplace guard as enforceCapacity. Mirrors enforceCapacity but
// scoped to one sender (spec.md §6's optional soft cap).
func (p *Pool) enforcePerSenderCap(key bucketKey, justInserted *vtx.Transaction) error {
	for {
		p.mu.Lock()
		b := p.buckets[key]
		p.mu.Unlock()
		if b == nil {
			return nil
		}
		b.mu.Lock()
		within := b.count <= p.config.MaxPerSender
		var victim *vtx.Transaction
		if !within {
			if candidate := b.lowestScored(); candidate != nil && scoring.ShouldReplace(candidate, justInserted) {
				victim = candidate
			}
		}
		b.mu.Unlock()
		if within {
			return nil
		}
		if victim == nil {
			p.removeFromBucketAndIndex(key, justInserted)
			return ErrCapacityExceeded
		}
		rejectNew := victim.Hash() == justInserted.Hash()
		p.removeFromBucketAndIndex(key, victim)
		if rejectNew {
			return ErrCapacityExceeded
		}
	}
}

// findEvictionVictim scans every bucket for its locally-worst record,
// discards any candidate scoring.ShouldReplace forbids evicting on
// newcomer's behalf, and returns the worst of what remains. Buckets are
// locked one at a time, never concurrently with each other or with p.mu, so
// this never deadlocks against insert/Remove's own p.mu-then-bucket.mu
// ordering.
func (p *Pool) findEvictionVictim(newcomer *vtx.Transaction) (bucketKey, *vtx.Transaction, bool) {
	p.mu.Lock()
	keys := make([]bucketKey, 0, len(p.buckets))
	buckets := make([]*bucket, 0, len(p.buckets))
	for k, b := range p.buckets {
		keys = append(keys, k)
		buckets = append(buckets, b)
	}
	p.mu.Unlock()

	var worstKey bucketKey
	var worst *vtx.Transaction
	for i, b := range buckets {
		b.mu.Lock()
		candidate := b.lowestScored()
		b.mu.Unlock()
		if candidate == nil || !scoring.ShouldReplace(candidate, newcomer) {
			continue
		}
		if worst == nil || lessEvictable(candidate, worst) {
			worst = candidate
			worstKey = keys[i]
		}
	}
	return worstKey, worst, worst != nil
}

// removeFromBucketAndIndex removes t from its bucket and from the pool-wide
// index, deleting the bucket entirely once it is left empty.
func (p *Pool) removeFromBucketAndIndex(key bucketKey, t *vtx.Transaction) {
	p.mu.Lock()
	b := p.buckets[key]
	p.mu.Unlock()
	if b == nil {
		return
	}

	b.mu.Lock()
	removed := b.removeLocked(t)
	empty := len(b.byNonce) == 0
	b.mu.Unlock()
	if !removed {
		return
	}

	p.mu.Lock()
	delete(p.byHash, t.Hash())
	p.totalCount--
	p.totalBytes -= int64(t.EncodedSize())
	if empty {
		if cur := p.buckets[key]; cur == b {
			delete(p.buckets, key)
		}
	}
	p.mu.Unlock()
}
