package pool

import (
	"github.com/luxfi/mempool/ready"
	"github.com/luxfi/mempool/vtx"
)

// CullAndGetPending runs one readiness sweep over every resolved-sender
// bucket: Stale records are dropped permanently, Future records are left in
// place untouched, and every Ready record is collected and handed to f in
// one call. CullAndGetPending returns whatever f returns (spec.md §4.5,
// "pass the Ready records to the caller's handler and return its result").
//
// This is a package-level function, not a *Pool method, because Go methods
// cannot carry their own type parameters.
func CullAndGetPending[R any](p *Pool, ev *ready.Evaluator, f func(pending []*vtx.Transaction) R) R {
	p.mu.Lock()
	keys := make([]bucketKey, 0, len(p.buckets))
	buckets := make([]*bucket, 0, len(p.buckets))
	for k, b := range p.buckets {
		if k.resolved {
			keys = append(keys, k)
			buckets = append(buckets, b)
		}
	}
	p.mu.Unlock()

	var pending []*vtx.Transaction
	culled := 0

	for i, b := range buckets {
		b.mu.Lock()
		var culledHere []*vtx.Transaction
		// sortedTransactions copies the bucket's records up front, so
		// removeLocked mutating byNonce below never invalidates this range.
		for _, t := range b.sortedTransactions() {
			switch ev.IsReady(t) {
			case ready.Ready:
				pending = append(pending, t)
			case ready.Stale:
				b.removeLocked(t)
				culledHere = append(culledHere, t)
			case ready.Future:
				// left resident, reconsidered on the next sweep.
			}
		}
		empty := len(b.byNonce) == 0
		b.mu.Unlock()

		if len(culledHere) > 0 {
			p.mu.Lock()
			for _, t := range culledHere {
				delete(p.byHash, t.Hash())
				p.totalCount--
				p.totalBytes -= int64(t.EncodedSize())
			}
			p.mu.Unlock()
			culled += len(culledHere)
		}
		if empty {
			p.mu.Lock()
			if cur := p.buckets[keys[i]]; cur == b && len(b.byNonce) == 0 {
				delete(p.buckets, keys[i])
			}
			p.mu.Unlock()
		}
	}

	p.met.AddCulled(culled)
	p.refreshGauges()
	p.log.Debug("readiness sweep complete", "ready", len(pending), "culled", culled)

	return f(pending)
}
