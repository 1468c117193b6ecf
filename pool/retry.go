package pool

import (
	"context"

	"github.com/luxfi/mempool/chainapi"
	"github.com/luxfi/mempool/verifier"
	"github.com/luxfi/mempool/vtx"
)

// RetryVerification re-verifies every partial (sender-unresolved) record
// against a fresh checked block id, promoting each one that now resolves a
// sender into its proper bucket under the ordinary replacement policy. This
// recovers the `retry_verification` sweep spec.md §9 names as a future
// extension point that the original Polkadot pool left unimplemented
// (original_source/.../lib.rs's stub comment of the same name).
//
// Promotion preserves the record's hash (it is a pure function of the
// original extrinsic's encoding), so the stale partial entry must be
// unindexed before the freshly-verified one is admitted.
func (p *Pool) RetryVerification(ctx context.Context, v *verifier.Verifier, at chainapi.CheckedBlockID) (promoted int, err error) {
	p.mu.Lock()
	ub := p.buckets[unresolvedKey]
	p.mu.Unlock()
	if ub == nil {
		return 0, nil
	}

	ub.mu.Lock()
	var stale []*vtx.Transaction
	for _, slot := range ub.byNonce {
		stale = append(stale, slot...)
	}
	ub.mu.Unlock()

	for _, old := range stale {
		fresh, verr := v.Verify(ctx, at, old.Original())
		if verr != nil {
			p.log.Debug("retry verification failed", "hash", old.Hash().String(), "err", verr)
			continue
		}
		if !fresh.IsFullyVerified() {
			continue
		}

		p.removeFromBucketAndIndex(unresolvedKey, old)
		if _, ierr := p.insert(fresh); ierr != nil {
			p.log.Debug("promoted record rejected on re-insert", "hash", fresh.Hash().String(), "err", ierr)
			continue
		}
		promoted++
	}

	p.met.AddPromoted(promoted)
	p.refreshGauges()
	return promoted, nil
}
