// Package ready implements the pool's per-sweep readiness predicate
// (spec.md §4.4, C4), ported from the original Polkadot transaction pool's
// Ready evaluator (original_source/.../lib.rs:180-244).
package ready

import (
	"context"

	"github.com/luxfi/mempool/account"
	"github.com/luxfi/mempool/chainapi"
	"github.com/luxfi/mempool/vtx"
)

// Verdict is the outcome of evaluating one record's readiness.
type Verdict int

const (
	// Ready means the record's nonce equals the sender's expected next
	// nonce: includable now.
	Ready Verdict = iota
	// Future means the nonce is ahead of expectation: includable later.
	Future
	// Stale means the nonce is behind expectation: permanently excluded.
	Stale
)

func (v Verdict) String() string {
	switch v {
	case Ready:
		return "ready"
	case Future:
		return "future"
	case Stale:
		return "stale"
	default:
		return "unknown"
	}
}

// Evaluator is a per-sweep, single-threaded readiness predicate tied to one
// checked block id. Construct a fresh Evaluator for every sweep; it must
// never be reused or shared across goroutines (spec.md §4.4, "single-
// threaded within a sweep").
type Evaluator struct {
	at  chainapi.CheckedBlockID
	api chainapi.ChainAPI
	ctx context.Context

	known map[account.ID]account.Nonce

	// StaleAfter is the resolution of spec.md §9 Open Question 2: when
	// non-zero, a record whose nonce exceeds the expected nonce by more
	// than StaleAfter is judged Stale instead of Future, bounding how long
	// a sender whose account nonce was reset (e.g. by account deletion)
	// can wedge pool capacity with unreachable Future records. Zero
	// (the default) disables the threshold, matching the original
	// pool's unbounded-Future behavior.
	StaleAfter account.Nonce
}

// New constructs an Evaluator for one sweep at the given checked block id.
func New(ctx context.Context, at chainapi.CheckedBlockID, api chainapi.ChainAPI) *Evaluator {
	return &Evaluator{
		at:    at,
		api:   api,
		ctx:   ctx,
		known: make(map[account.ID]account.Nonce),
	}
}

// IsReady evaluates one record against the evaluator's cached per-sender
// expected-nonce state, advancing that state so a contiguous run of nonces
// for the same sender all resolve Ready within one sweep (spec.md §4.4).
func (e *Evaluator) IsReady(t *vtx.Transaction) Verdict {
	sender, ok := t.Sender()
	if !ok {
		return Future
	}

	expected, seen := e.known[sender]
	if !seen {
		next, err := e.api.Index(e.ctx, e.at, sender)
		if err != nil {
			// Conservative: every record from this sender resolves Future
			// until a sweep manages a successful lookup.
			next = account.MaxNonce
		}
		expected = next
	}

	nonce := t.Nonce()
	var verdict Verdict
	switch {
	case expected == account.MaxNonce:
		// The MaxNonce seed stands for an unknown expected nonce: judge the
		// record Future rather than culling it as Stale.
		verdict = Future
	case nonce > expected:
		if e.StaleAfter > 0 && nonce-expected > e.StaleAfter {
			verdict = Stale
		} else {
			verdict = Future
		}
	case nonce == expected:
		verdict = Ready
	default:
		verdict = Stale
	}

	// Saturating increment so the next record from the same sender in this
	// sweep is judged against the post-inclusion nonce.
	if expected < account.MaxNonce {
		expected++
	}
	e.known[sender] = expected

	return verdict
}
