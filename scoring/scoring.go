// Package scoring implements the pool's per-sender ordering, dedup and
// eviction rules (spec.md §4.3, C3), ported directly from the original
// Polkadot transaction pool's Scoring implementation
// (original_source/.../lib.rs:130-178).
package scoring

import (
	"github.com/luxfi/mempool/vtx"
)

// Choice is the replacement decision when inserting a new record against an
// existing one in the same sender bucket.
type Choice int

const (
	// InsertNew keeps both the existing and the new record.
	InsertNew Choice = iota
	// RejectNew rejects the new record as a duplicate.
	RejectNew
)

// Score ties all fully-verified records at 1 and every partial at 0: there
// is no fee market in this revision (spec.md §1 Non-goals), so fully
// verified records never outrank one another on score alone.
type Score uint64

const (
	ScorePartial Score = 0
	ScoreVerified Score = 1
)

// ScoreOf returns t's score (spec.md §4.3).
func ScoreOf(t *vtx.Transaction) Score {
	if t.IsFullyVerified() {
		return ScoreVerified
	}
	return ScorePartial
}

// Compare orders two records within one bucket by ascending nonce — the
// bucket's strict total order (spec.md §4.3, "ascending nonce").
func Compare(a, b *vtx.Transaction) int {
	switch {
	case a.Nonce() < b.Nonce():
		return -1
	case a.Nonce() > b.Nonce():
		return 1
	default:
		return 0
	}
}

// Choose decides whether new may join old in the same bucket, per the
// table in spec.md §4.3:
//
//	existing        new        same nonce?   choice
//	fully-verified  fully-ver. yes           RejectNew
//	fully-verified  fully-ver. no            InsertNew
//	fully-verified  partial    —             RejectNew if same nonce, else InsertNew
//	partial         any        —             InsertNew (old is evictable)
func Choose(old, candidate *vtx.Transaction) Choice {
	if old.IsFullyVerified() && old.Nonce() == candidate.Nonce() {
		return RejectNew
	}
	return InsertNew
}

// ShouldReplace reports whether old may be evicted outright to make room
// for new. Partial records are always evictable; fully-verified records
// never are (there is no fee market to adjudicate a replacement).
func ShouldReplace(old, _ *vtx.Transaction) bool {
	return !old.IsFullyVerified()
}
