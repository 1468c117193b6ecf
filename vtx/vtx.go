// Package vtx defines the pool's canonical in-memory transaction record.
package vtx

import (
	"github.com/luxfi/mempool/account"
	"github.com/luxfi/mempool/extrinsic"
)

// Checked is the signature-verified, sender-resolved form of an extrinsic.
// It carries nothing beyond the resolved sender: the pool never executes
// the call payload, only verifies the envelope (spec.md §1).
type Checked struct {
	Sender account.ID
}

// Transaction is the pool's canonical in-pool representation of one
// extrinsic (spec.md §4.1, C1). Only verifier.Verifier constructs one; the
// invariant Sender.valid ⇔ Checked != nil is enforced at construction, not
// re-checked on every access.
type Transaction struct {
	original    extrinsic.Raw
	checked     *Checked
	sender      account.ID
	senderKnown bool
	hash        account.Hash
	encodedSize int
	seq         uint64 // insertion sequence, used as an eviction tiebreak
}

// New builds a Transaction. checked and sender must both be present or both
// be absent; callers (verifier.Verifier) are responsible for the invariant.
func New(original extrinsic.Raw, checked *Checked, hash account.Hash, encodedSize int, seq uint64) *Transaction {
	t := &Transaction{
		original:    original,
		checked:     checked,
		hash:        hash,
		encodedSize: encodedSize,
		seq:         seq,
	}
	if checked != nil {
		t.sender = checked.Sender
		t.senderKnown = true
	}
	return t
}

// Bytes returns the canonical encoding of the original extrinsic.
func (t *Transaction) Bytes() ([]byte, error) {
	return extrinsic.Encode(t.original)
}

// Original returns the decoded, unverified extrinsic.
func (t *Transaction) Original() extrinsic.Raw {
	return t.original
}

// CheckedForm returns the checked form, or nil for a partially-verified
// record.
func (t *Transaction) CheckedForm() *Checked {
	return t.checked
}

// Sender returns the resolved sender and whether one is known. A
// partially-verified record (held pending promotion) reports ok == false.
func (t *Transaction) Sender() (account.ID, bool) {
	return t.sender, t.senderKnown
}

// Hash returns the transaction's content hash.
func (t *Transaction) Hash() account.Hash {
	return t.hash
}

// Nonce returns the per-sender nonce carried by the original extrinsic.
func (t *Transaction) Nonce() account.Nonce {
	return t.original.Index
}

// EncodedSize returns the byte length of the canonical encoding, the pool's
// sole input to its byte bound.
func (t *Transaction) EncodedSize() int {
	return t.encodedSize
}

// MemUsage is the memory-usage estimate the pool charges against its byte
// bound. It is, by design, the same value as EncodedSize (spec.md §4.1).
func (t *Transaction) MemUsage() int {
	return t.encodedSize
}

// IsFullyVerified reports whether the sender was resolved at verification
// time.
func (t *Transaction) IsFullyVerified() bool {
	return t.senderKnown
}

// Seq returns the record's insertion sequence number, used only as a
// deterministic eviction tiebreak (DESIGN.md Open Question 1).
func (t *Transaction) Seq() uint64 {
	return t.seq
}
