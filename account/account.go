// Package account defines the identifiers the pool keys its state by: a
// resolved account identifier and the content hash of an extrinsic.
package account

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// IDLen is the byte length of a resolved account identifier.
const IDLen = 20

// ID is a resolved account identifier. The pool never interprets its bytes;
// it only uses it as a map key and a log field.
type ID [IDLen]byte

// String renders the identifier as a 0x-prefixed hex string.
func (id ID) String() string {
	return "0x" + hex.EncodeToString(id[:])
}

// IsZero reports whether id is the zero value.
func (id ID) IsZero() bool {
	return id == ID{}
}

// HashLen is the byte length of a content hash (BLAKE2-256).
const HashLen = 32

// Hash is the BLAKE2-256 content hash of an extrinsic's canonical encoding.
type Hash [HashLen]byte

// String renders the hash as a 0x-prefixed hex string.
func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// IsZero reports whether h is the zero value.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// ContentHash computes the BLAKE2-256 digest of encoded, the canonical
// encoding of a raw extrinsic. This is the pool's sole hashing primitive;
// every content hash in the system passes through here.
func ContentHash(encoded []byte) Hash {
	digest := blake2b.Sum256(encoded)
	return Hash(digest)
}

// Nonce is a per-sender monotonic counter.
type Nonce uint64

// MaxNonce is the conservative seed used by the readiness evaluator when a
// sender's expected nonce cannot be resolved: the evaluator treats this seed
// as "unknown" and judges every record for that sender Future rather than
// risking a false Ready/Stale verdict.
const MaxNonce Nonce = ^Nonce(0)

// String renders a nonce for logging.
func (n Nonce) String() string {
	return fmt.Sprintf("%d", uint64(n))
}
