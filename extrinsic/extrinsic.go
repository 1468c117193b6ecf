// Package extrinsic decodes and canonically re-encodes the raw, signed
// extrinsics the pool accepts. The pool never interprets the call payload;
// it only reads the signed address, nonce, signature and raw bytes.
package extrinsic

import (
	"errors"
	"fmt"
	"io"

	"github.com/luxfi/geth/rlp"
	"github.com/luxfi/mempool/account"
)

// AddrKind discriminates the two forms an extrinsic's signed address can
// take: a direct account id, or an index indirection that must be resolved
// against on-chain state (spec.md §3: "either a direct account id or an
// index indirection").
type AddrKind uint8

const (
	AddrDirect AddrKind = iota
	AddrIndex
)

// Address is the signed address carried by a raw extrinsic, in one of its
// two addressing forms.
type Address struct {
	Kind  AddrKind
	ID    account.ID // valid iff Kind == AddrDirect
	Index uint64     // valid iff Kind == AddrIndex
}

// DirectAddress builds a direct-form address.
func DirectAddress(id account.ID) Address {
	return Address{Kind: AddrDirect, ID: id}
}

// IndexAddress builds an index-form address.
func IndexAddress(index uint64) Address {
	return Address{Kind: AddrIndex, Index: index}
}

// rlpAddress is the wire shape of Address: a discriminant plus both payload
// fields (the unused one zeroed), which keeps the codec a plain struct
// encoding rather than a hand-rolled union, at the cost of a few wasted
// bytes on the wire.
type rlpAddress struct {
	Kind  uint8
	ID    account.ID
	Index uint64
}

// EncodeRLP implements rlp.Encoder.
func (a Address) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, rlpAddress{Kind: uint8(a.Kind), ID: a.ID, Index: a.Index})
}

// DecodeRLP implements rlp.Decoder.
func (a *Address) DecodeRLP(s *rlp.Stream) error {
	var wire rlpAddress
	if err := s.Decode(&wire); err != nil {
		return err
	}
	if wire.Kind != uint8(AddrDirect) && wire.Kind != uint8(AddrIndex) {
		return fmt.Errorf("extrinsic: unknown address kind %d", wire.Kind)
	}
	a.Kind = AddrKind(wire.Kind)
	a.ID = wire.ID
	a.Index = wire.Index
	return nil
}

// Raw is a decoded, not-yet-verified extrinsic. Signature is empty iff the
// extrinsic is an inherent.
type Raw struct {
	Signed    Address
	Index     account.Nonce
	Call      []byte
	Signature []byte
}

// rlpRaw is Raw's wire shape.
type rlpRaw struct {
	Signed    Address
	Index     uint64
	Call      []byte
	Signature []byte
}

// IsSigned reports whether the extrinsic carries a signature. An unsigned
// extrinsic is an inherent and must never enter the pool (spec.md §4.2.1).
func (r Raw) IsSigned() bool {
	return len(r.Signature) > 0
}

// ErrInvalidExtrinsicFormat is returned when raw bytes do not decode into a
// well-formed extrinsic.
var ErrInvalidExtrinsicFormat = errors.New("extrinsic: invalid format")

// Encode produces the canonical encoding of r. This is the one encoding used
// both for hashing (account.ContentHash) and for the bytes handed back to
// gossip by the network adapter (spec.md §6: "import must be compatible
// with the byte sequence that transactions would have returned").
func Encode(r Raw) ([]byte, error) {
	wire := rlpRaw{
		Signed:    r.Signed,
		Index:     uint64(r.Index),
		Call:      r.Call,
		Signature: r.Signature,
	}
	encoded, err := rlp.EncodeToBytes(&wire)
	if err != nil {
		return nil, fmt.Errorf("extrinsic: encode: %w", err)
	}
	return encoded, nil
}

// Decode parses the canonical encoding produced by Encode.
func Decode(data []byte) (Raw, error) {
	var wire rlpRaw
	if err := rlp.DecodeBytes(data, &wire); err != nil {
		return Raw{}, fmt.Errorf("%w: %v", ErrInvalidExtrinsicFormat, err)
	}
	return Raw{
		Signed:    wire.Signed,
		Index:     account.Nonce(wire.Index),
		Call:      wire.Call,
		Signature: wire.Signature,
	}, nil
}
