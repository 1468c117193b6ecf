// Package chainapi defines the minimal chain-client surface the pool
// consumes (spec.md §6). It exists to allow mocking the live chain out of
// tests, the same role core/txpool/txpool.go's BlockChain interface plays
// for the teacher's pool.
package chainapi

import (
	"context"

	"github.com/luxfi/mempool/account"
	"github.com/luxfi/mempool/extrinsic"
)

// BlockID identifies a block as named by a caller — not yet certified as
// locally resolvable.
type BlockID struct {
	Hash   account.Hash
	Number uint64
}

// CheckedBlockID is a BlockID the chain client has certified as resolvable
// against local state. Verification and readiness must agree on a common
// CheckedBlockID (spec.md §9, "Mutable chain client access").
type CheckedBlockID struct {
	block BlockID
}

// Block returns the underlying BlockID.
func (c CheckedBlockID) Block() BlockID {
	return c.block
}

// NewCheckedBlockID wraps a BlockID. Only a ChainAPI implementation should
// call this, after having actually certified the block id; it is exported
// so fakes in tests and other packages constructing checked ids can do so
// without reflection tricks.
func NewCheckedBlockID(b BlockID) CheckedBlockID {
	return CheckedBlockID{block: b}
}

// ChainAPI is the chain-client surface the pool requires, for any block id
// certified by CheckID.
type ChainAPI interface {
	// Lookup resolves an addressing form (direct id or index indirection)
	// to an account id at the given block. ok is false iff the address has
	// no corresponding account yet (spec.md §4.2: "no account" is not an
	// error, it yields a partial record).
	Lookup(ctx context.Context, at CheckedBlockID, addr extrinsic.Address) (id account.ID, ok bool, err error)

	// Index returns the account's expected next nonce at the given block.
	Index(ctx context.Context, at CheckedBlockID, who account.ID) (account.Nonce, error)

	// CheckID upgrades an arbitrary block id to one known to be locally
	// resolvable.
	CheckID(ctx context.Context, block BlockID) (CheckedBlockID, error)
}
