package main

import (
	"context"
	"sync/atomic"

	"github.com/luxfi/mempool/account"
	"github.com/luxfi/mempool/chainapi"
	"github.com/luxfi/mempool/extrinsic"
)

// devChain is a deterministic, in-memory chainapi.ChainAPI for running
// mempoolctl without a live node attached. It resolves a direct address to
// itself, an index address to a synthetic account derived from the index,
// and reports every account's expected nonce as 0 until advanced via
// AdvanceNonce — enough to exercise Submit/status/watch end to end.
type devChain struct {
	nonces map[account.ID]account.Nonce
	height atomic.Uint64
}

func newDevChain() *devChain {
	return &devChain{nonces: make(map[account.ID]account.Nonce)}
}

func (d *devChain) Lookup(_ context.Context, _ chainapi.CheckedBlockID, addr extrinsic.Address) (account.ID, bool, error) {
	switch addr.Kind {
	case extrinsic.AddrDirect:
		return addr.ID, true, nil
	case extrinsic.AddrIndex:
		var id account.ID
		id[0], id[1] = 0xde, 0xad
		id[account.IDLen-1] = byte(addr.Index)
		return id, true, nil
	default:
		return account.ID{}, false, nil
	}
}

func (d *devChain) Index(_ context.Context, _ chainapi.CheckedBlockID, who account.ID) (account.Nonce, error) {
	return d.nonces[who], nil
}

func (d *devChain) CheckID(_ context.Context, block chainapi.BlockID) (chainapi.CheckedBlockID, error) {
	return chainapi.NewCheckedBlockID(block), nil
}

// AdvanceNonce records that who's next expected nonce is now n, so a later
// watch sweep judges a previously-Future record Ready.
func (d *devChain) AdvanceNonce(who account.ID, n account.Nonce) {
	d.nonces[who] = n
}

// noopChecker accepts every signature: mempoolctl exercises admission and
// readiness, not cryptographic verification.
type noopChecker struct{}

func (noopChecker) CheckSignature(extrinsic.Raw, account.ID) error { return nil }
