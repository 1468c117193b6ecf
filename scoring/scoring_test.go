package scoring

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/mempool/account"
	"github.com/luxfi/mempool/extrinsic"
	"github.com/luxfi/mempool/vtx"
)

func verified(nonce account.Nonce, seq uint64) *vtx.Transaction {
	raw := extrinsic.Raw{Index: nonce, Signature: []byte{0x01}}
	return vtx.New(raw, &vtx.Checked{}, account.Hash{byte(seq)}, 10, seq)
}

func partial(nonce account.Nonce, seq uint64) *vtx.Transaction {
	raw := extrinsic.Raw{Index: nonce, Signature: []byte{0x01}}
	return vtx.New(raw, nil, account.Hash{byte(seq)}, 10, seq)
}

func TestScoreOf(t *testing.T) {
	require.Equal(t, ScoreVerified, ScoreOf(verified(1, 1)))
	require.Equal(t, ScorePartial, ScoreOf(partial(1, 1)))
}

func TestCompareAscendingByNonce(t *testing.T) {
	require.Equal(t, -1, Compare(verified(1, 1), verified(2, 2)))
	require.Equal(t, 1, Compare(verified(5, 1), verified(2, 2)))
	require.Equal(t, 0, Compare(verified(5, 1), verified(5, 2)))
}

func TestChooseRejectsSameNonceFullyVerified(t *testing.T) {
	old := verified(3, 1)
	candidate := verified(3, 2)
	require.Equal(t, RejectNew, Choose(old, candidate))
}

func TestChooseInsertsDifferentNonce(t *testing.T) {
	old := verified(3, 1)
	candidate := verified(4, 2)
	require.Equal(t, InsertNew, Choose(old, candidate))
}

func TestChooseRejectsPartialAgainstVerifiedSameNonce(t *testing.T) {
	old := verified(3, 1)
	candidate := partial(3, 2)
	require.Equal(t, RejectNew, Choose(old, candidate))
}

func TestChooseInsertsAgainstPartialExisting(t *testing.T) {
	old := partial(3, 1)
	candidate := verified(3, 2)
	require.Equal(t, InsertNew, Choose(old, candidate))
}

func TestShouldReplace(t *testing.T) {
	require.True(t, ShouldReplace(partial(1, 1), verified(1, 2)))
	require.False(t, ShouldReplace(verified(1, 1), verified(1, 2)))
}
