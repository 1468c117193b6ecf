package account

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContentHashDeterministic(t *testing.T) {
	a := ContentHash([]byte("extrinsic-bytes"))
	b := ContentHash([]byte("extrinsic-bytes"))
	require.Equal(t, a, b)

	c := ContentHash([]byte("different-bytes"))
	require.NotEqual(t, a, c)
}

func TestIDString(t *testing.T) {
	var id ID
	id[0] = 0xab
	id[IDLen-1] = 0xcd
	require.True(t, len(id.String()) > 2)
	require.False(t, id.IsZero())
	require.True(t, ID{}.IsZero())
}

func TestMaxNonceIsMaxUint64(t *testing.T) {
	n := MaxNonce
	require.Equal(t, Nonce(^uint64(0)), n)
}
