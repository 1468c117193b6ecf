package pool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/mempool/account"
	"github.com/luxfi/mempool/extrinsic"
	"github.com/luxfi/mempool/ready"
	"github.com/luxfi/mempool/vtx"
)

// Concrete end-to-end scenarios, spec.md §8: Alice's expected next nonce at
// block 0 is 209 in every scenario.

func aliceID() account.ID {
	var alice account.ID
	alice[0] = 0xAA
	return alice
}

func sweepNonces(t *testing.T, p *Pool, api *fakeAPI) []account.Nonce {
	t.Helper()
	ev := ready.New(context.Background(), at(), api)
	pending := CullAndGetPending(p, ev, func(ts []*vtx.Transaction) []*vtx.Transaction { return ts })
	nonces := make([]account.Nonce, len(pending))
	for i, tx := range pending {
		nonces[i] = tx.Nonce()
	}
	return nonces
}

func TestScenarioS1DirectAddressReady(t *testing.T) {
	p, api, v := newTestPool(Config{})
	alice := aliceID()
	api.resolve(alice)
	api.nonces[alice] = 209

	res := p.Submit(context.Background(), v, at(), []extrinsic.Raw{rawFor(alice, 209, 0x01)})
	require.NoError(t, res[0].Err)

	require.Equal(t, []account.Nonce{209}, sweepNonces(t, p, api))
}

func TestScenarioS2IndexAddressReady(t *testing.T) {
	p, api, v := newTestPool(Config{})
	alice := aliceID()
	api.resolveIndex(1, alice)
	api.nonces[alice] = 209

	raw := extrinsic.Raw{
		Signed:    extrinsic.IndexAddress(1),
		Index:     209,
		Call:      []byte{0x02},
		Signature: []byte{0x01},
	}
	res := p.Submit(context.Background(), v, at(), []extrinsic.Raw{raw})
	require.NoError(t, res[0].Err)

	require.Equal(t, []account.Nonce{209}, sweepNonces(t, p, api))
}

func TestScenarioS3TwoContiguousBothReady(t *testing.T) {
	p, api, v := newTestPool(Config{})
	alice := aliceID()
	api.resolve(alice)
	api.nonces[alice] = 209

	res := p.Submit(context.Background(), v, at(), []extrinsic.Raw{
		rawFor(alice, 209, 0x03),
		rawFor(alice, 210, 0x04),
	})
	require.NoError(t, res[0].Err)
	require.NoError(t, res[1].Err)

	require.Equal(t, []account.Nonce{209, 210}, sweepNonces(t, p, api))
}

func TestScenarioS4BelowExpectedCulledAsStale(t *testing.T) {
	p, api, v := newTestPool(Config{})
	alice := aliceID()
	api.resolve(alice)
	api.nonces[alice] = 209

	res := p.Submit(context.Background(), v, at(), []extrinsic.Raw{rawFor(alice, 208, 0x05)})
	require.NoError(t, res[0].Err)

	require.Empty(t, sweepNonces(t, p, api))
	_, stillThere := p.Get(res[0].Hash)
	require.False(t, stillThere)
}

func TestScenarioS5OutOfOrderSubmitStillBothReady(t *testing.T) {
	p, api, v := newTestPool(Config{})
	alice := aliceID()
	api.resolve(alice)
	api.nonces[alice] = 209

	res := p.Submit(context.Background(), v, at(), []extrinsic.Raw{
		rawFor(alice, 210, 0x06),
		rawFor(alice, 209, 0x07),
	})
	require.NoError(t, res[0].Err)
	require.NoError(t, res[1].Err)

	require.Equal(t, []account.Nonce{209, 210}, sweepNonces(t, p, api))
}

// TestScenarioS6IndexThenDirectBothReady exercises the open-question
// resolution in DESIGN.md: once the index- and direct-addressed submits both
// resolve to the same account id, they share a bucket and are contiguous, so
// both come back Ready rather than only the first.
func TestScenarioS6IndexThenDirectBothReady(t *testing.T) {
	p, api, v := newTestPool(Config{})
	alice := aliceID()
	api.resolveIndex(1, alice)
	api.nonces[alice] = 209

	indexRaw := extrinsic.Raw{
		Signed:    extrinsic.IndexAddress(1),
		Index:     209,
		Call:      []byte{0x08},
		Signature: []byte{0x01},
	}
	directRaw := rawFor(alice, 210, 0x09)

	res := p.Submit(context.Background(), v, at(), []extrinsic.Raw{indexRaw, directRaw})
	require.NoError(t, res[0].Err)
	require.NoError(t, res[1].Err)

	require.Equal(t, []account.Nonce{209, 210}, sweepNonces(t, p, api))
}
