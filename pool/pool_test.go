package pool

import (
	"context"
	"testing"
	"time"

	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/luxfi/mempool/account"
	"github.com/luxfi/mempool/chainapi"
	"github.com/luxfi/mempool/extrinsic"
	"github.com/luxfi/mempool/metrics"
	"github.com/luxfi/mempool/ready"
	"github.com/luxfi/mempool/verifier"
	"github.com/luxfi/mempool/vtx"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeAPI struct {
	resolved map[account.ID]bool
	nonces   map[account.ID]account.Nonce
	byIndex  map[uint64]account.ID
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		resolved: make(map[account.ID]bool),
		nonces:   make(map[account.ID]account.Nonce),
		byIndex:  make(map[uint64]account.ID),
	}
}

func (f *fakeAPI) resolve(id account.ID) { f.resolved[id] = true }

// resolveIndex makes an index-form address resolve to id, mirroring an
// index->account mapping materializing on-chain.
func (f *fakeAPI) resolveIndex(index uint64, id account.ID) {
	f.byIndex[index] = id
	f.resolved[id] = true
}

func (f *fakeAPI) Lookup(_ context.Context, _ chainapi.CheckedBlockID, addr extrinsic.Address) (account.ID, bool, error) {
	if addr.Kind != extrinsic.AddrDirect {
		id, ok := f.byIndex[addr.Index]
		if !ok {
			return account.ID{}, false, nil
		}
		return id, f.resolved[id], nil
	}
	return addr.ID, f.resolved[addr.ID], nil
}

func (f *fakeAPI) Index(_ context.Context, _ chainapi.CheckedBlockID, who account.ID) (account.Nonce, error) {
	return f.nonces[who], nil
}

func (f *fakeAPI) CheckID(_ context.Context, b chainapi.BlockID) (chainapi.CheckedBlockID, error) {
	return chainapi.NewCheckedBlockID(b), nil
}

type acceptAllChecker struct{}

func (acceptAllChecker) CheckSignature(extrinsic.Raw, account.ID) error { return nil }

func newTestPool(cfg Config) (*Pool, *fakeAPI, *verifier.Verifier) {
	p := New(cfg, log.New(), metrics.New(prometheus.NewRegistry(), "pool_test"))
	api := newFakeAPI()
	v := verifier.New(api, acceptAllChecker{}, log.New(), p.Seq())
	return p, api, v
}

func rawFor(id account.ID, nonce account.Nonce, tag byte) extrinsic.Raw {
	return extrinsic.Raw{
		Signed:    extrinsic.DirectAddress(id),
		Index:     nonce,
		Call:      []byte{tag},
		Signature: []byte{0x01},
	}
}

func at() chainapi.CheckedBlockID { return chainapi.CheckedBlockID{} }

func TestSubmitAdmitsAndDedupsByHash(t *testing.T) {
	p, api, v := newTestPool(Config{})
	var alice account.ID
	alice[0] = 1
	api.resolve(alice)

	raw := rawFor(alice, 0, 0x10)
	res := p.Submit(context.Background(), v, at(), []extrinsic.Raw{raw, raw})
	require.Len(t, res, 2)
	require.NoError(t, res[0].Err)
	require.Error(t, res[1].Err)
	ai, ok := AsAlreadyImported(res[1].Err)
	require.True(t, ok)
	require.Equal(t, res[0].Hash, ai.Hash)

	require.Equal(t, 1, p.Status().Count)
}

func TestSubmitRejectsSameNonceSecondFullyVerified(t *testing.T) {
	p, api, v := newTestPool(Config{})
	var alice account.ID
	alice[0] = 2
	api.resolve(alice)

	first := rawFor(alice, 0, 0x10)
	second := rawFor(alice, 0, 0x20) // different call => different hash, same nonce

	res := p.Submit(context.Background(), v, at(), []extrinsic.Raw{first, second})
	require.NoError(t, res[0].Err)
	require.Error(t, res[1].Err)
	_, ok := AsAlreadyImported(res[1].Err)
	require.True(t, ok)
}

func TestSubmitPartialWhenSenderUnresolved(t *testing.T) {
	p, _, v := newTestPool(Config{})
	var bob account.ID
	bob[0] = 3

	raw := rawFor(bob, 0, 0x30)
	res := p.Submit(context.Background(), v, at(), []extrinsic.Raw{raw})
	require.NoError(t, res[0].Err)

	tx, ok := p.Get(res[0].Hash)
	require.True(t, ok)
	require.False(t, tx.IsFullyVerified())
	require.Equal(t, 1, p.Status().Unresolved)
}

func TestCapacityEvictsLowestScored(t *testing.T) {
	p, _, v := newTestPool(Config{MaxCount: 1})
	var carol account.ID
	carol[0] = 4

	partialRaw := rawFor(carol, 0, 0x40)
	res := p.Submit(context.Background(), v, at(), []extrinsic.Raw{partialRaw})
	require.NoError(t, res[0].Err)
	require.Equal(t, 1, p.Status().Count)

	var dave account.ID
	dave[0] = 5
	secondAPI := newFakeAPI()
	secondAPI.resolve(dave)
	v2 := verifier.New(secondAPI, acceptAllChecker{}, log.New(), p.Seq())

	verifiedRaw := rawFor(dave, 0, 0x50)
	res2 := p.Submit(context.Background(), v2, at(), []extrinsic.Raw{verifiedRaw})
	require.NoError(t, res2[0].Err)

	st := p.Status()
	require.Equal(t, 1, st.Count)
	_, stillThere := p.Get(res[0].Hash)
	require.False(t, stillThere)
	_, newOneThere := p.Get(res2[0].Hash)
	require.True(t, newOneThere)
}

func TestCapacityRejectsNewWhenItIsTheWorst(t *testing.T) {
	p, api, v := newTestPool(Config{MaxCount: 1})
	var alice account.ID
	alice[0] = 6
	api.resolve(alice)

	first := rawFor(alice, 0, 0x60)
	res := p.Submit(context.Background(), v, at(), []extrinsic.Raw{first})
	require.NoError(t, res[0].Err)

	var bob account.ID
	bob[0] = 7 // unresolved: will score lower than the already-resident verified record
	second := rawFor(bob, 0, 0x70)
	res2 := p.Submit(context.Background(), v, at(), []extrinsic.Raw{second})
	require.ErrorIs(t, res2[0].Err, ErrCapacityExceeded)

	require.Equal(t, 1, p.Status().Count)
	_, ok := p.Get(res[0].Hash)
	require.True(t, ok)
}

func TestPerSenderSoftCapRejectsNewcomerWhenResidentIsFullyVerified(t *testing.T) {
	// A resolved sender's bucket holds only fully-verified records, so
	// scoring.ShouldReplace forbids evicting any of them on a newcomer's
	// behalf (spec.md §4.3: old is evictable only when it is not
	// fully-verified). The soft cap therefore rejects the newcomer outright
	// rather than bumping the resident.
	p, api, v := newTestPool(Config{MaxPerSender: 1})
	var alice account.ID
	alice[0] = 8
	api.resolve(alice)

	r1 := rawFor(alice, 0, 0x80)
	r2 := rawFor(alice, 1, 0x81)
	res := p.Submit(context.Background(), v, at(), []extrinsic.Raw{r1, r2})
	require.NoError(t, res[0].Err)
	require.ErrorIs(t, res[1].Err, ErrCapacityExceeded)

	require.Equal(t, 1, p.Status().Count)
	_, firstStillThere := p.Get(res[0].Hash)
	require.True(t, firstStillThere)
}

func TestRemove(t *testing.T) {
	p, api, v := newTestPool(Config{})
	var alice account.ID
	alice[0] = 9
	api.resolve(alice)

	raw := rawFor(alice, 0, 0x90)
	res := p.Submit(context.Background(), v, at(), []extrinsic.Raw{raw})
	require.NoError(t, res[0].Err)

	require.True(t, p.Remove(res[0].Hash))
	require.False(t, p.Remove(res[0].Hash))
	require.Equal(t, 0, p.Status().Count)
}

func TestCullAndGetPendingDropsStaleKeepsFutureReturnsReady(t *testing.T) {
	// Each verdict is exercised against its own sender: the evaluator's
	// saturating increment advances a sender's expected nonce after every
	// observation regardless of verdict (ready.go, ported from the original
	// Ready::is_ready), so mixing a Stale record ahead of a Ready one for
	// the *same* sender in one sweep would pollute the Ready check — a real
	// pool only ever sees that ordering for a sender whose already-included
	// transactions were never culled by an earlier sweep.
	p, api, v := newTestPool(Config{})

	var alice, bob, carol account.ID
	alice[0], bob[0], carol[0] = 20, 21, 22
	api.resolve(alice)
	api.resolve(bob)
	api.resolve(carol)
	api.nonces[alice] = 5
	api.nonces[bob] = 5
	api.nonces[carol] = 5

	staleRaw := rawFor(alice, 3, 0xa0)
	readyRaw := rawFor(bob, 5, 0xa1)
	futureRaw := rawFor(carol, 8, 0xa2)

	res := p.Submit(context.Background(), v, at(), []extrinsic.Raw{staleRaw, readyRaw, futureRaw})
	require.NoError(t, res[0].Err)
	require.NoError(t, res[1].Err)
	require.NoError(t, res[2].Err)

	ev := ready.New(context.Background(), at(), api)
	pending := CullAndGetPending(p, ev, func(ts []*vtx.Transaction) []*vtx.Transaction { return ts })

	require.Len(t, pending, 1)
	require.Equal(t, account.Nonce(5), pending[0].Nonce())

	_, staleThere := p.Get(res[0].Hash)
	require.False(t, staleThere, "stale record must be culled")
	_, futureThere := p.Get(res[2].Hash)
	require.True(t, futureThere, "future record must remain resident")
}

func TestStartRetryLoopPromotesAndCloseStopsCleanly(t *testing.T) {
	p, api, v := newTestPool(Config{})
	var alice account.ID
	alice[0] = 30

	raw := rawFor(alice, 0, 0xc0)
	res := p.Submit(context.Background(), v, at(), []extrinsic.Raw{raw})
	require.NoError(t, res[0].Err)
	require.Equal(t, 1, p.Status().Unresolved)

	api.resolve(alice)
	p.StartRetryLoop(context.Background(), v, api, func() chainapi.BlockID { return chainapi.BlockID{} }, time.Millisecond)

	require.Eventually(t, func() bool {
		return p.Status().Unresolved == 0
	}, time.Second, time.Millisecond)

	p.Close()
	p.Close() // idempotent
}

func TestRetryVerificationPromotesPartial(t *testing.T) {
	p, api, v := newTestPool(Config{})
	var alice account.ID
	alice[0] = 11

	raw := rawFor(alice, 0, 0xb0)
	res := p.Submit(context.Background(), v, at(), []extrinsic.Raw{raw})
	require.NoError(t, res[0].Err)
	require.Equal(t, 1, p.Status().Unresolved)

	api.resolve(alice)
	promoted, err := p.RetryVerification(context.Background(), v, at())
	require.NoError(t, err)
	require.Equal(t, 1, promoted)

	tx, ok := p.Get(res[0].Hash)
	require.True(t, ok)
	require.True(t, tx.IsFullyVerified())
	require.Equal(t, 0, p.Status().Unresolved)
}
