package pool

import (
	"context"
	"time"

	"github.com/luxfi/mempool/chainapi"
	"github.com/luxfi/mempool/verifier"
)

// RetryLoop is a background goroutine periodically re-running
// RetryVerification, started by StartRetryLoop. Grounded on the teacher's
// ticker-driven background sync loop (plugin/evm/validators/manager.go's
// DispatchSync): a time.Ticker paired with a context.Done() exit, except
// this loop owns its own cancellation rather than relying solely on the
// caller's context, so Close is unconditionally safe to call.
type RetryLoop struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// StartRetryLoop runs RetryVerification against head() every interval, until
// p.Close is called or ctx is done. head supplies the current chain head on
// each tick; the pool core has no notion of "current block" on its own, the
// same reason gossip.Adapter.Transactions takes a head parameter rather than
// tracking one internally. Starting a second loop without closing the first
// leaks the first's goroutine until ctx is done; callers should Close before
// restarting.
func (p *Pool) StartRetryLoop(ctx context.Context, v *verifier.Verifier, api chainapi.ChainAPI, head func() chainapi.BlockID, interval time.Duration) {
	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				at, err := api.CheckID(loopCtx, head())
				if err != nil {
					p.log.Debug("retry loop: check_id failed", "err", err)
					continue
				}
				promoted, err := p.RetryVerification(loopCtx, v, at)
				if err != nil {
					p.log.Debug("retry loop: sweep failed", "err", err)
					continue
				}
				if promoted > 0 {
					p.log.Debug("retry loop: promoted partial records", "count", promoted)
				}
			case <-loopCtx.Done():
				return
			}
		}
	}()

	p.mu.Lock()
	p.retryLoop = &RetryLoop{cancel: cancel, done: done}
	p.mu.Unlock()
}

// Close stops the loop and blocks until its goroutine has exited.
func (r *RetryLoop) Close() {
	r.cancel()
	<-r.done
}
