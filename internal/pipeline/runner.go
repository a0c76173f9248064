package pipeline

import (
	"context"
	"sync"
)

// Result is what a Runner delivers for the run that is still current when it
// finishes.
type Result struct {
	Version uint64
	Outcome Outcome
	Err     error
}

// WorkFunc is one unit of work submitted to a Runner. It should stop early
// when ctx is canceled.
type WorkFunc func(ctx context.Context) (Outcome, error)

// Runner applies last-write-wins to a stream of submissions. Every Submit
// gets a new version and cancels the run before it; only a run whose version
// is still the latest when it returns reaches the deliver callback.
//
// deliver is called with the Runner's lock held, so it must not call back
// into the Runner.
type Runner struct {
	deliver func(Result)

	mu      sync.Mutex
	version uint64
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewRunner(deliver func(Result)) *Runner {
	return &Runner{deliver: deliver}
}

// Submit starts work in its own goroutine and returns its version.
func (r *Runner) Submit(ctx context.Context, work WorkFunc) uint64 {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.version++
	v := r.version
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		defer cancel()

		out, err := work(runCtx)

		r.mu.Lock()
		defer r.mu.Unlock()
		if v != r.version {
			return
		}
		r.deliver(Result{Version: v, Outcome: out, Err: err})
	}()

	return v
}

// Version returns the version of the latest submission.
func (r *Runner) Version() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.version
}

// Stop cancels the in-flight run, discards its result and waits for every
// started goroutine to return.
func (r *Runner) Stop() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.version++
	r.mu.Unlock()

	r.wg.Wait()
}

// Wait blocks until every submitted run has returned.
func (r *Runner) Wait() {
	r.wg.Wait()
}
