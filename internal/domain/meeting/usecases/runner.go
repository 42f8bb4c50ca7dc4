package usecases

import (
	"context"
	"sync"
)

// Runner serializes pipeline runs within one session. Beginning a new run
// cancels any active one and waits for it to observe the cancellation before
// handing out a context, so two runs can never write to the vault
// concurrently.
type Runner struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Begin returns a context for a new run and a finish function the run must
// call on every exit path. Begin blocks until any previous run has finished.
func (r *Runner) Begin(parent context.Context) (context.Context, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
		<-r.done
	}

	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done

	var once sync.Once
	finish := func() {
		once.Do(func() {
			cancel()
			close(done)
		})
	}
	return ctx, finish
}

// CancelActive requests cancellation of the active run, if any, and waits for
// it to finish.
func (r *Runner) CancelActive() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
