package taskqueue

import "context"

// Future is the pending result of a submitted Task.
type Future struct {
	done chan struct{}
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) settle(err error) {
	f.err = err
	close(f.done)
}

// Done is closed once the task has settled.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Err blocks until the task has settled and returns its error.
func (f *Future) Err() error {
	<-f.done
	return f.err
}

// Wait is like Err but gives up when ctx is done. Giving up does not cancel
// a task that is already running.
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
