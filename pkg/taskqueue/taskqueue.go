// Package taskqueue provides the serial execution queue used to run undo/redo
// operations and conflict checks one at a time.
package taskqueue

import (
	"context"
	"errors"
)

var (
	// ErrNotStarted is returned for a task whose context was done before the
	// queue got to it. The task function was never called.
	ErrNotStarted = errors.New("taskqueue: task not started")

	// ErrTaskPanicked wraps a panic raised by a task function.
	ErrTaskPanicked = errors.New("taskqueue: task panicked")
)

// Task is a unit of work. It receives the context passed to Submit.
type Task func(ctx context.Context) error

// Queue accepts tasks from any number of goroutines and runs them with no
// overlapping execution windows.
type Queue interface {
	// Submit buffers t and returns a Future that settles with t's own result.
	Submit(ctx context.Context, t Task) *Future

	// Len returns the number of tasks waiting to run, excluding the one
	// currently running.
	Len() int
}

// Execute submits t to q and waits for it to settle.
//
// If ctx is done while t is still waiting, Execute returns early with the
// context error; the queue then skips t when it reaches it.
func Execute(ctx context.Context, q Queue, t Task) error {
	return q.Submit(ctx, t).Wait(ctx)
}

// Do runs fn on q and returns its value. It is the typed counterpart of
// Execute for tasks that produce a result, such as conflict checks.
func Do[T any](ctx context.Context, q Queue, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := Execute(ctx, q, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
