package taskqueue

import (
	"context"
	"fmt"
	"sync"
)

// SerialQueue runs submitted tasks one at a time in submission order.
//
// It owns at most one worker goroutine. The worker is started by the first
// Submit that finds the queue idle and keeps pulling from the front of the
// pending buffer until it is empty, then exits. A task that fails or panics
// settles only its own Future; later tasks still run.
type SerialQueue struct {
	mu      sync.Mutex
	pending []job
	running bool
}

type job struct {
	ctx    context.Context
	task   Task
	future *Future
}

// Ensure SerialQueue implements Queue.
var _ Queue = (*SerialQueue)(nil)

// NewSerialQueue creates an idle SerialQueue.
func NewSerialQueue() *SerialQueue {
	return &SerialQueue{}
}

// Submit appends t to the pending buffer. The returned Future settles with
// the task's error, ErrNotStarted if ctx was done before the task's turn, or
// ErrTaskPanicked if the task panicked.
func (q *SerialQueue) Submit(ctx context.Context, t Task) *Future {
	if t == nil {
		panic("taskqueue: nil task")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	f := newFuture()

	q.mu.Lock()
	q.pending = append(q.pending, job{ctx: ctx, task: t, future: f})
	start := !q.running
	q.running = true
	q.mu.Unlock()

	if start {
		go q.drain()
	}
	return f
}

// Len returns the number of tasks waiting behind the running one.
func (q *SerialQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.pending)
}

// Idle reports whether no task is running or pending.
func (q *SerialQueue) Idle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return !q.running
}

func (q *SerialQueue) drain() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.running = false
			q.mu.Unlock()
			return
		}
		j := q.pending[0]
		q.pending[0] = job{}
		q.pending = q.pending[1:]
		q.mu.Unlock()

		j.future.settle(run(j))
	}
}

func run(j job) (err error) {
	if ctxErr := j.ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %w", ErrNotStarted, ctxErr)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
		}
	}()
	return j.task(j.ctx)
}
