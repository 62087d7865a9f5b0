package observable

import (
	"reflect"
	"sync"
)

// Cell holds a single value of type T and notifies subscribers on change.
// It is safe for concurrent use.
type Cell[T any] struct {
	mu      sync.Mutex
	value   T
	version uint64
	equal   func(a, b T) bool
	subs    []*subscriber[T]
	nextID  uint64
}

type subscriber[T any] struct {
	id uint64
	fn func(T)

	// mu serializes deliveries to fn; next is the lowest version fn may
	// still be called with.
	mu   sync.Mutex
	next uint64
}

// deliver calls fn with v unless a newer version already reached it, so
// concurrent Set and Subscribe calls never hand a subscriber a stale value
// after a fresher one.
func (s *subscriber[T]) deliver(v T, version uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if version < s.next {
		return
	}
	s.next = version + 1
	s.fn(v)
}

// New creates a Cell whose change detection uses ==.
func New[T comparable](initial T) *Cell[T] {
	return NewWithEqual(initial, func(a, b T) bool { return a == b })
}

// NewWithEqual creates a Cell that uses equal to decide whether a Set
// changes the value. If equal is nil, reflect.DeepEqual is used.
func NewWithEqual[T any](initial T, equal func(a, b T) bool) *Cell[T] {
	if equal == nil {
		equal = func(a, b T) bool { return reflect.DeepEqual(a, b) }
	}
	return &Cell[T]{
		value: initial,
		equal: equal,
	}
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.value
}

// Set replaces the value and notifies subscribers, unless next is equal to
// the current value. It reports whether the value changed.
//
// Subscribers are called synchronously, in subscription order, on the
// caller's goroutine. The set of subscribers is snapshotted before the
// first call, so subscribing or unsubscribing from inside a callback does
// not affect the notification in flight. Under concurrent Sets each
// subscriber sees values in the order they were stored; a value overtaken
// by a newer one may be skipped. A callback must not call Set on the cell
// that is notifying it.
func (c *Cell[T]) Set(next T) bool {
	c.mu.Lock()
	if c.equal(c.value, next) {
		c.mu.Unlock()
		return false
	}
	c.value = next
	c.version++
	version := c.version
	snapshot := c.subs
	c.mu.Unlock()

	for _, s := range snapshot {
		s.deliver(next, version)
	}
	return true
}

// Subscribe registers fn and immediately calls it once with the current
// value, unless a concurrent Set has already delivered a newer one. The
// returned function removes exactly this subscription; calling it more
// than once is harmless.
func (c *Cell[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	if fn == nil {
		panic("observable: nil subscriber")
	}

	s := &subscriber[T]{fn: fn}

	c.mu.Lock()
	c.nextID++
	id := c.nextID
	s.id = id
	subs := make([]*subscriber[T], 0, len(c.subs)+1)
	subs = append(subs, c.subs...)
	c.subs = append(subs, s)
	current, version := c.value, c.version
	c.mu.Unlock()

	s.deliver(current, version)

	var once sync.Once
	return func() {
		once.Do(func() { c.remove(id) })
	}
}

// Len returns the number of active subscribers.
func (c *Cell[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.subs)
}

func (c *Cell[T]) remove(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, s := range c.subs {
		if s.id == id {
			// Copy-on-write so snapshots taken by Set stay intact.
			subs := make([]*subscriber[T], 0, len(c.subs)-1)
			subs = append(subs, c.subs[:i]...)
			subs = append(subs, c.subs[i+1:]...)
			c.subs = subs
			return
		}
	}
}
