package persistence

import (
	"context"
	"sync"
	"time"

	"github.com/petrijr/rewind/pkg/api"
)

// EventStore is an append-only journal of manager history events.
type EventStore interface {
	AppendEvent(ctx context.Context, ev api.HistoryEvent) error
	// ListEvents returns the events of one journal in append order.
	ListEvents(ctx context.Context, journal string) ([]api.HistoryEvent, error)
}

// EventTrimmer is implemented by event stores that can drop old events.
type EventTrimmer interface {
	// TrimEvents keeps the newest keep events of journal and returns how
	// many were deleted.
	TrimEvents(ctx context.Context, journal string, keep int) (int, error)
}

// NoopEventStore discards all events.
type NoopEventStore struct{}

func (NoopEventStore) AppendEvent(ctx context.Context, ev api.HistoryEvent) error { return nil }
func (NoopEventStore) ListEvents(ctx context.Context, journal string) ([]api.HistoryEvent, error) {
	return nil, nil
}

// InMemoryEventStore keeps events in memory. It is safe for concurrent use.
type InMemoryEventStore struct {
	mu     sync.RWMutex
	events map[string][]api.HistoryEvent
}

var (
	_ EventStore   = (*InMemoryEventStore)(nil)
	_ EventTrimmer = (*InMemoryEventStore)(nil)
)

// NewInMemoryEventStore creates an empty InMemoryEventStore.
func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{events: make(map[string][]api.HistoryEvent)}
}

func (s *InMemoryEventStore) AppendEvent(ctx context.Context, ev api.HistoryEvent) error {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.events[ev.Journal] = append(s.events[ev.Journal], ev)
	return nil
}

func (s *InMemoryEventStore) ListEvents(ctx context.Context, journal string) ([]api.HistoryEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	evs := s.events[journal]
	out := make([]api.HistoryEvent, len(evs))
	copy(out, evs)
	return out, nil
}

func (s *InMemoryEventStore) TrimEvents(ctx context.Context, journal string, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	evs := s.events[journal]
	drop := len(evs) - keep
	if drop <= 0 {
		return 0, nil
	}
	s.events[journal] = append([]api.HistoryEvent(nil), evs[drop:]...)
	return drop, nil
}
