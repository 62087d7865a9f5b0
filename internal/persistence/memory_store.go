package persistence

import (
	"context"
	"sync"
	"time"
)

// InMemoryRecordStore is a simple, goroutine-safe RecordStore backed by a
// map. Values are stored as given, not copied.
type InMemoryRecordStore struct {
	mu      sync.RWMutex
	records map[string]Record
	now     func() time.Time
}

// NewInMemoryRecordStore creates an empty InMemoryRecordStore.
func NewInMemoryRecordStore() *InMemoryRecordStore {
	return &InMemoryRecordStore{
		records: make(map[string]Record),
		now:     time.Now,
	}
}

// Ensure InMemoryRecordStore implements RecordStore.
var _ RecordStore = (*InMemoryRecordStore)(nil)

func (s *InMemoryRecordStore) Get(ctx context.Context, key string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[key]
	if !ok {
		return Record{}, ErrRecordNotFound
	}
	return rec, nil
}

func (s *InMemoryRecordStore) Apply(ctx context.Context, m Mutation) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := next(s.records[m.Key], m, s.now())
	if err != nil {
		return Record{}, err
	}
	s.records[m.Key] = rec
	return rec, nil
}

// Keys returns the keys of all live records.
func (s *InMemoryRecordStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.records))
	for k, rec := range s.records {
		if rec.Exists() {
			keys = append(keys, k)
		}
	}
	return keys
}
