package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrRecordNotFound is returned when a key has never been written.
	ErrRecordNotFound = errors.New("record not found")

	// ErrVersionMismatch is returned when a checked mutation finds a
	// different version than it expected.
	ErrVersionMismatch = errors.New("record version mismatch")

	// ErrInvalidMutation is returned for mutations without a key.
	ErrInvalidMutation = errors.New("invalid mutation")
)

// Record is the stored state of a key. Deleting a key keeps a tombstone
// (Deleted=true) so its version keeps increasing.
type Record struct {
	Key          string
	Value        any
	Version      int64
	Deleted      bool
	LastMutation string
	UpdatedAt    time.Time
}

// Exists reports whether the record holds a live value.
func (r Record) Exists() bool {
	return r.Version > 0 && !r.Deleted
}

// Mutation is a named change to a single key.
type Mutation struct {
	// Name labels the change, e.g. "set" or "restore".
	Name string
	Key  string

	Value  any
	Delete bool

	// When CheckVersion is set the mutation only applies if the record is
	// currently at Version (0 for a key that was never written).
	CheckVersion bool
	Version      int64
}

// RecordStore is the query/mutate boundary to the external data store.
type RecordStore interface {
	// Get returns the current record for key, or ErrRecordNotFound.
	Get(ctx context.Context, key string) (Record, error)

	// Apply performs m and returns the resulting record.
	Apply(ctx context.Context, m Mutation) (Record, error)
}

// next computes the record that results from applying m on top of cur,
// where cur.Version is 0 for a key that was never written.
func next(cur Record, m Mutation, now time.Time) (Record, error) {
	if m.Key == "" {
		return Record{}, fmt.Errorf("%w: empty key", ErrInvalidMutation)
	}
	if m.CheckVersion && cur.Version != m.Version {
		return Record{}, fmt.Errorf("%w: %q is at version %d, expected %d",
			ErrVersionMismatch, m.Key, cur.Version, m.Version)
	}

	name := m.Name
	if name == "" {
		name = "set"
		if m.Delete {
			name = "delete"
		}
	}

	rec := Record{
		Key:          m.Key,
		Version:      cur.Version + 1,
		Deleted:      m.Delete,
		LastMutation: name,
		UpdatedAt:    now,
	}
	if !m.Delete {
		rec.Value = m.Value
	}
	return rec, nil
}
