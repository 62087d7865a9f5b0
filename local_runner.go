package rewind

import (
	"context"

	"github.com/google/uuid"

	"github.com/petrijr/rewind/internal/persistence"
	"github.com/petrijr/rewind/pkg/taskqueue"
)

// LocalRunner bundles an in-memory record store, a serial queue, an
// in-memory history journal and a Manager that logs, counts and journals
// everything it does. It is meant for development, demos and tests.
//
// Typical usage:
//
//	runner := rewind.NewLocalRunner(false)
//	runner.Set(ctx, "title", "Draft")
//	runner.Set(ctx, "title", "Final")
//	runner.Manager.Undo(ctx)
//
//	v, _ := runner.Store.Get(ctx, "title") // "Draft"
//	events, _ := runner.Events(ctx)
type LocalRunner struct {
	// Manager records commands against Store.
	Manager Manager

	// Store is the record store the ready-made commands mutate.
	Store *persistence.InMemoryRecordStore

	// Queue runs the manager's operations and conflict checks.
	Queue *taskqueue.SerialQueue

	// Journal receives the manager's history events.
	Journal *persistence.InMemoryEventStore

	// Metrics counts the manager's operations.
	Metrics *BasicMetrics

	journal *JournalObserver
}

// NewLocalRunner constructs a LocalRunner. historyMode selects history mode
// over squash mode.
func NewLocalRunner(historyMode bool) *LocalRunner {
	store := persistence.NewInMemoryRecordStore()
	q := taskqueue.NewSerialQueue()
	events := persistence.NewInMemoryEventStore()
	metrics := &BasicMetrics{}
	journal := NewJournalObserver(events, "local-"+uuid.NewString(), nil)

	mgr, err := NewManagerWithConfig(Config{
		HistoryMode: historyMode,
		Queue:       q,
		Observer:    NewCompositeObserver(NewLoggingObserver(nil), metrics, journal),
	})
	if err != nil {
		// Unreachable: the queue is set.
		panic(err)
	}

	return &LocalRunner{
		Manager: mgr,
		Store:   store,
		Queue:   q,
		Journal: events,
		Metrics: metrics,
		journal: journal,
	}
}

// Set records a SetRecord command against Store.
func (r *LocalRunner) Set(ctx context.Context, key string, value any, opts ...RecordOption) {
	r.Manager.Record(ctx, SetRecord(r.Store, key, value, opts...))
}

// Delete records a DeleteRecord command against Store.
func (r *LocalRunner) Delete(ctx context.Context, key string, opts ...RecordOption) {
	r.Manager.Record(ctx, DeleteRecord(r.Store, key, opts...))
}

// Value returns the live value stored under key, or false when the key is
// missing or deleted.
func (r *LocalRunner) Value(ctx context.Context, key string) (any, bool) {
	rec, err := r.Store.Get(ctx, key)
	if err != nil || !rec.Exists() {
		return nil, false
	}
	return rec.Value, true
}

// Events returns the runner's journal in append order.
func (r *LocalRunner) Events(ctx context.Context) ([]HistoryEvent, error) {
	return r.Journal.ListEvents(ctx, r.journal.Journal())
}
