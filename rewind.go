package rewind

import (
	"database/sql"

	"github.com/redis/go-redis/v9"

	"github.com/petrijr/rewind/internal/manager"
	"github.com/petrijr/rewind/internal/persistence"
	"github.com/petrijr/rewind/pkg/api"
	"github.com/petrijr/rewind/pkg/taskqueue"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Manager              = api.Manager
	Command              = api.Command
	UndoConflictChecker  = api.UndoConflictChecker
	RedoConflictChecker  = api.RedoConflictChecker
	FuncCommand          = api.FuncCommand
	OperationFunc        = api.OperationFunc
	ConflictFunc         = api.ConflictFunc
	Status               = api.Status
	ChangeReason         = api.ChangeReason
	Observer             = api.Observer
	EntryInfo            = api.EntryInfo
	Direction            = api.Direction
	HistoryEvent         = api.HistoryEvent
	LoggingObserver      = api.LoggingObserver
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot
	CompositeObserver    = api.CompositeObserver
	NoopObserver         = api.NoopObserver

	Config = manager.Config
	Queue  = taskqueue.Queue

	Record      = persistence.Record
	Mutation    = persistence.Mutation
	RecordStore = persistence.RecordStore
	EventStore  = persistence.EventStore

	EventTrimmer = persistence.EventTrimmer
)

// Re-export common helpers.

var (
	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver
	Mirror               = api.Mirror
	NewSerialQueue       = taskqueue.NewSerialQueue
)

// Re-export change reasons for convenience.

const (
	ReasonDo       = api.ReasonDo
	ReasonUndo     = api.ReasonUndo
	ReasonRedo     = api.ReasonRedo
	ReasonConflict = api.ReasonConflict
	ReasonNoChange = api.ReasonNoChange
)

// Re-export sentinel errors.

var (
	ErrMissingQueue    = manager.ErrMissingQueue
	ErrNotStarted      = taskqueue.ErrNotStarted
	ErrTaskPanicked    = taskqueue.ErrTaskPanicked
	ErrRecordNotFound  = persistence.ErrRecordNotFound
	ErrVersionMismatch = persistence.ErrVersionMismatch
)

// Manager constructors
// These wrap the internal/manager package so external callers
// never need to import internal packages.

// NewManager returns a manager with its own serial queue and the default
// logging observer. historyMode selects history mode over squash mode.
func NewManager(historyMode bool) Manager {
	m, err := manager.New(Config{
		HistoryMode: historyMode,
		Queue:       taskqueue.NewSerialQueue(),
	})
	if err != nil {
		// Unreachable: the only construction error is a missing queue.
		panic(err)
	}
	return m
}

// NewManagerWithConfig returns a manager built from cfg. cfg.Queue is
// required; share one queue between managers that touch the same store.
func NewManagerWithConfig(cfg Config) (Manager, error) {
	return manager.New(cfg)
}

// Store constructors

// NewInMemoryRecordStore returns a RecordStore kept in process memory.
func NewInMemoryRecordStore() *persistence.InMemoryRecordStore {
	return persistence.NewInMemoryRecordStore()
}

// NewSQLiteRecordStore returns a RecordStore persisted in db. The caller
// imports the SQLite driver.
func NewSQLiteRecordStore(db *sql.DB) (*persistence.SQLiteRecordStore, error) {
	return persistence.NewSQLiteRecordStore(db)
}

// NewRedisRecordStore returns a RecordStore kept in Redis under prefix.
func NewRedisRecordStore(client *redis.Client, prefix string) *persistence.RedisRecordStore {
	return persistence.NewRedisRecordStore(client, prefix)
}

// NewInMemoryEventStore returns a history journal kept in process memory.
func NewInMemoryEventStore() *persistence.InMemoryEventStore {
	return persistence.NewInMemoryEventStore()
}

// NewSQLiteEventStore returns a history journal persisted in db.
func NewSQLiteEventStore(db *sql.DB) (*persistence.SQLiteEventStore, error) {
	return persistence.NewSQLiteEventStore(db)
}
