package rewind

import (
	"database/sql"
	"log/slog"

	"github.com/petrijr/rewind/internal/persistence"
	"github.com/petrijr/rewind/pkg/taskqueue"
)

// SQLiteBundleConfig configures NewSQLiteBundle.
type SQLiteBundleConfig struct {
	HistoryMode bool
	MaxHistory  int

	// Journal names the event journal. Defaults to "default".
	Journal string

	// MaxJournalEvents keeps only the newest events of the journal. Zero
	// keeps everything.
	MaxJournalEvents int

	// Logger is used by the logging and journal observers. Defaults to
	// slog.Default().
	Logger *slog.Logger

	// Observer receives callbacks in addition to logging and journaling.
	Observer Observer
}

// SQLiteBundle wires together a SQLite record store, a SQLite history
// journal and a Manager sharing the same database.
type SQLiteBundle struct {
	Manager Manager
	Store   *persistence.SQLiteRecordStore
	Events  *persistence.SQLiteEventStore
	Journal *JournalObserver
}

// NewSQLiteBundle constructs a store, journal and manager on db.
//
// Typical usage:
//
//	db, _ := sql.Open("sqlite", "file:rewind.db?_pragma=journal_mode(WAL)")
//	bundle, err := rewind.NewSQLiteBundle(db, rewind.SQLiteBundleConfig{HistoryMode: true})
//	bundle.Manager.Record(ctx, rewind.SetRecord(bundle.Store, "k", "v"))
//
// Records and journal events outlive the process; the undo/redo stacks do
// not.
func NewSQLiteBundle(db *sql.DB, cfg SQLiteBundleConfig) (*SQLiteBundle, error) {
	store, err := persistence.NewSQLiteRecordStore(db)
	if err != nil {
		return nil, err
	}

	events, err := persistence.NewSQLiteEventStore(db)
	if err != nil {
		return nil, err
	}

	name := cfg.Journal
	if name == "" {
		name = "default"
	}
	journal := NewJournalObserver(events, name, cfg.Logger)
	journal.MaxEvents = cfg.MaxJournalEvents

	mgr, err := NewManagerWithConfig(Config{
		HistoryMode: cfg.HistoryMode,
		MaxHistory:  cfg.MaxHistory,
		Queue:       taskqueue.NewSerialQueue(),
		Observer:    NewCompositeObserver(NewLoggingObserver(cfg.Logger), journal, cfg.Observer),
	})
	if err != nil {
		return nil, err
	}

	return &SQLiteBundle{
		Manager: mgr,
		Store:   store,
		Events:  events,
		Journal: journal,
	}, nil
}
