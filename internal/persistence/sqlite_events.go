package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/petrijr/rewind/pkg/api"
)

// SQLiteEventStore keeps history journals in a single SQLite table. Rows of
// all journals share one autoincrement id, which fixes their append order.
type SQLiteEventStore struct {
	db *sql.DB
}

var (
	_ EventStore   = (*SQLiteEventStore)(nil)
	_ EventTrimmer = (*SQLiteEventStore)(nil)
)

// NewSQLiteEventStore creates the journal table in db if needed.
func NewSQLiteEventStore(db *sql.DB) (*SQLiteEventStore, error) {
	if _, err := db.Exec(historyEventsSchema); err != nil {
		return nil, err
	}
	return &SQLiteEventStore{db: db}, nil
}

const historyEventsSchema = `
	CREATE TABLE IF NOT EXISTS history_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		journal TEXT NOT NULL,
		at INTEGER NOT NULL,
		type TEXT NOT NULL,
		entry_id TEXT NOT NULL DEFAULT '',
		scope TEXT NOT NULL DEFAULT '',
		mirrored INTEGER NOT NULL DEFAULT 0,
		detail TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_history_events_journal ON history_events(journal, id);`

func (s *SQLiteEventStore) AppendEvent(ctx context.Context, ev api.HistoryEvent) error {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO history_events (journal, at, type, entry_id, scope, mirrored, detail)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.Journal, ev.At.UnixNano(), string(ev.Type), ev.EntryID, ev.Scope, ev.Mirrored, ev.Detail,
	)
	return err
}

func (s *SQLiteEventStore) ListEvents(ctx context.Context, journal string) ([]api.HistoryEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT journal, at, type, entry_id, scope, mirrored, detail
		 FROM history_events WHERE journal = ? ORDER BY id`, journal)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []api.HistoryEvent
	for rows.Next() {
		ev, err := scanHistoryEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// TrimEvents deletes all but the newest keep events of journal.
func (s *SQLiteEventStore) TrimEvents(ctx context.Context, journal string, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM history_events
		 WHERE journal = ? AND id NOT IN (
			SELECT id FROM history_events WHERE journal = ? ORDER BY id DESC LIMIT ?
		 )`, journal, journal, keep)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func scanHistoryEvent(rows *sql.Rows) (api.HistoryEvent, error) {
	var (
		ev  api.HistoryEvent
		at  int64
		typ string
	)
	if err := rows.Scan(&ev.Journal, &at, &typ, &ev.EntryID, &ev.Scope, &ev.Mirrored, &ev.Detail); err != nil {
		return api.HistoryEvent{}, err
	}
	ev.At = time.Unix(0, at)
	ev.Type = api.EventType(typ)
	return ev, nil
}
