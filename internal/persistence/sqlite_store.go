package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SQLiteRecordStore is a RecordStore backed by SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing
// the driver, e.g.:
//
//	import _ "modernc.org/sqlite"
//
// Values are gob-encoded with EncodeValue.
type SQLiteRecordStore struct {
	db *sql.DB
}

// Ensure SQLiteRecordStore implements RecordStore.
var _ RecordStore = (*SQLiteRecordStore)(nil)

// NewSQLiteRecordStore initializes the required schema in the given
// database and returns a new SQLiteRecordStore.
func NewSQLiteRecordStore(db *sql.DB) (*SQLiteRecordStore, error) {
	s := &SQLiteRecordStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteRecordStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS records (
			key TEXT PRIMARY KEY,
			value BLOB,
			version INTEGER NOT NULL,
			deleted INTEGER NOT NULL DEFAULT 0,
			last_mutation TEXT NOT NULL DEFAULT '',
			updated_at INTEGER NOT NULL
		);`,
	)
	return err
}

func (s *SQLiteRecordStore) Get(ctx context.Context, key string) (Record, error) {
	return getRecord(s.db.QueryRowContext(ctx, selectRecord, key))
}

func (s *SQLiteRecordStore) Apply(ctx context.Context, m Mutation) (Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, err
	}
	defer func() { _ = tx.Rollback() }()

	cur, err := getRecord(tx.QueryRowContext(ctx, selectRecord, m.Key))
	if err != nil && !errors.Is(err, ErrRecordNotFound) {
		return Record{}, err
	}

	rec, err := next(cur, m, time.Now())
	if err != nil {
		return Record{}, err
	}

	value, err := EncodeValue(rec.Value)
	if err != nil {
		return Record{}, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO records (key, value, version, deleted, last_mutation, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			version = excluded.version,
			deleted = excluded.deleted,
			last_mutation = excluded.last_mutation,
			updated_at = excluded.updated_at`,
		rec.Key,
		value,
		rec.Version,
		rec.Deleted,
		rec.LastMutation,
		rec.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return Record{}, err
	}

	if err := tx.Commit(); err != nil {
		return Record{}, err
	}
	return rec, nil
}

const selectRecord = `
	SELECT key, value, version, deleted, last_mutation, updated_at
	FROM records
	WHERE key = ?`

func getRecord(row *sql.Row) (Record, error) {
	var (
		rec     Record
		value   []byte
		deleted bool
		updated int64
	)
	if err := row.Scan(&rec.Key, &value, &rec.Version, &deleted, &rec.LastMutation, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrRecordNotFound
		}
		return Record{}, err
	}

	v, err := DecodeValue(value)
	if err != nil {
		return Record{}, err
	}
	rec.Value = v
	rec.Deleted = deleted
	rec.UpdatedAt = time.Unix(0, updated)
	return rec, nil
}
