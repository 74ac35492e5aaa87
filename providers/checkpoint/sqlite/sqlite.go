package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/leofalp/aigraph/providers/checkpoint"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

const defaultTable = "aigraph_checkpoints"

// Store is a checkpoint.Checkpointer backed by one SQLite table with a row
// per thread.
type Store struct {
	db    *sql.DB
	table string
	owned bool
}

var _ checkpoint.Checkpointer = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithTable overrides the table name ("aigraph_checkpoints").
func WithTable(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.table = name
		}
	}
}

// New creates the checkpoint table in db if needed and returns a Store using
// it. The caller keeps ownership of db.
func New(ctx context.Context, db *sql.DB, opts ...Option) (*Store, error) {
	s := &Store{db: db, table: defaultTable}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.initSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Open opens dsn with the SQLite driver and returns a Store that closes the
// database on Close.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite checkpoint: open %q: %w", dsn, err)
	}
	// SQLite allows one writer; a single connection also keeps
	// ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	s, err := New(ctx, db, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %q (
			thread_id  TEXT PRIMARY KEY,
			state      BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		);`, s.table))
	if err != nil {
		return fmt.Errorf("sqlite checkpoint: create table: %w", err)
	}
	return nil
}

// Load returns the saved state of threadID.
func (s *Store) Load(ctx context.Context, threadID string) (map[string]any, bool, error) {
	if err := checkpoint.CheckThreadID(threadID); err != nil {
		return nil, false, err
	}

	var data []byte
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT state FROM %q WHERE thread_id = ?`, s.table),
		threadID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		checkpoint.Annotate(ctx, "sqlite", false)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("sqlite checkpoint: load %q: %w", threadID, err)
	}
	checkpoint.Annotate(ctx, "sqlite", true)

	state, err := checkpoint.Decode(data)
	if err != nil {
		return nil, false, err
	}
	return state, true, nil
}

// Save upserts the state of threadID.
func (s *Store) Save(ctx context.Context, threadID string, state map[string]any) error {
	if err := checkpoint.CheckThreadID(threadID); err != nil {
		return err
	}
	data, err := checkpoint.Encode(state)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %q (thread_id, state, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(thread_id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`, s.table),
		threadID, data, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("sqlite checkpoint: save %q: %w", threadID, err)
	}
	return nil
}

// Delete removes the saved state of threadID.
func (s *Store) Delete(ctx context.Context, threadID string) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %q WHERE thread_id = ?`, s.table), threadID)
	if err != nil {
		return fmt.Errorf("sqlite checkpoint: delete %q: %w", threadID, err)
	}
	return nil
}

// Close closes the database if the Store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}
