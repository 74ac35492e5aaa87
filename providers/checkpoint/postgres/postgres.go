package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/leofalp/aigraph/providers/checkpoint"
)

const defaultTableName = "aigraph_checkpoints"

// Querier is the subset of pgx used by Store. *pgxpool.Pool, *pgx.Conn and
// pgx.Tx all satisfy it.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is a checkpoint.Checkpointer with one row per thread.
type Store struct {
	db        Querier
	tableName string
}

var _ checkpoint.Checkpointer = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithTableName overrides the default table name ("aigraph_checkpoints").
// The name is quoted with pgx.Identifier since it is formatted into SQL.
func WithTableName(name string) Option {
	return func(s *Store) {
		s.tableName = pgx.Identifier{name}.Sanitize()
	}
}

// New returns a Store over db.
func New(db Querier, opts ...Option) *Store {
	s := &Store{db: db, tableName: defaultTableName}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const createTableSQL = `CREATE TABLE IF NOT EXISTS %s (
    thread_id  TEXT PRIMARY KEY,
    state      JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// EnsureSchema creates the checkpoint table if it does not exist. Production
// deployments may prefer to manage it with their migration tooling.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, fmt.Sprintf(createTableSQL, s.tableName)); err != nil {
		return fmt.Errorf("postgres checkpoint: create table: %w", err)
	}
	return nil
}

// Load returns the saved state of threadID.
func (s *Store) Load(ctx context.Context, threadID string) (map[string]any, bool, error) {
	if err := checkpoint.CheckThreadID(threadID); err != nil {
		return nil, false, err
	}

	query := fmt.Sprintf(`SELECT state FROM %s WHERE thread_id = $1`, s.tableName)
	var data []byte
	err := s.db.QueryRow(ctx, query, threadID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		checkpoint.Annotate(ctx, "postgres", false)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("postgres checkpoint: load %q: %w", threadID, err)
	}
	checkpoint.Annotate(ctx, "postgres", true)

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

	query := fmt.Sprintf(`INSERT INTO %s (thread_id, state, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (thread_id) DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`, s.tableName)
	if _, err := s.db.Exec(ctx, query, threadID, data); err != nil {
		return fmt.Errorf("postgres checkpoint: save %q: %w", threadID, err)
	}
	return nil
}

// Delete removes the saved state of threadID.
func (s *Store) Delete(ctx context.Context, threadID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE thread_id = $1`, s.tableName)
	if _, err := s.db.Exec(ctx, query, threadID); err != nil {
		return fmt.Errorf("postgres checkpoint: delete %q: %w", threadID, err)
	}
	return nil
}
