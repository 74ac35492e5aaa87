package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/leofalp/aigraph/providers/checkpoint"
	"github.com/leofalp/aigraph/providers/checkpoint/checkpointtest"
)

func openMemory(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_Conformance(t *testing.T) {
	suite.Run(t, &checkpointtest.Suite{
		NewStore: func() checkpoint.Checkpointer { return openMemory(t) },
	})
}

func TestStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "checkpoints.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "t1", map[string]any{"step": 3}))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	got, found, err := s.Load(ctx, "t1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, float64(3), got["step"])
}

func TestStore_CustomTableAndDelete(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t, WithTable("runs"))

	require.NoError(t, s.Save(ctx, "t1", map[string]any{"v": "x"}))

	var n int
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM "runs"`).Scan(&n))
	assert.Equal(t, 1, n)

	require.NoError(t, s.Delete(ctx, "t1"))
	_, found, err := s.Load(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_CallerOwnsDB(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open(DriverName, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	defer db.Close()

	s, err := New(ctx, db)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// db stays usable
	require.NoError(t, s.Save(ctx, "t1", map[string]any{}))
}

func TestStore_CorruptRow(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	_, err := s.db.ExecContext(ctx, `INSERT INTO "aigraph_checkpoints" (thread_id, state, updated_at) VALUES ('bad', 'not json', 0)`)
	require.NoError(t, err)

	_, _, err = s.Load(ctx, "bad")
	assert.ErrorContains(t, err, "decode state")
}
