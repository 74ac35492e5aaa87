//go:build integration

package postgres

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/leofalp/aigraph/providers/checkpoint"
	"github.com/leofalp/aigraph/providers/checkpoint/checkpointtest"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("aigraph_test"),
		tcpostgres.WithUsername("aigraph"),
		tcpostgres.WithPassword("aigraph"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		log.Fatalf("postgres checkpoint: failed to start container: %v", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("postgres checkpoint: connection string: %v", err)
	}
	testPool, err = pgxpool.New(ctx, connStr)
	if err != nil {
		log.Fatalf("postgres checkpoint: create pool: %v", err)
	}
	if err := New(testPool).EnsureSchema(ctx); err != nil {
		log.Fatalf("postgres checkpoint: create schema: %v", err)
	}

	code := m.Run()

	testPool.Close()
	if err := testcontainers.TerminateContainer(container); err != nil {
		log.Printf("postgres checkpoint: terminate container: %v", err)
	}
	os.Exit(code)
}

func TestStore_Integration(t *testing.T) {
	suite.Run(t, &checkpointtest.Suite{
		NewStore:     func() checkpoint.Checkpointer { return New(testPool) },
		ThreadPrefix: t.Name() + "-",
	})
}

func TestStore_TransactionScoped(t *testing.T) {
	ctx := context.Background()
	tx, err := testPool.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}
	store := New(tx)
	if err := store.Save(ctx, "tx-thread", map[string]any{"v": 1}); err != nil {
		t.Fatal(err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatal(err)
	}

	_, found, err := New(testPool).Load(ctx, "tx-thread")
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Error("rolled back save must not be visible")
	}
}
