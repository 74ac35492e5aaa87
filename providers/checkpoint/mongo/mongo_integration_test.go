//go:build integration

package mongo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/leofalp/aigraph/providers/checkpoint"
	"github.com/leofalp/aigraph/providers/checkpoint/checkpointtest"
)

func startMongo(t *testing.T) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	container, err := testcontainers.Run(ctx, "mongo:7",
		testcontainers.WithExposedPorts("27017/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("27017/tcp").WithStartupTimeout(2*time.Minute),
		),
	)
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		t.Skipf("skipping mongo tests: %v", err)
	}

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "27017/tcp")
	require.NoError(t, err)
	if host == "" || host == "localhost" || host == "::1" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("mongodb://%s:%s", host, port.Port())
}

func TestStore_Integration(t *testing.T) {
	uri := startMongo(t)
	ctx := context.Background()

	store, err := Open(ctx, uri, "aigraph_test")
	require.NoError(t, err)
	defer store.Close(ctx)

	suite.Run(t, &checkpointtest.Suite{
		NewStore:     func() checkpoint.Checkpointer { return store },
		ThreadPrefix: t.Name() + "-",
	})

	require.NoError(t, store.Save(ctx, "gone", map[string]any{}))
	require.NoError(t, store.Delete(ctx, "gone"))
	_, found, err := store.Load(ctx, "gone")
	require.NoError(t, err)
	require.False(t, found)
}
