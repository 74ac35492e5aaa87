package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/leofalp/aigraph/providers/checkpoint"
	"github.com/leofalp/aigraph/providers/checkpoint/inmemory"
	"github.com/leofalp/aigraph/providers/checkpoint/mongo"
	"github.com/leofalp/aigraph/providers/checkpoint/postgres"
	"github.com/leofalp/aigraph/providers/checkpoint/redis"
	"github.com/leofalp/aigraph/providers/checkpoint/sqlite"
)

// store pairs a checkpointer with the cleanup of its connection.
type store struct {
	checkpoint.Checkpointer
	Backend string
	Close   func(ctx context.Context) error
}

func noClose(context.Context) error { return nil }

// openCheckpointer selects a backend from an AIGRAPH_CHECKPOINT value:
//
//	""                    no checkpointing
//	memory                process memory (useful with -thread in tests)
//	sqlite://<path>       SQLite file, sqlite://:memory: for a throwaway db
//	redis://... rediss:// Redis
//	mongodb://... mongodb+srv://...
//	postgres://... postgresql://...
func openCheckpointer(ctx context.Context, spec string) (*store, error) {
	spec = strings.TrimSpace(spec)
	scheme, _, _ := strings.Cut(spec, "://")

	switch strings.ToLower(scheme) {
	case "":
		return nil, nil
	case "memory", "inmemory":
		return &store{Checkpointer: inmemory.New(), Backend: "memory", Close: noClose}, nil

	case "sqlite":
		s, err := sqlite.Open(ctx, strings.TrimPrefix(spec, scheme+"://"))
		if err != nil {
			return nil, err
		}
		return &store{Checkpointer: s, Backend: "sqlite", Close: func(context.Context) error { return s.Close() }}, nil

	case "redis", "rediss":
		s, err := redis.Open(ctx, spec)
		if err != nil {
			return nil, err
		}
		return &store{Checkpointer: s, Backend: "redis", Close: func(context.Context) error { return s.Close() }}, nil

	case "mongodb", "mongodb+srv":
		s, err := mongo.Open(ctx, spec, "")
		if err != nil {
			return nil, err
		}
		return &store{Checkpointer: s, Backend: "mongo", Close: s.Close}, nil

	case "postgres", "postgresql":
		pool, err := pgxpool.New(ctx, spec)
		if err != nil {
			return nil, fmt.Errorf("postgres checkpoint: connect: %w", err)
		}
		s := postgres.New(pool)
		if err := s.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return &store{Checkpointer: s, Backend: "postgres", Close: func(context.Context) error { pool.Close(); return nil }}, nil
	}
	return nil, fmt.Errorf("unsupported AIGRAPH_CHECKPOINT %q", spec)
}
