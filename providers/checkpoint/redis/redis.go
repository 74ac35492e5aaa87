package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/leofalp/aigraph/providers/checkpoint"
)

// DefaultPrefix is prepended to every thread key.
const DefaultPrefix = "aigraph:checkpoint:"

// Store is a checkpoint.Checkpointer backed by Redis:
//
//	<prefix><thread id> => JSON encoded state
type Store struct {
	client goredis.UniversalClient
	prefix string
	ttl    time.Duration
	owned  bool
}

var _ checkpoint.Checkpointer = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithPrefix overrides DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithTTL expires saved threads after ttl. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// New returns a Store using client. The caller keeps ownership of client.
func New(client goredis.UniversalClient, opts ...Option) *Store {
	s := &Store{client: client, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open connects to a redis:// or rediss:// URL and pings the server. The
// returned Store closes the connection on Close.
func Open(ctx context.Context, url string, opts ...Option) (*Store, error) {
	redisOpts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis checkpoint: parse url: %w", err)
	}
	client := goredis.NewClient(redisOpts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis checkpoint: ping %s: %w", redisOpts.Addr, err)
	}
	s := New(client, opts...)
	s.owned = true
	return s, nil
}

func (s *Store) key(threadID string) string {
	return s.prefix + threadID
}

// Load returns the saved state of threadID.
func (s *Store) Load(ctx context.Context, threadID string) (map[string]any, bool, error) {
	if err := checkpoint.CheckThreadID(threadID); err != nil {
		return nil, false, err
	}

	data, err := s.client.Get(ctx, s.key(threadID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		checkpoint.Annotate(ctx, "redis", false)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis checkpoint: load %q: %w", threadID, err)
	}
	checkpoint.Annotate(ctx, "redis", true)

	state, err := checkpoint.Decode(data)
	if err != nil {
		return nil, false, err
	}
	return state, true, nil
}

// Save replaces the state of threadID and refreshes its TTL.
func (s *Store) Save(ctx context.Context, threadID string, state map[string]any) error {
	if err := checkpoint.CheckThreadID(threadID); err != nil {
		return err
	}
	data, err := checkpoint.Encode(state)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(threadID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis checkpoint: save %q: %w", threadID, err)
	}
	return nil
}

// Delete removes the saved state of threadID.
func (s *Store) Delete(ctx context.Context, threadID string) error {
	if err := s.client.Del(ctx, s.key(threadID)).Err(); err != nil {
		return fmt.Errorf("redis checkpoint: delete %q: %w", threadID, err)
	}
	return nil
}

// Close closes the client if Open created it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}
