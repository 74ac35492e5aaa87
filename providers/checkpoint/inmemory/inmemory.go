package inmemory

import (
	"context"
	"sync"

	"github.com/leofalp/aigraph/providers/checkpoint"
)

// Store keeps thread states in process memory. It uses an RWMutex and is
// efficient for read-heavy workloads.
type Store struct {
	mu      sync.RWMutex
	threads map[string][]byte
}

// New returns an empty Store.
func New() *Store {
	return &Store{threads: map[string][]byte{}}
}

var _ checkpoint.Checkpointer = (*Store)(nil)

// Load returns a copy of the saved state of threadID.
func (s *Store) Load(ctx context.Context, threadID string) (map[string]any, bool, error) {
	if err := checkpoint.CheckThreadID(threadID); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	data, ok := s.threads[threadID]
	s.mu.RUnlock()

	checkpoint.Annotate(ctx, "memory", ok)
	if !ok {
		return nil, false, nil
	}
	state, err := checkpoint.Decode(data)
	if err != nil {
		return nil, false, err
	}
	return state, true, nil
}

// Save stores a snapshot of state under threadID.
func (s *Store) Save(_ context.Context, threadID string, state map[string]any) error {
	if err := checkpoint.CheckThreadID(threadID); err != nil {
		return err
	}
	data, err := checkpoint.Encode(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.threads[threadID] = data
	s.mu.Unlock()
	return nil
}

// Delete forgets threadID.
func (s *Store) Delete(_ context.Context, threadID string) error {
	s.mu.Lock()
	delete(s.threads, threadID)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored threads.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.threads)
}
