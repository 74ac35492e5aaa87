// Package checkpointtest holds a testify suite every checkpoint.Checkpointer
// implementation is expected to pass.
package checkpointtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/stretchr/testify/suite"

	"github.com/leofalp/aigraph/providers/checkpoint"
)

// Suite exercises a Checkpointer. NewStore is called before every test;
// ThreadPrefix keeps runs against a shared backend apart.
type Suite struct {
	suite.Suite
	NewStore     func() checkpoint.Checkpointer
	ThreadPrefix string

	store checkpoint.Checkpointer
	ctx   context.Context
}

func (s *Suite) SetupTest() {
	s.Require().NotNil(s.NewStore, "NewStore must be set")
	s.store = s.NewStore()
	s.ctx = context.Background()
}

func (s *Suite) thread(name string) string {
	return s.ThreadPrefix + name
}

func (s *Suite) TestLoadMissingThread() {
	state, found, err := s.store.Load(s.ctx, s.thread("missing"))
	s.Require().NoError(err)
	s.False(found)
	s.Nil(state)
}

func (s *Suite) TestSaveAndLoad() {
	saved := map[string]any{
		"messages": []any{
			map[string]any{"id": "m1", "role": "user", "content": "hi"},
		},
		"score": 85,
		"done":  true,
		"notes": nil,
	}
	s.Require().NoError(s.store.Save(s.ctx, s.thread("t1"), saved))

	got, found, err := s.store.Load(s.ctx, s.thread("t1"))
	s.Require().NoError(err)
	s.Require().True(found)
	s.Equal(float64(85), got["score"])
	s.Equal(true, got["done"])
	s.Contains(got, "notes")
	s.Equal([]any{map[string]any{"id": "m1", "role": "user", "content": "hi"}}, got["messages"])
}

func (s *Suite) TestSaveOverwrites() {
	id := s.thread("t2")
	s.Require().NoError(s.store.Save(s.ctx, id, map[string]any{"v": 1, "old": "x"}))
	s.Require().NoError(s.store.Save(s.ctx, id, map[string]any{"v": 2}))

	got, found, err := s.store.Load(s.ctx, id)
	s.Require().NoError(err)
	s.Require().True(found)
	s.Equal(map[string]any{"v": float64(2)}, got)
}

func (s *Suite) TestThreadsAreIndependent() {
	s.Require().NoError(s.store.Save(s.ctx, s.thread("a"), map[string]any{"who": "a"}))
	s.Require().NoError(s.store.Save(s.ctx, s.thread("b"), map[string]any{"who": "b"}))

	a, _, err := s.store.Load(s.ctx, s.thread("a"))
	s.Require().NoError(err)
	b, _, err := s.store.Load(s.ctx, s.thread("b"))
	s.Require().NoError(err)
	s.Equal("a", a["who"])
	s.Equal("b", b["who"])
}

func (s *Suite) TestEmptyThreadID() {
	_, _, err := s.store.Load(s.ctx, "")
	s.ErrorIs(err, checkpoint.ErrEmptyThreadID)
	s.ErrorIs(s.store.Save(s.ctx, "", map[string]any{}), checkpoint.ErrEmptyThreadID)
}

func (s *Suite) TestConcurrentSaves() {
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := s.thread(fmt.Sprintf("c%d", i))
			s.NoError(s.store.Save(s.ctx, id, map[string]any{"i": i}))
		}()
	}
	wg.Wait()

	for i := range 8 {
		got, found, err := s.store.Load(s.ctx, s.thread(fmt.Sprintf("c%d", i)))
		s.Require().NoError(err)
		s.True(found)
		s.Equal(float64(i), got["i"])
	}
}
