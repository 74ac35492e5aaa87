package mongo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/leofalp/aigraph/providers/checkpoint"
)

// newClient builds a client without connecting; no server is needed.
func newClient(t *testing.T) *mongo.Client {
	t.Helper()
	client, err := mongo.NewClient(options.Client().ApplyURI("mongodb://localhost:27017"))
	require.NoError(t, err)
	return client
}

func TestNew_DefaultNames(t *testing.T) {
	s := New(newClient(t), "", "")
	assert.Equal(t, DefaultDatabase, s.coll.Database().Name())
	assert.Equal(t, DefaultCollection, s.coll.Name())

	s = New(newClient(t), "app", "runs")
	assert.Equal(t, "app", s.coll.Database().Name())
	assert.Equal(t, "runs", s.coll.Name())
}

func TestDocument_BSONShape(t *testing.T) {
	raw, err := bson.Marshal(document{ThreadID: "t1", State: []byte(`{"a":1}`)})
	require.NoError(t, err)

	var m bson.M
	require.NoError(t, bson.Unmarshal(raw, &m))
	assert.Equal(t, "t1", m["_id"])
	assert.Contains(t, m, "state")
	assert.Contains(t, m, "updated_at")
}

func TestStore_EmptyThreadID(t *testing.T) {
	s := New(newClient(t), "", "")
	_, _, err := s.Load(context.Background(), "")
	assert.ErrorIs(t, err, checkpoint.ErrEmptyThreadID)
	assert.ErrorIs(t, s.Save(context.Background(), "", nil), checkpoint.ErrEmptyThreadID)
	assert.NoError(t, s.Close(context.Background()))
}
