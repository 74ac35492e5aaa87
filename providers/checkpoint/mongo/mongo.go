package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/leofalp/aigraph/providers/checkpoint"
)

const (
	// DefaultDatabase is used when no database name is given.
	DefaultDatabase = "aigraph"
	// DefaultCollection is used when no collection name is given.
	DefaultCollection = "checkpoints"
)

// Store is a checkpoint.Checkpointer backed by a MongoDB collection.
type Store struct {
	coll   *mongo.Collection
	client *mongo.Client
}

var _ checkpoint.Checkpointer = (*Store)(nil)

// document is the stored shape. The state is kept as its JSON encoding so
// it round-trips exactly like the other stores.
type document struct {
	ThreadID  string    `bson:"_id"`
	State     []byte    `bson:"state"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// New returns a Store over dbName.collName. Empty names fall back to the
// defaults. The caller keeps ownership of client.
func New(client *mongo.Client, dbName, collName string) *Store {
	if dbName == "" {
		dbName = DefaultDatabase
	}
	if collName == "" {
		collName = DefaultCollection
	}
	return &Store{coll: client.Database(dbName).Collection(collName)}
}

// Open connects to uri, pings the primary and returns a Store that
// disconnects on Close. The database defaults to DefaultDatabase.
func Open(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo checkpoint: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo checkpoint: ping: %w", err)
	}
	s := New(client, dbName, "")
	s.client = client
	return s, nil
}

// Load returns the saved state of threadID.
func (s *Store) Load(ctx context.Context, threadID string) (map[string]any, bool, error) {
	if err := checkpoint.CheckThreadID(threadID); err != nil {
		return nil, false, err
	}

	var doc document
	err := s.coll.FindOne(ctx, bson.M{"_id": threadID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		checkpoint.Annotate(ctx, "mongo", false)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("mongo checkpoint: load %q: %w", threadID, err)
	}
	checkpoint.Annotate(ctx, "mongo", true)

	state, err := checkpoint.Decode(doc.State)
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

	doc := document{ThreadID: threadID, State: data, UpdatedAt: time.Now().UTC()}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": threadID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo checkpoint: save %q: %w", threadID, err)
	}
	return nil
}

// Delete removes the saved state of threadID.
func (s *Store) Delete(ctx context.Context, threadID string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": threadID}); err != nil {
		return fmt.Errorf("mongo checkpoint: delete %q: %w", threadID, err)
	}
	return nil
}

// Close disconnects the client if Open created it.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}
