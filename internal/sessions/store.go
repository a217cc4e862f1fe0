package sessions

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store persists the locally cached session so it survives restarts.
// Load returns (nil, nil) when nothing is stored under key.
type Store interface {
	Save(ctx context.Context, key string, s *Session) error
	Load(ctx context.Context, key string) (*Session, error)
	Delete(ctx context.Context, key string) error
}

// MemoryStore keeps sessions in process memory; used by default and in tests.
type MemoryStore struct {
	mu    sync.RWMutex
	store map[string]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{store: make(map[string]*Session)}
}

func (m *MemoryStore) Save(ctx context.Context, key string, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[key] = s.Clone()
	return nil
}

func (m *MemoryStore) Load(ctx context.Context, key string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.store[key].Clone(), nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, key)
	return nil
}

// MongoStore implements Store using a Mongo collection, one document per key.
type MongoStore struct {
	col *mongo.Collection
}

type storedSession struct {
	Key       string    `bson:"_id"`
	Session   Session   `bson:"session"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func NewMongoStore(col *mongo.Collection) *MongoStore {
	return &MongoStore{col: col}
}

func (r *MongoStore) Save(ctx context.Context, key string, s *Session) error {
	doc := storedSession{Key: key, Session: *s, UpdatedAt: time.Now().UTC()}
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	return err
}

func (r *MongoStore) Load(ctx context.Context, key string) (*Session, error) {
	var doc storedSession
	if err := r.col.FindOne(ctx, bson.M{"_id": key}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &doc.Session, nil
}

func (r *MongoStore) Delete(ctx context.Context, key string) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": key})
	return err
}
