package session

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const sessionCollection = "admin_sessions"

type sessionDocument struct {
	SessionID string    `bson:"session_id"`
	Username  string    `bson:"username"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

// MongoStore keeps sessions in a collection with a TTL index. Mongo's TTL
// sweep is lazy, so Exists also checks expires_at.
type MongoStore struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		collection: db.Collection(sessionCollection),
		now:        time.Now,
	}
}

func (s *MongoStore) Save(ctx context.Context, id, username string, ttl time.Duration) error {
	now := s.now()
	_, err := s.collection.InsertOne(ctx, sessionDocument{
		SessionID: id,
		Username:  username,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *MongoStore) Exists(ctx context.Context, id string) (bool, error) {
	count, err := s.collection.CountDocuments(ctx, bson.M{
		"session_id": id,
		"expires_at": bson.M{"$gt": s.now()},
	})
	if err != nil {
		return false, fmt.Errorf("failed to check session: %w", err)
	}
	return count > 0, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"session_id": id}); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// EnsureIndexes creates the lookup index and the TTL index that lets
// Mongo drop expired sessions on its own.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}
	_, err := s.collection.Indexes().CreateMany(ctx, indexes)
	return err
}
