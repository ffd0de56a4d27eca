package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"feedback-backend/internal/apperrors"
	"feedback-backend/internal/models"
)

const adminCollection = "admins"

type adminDocument struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	Username     string        `bson:"username"`
	PasswordHash string        `bson:"password_hash"`
	CreatedAt    time.Time     `bson:"created_at"`
	UpdatedAt    time.Time     `bson:"updated_at"`
}

type MongoAdminRepo struct {
	collection *mongo.Collection
}

func NewMongoAdminRepo(db *mongo.Database) *MongoAdminRepo {
	return &MongoAdminRepo{
		collection: db.Collection(adminCollection),
	}
}

func (r *MongoAdminRepo) FindByUsername(ctx context.Context, username string) (*models.Admin, error) {
	var doc adminDocument
	err := r.collection.FindOne(ctx, bson.M{"username": username}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find admin: %w", err)
	}
	return &models.Admin{
		Username:     doc.Username,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}, nil
}

func (r *MongoAdminRepo) Create(ctx context.Context, admin *models.Admin) error {
	now := time.Now()
	admin.CreatedAt = now
	admin.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, adminDocument{
		Username:     admin.Username,
		PasswordHash: admin.PasswordHash,
		CreatedAt:    admin.CreatedAt,
		UpdatedAt:    admin.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}

func (r *MongoAdminRepo) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"username": username}, bson.M{
		"$set": bson.M{
			"password_hash": passwordHash,
			"updated_at":    time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("update admin password: %w", err)
	}
	if result.MatchedCount == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("admin %s not found", username))
	}
	return nil
}

// EnsureIndexes creates necessary indexes for the admins collection
func (r *MongoAdminRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
