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

const feedbackCollection = "feedback"

type feedbackDocument struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	Rating    int           `bson:"rating"`
	Text      string        `bson:"text"`
	Email     string        `bson:"email"`
	Phone     string        `bson:"phone,omitempty"`
	Date      time.Time     `bson:"date"`
	Sentiment string        `bson:"sentiment"`
	IsSpam    bool          `bson:"is_spam"`
	CreatedAt time.Time     `bson:"created_at"`
}

func (d feedbackDocument) toModel() models.Feedback {
	return models.Feedback{
		ID:        d.ID.Hex(),
		Rating:    d.Rating,
		Text:      d.Text,
		Email:     d.Email,
		Phone:     d.Phone,
		Date:      d.Date,
		Sentiment: models.Sentiment(d.Sentiment),
		IsSpam:    d.IsSpam,
		CreatedAt: d.CreatedAt,
	}
}

type MongoFeedbackRepo struct {
	collection *mongo.Collection
}

func NewMongoFeedbackRepo(db *mongo.Database) *MongoFeedbackRepo {
	return &MongoFeedbackRepo{
		collection: db.Collection(feedbackCollection),
	}
}

func (r *MongoFeedbackRepo) Create(ctx context.Context, feedback *models.Feedback) error {
	doc := feedbackDocument{
		Rating:    feedback.Rating,
		Text:      feedback.Text,
		Email:     feedback.Email,
		Phone:     feedback.Phone,
		Date:      feedback.Date,
		Sentiment: string(feedback.Sentiment),
		IsSpam:    feedback.IsSpam,
		CreatedAt: time.Now(),
	}
	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	id, ok := result.InsertedID.(bson.ObjectID)
	if !ok {
		return fmt.Errorf("insert feedback: unexpected id type %T", result.InsertedID)
	}
	feedback.ID = id.Hex()
	feedback.CreatedAt = doc.CreatedAt
	return nil
}

func (r *MongoFeedbackRepo) LatestByEmail(ctx context.Context, email string) (*models.Feedback, error) {
	var doc feedbackDocument
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	err := r.collection.FindOne(ctx, bson.M{"email": email}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find latest feedback by email: %w", err)
	}
	fb := doc.toModel()
	return &fb, nil
}

func (r *MongoFeedbackRepo) ListNewestFirst(ctx context.Context) ([]models.Feedback, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []feedbackDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode feedback: %w", err)
	}

	out := make([]models.Feedback, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}

func (r *MongoFeedbackRepo) Delete(ctx context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return apperrors.NewNotFoundError(fmt.Sprintf("feedback %s not found", id))
	}
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete feedback: %w", err)
	}
	if result.DeletedCount == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("feedback %s not found", id))
	}
	return nil
}

// EnsureIndexes creates the indexes behind the rate-limit lookup and the
// newest-first listing. Neither enforces uniqueness.
func (r *MongoFeedbackRepo) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "email", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}
