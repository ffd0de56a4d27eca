package repository

import (
	"context"

	"feedback-backend/internal/models"
)

//go:generate mockgen -source=./repository.go -package=repomocks -destination=mocks/repository.mock.go FeedbackRepository,AdminRepository

// FeedbackRepository is the storage collaborator for feedback records.
// Implementations assign ID and CreatedAt on Create.
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *models.Feedback) error
	// LatestByEmail returns the newest record for email by creation time,
	// or nil when there is none.
	LatestByEmail(ctx context.Context, email string) (*models.Feedback, error)
	// ListNewestFirst returns every record ordered by creation time descending.
	ListNewestFirst(ctx context.Context) ([]models.Feedback, error)
	// Delete removes one record. A missing id yields a NOT_FOUND AppError.
	Delete(ctx context.Context, id string) error
}

type AdminRepository interface {
	// FindByUsername returns nil when the admin does not exist.
	FindByUsername(ctx context.Context, username string) (*models.Admin, error)
	Create(ctx context.Context, admin *models.Admin) error
	UpdatePassword(ctx context.Context, username, passwordHash string) error
}
