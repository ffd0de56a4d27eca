package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"

	"feedback-backend/internal/apperrors"
	"feedback-backend/internal/models"
)

const feedbackTable = "feedback"

var feedbackColumns = []interface{}{
	"id", "rating", "text", "email", "phone",
	"date", "sentiment", "is_spam", "created_at",
}

// PostgresFeedbackRepo stores feedback in a Postgres table. The database
// assigns id and created_at.
type PostgresFeedbackRepo struct {
	db *sql.DB
	qb *goqu.Database
}

func NewPostgresFeedbackRepo(db *sql.DB) *PostgresFeedbackRepo {
	return &PostgresFeedbackRepo{
		db: db,
		qb: goqu.New("postgres", db),
	}
}

func (r *PostgresFeedbackRepo) Create(ctx context.Context, feedback *models.Feedback) error {
	record := goqu.Record{
		"rating":    feedback.Rating,
		"text":      feedback.Text,
		"email":     feedback.Email,
		"phone":     sql.NullString{String: feedback.Phone, Valid: feedback.Phone != ""},
		"date":      feedback.Date,
		"sentiment": string(feedback.Sentiment),
		"is_spam":   feedback.IsSpam,
	}

	query, args, err := r.qb.Insert(feedbackTable).
		Rows(record).
		Returning("id", "created_at").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build feedback insert: %w", err)
	}

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&feedback.ID, &feedback.CreatedAt); err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

func (r *PostgresFeedbackRepo) LatestByEmail(ctx context.Context, email string) (*models.Feedback, error) {
	query, args, err := r.qb.Select(feedbackColumns...).
		From(feedbackTable).
		Where(goqu.Ex{"email": email}).
		Order(goqu.I("created_at").Desc()).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build latest feedback query: %w", err)
	}

	fb, err := scanFeedback(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find latest feedback by email: %w", err)
	}
	return fb, nil
}

func (r *PostgresFeedbackRepo) ListNewestFirst(ctx context.Context) ([]models.Feedback, error) {
	query, args, err := r.qb.Select(feedbackColumns...).
		From(feedbackTable).
		Order(goqu.I("created_at").Desc()).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build feedback list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	out := []models.Feedback{}
	for rows.Next() {
		fb, err := scanFeedback(rows)
		if err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		out = append(out, *fb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback: %w", err)
	}
	return out, nil
}

func (r *PostgresFeedbackRepo) Delete(ctx context.Context, id string) error {
	// ids are uuids; anything else cannot exist
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.NewNotFoundError(fmt.Sprintf("feedback %s not found", id))
	}

	query, args, err := r.qb.Delete(feedbackTable).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build feedback delete: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete feedback: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete feedback rows affected: %w", err)
	}
	if affected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("feedback %s not found", id))
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFeedback(row rowScanner) (*models.Feedback, error) {
	var (
		fb        models.Feedback
		phone     sql.NullString
		sentiment string
	)
	err := row.Scan(
		&fb.ID,
		&fb.Rating,
		&fb.Text,
		&fb.Email,
		&phone,
		&fb.Date,
		&sentiment,
		&fb.IsSpam,
		&fb.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	fb.Phone = phone.String
	fb.Sentiment = models.Sentiment(sentiment)
	return &fb, nil
}
