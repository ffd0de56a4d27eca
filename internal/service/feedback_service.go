package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"feedback-backend/internal/apperrors"
	"feedback-backend/internal/metrics"
	"feedback-backend/internal/models"
	"feedback-backend/internal/notify"
	"feedback-backend/internal/repository"
)

const notifyTimeout = 10 * time.Second

// SubmitInput is what the public form sends.
type SubmitInput struct {
	Rating int    `json:"rating"`
	Text   string `json:"text"`
	Email  string `json:"email"`
	Phone  string `json:"phone,omitempty"`
}

type FeedbackService struct {
	repo     repository.FeedbackRepository
	limiter  *RateLimiter
	notifier notify.Notifier
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewFeedbackService(repo repository.FeedbackRepository, limiter *RateLimiter, notifier notify.Notifier, m *metrics.Metrics) *FeedbackService {
	if m == nil {
		m = metrics.Noop()
	}
	return &FeedbackService{
		repo:     repo,
		limiter:  limiter,
		notifier: notifier,
		metrics:  m,
		now:      time.Now,
	}
}

// Submit validates in order, stopping at the first failure, and stores the
// record. Nothing reaches storage unless every check passes.
func (s *FeedbackService) Submit(ctx context.Context, in SubmitInput) (*models.Feedback, error) {
	if err := validateSubmission(in); err != nil {
		s.metrics.Submissions.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, err
	}

	if !s.limiter.Allow(ctx, in.Email) {
		s.metrics.Submissions.WithLabelValues(metrics.OutcomeRateLimited).Inc()
		return nil, apperrors.NewRateLimitedError(s.limiter.Message())
	}

	fb := &models.Feedback{
		Rating:    in.Rating,
		Text:      in.Text,
		Email:     in.Email,
		Phone:     in.Phone,
		Date:      s.now(),
		Sentiment: models.SentimentForRating(in.Rating),
		IsSpam:    false,
	}
	if err := s.repo.Create(ctx, fb); err != nil {
		log.Error().Err(err).Str("email", in.Email).Msg("❌ Failed to store feedback")
		s.metrics.Submissions.WithLabelValues(metrics.OutcomeFailed).Inc()
		return nil, apperrors.NewExternalError("failed to submit feedback", err)
	}
	s.metrics.Submissions.WithLabelValues(metrics.OutcomeAccepted).Inc()

	if s.notifier != nil {
		go s.announce(*fb)
	}
	return fb, nil
}

func (s *FeedbackService) announce(fb models.Feedback) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	if err := s.notifier.Publish(ctx, notify.FormatFeedbackMessage(fb)); err != nil {
		log.Warn().Err(err).Str("feedback_id", fb.ID).Msg("⚠️  Failed to publish feedback notification")
	}
}

func validateSubmission(in SubmitInput) error {
	if in.Rating == 0 {
		return apperrors.NewValidationError("rating required")
	}
	if in.Rating < models.MinRating || in.Rating > models.MaxRating {
		return apperrors.NewValidationError("rating must be between 1 and 5")
	}
	if strings.TrimSpace(in.Text) == "" {
		return apperrors.NewValidationError("feedback required")
	}
	if strings.TrimSpace(in.Email) == "" {
		return apperrors.NewValidationError("email required")
	}
	return nil
}
