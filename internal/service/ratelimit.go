package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"feedback-backend/internal/metrics"
	"feedback-backend/internal/repository"
)

// DefaultRateLimitWindow is one submission per email per rolling day.
const DefaultRateLimitWindow = 24 * time.Hour

// RateLimiter decides whether an email may submit again. It reads the
// newest prior record and compares its age with the window. The check is
// advisory: two concurrent submissions for the same email can both pass.
type RateLimiter struct {
	repo    repository.FeedbackRepository
	window  time.Duration
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewRateLimiter(repo repository.FeedbackRepository, window time.Duration, m *metrics.Metrics) *RateLimiter {
	if window <= 0 {
		window = DefaultRateLimitWindow
	}
	if m == nil {
		m = metrics.Noop()
	}
	return &RateLimiter{
		repo:    repo,
		window:  window,
		metrics: m,
		now:     time.Now,
	}
}

// Allow fails open: if the lookup errors the submission goes through and
// the fault is only logged.
func (l *RateLimiter) Allow(ctx context.Context, email string) bool {
	latest, err := l.repo.LatestByEmail(ctx, email)
	if err != nil {
		log.Warn().Err(err).Str("email", email).Msg("⚠️  Rate limit check failed, allowing submission")
		l.metrics.RateLimitChecks.WithLabelValues(metrics.RateLimitFailOpen).Inc()
		return true
	}
	if latest == nil || l.now().Sub(latest.CreatedAt) >= l.window {
		l.metrics.RateLimitChecks.WithLabelValues(metrics.RateLimitAllowed).Inc()
		return true
	}
	l.metrics.RateLimitChecks.WithLabelValues(metrics.RateLimitDenied).Inc()
	return false
}

// Message is what a denied submitter is told.
func (l *RateLimiter) Message() string {
	return "one submission per " + describeWindow(l.window)
}

func describeWindow(d time.Duration) string {
	switch {
	case d == time.Hour:
		return "hour"
	case d%time.Hour == 0:
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	case d == time.Minute:
		return "minute"
	case d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	default:
		return d.String()
	}
}
