package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"feedback-backend/internal/apperrors"
	"feedback-backend/internal/metrics"
	"feedback-backend/internal/models"
	"feedback-backend/internal/password"
	"feedback-backend/internal/repository"
)

const minPasswordLength = 6

// SessionIssuer is the part of session.Manager the admin service needs.
type SessionIssuer interface {
	Issue(ctx context.Context, username string) (string, time.Time, error)
	Revoke(ctx context.Context, token string) error
}

// LoginResult is returned to the dashboard after a successful login.
type LoginResult struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

type AdminService struct {
	repo     repository.AdminRepository
	sessions SessionIssuer
	metrics  *metrics.Metrics
	hash     func(string) (string, error)
	now      func() time.Time
}

func NewAdminService(repo repository.AdminRepository, sessions SessionIssuer, m *metrics.Metrics) *AdminService {
	if m == nil {
		m = metrics.Noop()
	}
	return &AdminService{
		repo:     repo,
		sessions: sessions,
		metrics:  m,
		hash:     password.Hash,
		now:      time.Now,
	}
}

func (s *AdminService) Login(ctx context.Context, username, pw string) (*LoginResult, error) {
	if username == "" || pw == "" {
		s.metrics.Logins.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, apperrors.NewValidationError("username and password are required")
	}

	admin, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		s.metrics.Logins.WithLabelValues(metrics.OutcomeFailed).Inc()
		return nil, apperrors.NewExternalError("failed to look up admin", err)
	}
	if admin == nil || password.Verify(admin.PasswordHash, pw) != nil {
		log.Warn().Str("username", username).Msg("⚠️  Rejected admin login")
		s.metrics.Logins.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, apperrors.NewUnauthorizedError("invalid credentials")
	}

	token, expiresAt, err := s.sessions.Issue(ctx, admin.Username)
	if err != nil {
		s.metrics.Logins.WithLabelValues(metrics.OutcomeFailed).Inc()
		return nil, apperrors.NewInternalError("failed to start session", err)
	}

	s.metrics.Logins.WithLabelValues(metrics.OutcomeAccepted).Inc()
	log.Info().Str("username", admin.Username).Msg("🔐 Admin logged in")
	return &LoginResult{Token: token, Username: admin.Username, ExpiresAt: expiresAt}, nil
}

func (s *AdminService) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Revoke(ctx, token); err != nil {
		return apperrors.NewInternalError("failed to end session", err)
	}
	return nil
}

// ChangePassword checks the current password first, then the new one's
// length, then that it was typed the same way twice.
func (s *AdminService) ChangePassword(ctx context.Context, username, current, newPassword, confirm string) error {
	admin, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return apperrors.NewExternalError("failed to look up admin", err)
	}
	if admin == nil {
		return apperrors.NewUnauthorizedError("admin not found")
	}

	if err := password.Verify(admin.PasswordHash, current); err != nil {
		if !errors.Is(err, password.ErrMismatch) {
			log.Error().Err(err).Str("username", username).Msg("❌ Stored admin password hash is unreadable")
		}
		return apperrors.NewValidationError("current password is incorrect")
	}
	if len(newPassword) < minPasswordLength {
		return apperrors.NewValidationError("new password must be at least 6 characters")
	}
	if newPassword != confirm {
		return apperrors.NewValidationError("passwords do not match")
	}

	hashed, err := s.hash(newPassword)
	if err != nil {
		return apperrors.NewInternalError("failed to hash password", err)
	}
	if err := s.repo.UpdatePassword(ctx, username, hashed); err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return err
		}
		return apperrors.NewExternalError("failed to update password", err)
	}

	log.Info().Str("username", username).Msg("🔑 Admin password changed")
	return nil
}

// EnsureSeedAdmin creates the configured admin if it does not exist yet.
// An existing account keeps its password.
func (s *AdminService) EnsureSeedAdmin(ctx context.Context, username, pw string) error {
	existing, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	hashed, err := s.hash(pw)
	if err != nil {
		return err
	}
	now := s.now()
	if err := s.repo.Create(ctx, &models.Admin{
		Username:     username,
		PasswordHash: hashed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}); err != nil {
		return err
	}
	log.Info().Str("username", username).Msg("👤 Seeded admin account")
	return nil
}
