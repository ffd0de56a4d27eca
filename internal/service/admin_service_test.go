package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"feedback-backend/internal/apperrors"
	"feedback-backend/internal/models"
	"feedback-backend/internal/password"
	repomocks "feedback-backend/internal/repository/mocks"
)

var cheapParams = &password.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}

func cheapHash(t *testing.T, pw string) string {
	t.Helper()
	h, err := password.HashWithParams(pw, cheapParams)
	require.NoError(t, err)
	return h
}

type fakeSessions struct {
	issued  []string
	revoked []string
	err     error
}

func (f *fakeSessions) Issue(ctx context.Context, username string) (string, time.Time, error) {
	if f.err != nil {
		return "", time.Time{}, f.err
	}
	f.issued = append(f.issued, username)
	return "token-for-" + username, baseTime.Add(time.Hour), nil
}

func (f *fakeSessions) Revoke(ctx context.Context, token string) error {
	if f.err != nil {
		return f.err
	}
	f.revoked = append(f.revoked, token)
	return nil
}

func newTestAdminService(repo *repomocks.MockAdminRepository, sessions *fakeSessions) *AdminService {
	svc := NewAdminService(repo, sessions, nil)
	svc.hash = func(pw string) (string, error) { return password.HashWithParams(pw, cheapParams) }
	svc.now = func() time.Time { return baseTime }
	return svc
}

func TestAdminService_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := repomocks.NewMockAdminRepository(ctrl)
	sessions := &fakeSessions{}
	svc := newTestAdminService(repo, sessions)

	stored := &models.Admin{Username: "admin", PasswordHash: cheapHash(t, "admin123")}
	repo.EXPECT().FindByUsername(gomock.Any(), "admin").Return(stored, nil).Times(2)
	repo.EXPECT().FindByUsername(gomock.Any(), "ghost").Return(nil, nil)

	res, err := svc.Login(context.Background(), "admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, "token-for-admin", res.Token)
	assert.Equal(t, "admin", res.Username)
	assert.Equal(t, baseTime.Add(time.Hour), res.ExpiresAt)

	_, err = svc.Login(context.Background(), "admin", "wrong")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnauthorized))

	_, err = svc.Login(context.Background(), "ghost", "admin123")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnauthorized))

	_, err = svc.Login(context.Background(), "", "")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	assert.Equal(t, []string{"admin"}, sessions.issued)
}

func TestAdminService_LoginStorageError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := repomocks.NewMockAdminRepository(ctrl)
	svc := newTestAdminService(repo, &fakeSessions{})

	repo.EXPECT().FindByUsername(gomock.Any(), "admin").Return(nil, errors.New("down"))
	_, err := svc.Login(context.Background(), "admin", "admin123")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
}

func TestAdminService_Logout(t *testing.T) {
	sessions := &fakeSessions{}
	svc := newTestAdminService(nil, sessions)

	require.NoError(t, svc.Logout(context.Background(), "tok"))
	assert.Equal(t, []string{"tok"}, sessions.revoked)

	sessions.err = errors.New("redis down")
	assert.True(t, apperrors.IsType(svc.Logout(context.Background(), "tok"), apperrors.ErrorTypeInternal))
}

func TestAdminService_ChangePassword(t *testing.T) {
	testCases := []struct {
		name     string
		current  string
		next     string
		confirm  string
		wantMsg  string
		persists bool
	}{
		{name: "wrong current password", current: "nope", next: "secret1", confirm: "secret1", wantMsg: "current password is incorrect"},
		{name: "wrong current beats short new", current: "nope", next: "x", confirm: "y", wantMsg: "current password is incorrect"},
		{name: "too short", current: "admin123", next: "12345", confirm: "12345", wantMsg: "new password must be at least 6 characters"},
		{name: "short beats mismatch", current: "admin123", next: "123", confirm: "456", wantMsg: "new password must be at least 6 characters"},
		{name: "mismatch", current: "admin123", next: "secret1", confirm: "secret2", wantMsg: "passwords do not match"},
		{name: "ok", current: "admin123", next: "secret1", confirm: "secret1", persists: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := repomocks.NewMockAdminRepository(ctrl)
			svc := newTestAdminService(repo, &fakeSessions{})

			repo.EXPECT().FindByUsername(gomock.Any(), "admin").
				Return(&models.Admin{Username: "admin", PasswordHash: cheapHash(t, "admin123")}, nil)

			var saved string
			if tc.persists {
				repo.EXPECT().UpdatePassword(gomock.Any(), "admin", gomock.Any()).
					DoAndReturn(func(ctx context.Context, username, hash string) error {
						saved = hash
						return nil
					})
			}

			err := svc.ChangePassword(context.Background(), "admin", tc.current, tc.next, tc.confirm)
			if !tc.persists {
				var appErr *apperrors.AppError
				require.ErrorAs(t, err, &appErr)
				assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
				assert.Equal(t, tc.wantMsg, appErr.Message)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, password.Verify(saved, tc.next))
		})
	}
}

func TestAdminService_EnsureSeedAdmin(t *testing.T) {
	t.Run("creates missing admin", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := repomocks.NewMockAdminRepository(ctrl)
		svc := newTestAdminService(repo, &fakeSessions{})

		repo.EXPECT().FindByUsername(gomock.Any(), "admin").Return(nil, nil)
		repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, a *models.Admin) error {
			assert.Equal(t, "admin", a.Username)
			assert.Equal(t, baseTime, a.CreatedAt)
			assert.NoError(t, password.Verify(a.PasswordHash, "admin123"))
			return nil
		})

		require.NoError(t, svc.EnsureSeedAdmin(context.Background(), "admin", "admin123"))
	})

	t.Run("keeps existing admin", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := repomocks.NewMockAdminRepository(ctrl)
		svc := newTestAdminService(repo, &fakeSessions{})

		repo.EXPECT().FindByUsername(gomock.Any(), "admin").Return(&models.Admin{Username: "admin"}, nil)
		require.NoError(t, svc.EnsureSeedAdmin(context.Background(), "admin", "other"))
	})
}
