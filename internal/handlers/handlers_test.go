package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedback-backend/internal/apperrors"
	"feedback-backend/internal/middleware"
	"feedback-backend/internal/models"
	"feedback-backend/internal/service"
	"feedback-backend/internal/session"
)

// --- stubs ---

type stubSubmitter struct {
	got service.SubmitInput
	fb  *models.Feedback
	err error
}

func (s *stubSubmitter) Submit(ctx context.Context, in service.SubmitInput) (*models.Feedback, error) {
	s.got = in
	return s.fb, s.err
}

type stubModerator struct {
	board     *service.Board
	loadErr   error
	deleteErr error
	deleted   []string
}

func (s *stubModerator) Load(ctx context.Context) (*service.Board, error) {
	return s.board, s.loadErr
}

func (s *stubModerator) Delete(ctx context.Context, board *service.Board, id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, id)
	return nil
}

type stubAdmins struct {
	loginErr  error
	changeErr error
	loggedOut []string
	changedBy string
}

func (s *stubAdmins) Login(ctx context.Context, username, password string) (*service.LoginResult, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &service.LoginResult{Token: "tok", Username: username, ExpiresAt: time.Unix(0, 0).UTC()}, nil
}

func (s *stubAdmins) Logout(ctx context.Context, token string) error {
	s.loggedOut = append(s.loggedOut, token)
	return nil
}

func (s *stubAdmins) ChangePassword(ctx context.Context, username, current, newPassword, confirm string) error {
	s.changedBy = username
	return s.changeErr
}

type allowAll struct{}

func (allowAll) Verify(ctx context.Context, token string) (*session.Claims, error) {
	return &session.Claims{Username: "admin", SessionID: token}, nil
}

func newTestRouter(sub FeedbackSubmitter, mod FeedbackModerator, admins AdminAccounts) http.Handler {
	fh := NewFeedbackHandler(sub)
	mh := NewModerationHandler(mod)
	ah := NewAuthHandler(admins)

	r := chi.NewRouter()
	r.Post("/api/feedback", fh.SubmitFeedback)
	r.Post("/api/admin/login", ah.Login)
	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionGate(session.NewGate(allowAll{})))
		r.Get("/api/admin/session", ah.Session)
		r.Post("/api/admin/logout", ah.Logout)
		r.Post("/api/admin/password", ah.ChangePassword)
		r.Get("/api/admin/feedback", mh.ListFeedback)
		r.Get("/api/admin/feedback/stats", mh.Stats)
		r.Delete("/api/admin/feedback/{id}", mh.DeleteFeedback)
	})
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func sampleBoard() *service.Board {
	return service.NewBoard([]models.Feedback{
		{ID: "2", Rating: 5, Text: "Great service", Email: "a@b.com", Sentiment: models.SentimentPositive},
		{ID: "1", Rating: 1, Text: "spam spam", Email: "x@y.com", Sentiment: models.SentimentNegative, IsSpam: true},
	})
}

// --- tests ---

func TestSubmitFeedback(t *testing.T) {
	testCases := []struct {
		name       string
		body       string
		stub       *stubSubmitter
		wantStatus int
		wantError  string
	}{
		{
			name:       "created",
			body:       `{"rating":5,"text":"Great!","email":"a@b.com"}`,
			stub:       &stubSubmitter{fb: &models.Feedback{ID: "1", Rating: 5, Sentiment: models.SentimentPositive}},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "bad json",
			body:       `{"rating":`,
			stub:       &stubSubmitter{},
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request body",
		},
		{
			name:       "validation",
			body:       `{"text":"x","email":"a@b.com"}`,
			stub:       &stubSubmitter{err: apperrors.NewValidationError("rating required")},
			wantStatus: http.StatusBadRequest,
			wantError:  "rating required",
		},
		{
			name:       "rate limited",
			body:       `{"rating":4,"text":"x","email":"a@b.com"}`,
			stub:       &stubSubmitter{err: apperrors.NewRateLimitedError("one submission per 24 hours")},
			wantStatus: http.StatusTooManyRequests,
			wantError:  "one submission per 24 hours",
		},
		{
			name:       "storage failure",
			body:       `{"rating":4,"text":"x","email":"a@b.com"}`,
			stub:       &stubSubmitter{err: apperrors.NewExternalError("failed to submit feedback", errors.New("boom"))},
			wantStatus: http.StatusInternalServerError,
			wantError:  "failed to submit feedback",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestRouter(tc.stub, &stubModerator{}, &stubAdmins{})
			rec, out := do(t, h, http.MethodPost, "/api/feedback", tc.body)

			assert.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantError != "" {
				assert.Equal(t, tc.wantError, out["error"])
				return
			}
			fb := out["feedback"].(map[string]interface{})
			assert.Equal(t, "positive", fb["sentiment"])
			assert.Equal(t, 5, tc.stub.got.Rating)
			assert.Equal(t, "a@b.com", tc.stub.got.Email)
		})
	}
}

func TestListFeedback(t *testing.T) {
	mod := &stubModerator{board: sampleBoard()}
	h := newTestRouter(&stubSubmitter{}, mod, &stubAdmins{})

	rec, out := do(t, h, http.MethodGet, "/api/admin/feedback?search=SPAM&sentiment=all", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, out["total"])
	assert.EqualValues(t, 1, out["filtered"])
	stats := out["stats"].(map[string]interface{})
	assert.Equal(t, "3.0", stats["avg_rating"])
	assert.EqualValues(t, 1, stats["spam"])

	rec, out = do(t, h, http.MethodGet, "/api/admin/feedback?sentiment=angry", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, out["error"], "sentiment")
}

func TestListFeedback_EmptyIsNotAnError(t *testing.T) {
	h := newTestRouter(&stubSubmitter{}, &stubModerator{board: service.NewBoard(nil)}, &stubAdmins{})

	rec, out := do(t, h, http.MethodGet, "/api/admin/feedback", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{}, out["feedback"])
	assert.Equal(t, "0", out["stats"].(map[string]interface{})["avg_rating"])
}

func TestListFeedback_LoadFailure(t *testing.T) {
	mod := &stubModerator{loadErr: apperrors.NewExternalError("failed to load feedback", errors.New("connection reset"))}
	h := newTestRouter(&stubSubmitter{}, mod, &stubAdmins{})

	for _, path := range []string{"/api/admin/feedback", "/api/admin/feedback/stats"} {
		rec, out := do(t, h, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, "connection reset", out["detail"])
		assert.Equal(t, true, out["retryable"])
	}
}

func TestStats(t *testing.T) {
	h := newTestRouter(&stubSubmitter{}, &stubModerator{board: sampleBoard()}, &stubAdmins{})

	rec, out := do(t, h, http.MethodGet, "/api/admin/feedback/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	charts := out["charts"].(map[string]interface{})
	assert.Len(t, charts["rating_distribution"], 5)
	assert.EqualValues(t, 1, charts["quality"].(map[string]interface{})["valid"])
}

func TestDeleteFeedback(t *testing.T) {
	mod := &stubModerator{}
	h := newTestRouter(&stubSubmitter{}, mod, &stubAdmins{})

	rec, out := do(t, h, http.MethodDelete, "/api/admin/feedback/abc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", out["id"])
	assert.Equal(t, []string{"abc"}, mod.deleted)

	mod.deleteErr = apperrors.NewNotFoundError("feedback not found")
	rec, out = do(t, h, http.MethodDelete, "/api/admin/feedback/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "feedback not found", out["error"])
}

func TestAdminAuthRoutes(t *testing.T) {
	admins := &stubAdmins{}
	h := newTestRouter(&stubSubmitter{}, &stubModerator{}, admins)

	rec, out := do(t, h, http.MethodPost, "/api/admin/login", `{"username":"admin","password":"admin123"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok", out["token"])

	rec, out = do(t, h, http.MethodGet, "/api/admin/session", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["authenticated"])
	assert.Equal(t, "admin", out["username"])

	rec, _ = do(t, h, http.MethodPost, "/api/admin/password", `{"current_password":"a","new_password":"bbbbbb","confirm_password":"bbbbbb"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin", admins.changedBy)

	admins.changeErr = apperrors.NewValidationError("passwords do not match")
	rec, out = do(t, h, http.MethodPost, "/api/admin/password", `{"current_password":"a","new_password":"bbbbbb","confirm_password":"c"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "passwords do not match", out["error"])

	rec, _ = do(t, h, http.MethodPost, "/api/admin/logout", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"tok"}, admins.loggedOut)

	admins.loginErr = apperrors.NewUnauthorizedError("invalid credentials")
	rec, out = do(t, h, http.MethodPost, "/api/admin/login", `{"username":"admin","password":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid credentials", out["error"])
}
