package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedback-backend/internal/session"
)

type stubVerifier struct {
	valid map[string]string
	err   error
}

func (v stubVerifier) Verify(ctx context.Context, token string) (*session.Claims, error) {
	if v.err != nil {
		return nil, v.err
	}
	if user, ok := v.valid[token]; ok {
		return &session.Claims{Username: user, SessionID: token}, nil
	}
	return nil, session.ErrRevoked
}

func TestSessionGate(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(GetAdmin(r.Context()) + ":" + GetToken(r.Context())))
	})

	testCases := []struct {
		name       string
		header     string
		verifier   stubVerifier
		wantStatus int
		wantBody   string
	}{
		{name: "no header", wantStatus: http.StatusUnauthorized, wantBody: "missing session token"},
		{name: "wrong scheme", header: "Basic abc", wantStatus: http.StatusUnauthorized, wantBody: "missing session token"},
		{name: "empty bearer", header: "Bearer   ", wantStatus: http.StatusUnauthorized, wantBody: "missing session token"},
		{
			name:       "revoked token",
			header:     "Bearer old",
			verifier:   stubVerifier{valid: map[string]string{}},
			wantStatus: http.StatusUnauthorized,
			wantBody:   "session expired or invalid",
		},
		{
			name:       "store failure",
			header:     "Bearer tok",
			verifier:   stubVerifier{err: errors.New("redis down")},
			wantStatus: http.StatusInternalServerError,
			wantBody:   "internal server error",
		},
		{
			name:       "live session",
			header:     "bearer tok",
			verifier:   stubVerifier{valid: map[string]string{"tok": "admin"}},
			wantStatus: http.StatusOK,
			wantBody:   "admin:tok",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := SessionGate(session.NewGate(tc.verifier))(okHandler)

			req := httptest.NewRequest(http.MethodGet, "/api/admin/session", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.wantBody)
		})
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	h := chimw.RequestID(RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusTeapot, rec.Code)
	out := buf.String()
	assert.Contains(t, out, `"status":418`)
	assert.Contains(t, out, `"path":"/health"`)
	assert.Contains(t, out, `"request_id"`)
}

func TestCORS(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	testCases := []struct {
		name    string
		origins []string
		origin  string
		allowed bool
	}{
		{name: "wildcard", origins: []string{"*"}, origin: "https://any.example", allowed: true},
		{name: "listed origin", origins: []string{"https://dash.example"}, origin: "https://dash.example", allowed: true},
		{name: "unlisted origin", origins: []string{"https://dash.example"}, origin: "https://evil.example"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/feedback", nil)
			req.Header.Set("Origin", tc.origin)
			rec := httptest.NewRecorder()
			CORS(tc.origins)(ok).ServeHTTP(rec, req)

			if tc.allowed {
				assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
			}
			assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
		})
	}
}
