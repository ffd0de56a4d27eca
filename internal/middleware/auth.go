package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/hlog"

	"feedback-backend/internal/session"
)

type contextKey string

const (
	adminKey contextKey = "admin"
	tokenKey contextKey = "session_token"
)

// SessionGate rejects requests without a live admin session. The token is
// read from "Authorization: Bearer <token>".
func SessionGate(gate *session.Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)

			claims, err := gate.Check(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, session.ErrNoToken):
					unauthorized(w, "missing session token")
				case errors.Is(err, session.ErrInvalidToken), errors.Is(err, session.ErrRevoked):
					unauthorized(w, "session expired or invalid")
				default:
					hlog.FromRequest(r).Error().Err(err).Msg("❌ Session check failed")
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
				}
				return
			}

			ctx := context.WithValue(r.Context(), adminKey, claims.Username)
			ctx = context.WithValue(ctx, tokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAdmin returns the username of the logged-in admin, or "".
func GetAdmin(ctx context.Context) string {
	if v, ok := ctx.Value(adminKey).(string); ok {
		return v
	}
	return ""
}

// GetToken returns the session token the request was authorized with.
func GetToken(ctx context.Context) string {
	if v, ok := ctx.Value(tokenKey).(string); ok {
		return v
	}
	return ""
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
