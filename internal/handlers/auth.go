package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"feedback-backend/internal/apperrors"
	"feedback-backend/internal/middleware"
	"feedback-backend/internal/service"
)

// AdminAccounts is what the auth handler needs from service.AdminService.
type AdminAccounts interface {
	Login(ctx context.Context, username, password string) (*service.LoginResult, error)
	Logout(ctx context.Context, token string) error
	ChangePassword(ctx context.Context, username, current, newPassword, confirm string) error
}

type AuthHandler struct {
	admins AdminAccounts
}

func NewAuthHandler(admins AdminAccounts) *AuthHandler {
	return &AuthHandler{admins: admins}
}

// --- Request types ---

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// --- POST /api/admin/login ---

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	res, err := h.admins.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// --- GET /api/admin/session ---

func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"authenticated": true,
		"username":      middleware.GetAdmin(r.Context()),
	})
}

// --- POST /api/admin/logout ---

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.admins.Logout(r.Context(), middleware.GetToken(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// --- POST /api/admin/password ---

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	username := middleware.GetAdmin(r.Context())
	if err := h.admins.ChangePassword(r.Context(), username, req.CurrentPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

// --- Helpers ---

func statusFor(t apperrors.ErrorType) int {
	switch t {
	case apperrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case apperrors.ErrorTypeRateLimited:
		return http.StatusTooManyRequests
	case apperrors.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrorTypeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError sends the AppError's message with a matching status. Anything
// that is not an AppError is logged and reported as an internal error.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		hlog.FromRequest(r).Error().Err(err).Msg("❌ Unhandled error")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	status := statusFor(appErr.Type)
	if status >= http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Msg("❌ Request failed")
	}
	writeJSON(w, status, map[string]string{"error": appErr.Message})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
