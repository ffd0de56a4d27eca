package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"feedback-backend/internal/apperrors"
	"feedback-backend/internal/models"
	"feedback-backend/internal/service"
)

// FeedbackModerator is the admin side of the feedback service.
type FeedbackModerator interface {
	Load(ctx context.Context) (*service.Board, error)
	Delete(ctx context.Context, board *service.Board, id string) error
}

type ModerationHandler struct {
	moderator FeedbackModerator
}

func NewModerationHandler(moderator FeedbackModerator) *ModerationHandler {
	return &ModerationHandler{moderator: moderator}
}

// --- GET /api/admin/feedback?search=&sentiment= ---

func (h *ModerationHandler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	sentiment := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("sentiment")))
	if sentiment != "" && sentiment != "all" && !models.ValidSentiment(sentiment) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "sentiment must be positive, neutral, negative or all"})
		return
	}

	board, ok := h.load(w, r)
	if !ok {
		return
	}

	filtered := board.Filter(r.URL.Query().Get("search"), sentiment)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"feedback": filtered,
		"stats":    board.Stats(),
		"total":    board.Len(),
		"filtered": len(filtered),
	})
}

// --- GET /api/admin/feedback/stats ---

func (h *ModerationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	board, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stats":  board.Stats(),
		"charts": board.Charts(),
	})
}

// --- DELETE /api/admin/feedback/{id} ---

func (h *ModerationHandler) DeleteFeedback(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.moderator.Delete(r.Context(), nil, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "feedback deleted",
		"id":      id,
	})
}

// load reports a failed load as 502 with the cause, so the dashboard can
// tell "try again" apart from an empty list.
func (h *ModerationHandler) load(w http.ResponseWriter, r *http.Request) (*service.Board, bool) {
	board, err := h.moderator.Load(r.Context())
	if err == nil {
		return board, true
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeExternal) {
		writeError(w, r, err)
		return nil, false
	}

	hlog.FromRequest(r).Error().Err(err).Msg("❌ Failed to load feedback board")
	detail := err.Error()
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Err != nil {
		detail = appErr.Err.Error()
	}
	writeJSON(w, http.StatusBadGateway, map[string]interface{}{
		"error":     "failed to load feedback",
		"detail":    detail,
		"retryable": true,
	})
	return nil, false
}
