package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"feedback-backend/internal/models"
	"feedback-backend/internal/service"
)

// FeedbackSubmitter is the public side of the feedback service.
type FeedbackSubmitter interface {
	Submit(ctx context.Context, in service.SubmitInput) (*models.Feedback, error)
}

type FeedbackHandler struct {
	submitter FeedbackSubmitter
}

func NewFeedbackHandler(submitter FeedbackSubmitter) *FeedbackHandler {
	return &FeedbackHandler{submitter: submitter}
}

// --- POST /api/feedback ---

func (h *FeedbackHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req service.SubmitInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	feedback, err := h.submitter.Submit(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "feedback submitted successfully",
		"feedback": feedback,
	})
}
