package service

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"feedback-backend/internal/apperrors"
	"feedback-backend/internal/metrics"
	"feedback-backend/internal/models"
	"feedback-backend/internal/repository"
)

// Stats are the dashboard counters. AvgRating is pre-formatted with one
// decimal, and is "0" for an empty board.
type Stats struct {
	Total     int    `json:"total"`
	Positive  int    `json:"positive"`
	Neutral   int    `json:"neutral"`
	Negative  int    `json:"negative"`
	Spam      int    `json:"spam"`
	AvgRating string `json:"avg_rating"`
}

type RatingCount struct {
	Rating int `json:"rating"`
	Count  int `json:"count"`
}

type SentimentSplit struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

type QualitySplit struct {
	Valid int `json:"valid"`
	Spam  int `json:"spam"`
}

// Charts holds the numbers behind the dashboard charts.
type Charts struct {
	RatingDistribution []RatingCount  `json:"rating_distribution"`
	Sentiment          SentimentSplit `json:"sentiment"`
	Quality            QualitySplit   `json:"quality"`
}

// Board is one loaded snapshot of feedback, newest first. It belongs to
// the request that loaded it.
type Board struct {
	records []models.Feedback
}

func NewBoard(records []models.Feedback) *Board {
	if records == nil {
		records = []models.Feedback{}
	}
	return &Board{records: records}
}

func (b *Board) Records() []models.Feedback {
	return b.records
}

func (b *Board) Len() int {
	return len(b.records)
}

func (b *Board) Stats() Stats {
	st := Stats{Total: len(b.records), AvgRating: "0"}
	sum := 0
	for _, fb := range b.records {
		sum += fb.Rating
		switch fb.Sentiment {
		case models.SentimentPositive:
			st.Positive++
		case models.SentimentNeutral:
			st.Neutral++
		case models.SentimentNegative:
			st.Negative++
		}
		if fb.IsSpam {
			st.Spam++
		}
	}
	if st.Total > 0 {
		avg := float64(sum) / float64(st.Total)
		// half rounds up, not to even
		st.AvgRating = strconv.FormatFloat(math.Floor(avg*10+0.5)/10, 'f', 1, 64)
	}
	return st
}

// Filter matches search case-insensitively against text and email. An
// empty sentiment or "all" matches every record.
func (b *Board) Filter(search, sentiment string) []models.Feedback {
	needle := strings.ToLower(strings.TrimSpace(search))
	anySentiment := sentiment == "" || sentiment == "all"

	out := make([]models.Feedback, 0, len(b.records))
	for _, fb := range b.records {
		if !anySentiment && string(fb.Sentiment) != sentiment {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(fb.Text), needle) &&
			!strings.Contains(strings.ToLower(fb.Email), needle) {
			continue
		}
		out = append(out, fb)
	}
	return out
}

func (b *Board) Charts() Charts {
	c := Charts{RatingDistribution: make([]RatingCount, 0, models.MaxRating)}
	counts := make(map[int]int, models.MaxRating)
	for _, fb := range b.records {
		counts[fb.Rating]++
		switch fb.Sentiment {
		case models.SentimentPositive:
			c.Sentiment.Positive++
		case models.SentimentNeutral:
			c.Sentiment.Neutral++
		case models.SentimentNegative:
			c.Sentiment.Negative++
		}
		if fb.IsSpam {
			c.Quality.Spam++
		} else {
			c.Quality.Valid++
		}
	}
	for r := models.MinRating; r <= models.MaxRating; r++ {
		c.RatingDistribution = append(c.RatingDistribution, RatingCount{Rating: r, Count: counts[r]})
	}
	return c
}

// Remove drops the record with id and reports whether it was present.
func (b *Board) Remove(id string) bool {
	for i, fb := range b.records {
		if fb.ID == id {
			b.records = append(b.records[:i:i], b.records[i+1:]...)
			return true
		}
	}
	return false
}

type ModerationService struct {
	repo    repository.FeedbackRepository
	metrics *metrics.Metrics
}

func NewModerationService(repo repository.FeedbackRepository, m *metrics.Metrics) *ModerationService {
	if m == nil {
		m = metrics.Noop()
	}
	return &ModerationService{repo: repo, metrics: m}
}

// Load fetches every record, newest first. An empty board is not an error.
func (s *ModerationService) Load(ctx context.Context) (*Board, error) {
	records, err := s.repo.ListNewestFirst(ctx)
	if err != nil {
		log.Error().Err(err).Msg("❌ Failed to load feedback")
		return nil, apperrors.NewExternalError("failed to load feedback", err)
	}
	return NewBoard(records), nil
}

// Delete removes id from storage and, on success, from board. Any record
// may be deleted; the spam-only restriction is the dashboard's business.
// On failure the board is left as it was.
func (s *ModerationService) Delete(ctx context.Context, board *Board, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.NewValidationError("id required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			s.metrics.Deletions.WithLabelValues(metrics.OutcomeRejected).Inc()
			return err
		}
		log.Error().Err(err).Str("feedback_id", id).Msg("❌ Failed to delete feedback")
		s.metrics.Deletions.WithLabelValues(metrics.OutcomeFailed).Inc()
		return apperrors.NewExternalError("failed to delete feedback", err)
	}
	s.metrics.Deletions.WithLabelValues(metrics.OutcomeAccepted).Inc()

	if board != nil {
		board.Remove(id)
	}
	log.Info().Str("feedback_id", id).Msg("🗑️  Feedback deleted")
	return nil
}
