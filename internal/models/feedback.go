package models

import (
	"time"
)

// Sentiment is derived from the rating, never supplied by the user.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

const (
	MinRating = 1
	MaxRating = 5
)

// SentimentForRating maps a 1..5 rating onto a sentiment label.
// Callers validate the range first.
func SentimentForRating(rating int) Sentiment {
	switch {
	case rating >= 4:
		return SentimentPositive
	case rating == 3:
		return SentimentNeutral
	default:
		return SentimentNegative
	}
}

func ValidSentiment(s string) bool {
	switch Sentiment(s) {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	}
	return false
}

// Feedback is immutable once stored; the only other transition is deletion.
type Feedback struct {
	ID        string    `json:"id"`
	Rating    int       `json:"rating"`
	Text      string    `json:"text"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Date      time.Time `json:"date"`
	Sentiment Sentiment `json:"sentiment"`
	IsSpam    bool      `json:"is_spam"`
	CreatedAt time.Time `json:"created_at"`
}
