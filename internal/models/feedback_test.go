package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentimentForRating(t *testing.T) {
	testCases := []struct {
		rating int
		want   Sentiment
	}{
		{rating: 1, want: SentimentNegative},
		{rating: 2, want: SentimentNegative},
		{rating: 3, want: SentimentNeutral},
		{rating: 4, want: SentimentPositive},
		{rating: 5, want: SentimentPositive},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, SentimentForRating(tc.rating), "rating %d", tc.rating)
	}
}

func TestValidSentiment(t *testing.T) {
	assert.True(t, ValidSentiment("positive"))
	assert.True(t, ValidSentiment("neutral"))
	assert.True(t, ValidSentiment("negative"))
	assert.False(t, ValidSentiment("all"))
	assert.False(t, ValidSentiment("Positive"))
	assert.False(t, ValidSentiment(""))
}
