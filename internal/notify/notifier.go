package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"

	"feedback-backend/internal/models"
)

// Notifier publishes a short message to whoever watches incoming feedback.
// Delivery is best-effort; callers log failures and move on.
type Notifier interface {
	Publish(ctx context.Context, message string) error
}

// FormatFeedbackMessage renders a new submission for a human reader.
func FormatFeedbackMessage(fb models.Feedback) string {
	var b strings.Builder
	b.WriteString("📝 New Feedback Received\n")
	fmt.Fprintf(&b, "Rating: %s (%d/5, %s)\n", strings.Repeat("⭐", fb.Rating), fb.Rating, fb.Sentiment)
	fmt.Fprintf(&b, "Email: %s\n", fb.Email)
	if fb.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", DisplayPhone(fb.Phone))
	}
	fmt.Fprintf(&b, "Feedback: %s", fb.Text)
	return b.String()
}

// DisplayPhone formats numbers written in international form. The phone
// field is free text, so anything that does not parse is returned as is.
func DisplayPhone(raw string) string {
	num, err := phonenumbers.Parse(raw, "")
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return raw
	}
	return phonenumbers.Format(num, phonenumbers.INTERNATIONAL)
}
