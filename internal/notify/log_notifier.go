package notify

import (
	"context"

	"github.com/rs/zerolog/log"
)

// LogNotifier writes messages to the log. Used when no email provider is
// configured.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Publish(ctx context.Context, message string) error {
	log.Info().Str("notifier", "log").Msgf("📨 %s", message)
	return nil
}
