package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog/log"
)

const feedbackSubject = "New feedback received"

type emailSender interface {
	Send(params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// EmailNotifier mails every message to the admin inbox through Resend.
type EmailNotifier struct {
	emails emailSender
	from   string
	to     string
}

func NewEmailNotifier(apiKey, from, to string) (*EmailNotifier, error) {
	if apiKey == "" {
		return nil, errors.New("resend api key is empty")
	}
	if from == "" || to == "" {
		return nil, errors.New("notification sender and recipient are required")
	}
	client := resend.NewClient(apiKey)
	return &EmailNotifier{emails: client.Emails, from: from, to: to}, nil
}

func (n *EmailNotifier) Publish(ctx context.Context, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sent, err := n.emails.Send(&resend.SendEmailRequest{
		From:    n.from,
		To:      []string{n.to},
		Subject: feedbackSubject,
		Text:    message,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	log.Debug().Str("email_id", sent.Id).Msg("📧 notification email sent")
	return nil
}
