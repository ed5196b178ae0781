package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// NoopSender is used when no Resend key is configured. It logs the message,
// including the plain-text body so a developer can follow the sign-in link from the log.
type NoopSender struct{}

// Compile-time check that NoopSender implements Sender.
var _ Sender = (*NoopSender)(nil)

// NewNoopSender creates a new NoopSender.
func NewNoopSender() *NoopSender {
	return &NoopSender{}
}

// Send logs the email but does not deliver it.
// PRE: req is a valid SendRequest
// POST: Returns a noop result without actual delivery
func (s *NoopSender) Send(_ context.Context, req SendRequest) (SendResult, error) {
	slog.Info("noop_email_send", "to", req.To, "subject", req.Subject, "body", req.Text)
	return SendResult{
		MessageID: fmt.Sprintf("noop-%d", time.Now().UnixNano()),
		SentAt:    time.Now(),
	}, nil
}
