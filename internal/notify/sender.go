// Package notify delivers best-effort email and SMS notifications.
package notify

import (
	"context"
	"log/slog"
)

// Sender is an outbound notification channel.
type Sender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
	SendSMS(ctx context.Context, to, body string) error
}

// MultiSender routes email and SMS to separate senders.
type MultiSender struct {
	Email Sender
	SMS   Sender
}

func (m MultiSender) SendEmail(ctx context.Context, to, subject, body string) error {
	return m.Email.SendEmail(ctx, to, subject, body)
}

func (m MultiSender) SendSMS(ctx context.Context, to, body string) error {
	return m.SMS.SendSMS(ctx, to, body)
}

// LogSender writes notifications to the log instead of delivering them.
// It stands in for a channel that has no credentials configured.
type LogSender struct {
	log *slog.Logger
}

func NewLogSender(log *slog.Logger) *LogSender {
	return &LogSender{log: log.With("component", "notify.log_sender")}
}

func (s *LogSender) SendEmail(ctx context.Context, to, subject, body string) error {
	s.log.InfoContext(ctx, "email not delivered, channel not configured",
		"to", to, "subject", subject, "body", body)
	return nil
}

func (s *LogSender) SendSMS(ctx context.Context, to, body string) error {
	s.log.InfoContext(ctx, "sms not delivered, channel not configured",
		"to", to, "body", body)
	return nil
}
