package notify

import (
	"context"

	"go.uber.org/zap"
)

// EmailSender delivers a single email.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// ConsoleEmailSender logs emails instead of delivering them. The
// default backend in development and testing; production wires a real
// provider behind the same interface.
type ConsoleEmailSender struct {
	from string
	log  *zap.Logger
}

// NewConsoleEmailSender creates a console email backend.
func NewConsoleEmailSender(from string, log *zap.Logger) *ConsoleEmailSender {
	return &ConsoleEmailSender{from: from, log: log}
}

// Send logs the email.
func (s *ConsoleEmailSender) Send(_ context.Context, to, subject, body string) error {
	s.log.Info("email",
		zap.String("from", s.from),
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}
