package email

import (
	"context"

	"github.com/rs/zerolog"
)

// Stdout logs outgoing email instead of delivering it. Intended for local
// development and tests.
type Stdout struct {
	log zerolog.Logger
}

// NewStdout creates a Stdout transport.
func NewStdout(log zerolog.Logger) *Stdout {
	return &Stdout{log: log}
}

// SendEmail logs the message and reports success.
func (s *Stdout) SendEmail(ctx context.Context, recipient, subject, htmlBody, textBody string) error {
	s.log.Info().
		Str("transport", "stdout").
		Str("to", recipient).
		Str("subject", subject).
		Int("html_bytes", len(htmlBody)).
		Int("text_bytes", len(textBody)).
		Msg("email send (not delivered)")
	return nil
}
