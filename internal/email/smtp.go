package email

import (
	"context"

	"gopkg.in/gomail.v2"
)

// SMTP sends email through an SMTP relay.
type SMTP struct {
	dialer *gomail.Dialer
	sender string
}

// NewSMTP creates an SMTP client for the given relay.
func NewSMTP(host string, port int, username, password, sender string) *SMTP {
	return &SMTP{
		dialer: gomail.NewDialer(host, port, username, password),
		sender: sender,
	}
}

// SendEmail delivers one message via SMTP. SMTP failures carry no reliable
// permanent/transient signal at this level, so all errors are classified
// transient and retried on a later poll.
func (s *SMTP) SendEmail(ctx context.Context, recipient, subject, htmlBody, textBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.sender)
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", textBody)
	m.AddAlternative("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return &SendError{
			Transport: "smtp",
			Message:   err.Error(),
			Permanent: false,
		}
	}
	return nil
}
