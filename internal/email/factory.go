package email

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Config selects and configures the outbound transport.
// Callers populate this from their configuration layer.
type Config struct {
	Transport     string // postmark, smtp, or stdout
	SenderAddress string
	BaseURL       string
	AuthToken     string
	SendTimeout   time.Duration
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
}

// NewClient creates the Client selected by cfg.Transport.
func NewClient(cfg Config, log zerolog.Logger) (Client, error) {
	switch cfg.Transport {
	case "postmark":
		if cfg.BaseURL == "" || cfg.AuthToken == "" {
			return nil, fmt.Errorf("postmark transport requires base_url and auth_token")
		}
		timeout := cfg.SendTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		return NewPostmark(cfg.BaseURL, cfg.AuthToken, cfg.SenderAddress, NewHTTPClient(timeout)), nil
	case "smtp":
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("smtp transport requires smtp_host")
		}
		return NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SenderAddress), nil
	case "stdout", "":
		return NewStdout(log), nil
	default:
		return nil, fmt.Errorf("unknown email transport %q", cfg.Transport)
	}
}
