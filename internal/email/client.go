package email

import (
	"context"
)

// Client sends a single email to a single recipient. Implementations must
// return a *SendError so callers can distinguish permanent failures (never
// retry) from transient ones (retry later).
type Client interface {
	SendEmail(ctx context.Context, recipient, subject, htmlBody, textBody string) error
}

// HTTPClient is the HTTP surface API-backed transports depend on. Tests
// substitute a canned implementation.
type HTTPClient interface {
	Do(ctx context.Context, req *HTTPRequest) (*HTTPResponse, error)
}

// HTTPRequest is an outgoing API call.
type HTTPRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// HTTPResponse carries what error classification needs: the status code and
// the body text.
type HTTPResponse struct {
	StatusCode int
	Body       []byte
}
