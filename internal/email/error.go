package email

import (
	"errors"
	"strings"
)

// SendError wraps a transport failure with classification metadata.
type SendError struct {
	// Transport is the name of the transport that failed.
	Transport string
	// StatusCode is the HTTP status code, when the transport is HTTP-based.
	StatusCode int
	// Message is the error description from the transport.
	Message string
	// Permanent indicates the send will not succeed on retry.
	Permanent bool
}

func (e *SendError) Error() string {
	return e.Transport + ": " + e.Message
}

// IsPermanent returns true if the error is a permanent failure that should
// not be retried.
func IsPermanent(err error) bool {
	var se *SendError
	if errors.As(err, &se) {
		return se.Permanent
	}
	return false
}

// IsTransient returns true if the error is a temporary failure that may
// succeed on retry.
func IsTransient(err error) bool {
	var se *SendError
	if errors.As(err, &se) {
		return !se.Permanent
	}
	// Unknown errors are treated as transient to avoid dropping deliveries.
	return true
}

// classifyHTTPError creates a SendError from an HTTP status code and response
// body, classifying it as permanent or transient.
func classifyHTTPError(transport string, statusCode int, body string) *SendError {
	se := &SendError{
		Transport:  transport,
		StatusCode: statusCode,
		Message:    body,
	}

	switch {
	case statusCode >= 200 && statusCode < 300:
		// Not an error.
		return nil

	case statusCode == 429:
		// Rate limited - always transient.
		se.Permanent = false

	case statusCode >= 400 && statusCode < 500:
		se.Permanent = true

	case statusCode >= 500:
		se.Permanent = containsPermanentServerIndicator(body)

	default:
		se.Permanent = false
	}

	return se
}

// containsPermanentServerIndicator checks if a 5xx response body indicates
// a permanent server-side failure (e.g., invalid auth configuration).
func containsPermanentServerIndicator(body string) bool {
	lower := strings.ToLower(body)
	permanentPatterns := []string{
		"invalid api key",
		"authentication failed",
		"account suspended",
		"account disabled",
		"unauthorized",
	}
	for _, pattern := range permanentPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
