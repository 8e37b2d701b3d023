package domain

import (
	"fmt"
	"net/mail"
	"strings"
)

// EmailAddress is a validated subscriber email address.
type EmailAddress struct {
	value string
}

// ParseEmailAddress validates an email address and returns it as a typed
// value. Validation follows RFC 5322 via net/mail, with the additional
// requirement that the domain part contains at least one dot, which rejects
// bare local domains that public email transports cannot route.
func ParseEmailAddress(s string) (EmailAddress, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return EmailAddress{}, fmt.Errorf("email address is empty")
	}

	addr, err := mail.ParseAddress(trimmed)
	if err != nil {
		return EmailAddress{}, fmt.Errorf("%q is not a valid email address: %w", s, err)
	}
	// Reject display-name forms ("Jane <jane@example.com>"); subscribers
	// are stored as bare addresses.
	if addr.Address != trimmed {
		return EmailAddress{}, fmt.Errorf("%q is not a bare email address", s)
	}

	at := strings.LastIndex(addr.Address, "@")
	domainPart := addr.Address[at+1:]
	if !strings.Contains(domainPart, ".") {
		return EmailAddress{}, fmt.Errorf("%q has an unroutable domain", s)
	}

	return EmailAddress{value: addr.Address}, nil
}

// String returns the address as stored.
func (e EmailAddress) String() string {
	return e.value
}
