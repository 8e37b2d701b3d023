package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const tokenLength = 25

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ConfirmationToken is the opaque token mailed to a new subscriber; following
// the confirmation link proves ownership of the address.
type ConfirmationToken struct {
	value string
}

// NewConfirmationToken generates a cryptographically random 25-character
// alphanumeric token.
func NewConfirmationToken() ConfirmationToken {
	var b strings.Builder
	b.Grow(tokenLength)
	max := big.NewInt(int64(len(tokenAlphabet)))
	for range tokenLength {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken.
			panic(fmt.Sprintf("generate confirmation token: %v", err))
		}
		b.WriteByte(tokenAlphabet[n.Int64()])
	}
	return ConfirmationToken{value: b.String()}
}

// ParseConfirmationToken validates a token received from a confirmation link.
// Tokens must be exactly 25 characters drawn from the generation alphabet
// ([a-zA-Z0-9]); anything outside it, including non-ASCII letters, is
// rejected.
func ParseConfirmationToken(s string) (ConfirmationToken, error) {
	if strings.TrimSpace(s) == "" {
		return ConfirmationToken{}, fmt.Errorf("confirmation token is empty")
	}
	if len(s) != tokenLength {
		return ConfirmationToken{}, fmt.Errorf("confirmation token must be %d characters", tokenLength)
	}
	for _, r := range s {
		if !strings.ContainsRune(tokenAlphabet, r) {
			return ConfirmationToken{}, fmt.Errorf("confirmation token contains invalid character %q", r)
		}
	}
	return ConfirmationToken{value: s}, nil
}

// String returns the token value.
func (t ConfirmationToken) String() string {
	return t.value
}
