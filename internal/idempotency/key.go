package idempotency

import (
	"fmt"
	"strings"
	"unicode"
)

const maxKeyLength = 50

// Key is a validated client-supplied idempotency key. Two requests bearing
// the same key from the same user are the same logical request.
type Key struct {
	value string
}

// ParseKey validates an idempotency key: non-empty, at most 50 characters,
// printable characters only. Malformed keys are rejected before any store
// access.
func ParseKey(s string) (Key, error) {
	if strings.TrimSpace(s) == "" {
		return Key{}, fmt.Errorf("idempotency key is empty")
	}
	if len(s) > maxKeyLength {
		return Key{}, fmt.Errorf("idempotency key exceeds %d characters", maxKeyLength)
	}
	for _, r := range s {
		if !unicode.IsPrint(r) {
			return Key{}, fmt.Errorf("idempotency key contains non-printable character")
		}
	}
	return Key{value: s}, nil
}

// String returns the key value.
func (k Key) String() string {
	return k.value
}
