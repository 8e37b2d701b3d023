package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const maxNameLength = 256

// forbiddenNameChars are characters rejected in subscriber names to keep them
// safe for embedding in email templates.
var forbiddenNameChars = []rune{'/', '(', ')', '"', '<', '>', '\\', '{', '}'}

// SubscriberName is a validated subscriber display name.
type SubscriberName struct {
	value string
}

// ParseSubscriberName validates a subscriber name: non-empty after trimming,
// at most 256 characters, and free of template-breaking characters.
func ParseSubscriberName(s string) (SubscriberName, error) {
	if strings.TrimSpace(s) == "" {
		return SubscriberName{}, fmt.Errorf("subscriber name is empty")
	}
	if utf8.RuneCountInString(s) > maxNameLength {
		return SubscriberName{}, fmt.Errorf("subscriber name exceeds %d characters", maxNameLength)
	}
	for _, r := range s {
		for _, forbidden := range forbiddenNameChars {
			if r == forbidden {
				return SubscriberName{}, fmt.Errorf("subscriber name contains invalid character %q", r)
			}
		}
	}
	return SubscriberName{value: s}, nil
}

// String returns the name as provided.
func (n SubscriberName) String() string {
	return n.value
}
