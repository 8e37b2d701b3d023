package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// fallbackHash is a hash of a throwaway password, verified when the username
// does not exist so that lookup failures take as long as password mismatches.
const fallbackHash = "$2a$12$gZvlAYN2YsxrDn1kXCB4guRqmUKaXS4p5o8iMVmcgzNEq7Navr2Im"

// HashPassword hashes a plaintext password using bcrypt with cost factor 12.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword checks a plaintext password against a bcrypt hash.
// Returns nil on success, or an error if the password does not match.
func VerifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
