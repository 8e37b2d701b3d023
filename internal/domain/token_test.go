package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfirmationToken_HasExpectedShape(t *testing.T) {
	token := NewConfirmationToken()

	assert.Len(t, token.String(), 25)
	_, err := ParseConfirmationToken(token.String())
	assert.NoError(t, err)
}

func TestNewConfirmationToken_Unique(t *testing.T) {
	a := NewConfirmationToken()
	b := NewConfirmationToken()
	assert.NotEqual(t, a.String(), b.String())
}

func TestParseConfirmationToken_Valid(t *testing.T) {
	token, err := ParseConfirmationToken(strings.Repeat("a", 25))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("a", 25), token.String())
}

func TestParseConfirmationToken_WrongLengthIsRejected(t *testing.T) {
	_, err := ParseConfirmationToken(strings.Repeat("a", 24))
	assert.Error(t, err)

	_, err = ParseConfirmationToken(strings.Repeat("a", 26))
	assert.Error(t, err)
}

func TestParseConfirmationToken_EmptyIsRejected(t *testing.T) {
	_, err := ParseConfirmationToken("")
	assert.Error(t, err)
}

func TestParseConfirmationToken_NonASCIILettersAreRejected(t *testing.T) {
	// 23 ASCII bytes plus a two-byte letter: 25 bytes long, but outside the
	// generation alphabet.
	_, err := ParseConfirmationToken(strings.Repeat("a", 23) + "é")
	assert.Error(t, err)

	_, err = ParseConfirmationToken(strings.Repeat("я", 25))
	assert.Error(t, err)
}

func TestParseConfirmationToken_ForbiddenCharactersAreRejected(t *testing.T) {
	for _, c := range []string{"/", "(", ")", `"`, "<", ">", `\`, "{", "}", " "} {
		_, err := ParseConfirmationToken(strings.Repeat(c, 25))
		assert.Error(t, err, "expected %q to be rejected", c)
	}
}
