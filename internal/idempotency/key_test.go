package idempotency

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKey_Valid(t *testing.T) {
	key, err := ParseKey("publish-2026-09-01-weekly")
	require.NoError(t, err)
	assert.Equal(t, "publish-2026-09-01-weekly", key.String())
}

func TestParseKey_EmptyIsRejected(t *testing.T) {
	_, err := ParseKey("")
	assert.Error(t, err)
}

func TestParseKey_WhitespaceOnlyIsRejected(t *testing.T) {
	_, err := ParseKey("   ")
	assert.Error(t, err)
}

func TestParseKey_50CharactersIsAccepted(t *testing.T) {
	_, err := ParseKey(strings.Repeat("k", 50))
	assert.NoError(t, err)
}

func TestParseKey_TooLongIsRejected(t *testing.T) {
	_, err := ParseKey(strings.Repeat("k", 51))
	assert.Error(t, err)
}

func TestParseKey_NonPrintableIsRejected(t *testing.T) {
	_, err := ParseKey("key\x00with-nul")
	assert.Error(t, err)

	_, err = ParseKey("key\nwith-newline")
	assert.Error(t, err)
}
