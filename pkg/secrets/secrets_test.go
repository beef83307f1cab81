package secrets

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	Cost = bcrypt.MinCost
}

func TestGenerate(t *testing.T) {
	a, err := Generate(32)
	require.NoError(t, err)
	b, err := Generate(32)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Len(t, a, 43)
	assert.NotContains(t, a, "=")
	assert.False(t, strings.ContainsAny(a, "+/"))

	raw, err := base64.RawURLEncoding.DecodeString(a)
	require.NoError(t, err)
	assert.Len(t, raw, 32)
}

func TestHashAndVerify(t *testing.T) {
	h, err := Hash("1234")
	require.NoError(t, err)
	assert.NotEqual(t, "1234", h)

	assert.NoError(t, Verify("1234", h))
	assert.ErrorIs(t, Verify("4321", h), ErrMismatch)
}

func TestHash_Empty(t *testing.T) {
	_, err := Hash("")
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestHash_TooLong(t *testing.T) {
	_, err := Hash(strings.Repeat("x", 100))
	assert.ErrorIs(t, err, ErrTooLong)
}

func TestVerify_MalformedHash(t *testing.T) {
	err := Verify("1234", "not-a-bcrypt-hash")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMismatch))
}
