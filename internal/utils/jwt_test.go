package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
	t.Parallel()
	cl := Claims{UserID: 42, Email: "alice@example.com", Role: "admin"}

	tok, err := NewAccessToken(testSecret, cl, 15)
	require.NoError(t, err)
	require.NotEmpty(t, tok.Token)

	got, err := ParseToken(testSecret, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, cl, got)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	t.Parallel()
	cl := Claims{UserID: 7, Email: "bob@example.com", Role: "user"}

	tok, err := NewRefreshToken(testSecret, cl, 7)
	require.NoError(t, err)

	got, err := ParseToken(testSecret, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, cl, got)
}

func TestParseTokenWrongSecret(t *testing.T) {
	t.Parallel()
	tok, err := NewAccessToken(testSecret, Claims{UserID: 1, Role: "user"}, 15)
	require.NoError(t, err)

	_, err = ParseToken("some-other-secret", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenExpired(t *testing.T) {
	t.Parallel()
	// Negative TTL produces a token that is already expired.
	tok, err := NewAccessToken(testSecret, Claims{UserID: 1, Role: "user"}, -1)
	require.NoError(t, err)

	_, err = ParseToken(testSecret, tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenGarbage(t *testing.T) {
	t.Parallel()
	_, err := ParseToken(testSecret, "not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHashRefreshRaw(t *testing.T) {
	t.Parallel()
	a := HashRefreshRaw("token-a")
	b := HashRefreshRaw("token-b")

	assert.Len(t, a, 64) // sha256 hex
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, HashRefreshRaw("token-a"), "hash must be deterministic")
}
