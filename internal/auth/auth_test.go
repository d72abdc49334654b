package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$")

	ok, err := ComparePasswordAndHash("hunter2", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ComparePasswordAndHash("hunter3", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	_, err := HashPassword("")
	assert.True(t, errors.Is(err, ErrEmptyPassword))
}

func TestDecodeHashRejectsGarbage(t *testing.T) {
	_, _, _, err := DecodeHash("not-a-hash")
	assert.True(t, errors.Is(err, ErrInvalidHash))

	_, _, _, err = DecodeHash("$argon2id$v=1$m=1,t=1,p=1$c2FsdA$a2V5")
	assert.True(t, errors.Is(err, ErrIncompatibleVersion))

	_, _, _, err = DecodeHash("$argon2id$v=19$m=65536,t=5,p=0$c2FsdA$a2V5")
	assert.True(t, errors.Is(err, ErrInvalidHash))
}

func TestParseTokenTTL(t *testing.T) {
	for in, want := range map[string]time.Duration{"": 0, "0": 0, "never": 0, "72h": 72 * time.Hour} {
		got, err := ParseTokenTTL(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseTokenTTL("soon")
	assert.Error(t, err)
	_, err = ParseTokenTTL("-1h")
	assert.Error(t, err)
}

func TestJWTRoundTrip(t *testing.T) {
	require.NoError(t, Init("1h"))

	token, err := CreateJWT("user-123")
	require.NoError(t, err)

	sub, err := AuthenticateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", sub)
}

func TestJWTRejectsForeignKey(t *testing.T) {
	require.NoError(t, Init("never"))
	token, err := CreateJWT("user-123")
	require.NoError(t, err)

	// A new key pair invalidates tokens signed by the old one.
	require.NoError(t, Init("never"))
	_, err = AuthenticateJWT(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	_, err = AuthenticateJWT("garbage")
	assert.True(t, errors.Is(err, ErrInvalidToken))
}
