package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")

	token, err := GenerateToken("user-1", secret, time.Minute)
	require.NoError(t, err)

	owner, err := OwnerFromToken(token, secret)
	assert.NoError(t, err)
	assert.Equal(t, "user-1", owner)
}

func TestOwnerFromToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken("user-1", []byte("right"), time.Minute)
	require.NoError(t, err)

	_, err = OwnerFromToken(token, []byte("wrong"))
	assert.Error(t, err)
}

func TestOwnerFromToken_Expired(t *testing.T) {
	token, err := GenerateToken("user-1", []byte("secret"), -time.Minute)
	require.NoError(t, err)

	_, err = OwnerFromToken(token, []byte("secret"))
	assert.Error(t, err)
}

func TestOwnerFromToken_Garbage(t *testing.T) {
	_, err := OwnerFromToken("not-a-token", []byte("secret"))
	assert.Error(t, err)
}
