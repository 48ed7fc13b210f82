package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tagnestapp/tagnest-server/internal/domain"
)

const testKeyHex = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func newTestTokenService(t *testing.T, accessDuration time.Duration) *TokenService {
	t.Helper()
	ts, err := NewTokenService(testKeyHex, accessDuration, 720*time.Hour)
	require.NoError(t, err)
	return ts
}

func TestNewTokenService_BadKey(t *testing.T) {
	_, err := NewTokenService("tooshort", time.Minute, time.Hour)
	assert.Error(t, err)

	_, err = NewTokenService(strings.Repeat("z", 64), time.Minute, time.Hour)
	assert.Error(t, err)
}

func TestAccessToken_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t, 15*time.Minute)
	client := &domain.Client{ID: "client_abc", Name: "alice"}

	token, err := ts.GenerateAccessToken(client)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "v4.local."))

	claims, err := ts.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "client_abc", claims.ClientID)
	assert.Equal(t, "alice", claims.Name)
}

func TestAccessToken_Expired(t *testing.T) {
	ts := newTestTokenService(t, -time.Minute)
	client := &domain.Client{ID: "client_abc", Name: "alice"}

	token, err := ts.GenerateAccessToken(client)
	require.NoError(t, err)

	_, err = ts.VerifyAccessToken(token)
	assert.Error(t, err)
}

func TestAccessToken_WrongKey(t *testing.T) {
	ts := newTestTokenService(t, 15*time.Minute)
	otherKey := "fedcba9876543210fedcba9876543210fedcba9876543210fedcba9876543210"
	other, err := NewTokenService(otherKey, 15*time.Minute, time.Hour)
	require.NoError(t, err)

	token, err := ts.GenerateAccessToken(&domain.Client{ID: "client_abc", Name: "alice"})
	require.NoError(t, err)

	_, err = other.VerifyAccessToken(token)
	assert.Error(t, err)
}

func TestVerifyAccessToken_Garbage(t *testing.T) {
	ts := newTestTokenService(t, 15*time.Minute)

	_, err := ts.VerifyAccessToken("not-a-token")
	assert.Error(t, err)
}

func TestGenerateSessionID(t *testing.T) {
	ts := newTestTokenService(t, 15*time.Minute)

	a, err := ts.GenerateSessionID()
	require.NoError(t, err)
	b, err := ts.GenerateSessionID()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.GreaterOrEqual(t, len(a), 32)
	// Opaque random value, not a PASETO token.
	assert.False(t, strings.HasPrefix(a, "v4."))
}
