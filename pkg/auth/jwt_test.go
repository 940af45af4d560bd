package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *TokenService {
	return NewTokenService("test-secret", 90*24*time.Hour)
}

func TestAccessToken_RoundTrip(t *testing.T) {
	svc := newTestService()

	token, err := svc.IssueAccessToken(42, "jpadilla", 3)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := svc.ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), parsed.UserID)
	assert.Equal(t, "jpadilla", parsed.Username)
	assert.Equal(t, int64(3), parsed.TokenVersion)
}

func TestAccessToken_WrongSecret(t *testing.T) {
	svc := newTestService()
	other := NewTokenService("other-secret", time.Hour)

	token, err := svc.IssueAccessToken(1, "user", 0)
	require.NoError(t, err)

	_, err = other.ParseAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAccessToken_Expired(t *testing.T) {
	svc := NewTokenService("test-secret", -time.Minute)

	token, err := svc.IssueAccessToken(1, "user", 0)
	require.NoError(t, err)

	_, err = svc.ParseAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenKinds_NotInterchangeable(t *testing.T) {
	svc := newTestService()

	signup, err := svc.IssueSignupRequestToken("new@example.com")
	require.NoError(t, err)

	// A signup request token must not authenticate as an access token.
	_, err = svc.ParseAccessToken(signup)
	assert.Error(t, err)

	access, err := svc.IssueAccessToken(7, "user", 0)
	require.NoError(t, err)

	_, err = svc.ParseSignupRequestToken(access)
	assert.Error(t, err)
}

func TestSignupRequestToken_RoundTrip(t *testing.T) {
	svc := newTestService()

	token, err := svc.IssueSignupRequestToken("new@example.com")
	require.NoError(t, err)

	email, err := svc.ParseSignupRequestToken(token)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", email)
}

func TestInviteToken_RoundTrip(t *testing.T) {
	svc := newTestService()

	token, err := svc.IssueInviteToken(15, "invited@example.com")
	require.NoError(t, err)

	id, email, err := svc.ParseInviteToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(15), id)
	assert.Equal(t, "invited@example.com", email)
}

func TestPasswordResetToken_RoundTrip(t *testing.T) {
	svc := newTestService()

	token, err := svc.IssuePasswordResetToken(9, 2)
	require.NoError(t, err)

	userID, version, err := svc.ParsePasswordResetToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(9), userID)
	assert.Equal(t, int64(2), version)
}

func TestCardDownloadToken_RoundTrip(t *testing.T) {
	svc := newTestService()

	token, err := svc.IssueCardDownloadToken(123, 3*time.Hour)
	require.NoError(t, err)

	cardID, err := svc.ParseCardDownloadToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(123), cardID)
}

func TestCardDownloadToken_Expired(t *testing.T) {
	svc := newTestService()

	token, err := svc.IssueCardDownloadToken(123, -time.Second)
	require.NoError(t, err)

	_, err = svc.ParseCardDownloadToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHasher_HashAndCompare(t *testing.T) {
	hasher := NewPasswordHasher(4) // low cost for tests

	hash, err := hasher.Hash("s3cret-password")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret-password", hash)

	assert.True(t, hasher.Compare(hash, "s3cret-password"))
	assert.False(t, hasher.Compare(hash, "wrong-password"))
	assert.False(t, hasher.Compare("not-a-hash", "s3cret-password"))
}
