package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Token kinds carried in the "type" claim. Parsing a token of one kind
// with the parser of another fails.
const (
	TokenAccess        = "Access"
	TokenSignupRequest = "SignupRequest"
	TokenInvitedUser   = "InvitedUser"
	TokenPasswordReset = "PasswordReset"
	TokenCardDownload  = "CardDownload"
)

var (
	// ErrInvalidToken is returned for malformed, expired, or mistyped tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrStaleToken is returned when a token's version no longer matches the user.
	ErrStaleToken = errors.New("stale token")
)

// TokenService issues and validates the JWTs used across the API:
// access tokens, invitation tokens, password reset tokens, and
// signed card download tokens.
type TokenService struct {
	secret []byte
	expiry time.Duration
}

// NewTokenService creates a token service. expiry applies to access tokens;
// other token kinds carry their own lifetimes.
func NewTokenService(secret string, expiry time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), expiry: expiry}
}

type accessClaims struct {
	Type         string `json:"type"`
	UserID       int64  `json:"user_id"`
	Username     string `json:"username"`
	TokenVersion int64  `json:"token_version"`
	jwt.RegisteredClaims
}

type emailClaims struct {
	Type  string `json:"type"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type inviteClaims struct {
	Type          string `json:"type"`
	InvitedUserID int64  `json:"pk"`
	Email         string `json:"email"`
	jwt.RegisteredClaims
}

type resetClaims struct {
	Type         string `json:"type"`
	UserID       int64  `json:"user_id"`
	TokenVersion int64  `json:"token_version"`
	jwt.RegisteredClaims
}

type downloadClaims struct {
	Type   string `json:"type"`
	CardID int64  `json:"id"`
	jwt.RegisteredClaims
}

// AccessToken represents the validated contents of an access token.
type AccessToken struct {
	UserID       int64
	Username     string
	TokenVersion int64
}

// IssueAccessToken creates a signed access token for a user.
// tokenVersion is bumped on password change, invalidating older tokens.
func (s *TokenService) IssueAccessToken(userID int64, username string, tokenVersion int64) (string, error) {
	claims := accessClaims{
		Type:         TokenAccess,
		UserID:       userID,
		Username:     username,
		TokenVersion: tokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.expiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return s.sign(claims)
}

// ParseAccessToken validates an access token and returns its contents.
func (s *TokenService) ParseAccessToken(tokenStr string) (*AccessToken, error) {
	var claims accessClaims
	if err := s.parse(tokenStr, &claims); err != nil {
		return nil, err
	}
	if claims.Type != TokenAccess || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return &AccessToken{
		UserID:       claims.UserID,
		Username:     claims.Username,
		TokenVersion: claims.TokenVersion,
	}, nil
}

// IssueSignupRequestToken creates a token binding a signup request to an email.
// Signup request tokens do not expire; the request row is the source of truth.
func (s *TokenService) IssueSignupRequestToken(email string) (string, error) {
	claims := emailClaims{
		Type:  TokenSignupRequest,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	return s.sign(claims)
}

// ParseSignupRequestToken validates a signup request token and returns the email.
func (s *TokenService) ParseSignupRequestToken(tokenStr string) (string, error) {
	var claims emailClaims
	if err := s.parse(tokenStr, &claims); err != nil {
		return "", err
	}
	if claims.Type != TokenSignupRequest || claims.Email == "" {
		return "", ErrInvalidToken
	}
	return claims.Email, nil
}

// IssueInviteToken creates a token for an invited user.
func (s *TokenService) IssueInviteToken(invitedUserID int64, email string) (string, error) {
	claims := inviteClaims{
		Type:          TokenInvitedUser,
		InvitedUserID: invitedUserID,
		Email:         email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	return s.sign(claims)
}

// ParseInviteToken validates an invite token and returns the invited user id and email.
func (s *TokenService) ParseInviteToken(tokenStr string) (int64, string, error) {
	var claims inviteClaims
	if err := s.parse(tokenStr, &claims); err != nil {
		return 0, "", err
	}
	if claims.Type != TokenInvitedUser || claims.InvitedUserID == 0 {
		return 0, "", ErrInvalidToken
	}
	return claims.InvitedUserID, claims.Email, nil
}

// IssuePasswordResetToken creates a single-use password reset token.
// The token version check makes it single-use: resetting the password
// bumps the version and invalidates the token that performed the reset.
func (s *TokenService) IssuePasswordResetToken(userID, tokenVersion int64) (string, error) {
	claims := resetClaims{
		Type:         TokenPasswordReset,
		UserID:       userID,
		TokenVersion: tokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return s.sign(claims)
}

// ParsePasswordResetToken validates a reset token and returns user id and token version.
func (s *TokenService) ParsePasswordResetToken(tokenStr string) (int64, int64, error) {
	var claims resetClaims
	if err := s.parse(tokenStr, &claims); err != nil {
		return 0, 0, err
	}
	if claims.Type != TokenPasswordReset || claims.UserID == 0 {
		return 0, 0, ErrInvalidToken
	}
	return claims.UserID, claims.TokenVersion, nil
}

// IssueCardDownloadToken creates a short-lived token granting download
// access to a single card. ttl mirrors the storage signature lifetime.
func (s *TokenService) IssueCardDownloadToken(cardID int64, ttl time.Duration) (string, error) {
	claims := downloadClaims{
		Type:   TokenCardDownload,
		CardID: cardID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return s.sign(claims)
}

// ParseCardDownloadToken validates a download token and returns the card id.
func (s *TokenService) ParseCardDownloadToken(tokenStr string) (int64, error) {
	var claims downloadClaims
	if err := s.parse(tokenStr, &claims); err != nil {
		return 0, err
	}
	if claims.Type != TokenCardDownload || claims.CardID == 0 {
		return 0, ErrInvalidToken
	}
	return claims.CardID, nil
}

func (s *TokenService) sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *TokenService) parse(tokenStr string, claims jwt.Claims) error {
	if len(s.secret) == 0 {
		return errors.New("jwt secret is empty")
	}

	tok, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !tok.Valid {
		return ErrInvalidToken
	}
	return nil
}
