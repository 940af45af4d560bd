package auth

import (
	"boards-backend/internal/domain/account"
	"boards-backend/internal/domain/user"
)

// SignupRequest represents the request payload for creating an account.
// When signups are closed, one of SignupToken and InviteToken must be
// present and match the email.
type SignupRequest struct {
	Username    string `validate:"required,min=1,max=30"`
	Email       string `validate:"required,email"`
	Password    string `validate:"required,min=6,max=128"`
	FirstName   string `validate:"omitempty,max=30"`
	LastName    string `validate:"omitempty,max=30"`
	SignupToken string
	InviteToken string
}

// SigninRequest represents the request payload for signing in. The
// identifier may be a username or an email address.
type SigninRequest struct {
	Identifier string `validate:"required"`
	Password   string `validate:"required"`
}

// AuthResponse carries the access token together with the signed-in
// user and, for signups, the personal account created for them.
type AuthResponse struct {
	Token   string
	User    *user.User
	Account *account.Account
}

// ValidateUsernameRequest represents the request payload for checking
// username availability.
type ValidateUsernameRequest struct {
	Username string `validate:"required"`
}

// ValidateUsernameResponse reports whether a username can be claimed.
type ValidateUsernameResponse struct {
	Available bool
	Reason    string
}

// ForgotPasswordRequest represents the request payload for a password
// reset email.
type ForgotPasswordRequest struct {
	Email string `validate:"required,email"`
}

// ResetPasswordRequest represents the request payload for completing a
// password reset with an emailed token.
type ResetPasswordRequest struct {
	Token       string `validate:"required"`
	NewPassword string `validate:"required,min=6,max=128"`
}
