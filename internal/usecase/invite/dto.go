package invite

import (
	"time"

	domain "boards-backend/internal/domain/invite"
)

// CreateSignupRequest represents the request payload for asking to join.
type CreateSignupRequest struct {
	Email string `validate:"required,email"`
}

// ValidateSignupTokenRequest represents the request payload for checking
// a signup token before showing the signup form.
type ValidateSignupTokenRequest struct {
	Token string `validate:"required"`
}

// ValidateSignupTokenResponse carries the email a signup token was
// issued to.
type ValidateSignupTokenResponse struct {
	Email string `json:"email"`
}

// InvitationTokenRequest represents the request payload for accepting or
// rejecting an invitation.
type InvitationTokenRequest struct {
	Token string `validate:"required"`
}

// InvitedUserView is the serialized form of a pending invitation.
type InvitedUserView struct {
	ID          int64     `json:"id"`
	AccountID   int64     `json:"account"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	UserID      int64     `json:"user,omitempty"`
	CreatedBy   int64     `json:"created_by"`
	DateCreated time.Time `json:"date_created"`
}

// NewInvitedUserView builds the serialized form of an invitation.
func NewInvitedUserView(iu *domain.InvitedUser) InvitedUserView {
	return InvitedUserView{
		ID:          iu.ID,
		AccountID:   iu.AccountID,
		Email:       iu.Email,
		FirstName:   iu.FirstName,
		LastName:    iu.LastName,
		UserID:      iu.UserID,
		CreatedBy:   iu.CreatedByID,
		DateCreated: iu.DateCreated,
	}
}
