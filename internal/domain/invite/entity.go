package invite

import "time"

// SignupRequest records an email that asked for an invitation. The
// signed token emailed back to it gates signup when signups are closed.
type SignupRequest struct {
	ID           int64
	Email        string // unique
	DateCreated  time.Time
	DateModified time.Time
}

// InvitedUser is a pending invitation to join an account. When the
// email already belongs to a registered user, UserID links to them and
// accepting only requires signin; otherwise accept happens at signup.
type InvitedUser struct {
	ID                  int64
	AccountID           int64
	Email               string // unique per account
	FirstName           string
	LastName            string
	UserID              int64 // linked registered user, zero when unknown
	BoardCollaboratorID int64 // pending board grant attached to the invite
	CreatedByID         int64
	DateCreated         time.Time
	DateModified        time.Time
}

// FullName returns the first name plus the last name, with a space in between.
func (iu *InvitedUser) FullName() string {
	if iu.FirstName == "" {
		return iu.LastName
	}
	if iu.LastName == "" {
		return iu.FirstName
	}
	return iu.FirstName + " " + iu.LastName
}
