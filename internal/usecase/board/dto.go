package board

import (
	"time"

	domain "boards-backend/internal/domain/board"
)

// CreateBoardRequest represents the request payload for creating a board.
type CreateBoardRequest struct {
	AccountID int64  `validate:"required"`
	Name      string `validate:"required,max=255"`
	Color     string `validate:"omitempty,max=7"`
	IsShared  bool
}

// UpdateBoardRequest represents the request payload for updating a
// board. Nil fields are left untouched.
type UpdateBoardRequest struct {
	Name     *string `validate:"omitempty,max=255"`
	Color    *string `validate:"omitempty,max=7"`
	IsShared *bool
}

// CloneBoardRequest represents the request payload for deep-copying a
// board. A zero AccountID clones into the board's own account.
type CloneBoardRequest struct {
	AccountID int64
}

// AddCollaboratorRequest represents the request payload for granting
// board access. Exactly one of UserID and Email must be set; an email
// that belongs to no registered user produces an invitation.
type AddCollaboratorRequest struct {
	UserID     int64
	Email      string `validate:"omitempty,email"`
	Permission string `validate:"required"`
}

// UpdateCollaboratorRequest represents the request payload for changing
// a collaborator's permission level.
type UpdateCollaboratorRequest struct {
	Permission string `validate:"required"`
}

// CreateAccessRequest represents the request payload for asking for
// access to a board. Anonymous requesters identify by email.
type CreateAccessRequest struct {
	Email     string `validate:"omitempty,email"`
	FirstName string `validate:"omitempty,max=30"`
	LastName  string `validate:"omitempty,max=30"`
	Message   string `validate:"omitempty,max=2000"`
}

// ResolveAccessRequest represents the request payload for accepting or
// rejecting an access request.
type ResolveAccessRequest struct {
	Accept     bool
	Permission string
}

// View is the serialized form of a board, shared by API responses and
// announce payloads.
type View struct {
	ID              int64     `json:"id"`
	AccountID       int64     `json:"account"`
	Name            string    `json:"name"`
	Slug            string    `json:"slug"`
	Color           string    `json:"color,omitempty"`
	IsShared        bool      `json:"is_shared"`
	ThumbnailXSPath string    `json:"thumbnail_xs_path,omitempty"`
	ThumbnailSMPath string    `json:"thumbnail_sm_path,omitempty"`
	ThumbnailMDPath string    `json:"thumbnail_md_path,omitempty"`
	ThumbnailLGPath string    `json:"thumbnail_lg_path,omitempty"`
	CreatedBy       int64     `json:"created_by"`
	ModifiedBy      int64     `json:"modified_by"`
	DateCreated     time.Time `json:"date_created"`
	DateModified    time.Time `json:"date_modified"`
}

// NewView builds the serialized form of a board.
func NewView(b *domain.Board) View {
	return View{
		ID:              b.ID,
		AccountID:       b.AccountID,
		Name:            b.Name,
		Slug:            b.Slug,
		Color:           b.Color,
		IsShared:        b.IsShared,
		ThumbnailXSPath: b.ThumbnailXSPath,
		ThumbnailSMPath: b.ThumbnailSMPath,
		ThumbnailMDPath: b.ThumbnailMDPath,
		ThumbnailLGPath: b.ThumbnailLGPath,
		CreatedBy:       b.CreatedByID,
		ModifiedBy:      b.ModifiedByID,
		DateCreated:     b.DateCreated,
		DateModified:    b.DateModified,
	}
}

// NewViews builds serialized forms for a board list.
func NewViews(boards []domain.Board) []View {
	out := make([]View, len(boards))
	for i := range boards {
		out[i] = NewView(&boards[i])
	}
	return out
}

// CollaboratorView is the serialized form of a board collaborator.
type CollaboratorView struct {
	ID            int64     `json:"id"`
	BoardID       int64     `json:"board"`
	UserID        int64     `json:"user,omitempty"`
	InvitedUserID int64     `json:"invited_user,omitempty"`
	Permission    string    `json:"permission"`
	DateCreated   time.Time `json:"date_created"`
}

// NewCollaboratorView builds the serialized form of a collaborator.
func NewCollaboratorView(c *domain.Collaborator) CollaboratorView {
	return CollaboratorView{
		ID:            c.ID,
		BoardID:       c.BoardID,
		UserID:        c.UserID,
		InvitedUserID: c.InvitedUserID,
		Permission:    c.Permission,
		DateCreated:   c.DateCreated,
	}
}

// AccessRequestView is the serialized form of a board access request.
type AccessRequestView struct {
	ID          int64     `json:"id"`
	BoardID     int64     `json:"board"`
	UserID      int64     `json:"user,omitempty"`
	Email       string    `json:"email,omitempty"`
	FirstName   string    `json:"first_name,omitempty"`
	LastName    string    `json:"last_name,omitempty"`
	Message     string    `json:"message,omitempty"`
	DateCreated time.Time `json:"date_created"`
}

// NewAccessRequestView builds the serialized form of an access request.
func NewAccessRequestView(req *domain.CollaboratorRequest) AccessRequestView {
	return AccessRequestView{
		ID:          req.ID,
		BoardID:     req.BoardID,
		UserID:      req.UserID,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Message:     req.Message,
		DateCreated: req.DateCreated,
	}
}
