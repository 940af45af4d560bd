package board

import (
	"strconv"
	"time"

	"github.com/gosimple/slug"
)

// Permission levels for board collaborators.
const (
	PermissionRead  = "read"
	PermissionWrite = "write"
)

// Board is a collection of cards under an account. Slug is unique
// within the account. IsShared makes the board publicly readable.
type Board struct {
	ID              int64
	AccountID       int64
	Name            string
	Slug            string
	Color           string
	IsShared        bool
	ThumbnailXSPath string
	ThumbnailSMPath string
	ThumbnailMDPath string
	ThumbnailLGPath string
	CreatedByID     int64
	ModifiedByID    int64
	DateCreated     time.Time
	DateModified    time.Time
}

// AnnounceRoom returns the pub/sub room boards of this account publish to.
func (b *Board) AnnounceRoom() string {
	return Room(b.AccountID)
}

// Collaborator grants a user, or a not-yet-registered invited user,
// access to a board. Exactly one of UserID and InvitedUserID is set.
type Collaborator struct {
	ID            int64
	BoardID       int64
	UserID        int64
	InvitedUserID int64
	Permission    string // read | write
	CreatedByID   int64
	DateCreated   time.Time
	DateModified  time.Time
}

// CanWrite reports whether the collaborator holds write permission.
func (c *Collaborator) CanWrite() bool {
	return c.Permission == PermissionWrite
}

// CollaboratorRequest is an open ask for access to a board, resolved
// by a board owner. At least one of Email and UserID is set.
type CollaboratorRequest struct {
	ID           int64
	BoardID      int64
	UserID       int64
	Email        string
	FirstName    string
	LastName     string
	Message      string
	DateCreated  time.Time
	DateModified time.Time
}

// ValidPermission reports whether p is a known permission level.
func ValidPermission(p string) bool {
	return p == PermissionRead || p == PermissionWrite
}

// Room returns the announce room name for an account id.
func Room(accountID int64) string {
	return "a" + strconv.FormatInt(accountID, 10)
}

// Slugify derives a URL-safe slug from a board name, transliterating
// unicode (e.g. '自転車' becomes 'zi-zhuan-che').
func Slugify(name string) string {
	s := slug.Make(name)
	if s == "" {
		s = "board"
	}
	return s
}
