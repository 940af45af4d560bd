package account

import (
	"time"

	"github.com/gosimple/slug"
)

// Account groups users and boards under a shared slug. Every user gets
// a personal account at signup; additional accounts are created for teams.
type Account struct {
	ID           int64
	Name         string
	Slug         string // unique across accounts
	CreatedByID  int64
	DateCreated  time.Time
	DateModified time.Time
}

// Collaborator links a user to an account. The owner flag marks the
// account creator and grants administrative rights over its boards.
type Collaborator struct {
	ID           int64
	AccountID    int64
	UserID       int64
	IsOwner      bool
	DateCreated  time.Time
	DateModified time.Time
}

// reservedSlugs are account slugs that collide with top-level routes.
var reservedSlugs = map[string]struct{}{
	"api": {}, "accounts": {}, "admin": {}, "auth": {}, "boards": {},
	"cards": {}, "health": {}, "invitations": {}, "metrics": {},
	"notifications": {}, "signin": {}, "signup": {}, "signup_requests": {},
	"swagger": {}, "users": {},
}

// Slugify derives a URL-safe slug from an account name, transliterating
// unicode. Reserved slugs get a suffix instead of colliding with routes.
func Slugify(name string) string {
	s := slug.Make(name)
	if s == "" {
		s = "account"
	}
	if _, reserved := reservedSlugs[s]; reserved {
		s += "-account"
	}
	return s
}
