package user

import (
	"crypto/md5"
	"fmt"
	"strings"
	"time"
)

// User represents an account holder in the system.
type User struct {
	ID           int64     // Unique identifier
	Username     string    // Unique, slug-safe handle
	Email        string    // Unique email address
	FirstName    string    // Given name
	LastName     string    // Family name
	PasswordHash string    // bcrypt hash, never serialized to clients
	JobTitle     string    // Optional job title
	AvatarPath   string    // Storage path of an uploaded avatar
	TokenVersion int64     // Bumped on password change to invalidate outstanding JWTs
	DateCreated  time.Time // Creation timestamp
	DateModified time.Time // Last modification timestamp
}

// FullName returns the first name plus the last name, with a space in between.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// GravatarURL returns the gravatar URL for the user's email.
func (u *User) GravatarURL() string {
	return GravatarURL(u.Email)
}

// GravatarURL builds a gravatar URL from an email address.
func GravatarURL(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%x?d=retro", md5.Sum([]byte(normalized)))
}
