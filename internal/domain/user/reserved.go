package user

import "regexp"

// reservedUsernames are handles that collide with routes or look official.
var reservedUsernames = map[string]struct{}{
	"accounts": {}, "admin": {}, "administrator": {}, "api": {},
	"auth": {}, "boards": {}, "cards": {}, "comments": {}, "health": {},
	"invitations": {}, "me": {}, "metrics": {}, "notifications": {},
	"root": {}, "settings": {}, "signin": {}, "signup": {}, "signup_requests": {},
	"staff": {}, "support": {}, "swagger": {}, "system": {}, "users": {},
}

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{1,30}$`)

// IsUsernameReserved reports whether a username is on the reserved list.
func IsUsernameReserved(username string) bool {
	_, ok := reservedUsernames[username]
	return ok
}

// IsUsernameValid reports whether a username is well-formed: letters,
// digits, and underscores, at most 30 characters.
func IsUsernameValid(username string) bool {
	return usernamePattern.MatchString(username)
}
