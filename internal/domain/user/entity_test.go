package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUser_FullName(t *testing.T) {
	u := User{FirstName: "Juan", LastName: "Padilla"}
	assert.Equal(t, "Juan Padilla", u.FullName())

	u = User{FirstName: "Juan"}
	assert.Equal(t, "Juan", u.FullName())

	u = User{}
	assert.Equal(t, "", u.FullName())
}

func TestGravatarURL(t *testing.T) {
	// gravatar hashes the lowercased, trimmed email
	a := GravatarURL("John@Example.com ")
	b := GravatarURL("john@example.com")
	assert.Equal(t, a, b)
	assert.Contains(t, a, "https://www.gravatar.com/avatar/")
}

func TestIsUsernameValid(t *testing.T) {
	assert.True(t, IsUsernameValid("jpadilla"))
	assert.True(t, IsUsernameValid("user_42"))
	assert.False(t, IsUsernameValid(""))
	assert.False(t, IsUsernameValid("has space"))
	assert.False(t, IsUsernameValid("dash-ed"))
	assert.False(t, IsUsernameValid("waaaaaaaaaaaaaaaaaaaaaaaaaaaytoolong"))
}

func TestIsUsernameReserved(t *testing.T) {
	assert.True(t, IsUsernameReserved("admin"))
	assert.True(t, IsUsernameReserved("signup_requests"))
	assert.False(t, IsUsernameReserved("jpadilla"))
}
