package user

// UpdateMeRequest represents the request payload for updating the
// signed-in user's profile. Empty fields are left untouched.
type UpdateMeRequest struct {
	Username  string `validate:"omitempty,min=1,max=30"`
	Email     string `validate:"omitempty,email"`
	FirstName string `validate:"omitempty,max=30"`
	LastName  string `validate:"omitempty,max=30"`
	JobTitle  string `validate:"omitempty,max=255"`
}

// ChangePasswordRequest represents the request payload for changing the
// password of the signed-in user.
type ChangePasswordRequest struct {
	CurrentPassword string `validate:"required"`
	NewPassword     string `validate:"required,min=6,max=128"`
}

// ChangePasswordResponse carries the replacement access token issued
// after the change, since the old one is now stale.
type ChangePasswordResponse struct {
	Token string
}
