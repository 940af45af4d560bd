package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"boards-backend/internal/adapter/gin/middleware"
	domain "boards-backend/internal/domain/user"
	"boards-backend/internal/usecase/user"
)

// UserHandler handles HTTP requests for the signed-in user's profile.
type UserHandler struct {
	uc  *user.Usecase
	log *zap.Logger
}

// NewUserHandler creates a new UserHandler instance.
func NewUserHandler(uc *user.Usecase, log *zap.Logger) *UserHandler {
	return &UserHandler{uc: uc, log: log}
}

// UpdateMeRequest represents the HTTP request body for updating the
// profile.
type UpdateMeRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	JobTitle  string `json:"job_title"`
}

// ChangePasswordRequest represents the HTTP request body for changing
// the password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// UserResponse represents the HTTP response for user data. The password
// hash never appears here.
type UserResponse struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	JobTitle     string    `json:"job_title,omitempty"`
	AvatarPath   string    `json:"avatar_path,omitempty"`
	GravatarURL  string    `json:"gravatar_url"`
	DateCreated  time.Time `json:"date_created"`
	DateModified time.Time `json:"date_modified"`
}

func newUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		JobTitle:     u.JobTitle,
		AvatarPath:   u.AvatarPath,
		GravatarURL:  u.GravatarURL(),
		DateCreated:  u.DateCreated,
		DateModified: u.DateModified,
	}
}

// GetMe handles GET /api/v1/users/me.
func (h *UserHandler) GetMe(c *gin.Context) {
	u, err := h.uc.GetMe(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(u))
}

// UpdateMe handles PUT /api/v1/users/me.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req UpdateMeRequest
	if !bindJSON(c, &req) {
		return
	}

	u, err := h.uc.UpdateMe(c.Request.Context(), middleware.UserID(c), user.UpdateMeRequest{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		JobTitle:  req.JobTitle,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(u))
}

// ChangePassword handles PUT /api/v1/users/me/password. The response
// carries a fresh token because the old one is retired by the change.
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.uc.ChangePassword(c.Request.Context(), middleware.UserID(c), user.ChangePasswordRequest{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": resp.Token})
}
