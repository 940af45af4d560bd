package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	accountuc "boards-backend/internal/usecase/account"
	"boards-backend/internal/usecase/auth"
)

// AuthHandler handles HTTP requests for signup, signin, and password
// recovery.
type AuthHandler struct {
	uc  *auth.Usecase
	log *zap.Logger
}

// NewAuthHandler creates a new AuthHandler instance.
func NewAuthHandler(uc *auth.Usecase, log *zap.Logger) *AuthHandler {
	return &AuthHandler{uc: uc, log: log}
}

// SignupRequest represents the HTTP request body for creating an account.
type SignupRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	SignupToken string `json:"signup_token"`
	InviteToken string `json:"invite_token"`
}

// SigninRequest represents the HTTP request body for signing in.
type SigninRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ValidateUsernameRequest represents the HTTP request body for checking
// username availability.
type ValidateUsernameRequest struct {
	Username string `json:"username"`
}

// ForgotPasswordRequest represents the HTTP request body for requesting
// a password reset email.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest represents the HTTP request body for completing
// a password reset.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// AuthResponse represents the HTTP response after signup or signin.
type AuthResponse struct {
	Token   string          `json:"token"`
	User    UserResponse    `json:"user"`
	Account *accountuc.View `json:"account,omitempty"`
}

func newAuthResponse(resp *auth.AuthResponse) AuthResponse {
	out := AuthResponse{
		Token: resp.Token,
		User:  newUserResponse(resp.User),
	}
	if resp.Account != nil {
		v := accountuc.NewView(resp.Account)
		out.Account = &v
	}
	return out
}

// Signup handles POST /api/v1/auth/signup.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.uc.Signup(c.Request.Context(), auth.SignupRequest{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		SignupToken: req.SignupToken,
		InviteToken: req.InviteToken,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newAuthResponse(resp))
}

// Signin handles POST /api/v1/auth/signin. The username field also
// accepts an email address.
func (h *AuthHandler) Signin(c *gin.Context) {
	var req SigninRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.uc.Signin(c.Request.Context(), auth.SigninRequest{
		Identifier: req.Username,
		Password:   req.Password,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, newAuthResponse(resp))
}

// ValidateUsername handles POST /api/v1/auth/username/validate.
func (h *AuthHandler) ValidateUsername(c *gin.Context) {
	var req ValidateUsernameRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.uc.ValidateUsername(c.Request.Context(), auth.ValidateUsernameRequest{
		Username: req.Username,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"available": resp.Available,
		"reason":    resp.Reason,
	})
}

// ForgotPassword handles POST /api/v1/auth/forgot_password. The
// response does not reveal whether the email is registered.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.uc.ForgotPassword(c.Request.Context(), auth.ForgotPasswordRequest{
		Email: req.Email,
	}); err != nil {
		h.log.Debug("forgot password", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ResetPassword handles POST /api/v1/auth/reset_password.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.uc.ResetPassword(c.Request.Context(), auth.ResetPasswordRequest{
		Token:       req.Token,
		NewPassword: req.NewPassword,
	}); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
