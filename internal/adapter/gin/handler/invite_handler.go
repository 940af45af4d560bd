package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"boards-backend/internal/adapter/gin/middleware"
	"boards-backend/internal/usecase/invite"
)

// InviteHandler handles HTTP requests for signup requests and
// invitation token flows.
type InviteHandler struct {
	uc  *invite.Usecase
	log *zap.Logger
}

// NewInviteHandler creates a new InviteHandler instance.
func NewInviteHandler(uc *invite.Usecase, log *zap.Logger) *InviteHandler {
	return &InviteHandler{uc: uc, log: log}
}

// SignupRequestBody represents the HTTP request body for asking to join.
type SignupRequestBody struct {
	Email string `json:"email"`
}

// TokenBody represents an HTTP request body carrying a token.
type TokenBody struct {
	Token string `json:"token"`
}

// RequestSignup handles POST /api/v1/signup_requests.
func (h *InviteHandler) RequestSignup(c *gin.Context) {
	var req SignupRequestBody
	if !bindJSON(c, &req) {
		return
	}

	if err := h.uc.RequestSignup(c.Request.Context(), invite.CreateSignupRequest{
		Email: req.Email,
	}); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "ok"})
}

// ValidateSignupToken handles POST /api/v1/signup_requests/validate.
func (h *InviteHandler) ValidateSignupToken(c *gin.Context) {
	var req TokenBody
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.uc.ValidateSignupToken(c.Request.Context(), invite.ValidateSignupTokenRequest{
		Token: req.Token,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Accept handles POST /api/v1/invitations/accept.
func (h *InviteHandler) Accept(c *gin.Context) {
	var req TokenBody
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.uc.Accept(c.Request.Context(), middleware.UserID(c), invite.InvitationTokenRequest{
		Token: req.Token,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Reject handles POST /api/v1/invitations/reject. The token alone
// authorizes the rejection, so no signin is required.
func (h *InviteHandler) Reject(c *gin.Context) {
	var req TokenBody
	if !bindJSON(c, &req) {
		return
	}

	if err := h.uc.Reject(c.Request.Context(), invite.InvitationTokenRequest{
		Token: req.Token,
	}); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
