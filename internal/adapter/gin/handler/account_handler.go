package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"boards-backend/internal/adapter/gin/middleware"
	"boards-backend/internal/usecase/account"
)

// AccountHandler handles HTTP requests for accounts.
type AccountHandler struct {
	uc  *account.Usecase
	log *zap.Logger
}

// NewAccountHandler creates a new AccountHandler instance.
func NewAccountHandler(uc *account.Usecase, log *zap.Logger) *AccountHandler {
	return &AccountHandler{uc: uc, log: log}
}

// List handles GET /api/v1/accounts.
func (h *AccountHandler) List(c *gin.Context) {
	views, err := h.uc.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// GetBySlug handles GET /api/v1/accounts/:slug. Anonymous visitors see
// the account's shared boards.
func (h *AccountHandler) GetBySlug(c *gin.Context) {
	detail, err := h.uc.GetBySlug(c.Request.Context(), middleware.UserID(c), c.Param("slug"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}
