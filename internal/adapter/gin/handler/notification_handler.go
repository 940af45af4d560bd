package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"boards-backend/internal/adapter/gin/middleware"
	"boards-backend/internal/usecase/notification"
)

// NotificationHandler handles HTTP requests for the notification inbox.
type NotificationHandler struct {
	uc  *notification.Usecase
	log *zap.Logger
}

// NewNotificationHandler creates a new NotificationHandler instance.
func NewNotificationHandler(uc *notification.Usecase, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{uc: uc, log: log}
}

// List handles GET /api/v1/notifications. Accepts ?unread=true and
// ?limit=.
func (h *NotificationHandler) List(c *gin.Context) {
	unreadOnly := c.Query("unread") == "true"
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	views, err := h.uc.List(c.Request.Context(), middleware.UserID(c), notification.ListRequest{
		UnreadOnly: unreadOnly,
		Limit:      limit,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// MarkRead handles PUT /api/v1/notifications/:id/read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.uc.MarkRead(c.Request.Context(), middleware.UserID(c), id); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// MarkAllRead handles PUT /api/v1/notifications/read.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	resp, err := h.uc.MarkAllRead(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
