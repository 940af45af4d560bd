package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"boards-backend/internal/adapter/gin/middleware"
	"boards-backend/internal/usecase/comment"
)

// CommentHandler handles HTTP requests for card comments.
type CommentHandler struct {
	uc  *comment.Usecase
	log *zap.Logger
}

// NewCommentHandler creates a new CommentHandler instance.
func NewCommentHandler(uc *comment.Usecase, log *zap.Logger) *CommentHandler {
	return &CommentHandler{uc: uc, log: log}
}

// CommentBody represents the HTTP request body for creating or editing
// a comment.
type CommentBody struct {
	Content string `json:"content"`
}

// ListForCard handles GET /api/v1/cards/:id/comments.
func (h *CommentHandler) ListForCard(c *gin.Context) {
	cardID, ok := pathID(c, "id")
	if !ok {
		return
	}

	views, err := h.uc.List(c.Request.Context(), middleware.UserID(c), cardID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// CreateForCard handles POST /api/v1/cards/:id/comments.
func (h *CommentHandler) CreateForCard(c *gin.Context) {
	cardID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req CommentBody
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.uc.Create(c.Request.Context(), middleware.UserID(c), cardID, comment.CreateCommentRequest{
		Content: req.Content,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// Update handles PUT /api/v1/comments/:id.
func (h *CommentHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req CommentBody
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.uc.Update(c.Request.Context(), middleware.UserID(c), id, comment.UpdateCommentRequest{
		Content: req.Content,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Delete handles DELETE /api/v1/comments/:id.
func (h *CommentHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.uc.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
