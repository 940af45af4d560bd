package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"boards-backend/internal/adapter/gin/middleware"
	"boards-backend/internal/usecase/card"
)

// CardHandler handles HTTP requests for cards.
type CardHandler struct {
	uc  *card.Usecase
	log *zap.Logger
}

// NewCardHandler creates a new CardHandler instance.
func NewCardHandler(uc *card.Usecase, log *zap.Logger) *CardHandler {
	return &CardHandler{uc: uc, log: log}
}

// CreateCardRequest represents the HTTP request body for creating a card.
type CreateCardRequest struct {
	Board     int64           `json:"board"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Content   string          `json:"content"`
	OriginURL string          `json:"origin_url"`
	FileSize  int64           `json:"file_size"`
	MimeType  string          `json:"mime_type"`
	Data      json.RawMessage `json:"data"`
	Cards     []int64         `json:"cards"` // initial members of a stack
}

// UpdateCardRequest represents the HTTP request body for updating a card.
type UpdateCardRequest struct {
	Name      *string         `json:"name"`
	Content   *string         `json:"content"`
	OriginURL *string         `json:"origin_url"`
	FileSize  *int64          `json:"file_size"`
	MimeType  *string         `json:"mime_type"`
	Data      json.RawMessage `json:"data"`
	Position  *int64          `json:"position"`
	Cards     []int64         `json:"cards"` // replacement member set for stacks
}

// FeaturedRequest represents the HTTP request body for toggling the
// featured flag.
type FeaturedRequest struct {
	Featured bool `json:"featured"`
}

// Create handles POST /api/v1/cards.
func (h *CardHandler) Create(c *gin.Context) {
	var req CreateCardRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.uc.Create(c.Request.Context(), middleware.UserID(c), card.CreateCardRequest{
		BoardID:   req.Board,
		Name:      req.Name,
		Type:      req.Type,
		Content:   req.Content,
		OriginURL: req.OriginURL,
		FileSize:  req.FileSize,
		MimeType:  req.MimeType,
		Data:      req.Data,
		StackIDs:  req.Cards,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// List handles GET /api/v1/cards?board=. Anonymous callers see the
// cards of shared boards.
func (h *CardHandler) List(c *gin.Context) {
	boardID, err := strconv.ParseInt(c.Query("board"), 10, 64)
	if err != nil || boardID < 1 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "board query parameter is required",
		})
		return
	}

	views, err := h.uc.List(c.Request.Context(), middleware.UserID(c), boardID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// Get handles GET /api/v1/cards/:id.
func (h *CardHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	view, err := h.uc.Get(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Update handles PUT /api/v1/cards/:id.
func (h *CardHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateCardRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.uc.Update(c.Request.Context(), middleware.UserID(c), id, card.UpdateCardRequest{
		Name:      req.Name,
		Content:   req.Content,
		OriginURL: req.OriginURL,
		FileSize:  req.FileSize,
		MimeType:  req.MimeType,
		Data:      req.Data,
		Position:  req.Position,
		StackIDs:  req.Cards,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Delete handles DELETE /api/v1/cards/:id.
func (h *CardHandler) Delete(c *gin.Context) {
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

// SetFeatured handles PUT /api/v1/cards/:id/featured.
func (h *CardHandler) SetFeatured(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req FeaturedRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.uc.SetFeatured(c.Request.Context(), middleware.UserID(c), id, req.Featured)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ListStackMembers handles GET /api/v1/cards/:id/cards.
func (h *CardHandler) ListStackMembers(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	views, err := h.uc.ListStackMembers(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// Download handles GET /api/v1/cards/:id/download. The response is a
// signed URL the client follows to fetch the file from storage, plus a
// download_token that makes the link shareable: presenting it in the
// download_token query parameter skips the session check.
func (h *CardHandler) Download(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	resp, err := h.uc.Download(c.Request.Context(), middleware.UserID(c), id, c.Query("download_token"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"url":            resp.URL,
		"download_token": resp.Token,
		"expires_in":     int64(resp.ExpiresIn.Seconds()),
	})
}

// SignUploadRequest represents the HTTP request body for signing a
// browser upload.
type SignUploadRequest struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
}

// SignUpload handles POST /api/v1/files/sign. It allocates an object
// key and returns the signed POST policy the browser uploads with.
func (h *CardHandler) SignUpload(c *gin.Context) {
	var req SignUploadRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.uc.SignUpload(c.Request.Context(), card.SignUploadRequest{
		Name:     req.Name,
		MimeType: req.MimeType,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
