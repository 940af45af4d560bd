package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"boards-backend/internal/adapter/gin/middleware"
	"boards-backend/internal/usecase/board"
)

// BoardHandler handles HTTP requests for boards, their collaborators,
// and access requests.
type BoardHandler struct {
	uc  *board.Usecase
	log *zap.Logger
}

// NewBoardHandler creates a new BoardHandler instance.
func NewBoardHandler(uc *board.Usecase, log *zap.Logger) *BoardHandler {
	return &BoardHandler{uc: uc, log: log}
}

// CreateBoardRequest represents the HTTP request body for creating a board.
type CreateBoardRequest struct {
	Account  int64  `json:"account"`
	Name     string `json:"name"`
	Color    string `json:"color"`
	IsShared bool   `json:"is_shared"`
}

// UpdateBoardRequest represents the HTTP request body for updating a board.
type UpdateBoardRequest struct {
	Name     *string `json:"name"`
	Color    *string `json:"color"`
	IsShared *bool   `json:"is_shared"`
}

// CloneBoardRequest represents the HTTP request body for cloning a board.
type CloneBoardRequest struct {
	Account int64 `json:"account"`
}

// AddCollaboratorRequest represents the HTTP request body for granting
// board access to a user or an email.
type AddCollaboratorRequest struct {
	User       int64  `json:"user"`
	Email      string `json:"email"`
	Permission string `json:"permission"`
}

// UpdateCollaboratorRequest represents the HTTP request body for
// changing a collaborator's permission.
type UpdateCollaboratorRequest struct {
	Permission string `json:"permission"`
}

// AccessRequestBody represents the HTTP request body for asking for
// board access.
type AccessRequestBody struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Message   string `json:"message"`
}

// ResolveAccessBody represents the HTTP request body for accepting an
// access request.
type ResolveAccessBody struct {
	Permission string `json:"permission"`
}

// Create handles POST /api/v1/boards.
func (h *BoardHandler) Create(c *gin.Context) {
	var req CreateBoardRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.uc.Create(c.Request.Context(), middleware.UserID(c), board.CreateBoardRequest{
		AccountID: req.Account,
		Name:      req.Name,
		Color:     req.Color,
		IsShared:  req.IsShared,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// List handles GET /api/v1/boards. An ?account= filter narrows the
// listing to one account.
func (h *BoardHandler) List(c *gin.Context) {
	accountID, _ := strconv.ParseInt(c.Query("account"), 10, 64)

	userID := middleware.UserID(c)
	if userID == 0 {
		// anonymous listing shows an account's shared boards only
		if accountID == 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "validation_error",
				Message: "account query parameter is required for anonymous listing",
			})
			return
		}
		views, err := h.uc.ListShared(c.Request.Context(), accountID)
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, views)
		return
	}

	views, err := h.uc.List(c.Request.Context(), userID, accountID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// Get handles GET /api/v1/boards/:id. Shared boards are visible to
// anonymous callers.
func (h *BoardHandler) Get(c *gin.Context) {
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

// Update handles PUT /api/v1/boards/:id.
func (h *BoardHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateBoardRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.uc.Update(c.Request.Context(), middleware.UserID(c), id, board.UpdateBoardRequest{
		Name:     req.Name,
		Color:    req.Color,
		IsShared: req.IsShared,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Delete handles DELETE /api/v1/boards/:id.
func (h *BoardHandler) Delete(c *gin.Context) {
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

// Clone handles POST /api/v1/boards/:id/clone.
func (h *BoardHandler) Clone(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req CloneBoardRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	view, err := h.uc.Clone(c.Request.Context(), middleware.UserID(c), id, board.CloneBoardRequest{
		AccountID: req.Account,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// ListCollaborators handles GET /api/v1/boards/:id/collaborators.
func (h *BoardHandler) ListCollaborators(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	views, err := h.uc.ListCollaborators(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// AddCollaborator handles POST /api/v1/boards/:id/collaborators.
func (h *BoardHandler) AddCollaborator(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req AddCollaboratorRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.uc.AddCollaborator(c.Request.Context(), middleware.UserID(c), id, board.AddCollaboratorRequest{
		UserID:     req.User,
		Email:      req.Email,
		Permission: req.Permission,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// UpdateCollaborator handles PUT /api/v1/boards/:id/collaborators/:collaborator_id.
func (h *BoardHandler) UpdateCollaborator(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	collaboratorID, ok := pathID(c, "collaborator_id")
	if !ok {
		return
	}
	var req UpdateCollaboratorRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.uc.UpdateCollaborator(c.Request.Context(), middleware.UserID(c), id, collaboratorID,
		board.UpdateCollaboratorRequest{Permission: req.Permission})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// RemoveCollaborator handles DELETE /api/v1/boards/:id/collaborators/:collaborator_id.
func (h *BoardHandler) RemoveCollaborator(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	collaboratorID, ok := pathID(c, "collaborator_id")
	if !ok {
		return
	}

	if err := h.uc.RemoveCollaborator(c.Request.Context(), middleware.UserID(c), id, collaboratorID); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RequestAccess handles POST /api/v1/boards/:id/requests. Anonymous
// requesters must supply an email.
func (h *BoardHandler) RequestAccess(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req AccessRequestBody
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.uc.RequestAccess(c.Request.Context(), middleware.UserID(c), id, board.CreateAccessRequest{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Message:   req.Message,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// AcceptRequest handles PUT /api/v1/requests/:id/accept.
func (h *BoardHandler) AcceptRequest(c *gin.Context) {
	h.resolveRequest(c, true)
}

// RejectRequest handles PUT /api/v1/requests/:id/reject.
func (h *BoardHandler) RejectRequest(c *gin.Context) {
	h.resolveRequest(c, false)
}

func (h *BoardHandler) resolveRequest(c *gin.Context, accept bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req ResolveAccessBody
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	view, err := h.uc.ResolveAccessByID(c.Request.Context(), middleware.UserID(c), id, board.ResolveAccessRequest{
		Accept:     accept,
		Permission: req.Permission,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	if view == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, view)
}
