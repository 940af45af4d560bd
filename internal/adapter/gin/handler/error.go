package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "boards-backend/pkg/errors"
)

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// handleError converts usecase errors to HTTP responses. Typed errors
// carry their status; anything else is a 500 with a generic body so
// internals never leak.
func handleError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var statuser apperrors.HTTPStatuser
	if errors.As(err, &statuser) {
		status = statuser.HTTPStatus()
	}

	if status == http.StatusInternalServerError {
		c.JSON(status, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
		return
	}

	c.JSON(status, ErrorResponse{
		Error:   errorCode(status),
		Message: err.Error(),
	})
}

func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "validation_error"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "permission_denied"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "already_exists"
	default:
		return "error"
	}
}

// pathID parses a numeric :param, writing a 400 when it is malformed.
func pathID(c *gin.Context, name string) (int64, bool) {
	idStr := c.Param(name)
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: name + " must be a valid number",
		})
		return 0, false
	}
	return id, true
}

// bindJSON unmarshals the body, writing a 400 on malformed JSON.
func bindJSON(c *gin.Context, out interface{}) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return false
	}
	return true
}
