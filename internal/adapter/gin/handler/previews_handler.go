package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"boards-backend/internal/storage"
	"boards-backend/internal/usecase/card"
)

// SignatureHeader carries the HMAC over the callback body.
const SignatureHeader = "X-Previews-Signature"

// PreviewsHandler handles the callback the previews service posts when
// renditions are ready.
type PreviewsHandler struct {
	uc        *card.Usecase
	secretKey string
	log       *zap.Logger
}

// NewPreviewsHandler creates a new PreviewsHandler instance.
func NewPreviewsHandler(uc *card.Usecase, secretKey string, log *zap.Logger) *PreviewsHandler {
	return &PreviewsHandler{uc: uc, secretKey: secretKey, log: log}
}

type previewsCallbackBody struct {
	Metadata   map[string]string `json:"metadata"`
	Thumbnails struct {
		XS string `json:"xs"`
		SM string `json:"sm"`
		MD string `json:"md"`
		LG string `json:"lg"`
	} `json:"thumbnails"`
}

// Callback handles POST /api/v1/previews/callback. The previews service
// authenticates with an HMAC signature over the raw body.
func (h *PreviewsHandler) Callback(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "unreadable body"})
		return
	}

	signature := c.GetHeader(SignatureHeader)
	if !storage.VerifyPayload(h.secretKey, body, signature) {
		h.log.Warn("previews callback with bad signature", zap.String("client_ip", c.ClientIP()))
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "invalid signature"})
		return
	}

	var payload previewsCallbackBody
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "malformed payload"})
		return
	}

	cardID, err := strconv.ParseInt(payload.Metadata["card_id"], 10, 64)
	if err != nil || cardID < 1 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "card_id metadata is required"})
		return
	}

	view, err := h.uc.ApplyPreviews(c.Request.Context(), cardID, card.Thumbnails{
		XS: payload.Thumbnails.XS,
		SM: payload.Thumbnails.SM,
		MD: payload.Thumbnails.MD,
		LG: payload.Thumbnails.LG,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
