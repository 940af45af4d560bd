package storage

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// PreviewSizes are the renditions requested for every previewable card.
var PreviewSizes = []string{"original", "42>", "200>", "500>", "800>"}

// PreviewsClient queues preview rendering jobs with the previews service.
// Jobs are fire-and-forget: a dead previews service only costs thumbnails.
type PreviewsClient struct {
	baseURL   string
	apiKey    string
	secretKey string
	client    *http.Client
	log       *zap.Logger
}

// NewPreviewsClient creates a client for the previews service. Returns
// nil when no service URL is configured; callers treat a nil client as
// previews disabled.
func NewPreviewsClient(baseURL, apiKey, secretKey string, log *zap.Logger) *PreviewsClient {
	if baseURL == "" {
		return nil
	}
	return &PreviewsClient{
		baseURL:   baseURL,
		apiKey:    apiKey,
		secretKey: secretKey,
		client:    &http.Client{Timeout: 10 * time.Second},
		log:       log,
	}
}

// previewJob is the JSON body posted to the previews service.
type previewJob struct {
	URL                 string            `json:"url"`
	Sizes               []string          `json:"sizes"`
	Metadata            map[string]string `json:"metadata"`
	UploaderDestination string            `json:"uploader_destination,omitempty"`
}

// Queue submits a preview job in a background goroutine. url is the
// (signed) source to render, destination an optional upload key prefix
// for the results, metadata is echoed back in the callback.
func (p *PreviewsClient) Queue(url string, metadata map[string]string, destination string) {
	job := previewJob{
		URL:                 url,
		Sizes:               PreviewSizes,
		Metadata:            metadata,
		UploaderDestination: destination,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := p.submit(ctx, job); err != nil {
			p.log.Error("failed to queue previews", zap.String("url", url), zap.Error(err))
		}
	}()
}

func (p *PreviewsClient) submit(ctx context.Context, job previewJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal preview job: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/jobs", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", p.apiKey)
	req.Header.Set("X-Signature", SignPayload(p.secretKey, body))

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("previews service returned %d", resp.StatusCode)
	}

	p.log.Debug("preview job queued", zap.Int("status", resp.StatusCode))
	return nil
}

// SignPayload returns the hex HMAC-SHA256 of a request body. The same
// scheme authenticates the previews callback on our side.
func SignPayload(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPayload reports whether signature matches the body under secret.
func VerifyPayload(secret string, body []byte, signature string) bool {
	expected := SignPayload(secret, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
