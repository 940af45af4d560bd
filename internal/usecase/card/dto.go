package card

import (
	"encoding/json"
	"time"

	domain "boards-backend/internal/domain/card"
)

// CreateCardRequest represents the request payload for creating a card.
type CreateCardRequest struct {
	BoardID   int64  `validate:"required"`
	Name      string `validate:"required,max=255"`
	Type      string `validate:"required"`
	Content   string
	OriginURL string `validate:"omitempty,url"`
	FileSize  int64
	MimeType  string `validate:"omitempty,max=255"`
	Data      json.RawMessage
	StackIDs  []int64 // initial members when creating a stack
}

// UpdateCardRequest represents the request payload for updating a card.
// Nil fields are left untouched.
type UpdateCardRequest struct {
	Name      *string `validate:"omitempty,max=255"`
	Content   *string
	OriginURL *string `validate:"omitempty,url"`
	FileSize  *int64
	MimeType  *string `validate:"omitempty,max=255"`
	Data      json.RawMessage
	Position  *int64
	StackIDs  []int64 // replacement member set for stacks
}

// Thumbnails carries the rendition paths produced by the previews
// service, smallest to largest.
type Thumbnails struct {
	XS string
	SM string
	MD string
	LG string
}

// DownloadResponse carries a signed, time-limited URL for a file card,
// plus a token that lets the link be shared without a session.
type DownloadResponse struct {
	URL       string
	Token     string
	ExpiresIn time.Duration
}

// SignUploadRequest represents the request payload for signing a
// browser upload.
type SignUploadRequest struct {
	Name     string `validate:"required,max=255"`
	MimeType string `validate:"omitempty,max=255"`
}

// UploadResponse carries the form fields a browser posts to the bucket
// alongside the file.
type UploadResponse struct {
	Key         string    `json:"key"`
	URL         string    `json:"url"`
	AccessKeyID string    `json:"access_key_id"`
	ACL         string    `json:"acl"`
	Policy      string    `json:"policy"`
	Signature   string    `json:"signature"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// View is the serialized form of a card, shared by API responses and
// announce payloads.
type View struct {
	ID              int64           `json:"id"`
	BoardID         int64           `json:"board"`
	Name            string          `json:"name"`
	Slug            string          `json:"slug"`
	Type            string          `json:"type"`
	Content         string          `json:"content,omitempty"`
	Position        int64           `json:"position"`
	StackID         int64           `json:"stack,omitempty"`
	Featured        bool            `json:"featured"`
	OriginURL       string          `json:"origin_url,omitempty"`
	FileSize        int64           `json:"file_size,omitempty"`
	MimeType        string          `json:"mime_type,omitempty"`
	ThumbnailXSPath string          `json:"thumbnail_xs_path,omitempty"`
	ThumbnailSMPath string          `json:"thumbnail_sm_path,omitempty"`
	ThumbnailMDPath string          `json:"thumbnail_md_path,omitempty"`
	ThumbnailLGPath string          `json:"thumbnail_lg_path,omitempty"`
	Data            json.RawMessage `json:"data,omitempty"`
	CommentsCount   int64           `json:"comments_count"`
	CreatedBy       int64           `json:"created_by"`
	ModifiedBy      int64           `json:"modified_by"`
	DateCreated     time.Time       `json:"date_created"`
	DateModified    time.Time       `json:"date_modified"`
}

// NewView builds the serialized form of a card.
func NewView(c *domain.Card) View {
	return View{
		ID:              c.ID,
		BoardID:         c.BoardID,
		Name:            c.Name,
		Slug:            c.Slug,
		Type:            c.Type,
		Content:         c.Content,
		Position:        c.Position,
		StackID:         c.StackID,
		Featured:        c.Featured,
		OriginURL:       c.OriginURL,
		FileSize:        c.FileSize,
		MimeType:        c.MimeType,
		ThumbnailXSPath: c.ThumbnailXSPath,
		ThumbnailSMPath: c.ThumbnailSMPath,
		ThumbnailMDPath: c.ThumbnailMDPath,
		ThumbnailLGPath: c.ThumbnailLGPath,
		Data:            c.Data,
		CommentsCount:   c.CommentsCount,
		CreatedBy:       c.CreatedByID,
		ModifiedBy:      c.ModifiedByID,
		DateCreated:     c.DateCreated,
		DateModified:    c.DateModified,
	}
}

// NewViews builds serialized forms for a card list.
func NewViews(cards []domain.Card) []View {
	out := make([]View, len(cards))
	for i := range cards {
		out[i] = NewView(&cards[i])
	}
	return out
}
