package card

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gosimple/slug"

	apperrors "boards-backend/pkg/errors"
)

// Card types.
const (
	TypeNote  = "note"
	TypeLink  = "link"
	TypeFile  = "file"
	TypeStack = "stack"
)

// PreviewableTypes are card types whose content can be rendered into thumbnails.
var PreviewableTypes = []string{TypeLink, TypeFile}

// reservedSlugs are card slugs that collide with card sub-routes.
var reservedSlugs = map[string]struct{}{
	"comments": {}, "download": {}, "featured": {}, "original": {},
}

// Card is a single item on a board: a note, a link, a file, or a stack
// grouping other cards. Slug is unique within the board; Position orders
// cards within the board.
type Card struct {
	ID              int64
	BoardID         int64
	Name            string
	Slug            string
	Type            string
	Content         string // note text, file key, or link URL; empty for stacks
	Position        int64
	StackID         int64 // parent stack, zero when unstacked
	Featured        bool
	OriginURL       string
	FileSize        int64
	MimeType        string
	ThumbnailXSPath string
	ThumbnailSMPath string
	ThumbnailMDPath string
	ThumbnailLGPath string
	Data            json.RawMessage // free-form client metadata
	CommentsCount   int64
	CreatedByID     int64
	ModifiedByID    int64
	DateCreated     time.Time
	DateModified    time.Time
}

// IsStack reports whether the card is a stack.
func (c *Card) IsStack() bool {
	return c.Type == TypeStack
}

// IsPreviewable reports whether thumbnails can be requested for the card.
func (c *Card) IsPreviewable() bool {
	if c.Content == "" {
		return false
	}
	for _, t := range PreviewableTypes {
		if c.Type == t {
			return true
		}
	}
	return false
}

// Validate enforces the card field invariants: content is required for
// everything but stacks, and stacks carry no file-specific fields.
func (c *Card) Validate() error {
	switch c.Type {
	case TypeNote, TypeLink, TypeFile, TypeStack:
	default:
		return apperrors.NewValidationError("type", fmt.Sprintf("unknown card type %q", c.Type))
	}

	if !c.IsStack() {
		if c.Content == "" {
			return apperrors.NewValidationError("content", "the content field is required")
		}
		return nil
	}

	disallowed := []struct {
		field string
		set   bool
	}{
		{"origin_url", c.OriginURL != ""},
		{"content", c.Content != ""},
		{"thumbnail_xs_path", c.ThumbnailXSPath != ""},
		{"thumbnail_sm_path", c.ThumbnailSMPath != ""},
		{"thumbnail_md_path", c.ThumbnailMDPath != ""},
		{"thumbnail_lg_path", c.ThumbnailLGPath != ""},
		{"file_size", c.FileSize != 0},
		{"mime_type", c.MimeType != ""},
	}
	for _, d := range disallowed {
		if d.set {
			return apperrors.NewValidationError(d.field,
				fmt.Sprintf("the %s field should not be set on a card stack", d.field))
		}
	}
	return nil
}

// Slugify derives a URL-safe slug from a card name. Reserved slugs get
// a suffix instead of colliding with card sub-routes.
func Slugify(name string) string {
	s := slug.Make(name)
	if s == "" {
		s = "card"
	}
	if _, reserved := reservedSlugs[s]; reserved {
		s += "-card"
	}
	return s
}
