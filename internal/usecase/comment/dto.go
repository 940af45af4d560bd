package comment

import (
	"time"

	domain "boards-backend/internal/domain/comment"
)

// CreateCommentRequest represents the request payload for commenting on
// a card.
type CreateCommentRequest struct {
	Content string `validate:"required,max=2000"`
}

// UpdateCommentRequest represents the request payload for editing a
// comment.
type UpdateCommentRequest struct {
	Content string `validate:"required,max=2000"`
}

// View is the serialized form of a comment, shared by API responses and
// announce payloads.
type View struct {
	ID           int64     `json:"id"`
	CardID       int64     `json:"card"`
	Content      string    `json:"content"`
	CreatedBy    int64     `json:"created_by"`
	ModifiedBy   int64     `json:"modified_by"`
	DateCreated  time.Time `json:"date_created"`
	DateModified time.Time `json:"date_modified"`
}

// NewView builds the serialized form of a comment.
func NewView(c *domain.Comment) View {
	return View{
		ID:           c.ID,
		CardID:       c.CardID,
		Content:      c.Content,
		CreatedBy:    c.CreatedByID,
		ModifiedBy:   c.ModifiedByID,
		DateCreated:  c.DateCreated,
		DateModified: c.DateModified,
	}
}

// NewViews builds serialized forms for a comment list.
func NewViews(comments []domain.Comment) []View {
	out := make([]View, len(comments))
	for i := range comments {
		out[i] = NewView(&comments[i])
	}
	return out
}
