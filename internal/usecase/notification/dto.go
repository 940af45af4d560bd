package notification

import (
	"encoding/json"
	"time"

	domain "boards-backend/internal/domain/notification"
)

// ListRequest filters a notification listing.
type ListRequest struct {
	UnreadOnly bool
	Limit      int `validate:"min=0,max=200"`
}

// MarkAllReadResponse reports how many notifications were marked.
type MarkAllReadResponse struct {
	Marked int64 `json:"marked"`
}

// View is the serialized form of a notification.
type View struct {
	ID           int64           `json:"id"`
	Recipient    int64           `json:"recipient"`
	Actor        int64           `json:"actor,omitempty"`
	Label        string          `json:"label"`
	Description  string          `json:"description,omitempty"`
	Data         json.RawMessage `json:"data,omitempty"`
	Unread       bool            `json:"unread"`
	DateCreated  time.Time       `json:"date_created"`
	DateModified time.Time       `json:"date_modified"`
}

// NewView builds the serialized form of a notification.
func NewView(n *domain.Notification) View {
	return View{
		ID:           n.ID,
		Recipient:    n.RecipientID,
		Actor:        n.ActorID,
		Label:        n.Label,
		Description:  n.Description,
		Data:         n.Data,
		Unread:       n.Unread,
		DateCreated:  n.DateCreated,
		DateModified: n.DateModified,
	}
}

// NewViews builds serialized forms for a notification list.
func NewViews(notifications []domain.Notification) []View {
	out := make([]View, len(notifications))
	for i := range notifications {
		out[i] = NewView(&notifications[i])
	}
	return out
}
