package comment

import "time"

// Comment is a user comment attached to a card.
type Comment struct {
	ID           int64
	CardID       int64
	Content      string
	CreatedByID  int64
	ModifiedByID int64
	DateCreated  time.Time
	DateModified time.Time
}
