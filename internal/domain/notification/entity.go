package notification

import (
	"encoding/json"
	"strconv"
	"time"
)

// Notification labels. Email-only labels never produce rows; they are
// dispatched to the recipient's inbox instead.
const (
	LabelCardCreated          = "card_created"
	LabelCardStackCreated     = "card_stack_created"
	LabelCardFeatured         = "card_featured"
	LabelCardCommentCreated   = "card_comment_created"
	LabelUserInvited          = "user_invited"
	LabelSignupRequestCreated = "signup_request_created"
	LabelPasswordReset        = "password_reset"
)

// EmailOnlyLabels are dispatched through the email backend only.
var EmailOnlyLabels = map[string]struct{}{
	LabelUserInvited:          {},
	LabelSignupRequestCreated: {},
	LabelPasswordReset:        {},
}

// Notification is an activity record for a user: who did what to which
// object. Data holds a JSON snapshot of the actor, action object, and
// target at the time of the event.
type Notification struct {
	ID           int64
	RecipientID  int64
	ActorID      int64
	Label        string
	Description  string
	Data         json.RawMessage
	Unread       bool
	DateCreated  time.Time
	DateModified time.Time
}

// Room returns the announce room notifications for a user are published to.
func Room(userID int64) string {
	return "u" + strconv.FormatInt(userID, 10)
}
