// Package notify turns domain events into notification rows, live
// announce messages, and emails, mirroring the actor/recipients/label
// shape used across the usecases.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"boards-backend/internal/announce"
	"boards-backend/internal/domain/notification"
)

// Store persists notification rows. Satisfied by the notification repository.
type Store interface {
	Create(ctx context.Context, n *notification.Notification) (int64, error)
}

// Recipient addresses a notification: a registered user, a bare email,
// or both (a user contacted over email, e.g. an invite to an existing user).
type Recipient struct {
	UserID int64
	Email  string
}

// Event is one notifiable occurrence.
type Event struct {
	ActorID      int64
	ActorName    string
	Label        string
	Description  string
	Recipients   []Recipient
	ActionObject interface{} // serialized snapshot of the acted-on entity
	Target       interface{} // serialized snapshot of the entity acted within
}

// eventData is the JSON snapshot stored on the notification row.
type eventData struct {
	Actor        string      `json:"actor,omitempty"`
	ActionObject interface{} `json:"action_object,omitempty"`
	Target       interface{} `json:"target,omitempty"`
}

// Notifier dispatches events. Email-only labels skip rows and go
// straight to the email sender; everything else becomes a row plus a
// live announce to the recipient's room.
type Notifier struct {
	store     Store
	email     EmailSender
	announcer announce.Announcer
	log       *zap.Logger
}

// New creates a notifier. Any dependency may be nil; the corresponding
// delivery channel is then skipped.
func New(store Store, email EmailSender, announcer announce.Announcer, log *zap.Logger) *Notifier {
	return &Notifier{store: store, email: email, announcer: announcer, log: log}
}

// Send dispatches an event to all recipients. Delivery failures are
// logged per channel and never returned: notifications are best effort
// and must not fail the request that triggered them.
func (n *Notifier) Send(ctx context.Context, ev Event) {
	_, emailOnly := notification.EmailOnlyLabels[ev.Label]

	for _, r := range ev.Recipients {
		if emailOnly || r.UserID == 0 {
			n.sendEmail(ctx, ev, r)
			continue
		}
		n.createRow(ctx, ev, r)
	}
}

func (n *Notifier) createRow(ctx context.Context, ev Event, r Recipient) {
	if n.store == nil {
		return
	}

	data, err := json.Marshal(eventData{
		Actor:        ev.ActorName,
		ActionObject: ev.ActionObject,
		Target:       ev.Target,
	})
	if err != nil {
		n.log.Error("failed to marshal notification data",
			zap.String("label", ev.Label), zap.Error(err))
		return
	}

	row := &notification.Notification{
		RecipientID: r.UserID,
		ActorID:     ev.ActorID,
		Label:       ev.Label,
		Description: ev.Description,
		Data:        data,
		Unread:      true,
	}

	id, err := n.store.Create(ctx, row)
	if err != nil {
		n.log.Error("failed to create notification",
			zap.String("label", ev.Label),
			zap.Int64("recipient_id", r.UserID),
			zap.Error(err))
		return
	}
	row.ID = id

	if n.announcer != nil {
		n.announcer.Announce(ctx, notification.Room(r.UserID),
			"notification", announce.MethodCreate, row)
	}
}

func (n *Notifier) sendEmail(ctx context.Context, ev Event, r Recipient) {
	if n.email == nil || r.Email == "" {
		return
	}

	subject, body := renderEmail(ev)
	if err := n.email.Send(ctx, r.Email, subject, body); err != nil {
		n.log.Error("failed to send notification email",
			zap.String("label", ev.Label),
			zap.String("to", r.Email),
			zap.Error(err))
	}
}

// renderEmail produces subject and body text for an email-only label.
func renderEmail(ev Event) (subject, body string) {
	switch ev.Label {
	case notification.LabelUserInvited:
		subject = fmt.Sprintf("%s invited you to collaborate", ev.ActorName)
		body = fmt.Sprintf("%s invited you to join their account on Boards.\n\n%s\n", ev.ActorName, ev.Description)
	case notification.LabelSignupRequestCreated:
		subject = "Your Boards invitation"
		body = fmt.Sprintf("Use the link below to complete your signup.\n\n%s\n", ev.Description)
	case notification.LabelPasswordReset:
		subject = "Reset your Boards password"
		body = fmt.Sprintf("Use the link below to choose a new password.\n\n%s\n", ev.Description)
	default:
		subject = "Boards notification"
		body = ev.Description + "\n"
	}
	return subject, body
}
