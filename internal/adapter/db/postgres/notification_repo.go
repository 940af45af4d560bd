package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"boards-backend/internal/domain/notification"
)

// NotificationRepo implements notification persistence using PostgreSQL and GORM.
type NotificationRepo struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewNotificationRepo creates a new instance of NotificationRepo.
func NewNotificationRepo(db *gorm.DB, log *zap.Logger) *NotificationRepo {
	return &NotificationRepo{db: db, log: log}
}

func notificationFromSchema(m *NotificationSchema) *notification.Notification {
	var data json.RawMessage
	if m.Data != "" {
		data = json.RawMessage(m.Data)
	}
	return &notification.Notification{
		ID:           m.ID,
		RecipientID:  m.RecipientID,
		ActorID:      m.ActorID,
		Label:        m.Label,
		Description:  m.Description,
		Data:         data,
		Unread:       m.Unread,
		DateCreated:  m.DateCreated,
		DateModified: m.DateModified,
	}
}

// Create inserts a notification row and returns its ID.
func (r *NotificationRepo) Create(ctx context.Context, n *notification.Notification) (int64, error) {
	if n == nil {
		return 0, errors.New("notification cannot be nil")
	}

	model := NotificationSchema{
		RecipientID: n.RecipientID,
		ActorID:     n.ActorID,
		Label:       n.Label,
		Description: n.Description,
		Data:        string(n.Data),
		Unread:      true,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		r.log.Error("failed to create notification in db", zap.Error(err),
			zap.Int64("recipient_id", n.RecipientID), zap.String("label", n.Label))
		return 0, fmt.Errorf("failed to create notification: %w", err)
	}
	return model.ID, nil
}

// ListForRecipient returns a user's notifications, newest first. A
// non-positive limit returns everything.
func (r *NotificationRepo) ListForRecipient(ctx context.Context, recipientID int64, unreadOnly bool, limit int) ([]notification.Notification, error) {
	var models []NotificationSchema
	q := r.db.WithContext(ctx).Where("recipient_id = ?", recipientID)
	if unreadOnly {
		q = q.Where("unread = ?", true)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Order("date_created DESC").Find(&models).Error; err != nil {
		r.log.Error("failed to list notifications from db", zap.Error(err),
			zap.Int64("recipient_id", recipientID))
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	out := make([]notification.Notification, len(models))
	for i := range models {
		out[i] = *notificationFromSchema(&models[i])
	}
	return out, nil
}

// GetByID retrieves a notification by ID. A miss returns (nil, nil).
func (r *NotificationRepo) GetByID(ctx context.Context, id int64) (*notification.Notification, error) {
	var model NotificationSchema
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Error("failed to get notification from db", zap.Error(err), zap.Int64("id", id))
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return notificationFromSchema(&model), nil
}

// MarkRead flips a notification to read. Scoped to the recipient so a
// user cannot touch someone else's rows.
func (r *NotificationRepo) MarkRead(ctx context.Context, id, recipientID int64) error {
	res := r.db.WithContext(ctx).Model(&NotificationSchema{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("unread", false)
	if res.Error != nil {
		r.log.Error("failed to mark notification read in db", zap.Error(res.Error), zap.Int64("id", id))
		return fmt.Errorf("failed to mark notification read: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("notification not found: id=%d", id)
	}
	return nil
}

// MarkAllRead flips every unread notification of a user to read and
// returns how many were flipped.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, recipientID int64) (int64, error) {
	res := r.db.WithContext(ctx).Model(&NotificationSchema{}).
		Where("recipient_id = ? AND unread = ?", recipientID, true).
		Update("unread", false)
	if res.Error != nil {
		r.log.Error("failed to mark notifications read in db", zap.Error(res.Error),
			zap.Int64("recipient_id", recipientID))
		return 0, fmt.Errorf("failed to mark notifications read: %w", res.Error)
	}
	return res.RowsAffected, nil
}
