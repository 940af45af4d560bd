package notification

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	domain "boards-backend/internal/domain/notification"
	apperrors "boards-backend/pkg/errors"
)

// defaultLimit caps a listing when the caller does not choose one.
const defaultLimit = 50

// Repository defines the notification data access operations.
type Repository interface {
	ListForRecipient(ctx context.Context, recipientID int64, unreadOnly bool, limit int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id, recipientID int64) error
	MarkAllRead(ctx context.Context, recipientID int64) (int64, error)
}

// Usecase implements the notification inbox.
type Usecase struct {
	repo     Repository
	log      *zap.Logger
	validate *validator.Validate
}

// New creates a new instance of Usecase.
func New(repo Repository, log *zap.Logger) *Usecase {
	return &Usecase{repo: repo, log: log, validate: validator.New()}
}

// List returns the user's notifications, newest first.
func (uc *Usecase) List(ctx context.Context, userID int64, in ListRequest) ([]View, error) {
	if err := uc.validate.Struct(in); err != nil {
		return nil, apperrors.NewValidationError("limit", "limit must be between 0 and 200")
	}
	limit := in.Limit
	if limit == 0 {
		limit = defaultLimit
	}

	notifications, err := uc.repo.ListForRecipient(ctx, userID, in.UnreadOnly, limit)
	if err != nil {
		uc.log.Error("failed to list notifications", zap.Int64("user_id", userID), zap.Error(err))
		return nil, apperrors.NewInternalError("failed to list notifications", err)
	}
	return NewViews(notifications), nil
}

// MarkRead marks one of the user's notifications as read.
func (uc *Usecase) MarkRead(ctx context.Context, userID, id int64) error {
	if err := uc.repo.MarkRead(ctx, id, userID); err != nil {
		return apperrors.NewNotFoundError("notification", "notification not found")
	}
	return nil
}

// MarkAllRead marks every unread notification of the user as read.
func (uc *Usecase) MarkAllRead(ctx context.Context, userID int64) (*MarkAllReadResponse, error) {
	marked, err := uc.repo.MarkAllRead(ctx, userID)
	if err != nil {
		uc.log.Error("failed to mark notifications read", zap.Int64("user_id", userID), zap.Error(err))
		return nil, apperrors.NewInternalError("failed to mark notifications read", err)
	}
	return &MarkAllReadResponse{Marked: marked}, nil
}
