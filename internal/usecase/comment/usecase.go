package comment

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"boards-backend/internal/announce"
	boarddomain "boards-backend/internal/domain/board"
	carddomain "boards-backend/internal/domain/card"
	domain "boards-backend/internal/domain/comment"
	"boards-backend/internal/domain/notification"
	"boards-backend/internal/domain/user"
	"boards-backend/internal/notify"
	apperrors "boards-backend/pkg/errors"
)

// Repository defines the comment data access operations.
type Repository interface {
	Create(ctx context.Context, c *domain.Comment) (*domain.Comment, error)
	GetByID(ctx context.Context, id int64) (*domain.Comment, error)
	ListForCard(ctx context.Context, cardID int64) ([]domain.Comment, error)
	Update(ctx context.Context, id int64, content string, modifiedByID int64) (*domain.Comment, error)
	Delete(ctx context.Context, id int64) error
}

// CardRepository resolves comments back to their card and board.
type CardRepository interface {
	GetByID(ctx context.Context, id int64) (*carddomain.Card, error)
}

// BoardAuthorizer resolves boards and enforces access on them.
type BoardAuthorizer interface {
	RequireRead(ctx context.Context, boardID, userID int64) (*boarddomain.Board, error)
	RequireWrite(ctx context.Context, boardID, userID int64) (*boarddomain.Board, error)
}

// UserRepository resolves actors for notification payloads.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

// Notifier dispatches notification events.
type Notifier interface {
	Send(ctx context.Context, ev notify.Event)
}

// Usecase implements card comments.
type Usecase struct {
	repo      Repository
	cards     CardRepository
	boards    BoardAuthorizer
	users     UserRepository
	announcer announce.Announcer
	notifier  Notifier
	log       *zap.Logger
	validate  *validator.Validate
}

// New creates a new instance of Usecase.
func New(repo Repository, cards CardRepository, boards BoardAuthorizer, users UserRepository,
	announcer announce.Announcer, notifier Notifier, log *zap.Logger) *Usecase {
	return &Usecase{
		repo:      repo,
		cards:     cards,
		boards:    boards,
		users:     users,
		announcer: announcer,
		notifier:  notifier,
		log:       log,
		validate:  validator.New(),
	}
}

func formatValidationError(err error) error {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		var messages []string
		for _, e := range validationErrors {
			switch e.Tag() {
			case "required":
				messages = append(messages, fmt.Sprintf("%s is required", e.Field()))
			case "max":
				messages = append(messages, fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param()))
			default:
				messages = append(messages, fmt.Sprintf("%s is invalid", e.Field()))
			}
		}
		return apperrors.NewValidationError("", strings.Join(messages, ", "))
	}
	return err
}

// getCard loads the card a comment belongs to.
func (uc *Usecase) getCard(ctx context.Context, cardID int64) (*carddomain.Card, error) {
	c, err := uc.cards.GetByID(ctx, cardID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load card", err)
	}
	if c == nil {
		return nil, apperrors.NewNotFoundError("card", "card not found")
	}
	return c, nil
}

// Create adds a comment to a card on a board the user can write to.
// The card's creator is notified unless they wrote the comment.
func (uc *Usecase) Create(ctx context.Context, userID, cardID int64, in CreateCommentRequest) (*View, error) {
	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("create comment validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	card, err := uc.getCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	b, err := uc.boards.RequireWrite(ctx, card.BoardID, userID)
	if err != nil {
		return nil, err
	}

	created, err := uc.repo.Create(ctx, &domain.Comment{
		CardID:      cardID,
		Content:     in.Content,
		CreatedByID: userID,
	})
	if err != nil {
		uc.log.Error("failed to create comment", zap.Int64("card_id", cardID), zap.Error(err))
		return nil, apperrors.NewInternalError("failed to create comment", err)
	}

	view := NewView(created)
	uc.announcer.Announce(ctx, b.AnnounceRoom(), "comment", announce.MethodCreate, view)

	if card.CreatedByID != 0 && card.CreatedByID != userID {
		var actorName string
		if actor, err := uc.users.GetByID(ctx, userID); err == nil && actor != nil {
			actorName = actor.FullName()
			if actorName == "" {
				actorName = actor.Username
			}
		}
		uc.notifier.Send(ctx, notify.Event{
			ActorID:      userID,
			ActorName:    actorName,
			Label:        notification.LabelCardCommentCreated,
			Recipients:   []notify.Recipient{{UserID: card.CreatedByID}},
			ActionObject: view,
			Target:       map[string]interface{}{"id": card.ID, "name": card.Name},
		})
	}

	uc.log.Info("comment created", zap.Int64("id", created.ID), zap.Int64("card_id", cardID))
	return &view, nil
}

// List returns the comments of a card the user may view, oldest first.
func (uc *Usecase) List(ctx context.Context, userID, cardID int64) ([]View, error) {
	card, err := uc.getCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if _, err := uc.boards.RequireRead(ctx, card.BoardID, userID); err != nil {
		return nil, err
	}

	comments, err := uc.repo.ListForCard(ctx, cardID)
	if err != nil {
		uc.log.Error("failed to list comments", zap.Int64("card_id", cardID), zap.Error(err))
		return nil, apperrors.NewInternalError("failed to list comments", err)
	}
	return NewViews(comments), nil
}

// Update edits a comment's content. Only the author may edit.
func (uc *Usecase) Update(ctx context.Context, userID, commentID int64, in UpdateCommentRequest) (*View, error) {
	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("update comment validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	c, b, err := uc.load(ctx, commentID, userID)
	if err != nil {
		return nil, err
	}
	if c.CreatedByID != userID {
		return nil, apperrors.NewPermissionDeniedError("only the author can edit a comment")
	}

	updated, err := uc.repo.Update(ctx, commentID, in.Content, userID)
	if err != nil {
		uc.log.Error("failed to update comment", zap.Int64("id", commentID), zap.Error(err))
		return nil, apperrors.NewInternalError("failed to update comment", err)
	}

	view := NewView(updated)
	uc.announcer.Announce(ctx, b.AnnounceRoom(), "comment", announce.MethodUpdate, view)
	return &view, nil
}

// Delete removes a comment. The author may always delete their own;
// anyone with board write access may moderate.
func (uc *Usecase) Delete(ctx context.Context, userID, commentID int64) error {
	c, b, err := uc.load(ctx, commentID, userID)
	if err != nil {
		return err
	}
	if c.CreatedByID != userID {
		if _, err := uc.boards.RequireWrite(ctx, b.ID, userID); err != nil {
			return err
		}
	}

	view := NewView(c)
	if err := uc.repo.Delete(ctx, commentID); err != nil {
		uc.log.Error("failed to delete comment", zap.Int64("id", commentID), zap.Error(err))
		return apperrors.NewInternalError("failed to delete comment", err)
	}

	uc.announcer.Announce(ctx, b.AnnounceRoom(), "comment", announce.MethodDelete, view)
	return nil
}

// load resolves a comment together with its board.
func (uc *Usecase) load(ctx context.Context, commentID, userID int64) (*domain.Comment, *boarddomain.Board, error) {
	c, err := uc.repo.GetByID(ctx, commentID)
	if err != nil {
		return nil, nil, apperrors.NewInternalError("failed to load comment", err)
	}
	if c == nil {
		return nil, nil, apperrors.NewNotFoundError("comment", "comment not found")
	}

	card, err := uc.getCard(ctx, c.CardID)
	if err != nil {
		return nil, nil, err
	}
	b, err := uc.boards.RequireRead(ctx, card.BoardID, userID)
	if err != nil {
		return nil, nil, err
	}
	return c, b, nil
}
