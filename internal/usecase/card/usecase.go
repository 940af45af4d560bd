package card

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"boards-backend/internal/announce"
	boarddomain "boards-backend/internal/domain/board"
	domain "boards-backend/internal/domain/card"
	"boards-backend/internal/domain/notification"
	"boards-backend/internal/domain/user"
	"boards-backend/internal/notify"
	"boards-backend/internal/storage"
	apperrors "boards-backend/pkg/errors"
)

// Repository defines the card data access operations.
type Repository interface {
	Create(ctx context.Context, c *domain.Card) (*domain.Card, error)
	GetByID(ctx context.Context, id int64) (*domain.Card, error)
	ListForBoard(ctx context.Context, boardID int64) ([]domain.Card, error)
	ListStackMembers(ctx context.Context, stackID int64) ([]domain.Card, error)
	Update(ctx context.Context, c *domain.Card) (*domain.Card, error)
	SetFeatured(ctx context.Context, id int64, featured bool, modifiedByID int64) (bool, error)
	Move(ctx context.Context, id, position int64) (*domain.Card, error)
	SetStackMembers(ctx context.Context, stackID int64, memberIDs []int64) ([]domain.Card, error)
	Delete(ctx context.Context, id int64) error
}

// BoardAuthorizer resolves boards and enforces access on them.
type BoardAuthorizer interface {
	RequireRead(ctx context.Context, boardID, userID int64) (*boarddomain.Board, error)
	RequireWrite(ctx context.Context, boardID, userID int64) (*boarddomain.Board, error)
}

// CollaboratorLister lists board collaborators for notification fan-out.
type CollaboratorLister interface {
	ListCollaborators(ctx context.Context, boardID int64) ([]boarddomain.Collaborator, error)
}

// UserRepository resolves actors for notification payloads.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

// Notifier dispatches notification events.
type Notifier interface {
	Send(ctx context.Context, ev notify.Event)
}

// DownloadTokens issues and validates shareable card download tokens.
type DownloadTokens interface {
	IssueCardDownloadToken(cardID int64, ttl time.Duration) (string, error)
	ParseCardDownloadToken(token string) (int64, error)
}

// Usecase implements card management: CRUD, ordering, stacking,
// featuring, previews, and file downloads.
type Usecase struct {
	repo      Repository
	boards    BoardAuthorizer
	collabs   CollaboratorLister
	users     UserRepository
	announcer announce.Announcer
	notifier  Notifier
	tokens    DownloadTokens
	signer    *storage.Signer
	previews  *storage.PreviewsClient
	log       *zap.Logger
	validate  *validator.Validate
}

// New creates a new instance of Usecase. previews may be nil when the
// preview service is not configured.
func New(repo Repository, boards BoardAuthorizer, collabs CollaboratorLister, users UserRepository,
	announcer announce.Announcer, notifier Notifier, tokens DownloadTokens, signer *storage.Signer,
	previews *storage.PreviewsClient, log *zap.Logger) *Usecase {
	return &Usecase{
		repo:      repo,
		boards:    boards,
		collabs:   collabs,
		users:     users,
		announcer: announcer,
		notifier:  notifier,
		tokens:    tokens,
		signer:    signer,
		previews:  previews,
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
			case "url":
				messages = append(messages, fmt.Sprintf("%s must be a valid URL", e.Field()))
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

// getCard loads a card or returns a not-found error.
func (uc *Usecase) getCard(ctx context.Context, cardID int64) (*domain.Card, error) {
	c, err := uc.repo.GetByID(ctx, cardID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load card", err)
	}
	if c == nil {
		return nil, apperrors.NewNotFoundError("card", "card not found")
	}
	return c, nil
}

// Create adds a card to a board the user can write to. Stacks may list
// their initial members. File and link cards get preview thumbnails
// queued.
func (uc *Usecase) Create(ctx context.Context, userID int64, in CreateCardRequest) (*View, error) {
	uc.log.Info("creating card",
		zap.Int64("user_id", userID), zap.Int64("board_id", in.BoardID), zap.String("type", in.Type))

	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("create card validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	b, err := uc.boards.RequireWrite(ctx, in.BoardID, userID)
	if err != nil {
		return nil, err
	}

	c := &domain.Card{
		BoardID:     in.BoardID,
		Name:        in.Name,
		Type:        in.Type,
		Content:     in.Content,
		OriginURL:   in.OriginURL,
		FileSize:    in.FileSize,
		MimeType:    in.MimeType,
		Data:        in.Data,
		CreatedByID: userID,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	created, err := uc.repo.Create(ctx, c)
	if err != nil {
		uc.log.Error("failed to create card", zap.Error(err))
		return nil, apperrors.NewInternalError("failed to create card", err)
	}

	if created.IsStack() && len(in.StackIDs) > 0 {
		if _, err := uc.repo.SetStackMembers(ctx, created.ID, in.StackIDs); err != nil {
			uc.log.Warn("failed to set initial stack members",
				zap.Int64("card_id", created.ID), zap.Error(err))
		}
	}

	uc.queuePreviews(created)

	view := NewView(created)
	uc.announcer.Announce(ctx, b.AnnounceRoom(), "card", announce.MethodCreate, view)
	label := notification.LabelCardCreated
	if created.IsStack() {
		label = notification.LabelCardStackCreated
	}
	uc.notifyCollaborators(ctx, b, userID, label, view)
	return &view, nil
}

// queuePreviews submits a thumbnail job for previewable cards. File
// contents are private, so the job gets a signed URL.
func (uc *Usecase) queuePreviews(c *domain.Card) {
	if uc.previews == nil || !c.IsPreviewable() {
		return
	}
	url := c.Content
	if c.Type == domain.TypeFile && uc.signer != nil {
		url = uc.signer.Sign(c.Content)
	}
	uc.previews.Queue(url, map[string]string{
		"card_id": fmt.Sprintf("%d", c.ID),
	}, "cards")
}

// notifyCollaborators fans an event out to every board collaborator
// except the actor.
func (uc *Usecase) notifyCollaborators(ctx context.Context, b *boarddomain.Board, actorID int64, label string, actionObject interface{}) {
	collabs, err := uc.collabs.ListCollaborators(ctx, b.ID)
	if err != nil {
		uc.log.Warn("failed to list collaborators for notification",
			zap.Int64("board_id", b.ID), zap.Error(err))
		return
	}

	var recipients []notify.Recipient
	for _, c := range collabs {
		if c.UserID == 0 || c.UserID == actorID {
			continue
		}
		recipients = append(recipients, notify.Recipient{UserID: c.UserID})
	}
	if len(recipients) == 0 {
		return
	}

	var actorName string
	if actor, err := uc.users.GetByID(ctx, actorID); err == nil && actor != nil {
		actorName = actor.FullName()
		if actorName == "" {
			actorName = actor.Username
		}
	}

	uc.notifier.Send(ctx, notify.Event{
		ActorID:      actorID,
		ActorName:    actorName,
		Label:        label,
		Recipients:   recipients,
		ActionObject: actionObject,
		Target:       map[string]interface{}{"id": b.ID, "name": b.Name},
	})
}

// List returns the cards of a board the user may view, in position order.
func (uc *Usecase) List(ctx context.Context, userID, boardID int64) ([]View, error) {
	if _, err := uc.boards.RequireRead(ctx, boardID, userID); err != nil {
		return nil, err
	}
	cards, err := uc.repo.ListForBoard(ctx, boardID)
	if err != nil {
		uc.log.Error("failed to list cards", zap.Int64("board_id", boardID), zap.Error(err))
		return nil, apperrors.NewInternalError("failed to list cards", err)
	}
	return NewViews(cards), nil
}

// Get returns a single card the user may view.
func (uc *Usecase) Get(ctx context.Context, userID, cardID int64) (*View, error) {
	c, err := uc.getCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if _, err := uc.boards.RequireRead(ctx, c.BoardID, userID); err != nil {
		return nil, err
	}
	view := NewView(c)
	return &view, nil
}

// Update applies changes to a card on a board the user can write to.
// Position changes reorder the board; StackIDs replace a stack's members.
func (uc *Usecase) Update(ctx context.Context, userID, cardID int64, in UpdateCardRequest) (*View, error) {
	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("update card validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	c, err := uc.getCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	b, err := uc.boards.RequireWrite(ctx, c.BoardID, userID)
	if err != nil {
		return nil, err
	}

	contentChanged := false
	if in.Name != nil {
		if *in.Name == "" {
			return nil, apperrors.NewValidationError("name", "name cannot be empty")
		}
		c.Name = *in.Name
	}
	if in.Content != nil && *in.Content != c.Content {
		c.Content = *in.Content
		contentChanged = true
	}
	if in.OriginURL != nil {
		c.OriginURL = *in.OriginURL
	}
	if in.FileSize != nil {
		c.FileSize = *in.FileSize
	}
	if in.MimeType != nil {
		c.MimeType = *in.MimeType
	}
	if in.Data != nil {
		c.Data = in.Data
	}
	c.ModifiedByID = userID

	if err := c.Validate(); err != nil {
		return nil, err
	}

	updated, err := uc.repo.Update(ctx, c)
	if err != nil {
		uc.log.Error("failed to update card", zap.Int64("card_id", cardID), zap.Error(err))
		return nil, apperrors.NewInternalError("failed to update card", err)
	}

	if in.Position != nil {
		updated, err = uc.repo.Move(ctx, cardID, *in.Position)
		if err != nil {
			uc.log.Error("failed to move card", zap.Int64("card_id", cardID), zap.Error(err))
			return nil, apperrors.NewInternalError("failed to move card", err)
		}
	}

	if updated.IsStack() && in.StackIDs != nil {
		if _, err := uc.repo.SetStackMembers(ctx, updated.ID, in.StackIDs); err != nil {
			uc.log.Error("failed to update stack members", zap.Int64("card_id", cardID), zap.Error(err))
			return nil, apperrors.NewInternalError("failed to update stack members", err)
		}
	}

	if contentChanged {
		uc.queuePreviews(updated)
	}

	view := NewView(updated)
	uc.announcer.Announce(ctx, b.AnnounceRoom(), "card", announce.MethodUpdate, view)
	return &view, nil
}

// ApplyPreviews stores rendered thumbnail paths on a card. Called by
// the previews service callback, which authenticates by HMAC signature
// rather than a user session, so no board permission is checked here.
func (uc *Usecase) ApplyPreviews(ctx context.Context, cardID int64, thumbs Thumbnails) (*View, error) {
	c, err := uc.getCard(ctx, cardID)
	if err != nil {
		return nil, err
	}

	if thumbs.XS != "" {
		c.ThumbnailXSPath = thumbs.XS
	}
	if thumbs.SM != "" {
		c.ThumbnailSMPath = thumbs.SM
	}
	if thumbs.MD != "" {
		c.ThumbnailMDPath = thumbs.MD
	}
	if thumbs.LG != "" {
		c.ThumbnailLGPath = thumbs.LG
	}

	updated, err := uc.repo.Update(ctx, c)
	if err != nil {
		uc.log.Error("failed to store card thumbnails", zap.Int64("card_id", cardID), zap.Error(err))
		return nil, apperrors.NewInternalError("failed to store card thumbnails", err)
	}

	view := NewView(updated)
	// the creator's read access locates the announce room; if they are
	// gone from the board the live update is skipped
	if b, err := uc.boards.RequireRead(ctx, updated.BoardID, updated.CreatedByID); err == nil {
		uc.announcer.Announce(ctx, b.AnnounceRoom(), "card", announce.MethodUpdate, view)
	}

	uc.log.Info("card thumbnails updated", zap.Int64("card_id", cardID))
	return &view, nil
}

// SetFeatured toggles the featured flag. Newly featured cards notify
// the other collaborators.
func (uc *Usecase) SetFeatured(ctx context.Context, userID, cardID int64, featured bool) (*View, error) {
	c, err := uc.getCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	b, err := uc.boards.RequireWrite(ctx, c.BoardID, userID)
	if err != nil {
		return nil, err
	}

	changed, err := uc.repo.SetFeatured(ctx, cardID, featured, userID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to set featured", err)
	}
	c.Featured = featured
	c.ModifiedByID = userID

	view := NewView(c)
	if changed {
		uc.announcer.Announce(ctx, b.AnnounceRoom(), "card", announce.MethodUpdate, view)
		if featured {
			uc.notifyCollaborators(ctx, b, userID, notification.LabelCardFeatured, view)
		}
	}
	return &view, nil
}

// ListStackMembers returns the cards stacked under a stack card.
func (uc *Usecase) ListStackMembers(ctx context.Context, userID, cardID int64) ([]View, error) {
	c, err := uc.getCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if !c.IsStack() {
		return nil, apperrors.NewValidationError("type", "card is not a stack")
	}
	if _, err := uc.boards.RequireRead(ctx, c.BoardID, userID); err != nil {
		return nil, err
	}

	members, err := uc.repo.ListStackMembers(ctx, cardID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list stack members", err)
	}
	return NewViews(members), nil
}

// Delete removes a card from a board the user can write to. Deleting a
// stack releases its members.
func (uc *Usecase) Delete(ctx context.Context, userID, cardID int64) error {
	c, err := uc.getCard(ctx, cardID)
	if err != nil {
		return err
	}
	b, err := uc.boards.RequireWrite(ctx, c.BoardID, userID)
	if err != nil {
		return err
	}

	view := NewView(c)
	if err := uc.repo.Delete(ctx, cardID); err != nil {
		uc.log.Error("failed to delete card", zap.Int64("card_id", cardID), zap.Error(err))
		return apperrors.NewInternalError("failed to delete card", err)
	}

	uc.announcer.Announce(ctx, b.AnnounceRoom(), "card", announce.MethodDelete, view)
	return nil
}

// Download returns a signed, time-limited URL for a file card's
// content, forcing an attachment disposition with the card name. A
// download token grants access without a session, so file links can be
// shared outside the board; the response carries a fresh one for that.
func (uc *Usecase) Download(ctx context.Context, userID, cardID int64, downloadToken string) (*DownloadResponse, error) {
	c, err := uc.getCard(ctx, cardID)
	if err != nil {
		return nil, err
	}

	if downloadToken != "" {
		tokenCardID, err := uc.tokens.ParseCardDownloadToken(downloadToken)
		if err != nil || tokenCardID != cardID {
			return nil, apperrors.NewUnauthorizedError("invalid download token")
		}
	} else if _, err := uc.boards.RequireRead(ctx, c.BoardID, userID); err != nil {
		return nil, err
	}

	if c.Type != domain.TypeFile || c.Content == "" {
		return nil, apperrors.NewValidationError("type", "only file cards can be downloaded")
	}
	if uc.signer == nil {
		return nil, apperrors.NewInternalError("file storage is not configured", nil)
	}

	token, err := uc.tokens.IssueCardDownloadToken(cardID, uc.signer.ExpiresIn())
	if err != nil {
		uc.log.Error("failed to issue download token", zap.Int64("card_id", cardID), zap.Error(err))
		return nil, apperrors.NewInternalError("failed to issue download token", err)
	}

	url := uc.signer.SignWithDisposition(c.Content, fmt.Sprintf("attachment; filename=%q", c.Name))
	return &DownloadResponse{URL: url, Token: token, ExpiresIn: uc.signer.ExpiresIn()}, nil
}

// SignUpload allocates a storage key for a new file and returns the
// signed POST policy a browser needs to upload it directly to the
// bucket.
func (uc *Usecase) SignUpload(ctx context.Context, in SignUploadRequest) (*UploadResponse, error) {
	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("sign upload validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}
	if uc.signer == nil {
		return nil, apperrors.NewInternalError("file storage is not configured", nil)
	}

	key := storage.GenerateFileKey(in.Name)
	policy, err := uc.signer.SignUploadPolicy(key, in.MimeType)
	if err != nil {
		uc.log.Error("failed to sign upload policy", zap.String("key", key), zap.Error(err))
		return nil, apperrors.NewInternalError("failed to sign upload policy", err)
	}

	return &UploadResponse{
		Key:         policy.Key,
		URL:         policy.URL,
		AccessKeyID: policy.AccessKeyID,
		ACL:         policy.ACL,
		Policy:      policy.Policy,
		Signature:   policy.Signature,
		ExpiresAt:   policy.ExpiresAt,
	}, nil
}
