package board

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"boards-backend/internal/announce"
	"boards-backend/internal/domain/account"
	domain "boards-backend/internal/domain/board"
	"boards-backend/internal/domain/invite"
	"boards-backend/internal/domain/notification"
	"boards-backend/internal/domain/user"
	"boards-backend/internal/notify"
	pkgauth "boards-backend/pkg/auth"
	apperrors "boards-backend/pkg/errors"
)

// Repository defines the board data access operations.
type Repository interface {
	Create(ctx context.Context, b *domain.Board, ownerUserID int64) (*domain.Board, error)
	GetByID(ctx context.Context, id int64) (*domain.Board, error)
	ListForUser(ctx context.Context, userID, accountID int64) ([]domain.Board, error)
	ListSharedForAccount(ctx context.Context, accountID int64) ([]domain.Board, error)
	Update(ctx context.Context, b *domain.Board) (*domain.Board, error)
	Delete(ctx context.Context, id int64) error
	Clone(ctx context.Context, boardID, targetAccountID, creatorID, ownerUserID int64) (*domain.Board, error)

	GetUserCollaborator(ctx context.Context, boardID, userID int64) (*domain.Collaborator, error)
	ListCollaborators(ctx context.Context, boardID int64) ([]domain.Collaborator, error)
	GetCollaborator(ctx context.Context, id int64) (*domain.Collaborator, error)
	CreateCollaborator(ctx context.Context, c *domain.Collaborator) (*domain.Collaborator, error)
	UpdateCollaboratorPermission(ctx context.Context, id int64, permission string) error
	DeleteCollaborator(ctx context.Context, id int64) error

	CreateRequest(ctx context.Context, req *domain.CollaboratorRequest) (*domain.CollaboratorRequest, error)
	GetRequest(ctx context.Context, id int64) (*domain.CollaboratorRequest, error)
	DeleteRequest(ctx context.Context, id int64) error
}

// AccountRepository defines the account data access needed for board
// authorization.
type AccountRepository interface {
	GetByID(ctx context.Context, id int64) (*account.Account, error)
	GetCollaborator(ctx context.Context, accountID, userID int64) (*account.Collaborator, error)
	GetOwner(ctx context.Context, accountID int64) (*account.Collaborator, error)
}

// UserRepository resolves collaborator emails to registered users.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
}

// InviteRepository creates invitations for unregistered collaborators.
type InviteRepository interface {
	GetInvitedUserByAccountEmail(ctx context.Context, accountID int64, email string) (*invite.InvitedUser, error)
	CreateInvitedUser(ctx context.Context, iu *invite.InvitedUser) (*invite.InvitedUser, error)
}

// Notifier dispatches notification events.
type Notifier interface {
	Send(ctx context.Context, ev notify.Event)
}

// Usecase implements board management: CRUD, cloning, collaborators,
// and access requests.
type Usecase struct {
	repo      Repository
	accounts  AccountRepository
	users     UserRepository
	invites   InviteRepository
	announcer announce.Announcer
	notifier  Notifier
	tokens    *pkgauth.TokenService
	appURL    string
	log       *zap.Logger
	validate  *validator.Validate
}

// New creates a new instance of Usecase.
func New(repo Repository, accounts AccountRepository, users UserRepository, invites InviteRepository,
	announcer announce.Announcer, notifier Notifier, tokens *pkgauth.TokenService, appURL string,
	log *zap.Logger) *Usecase {
	return &Usecase{
		repo:      repo,
		accounts:  accounts,
		users:     users,
		invites:   invites,
		announcer: announcer,
		notifier:  notifier,
		tokens:    tokens,
		appURL:    appURL,
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
			case "email":
				messages = append(messages, fmt.Sprintf("%s must be a valid email", e.Field()))
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

// getBoard loads a board or returns a not-found error.
func (uc *Usecase) getBoard(ctx context.Context, boardID int64) (*domain.Board, error) {
	b, err := uc.repo.GetByID(ctx, boardID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load board", err)
	}
	if b == nil {
		return nil, apperrors.NewNotFoundError("board", "board not found")
	}
	return b, nil
}

// isAccountOwner reports whether the user owns the board's account.
func (uc *Usecase) isAccountOwner(ctx context.Context, accountID, userID int64) bool {
	if userID == 0 {
		return false
	}
	owner, err := uc.accounts.GetOwner(ctx, accountID)
	if err != nil || owner == nil {
		return false
	}
	return owner.UserID == userID
}

// CanRead reports whether a user, possibly anonymous, may view a board.
func (uc *Usecase) CanRead(ctx context.Context, b *domain.Board, userID int64) bool {
	if b.IsShared {
		return true
	}
	if userID == 0 {
		return false
	}
	c, err := uc.repo.GetUserCollaborator(ctx, b.ID, userID)
	if err == nil && c != nil {
		return true
	}
	return uc.isAccountOwner(ctx, b.AccountID, userID)
}

// canWrite reports whether a user may modify a board.
func (uc *Usecase) canWrite(ctx context.Context, b *domain.Board, userID int64) bool {
	if userID == 0 {
		return false
	}
	c, err := uc.repo.GetUserCollaborator(ctx, b.ID, userID)
	if err == nil && c != nil && c.CanWrite() {
		return true
	}
	return uc.isAccountOwner(ctx, b.AccountID, userID)
}

// RequireRead loads a board and checks view access for the user.
func (uc *Usecase) RequireRead(ctx context.Context, boardID, userID int64) (*domain.Board, error) {
	b, err := uc.getBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if !uc.CanRead(ctx, b, userID) {
		return nil, apperrors.NewPermissionDeniedError("you do not have access to this board")
	}
	return b, nil
}

// RequireWrite loads a board and checks write access for the user.
func (uc *Usecase) RequireWrite(ctx context.Context, boardID, userID int64) (*domain.Board, error) {
	b, err := uc.getBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if !uc.canWrite(ctx, b, userID) {
		return nil, apperrors.NewPermissionDeniedError("you do not have write access to this board")
	}
	return b, nil
}

// Create makes a board on an account the user belongs to. The creator
// and the account owner become write collaborators.
func (uc *Usecase) Create(ctx context.Context, userID int64, in CreateBoardRequest) (*View, error) {
	uc.log.Info("creating board", zap.Int64("user_id", userID), zap.String("name", in.Name))

	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("create board validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	member, err := uc.accounts.GetCollaborator(ctx, in.AccountID, userID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to check account membership", err)
	}
	if member == nil {
		return nil, apperrors.NewPermissionDeniedError("you are not a member of this account")
	}

	var ownerUserID int64
	if owner, err := uc.accounts.GetOwner(ctx, in.AccountID); err == nil && owner != nil {
		ownerUserID = owner.UserID
	}

	created, err := uc.repo.Create(ctx, &domain.Board{
		AccountID:   in.AccountID,
		Name:        in.Name,
		Color:       in.Color,
		IsShared:    in.IsShared,
		CreatedByID: userID,
	}, ownerUserID)
	if err != nil {
		uc.log.Error("failed to create board", zap.Error(err))
		return nil, apperrors.NewInternalError("failed to create board", err)
	}

	view := NewView(created)
	uc.announcer.Announce(ctx, created.AnnounceRoom(), "board", announce.MethodCreate, view)
	return &view, nil
}

// List returns the boards a user collaborates on, optionally scoped to
// one account.
func (uc *Usecase) List(ctx context.Context, userID, accountID int64) ([]View, error) {
	boards, err := uc.repo.ListForUser(ctx, userID, accountID)
	if err != nil {
		uc.log.Error("failed to list boards", zap.Int64("user_id", userID), zap.Error(err))
		return nil, apperrors.NewInternalError("failed to list boards", err)
	}
	return NewViews(boards), nil
}

// ListShared returns the publicly shared boards of an account. No
// authentication required.
func (uc *Usecase) ListShared(ctx context.Context, accountID int64) ([]View, error) {
	acct, err := uc.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load account", err)
	}
	if acct == nil {
		return nil, apperrors.NewNotFoundError("account", "account not found")
	}

	boards, err := uc.repo.ListSharedForAccount(ctx, accountID)
	if err != nil {
		uc.log.Error("failed to list shared boards", zap.Int64("account_id", accountID), zap.Error(err))
		return nil, apperrors.NewInternalError("failed to list shared boards", err)
	}
	return NewViews(boards), nil
}

// Get returns a single board the user may view.
func (uc *Usecase) Get(ctx context.Context, userID, boardID int64) (*View, error) {
	b, err := uc.RequireRead(ctx, boardID, userID)
	if err != nil {
		return nil, err
	}
	view := NewView(b)
	return &view, nil
}

// Update applies changes to a board the user can write to.
func (uc *Usecase) Update(ctx context.Context, userID, boardID int64, in UpdateBoardRequest) (*View, error) {
	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("update board validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	b, err := uc.RequireWrite(ctx, boardID, userID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if *in.Name == "" {
			return nil, apperrors.NewValidationError("name", "name cannot be empty")
		}
		b.Name = *in.Name
	}
	if in.Color != nil {
		b.Color = *in.Color
	}
	if in.IsShared != nil {
		b.IsShared = *in.IsShared
	}
	b.ModifiedByID = userID

	updated, err := uc.repo.Update(ctx, b)
	if err != nil {
		uc.log.Error("failed to update board", zap.Int64("board_id", boardID), zap.Error(err))
		return nil, apperrors.NewInternalError("failed to update board", err)
	}

	view := NewView(updated)
	uc.announcer.Announce(ctx, updated.AnnounceRoom(), "board", announce.MethodUpdate, view)
	return &view, nil
}

// Delete removes a board. Only the board creator and the account owner
// may delete.
func (uc *Usecase) Delete(ctx context.Context, userID, boardID int64) error {
	b, err := uc.getBoard(ctx, boardID)
	if err != nil {
		return err
	}
	if b.CreatedByID != userID && !uc.isAccountOwner(ctx, b.AccountID, userID) {
		return apperrors.NewPermissionDeniedError("only the board creator or account owner can delete a board")
	}

	view := NewView(b)
	if err := uc.repo.Delete(ctx, boardID); err != nil {
		uc.log.Error("failed to delete board", zap.Int64("board_id", boardID), zap.Error(err))
		return apperrors.NewInternalError("failed to delete board", err)
	}

	uc.announcer.Announce(ctx, b.AnnounceRoom(), "board", announce.MethodDelete, view)
	return nil
}

// Clone deep-copies a board, with its cards and comments, into the
// given account or the board's own account.
func (uc *Usecase) Clone(ctx context.Context, userID, boardID int64, in CloneBoardRequest) (*View, error) {
	b, err := uc.RequireRead(ctx, boardID, userID)
	if err != nil {
		return nil, err
	}

	targetAccountID := in.AccountID
	if targetAccountID == 0 {
		targetAccountID = b.AccountID
	}
	member, err := uc.accounts.GetCollaborator(ctx, targetAccountID, userID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to check account membership", err)
	}
	if member == nil {
		return nil, apperrors.NewPermissionDeniedError("you are not a member of the target account")
	}

	var ownerUserID int64
	if owner, err := uc.accounts.GetOwner(ctx, targetAccountID); err == nil && owner != nil {
		ownerUserID = owner.UserID
	}

	cloned, err := uc.repo.Clone(ctx, boardID, targetAccountID, userID, ownerUserID)
	if err != nil {
		uc.log.Error("failed to clone board", zap.Int64("board_id", boardID), zap.Error(err))
		return nil, apperrors.NewInternalError("failed to clone board", err)
	}

	view := NewView(cloned)
	uc.announcer.Announce(ctx, cloned.AnnounceRoom(), "board", announce.MethodCreate, view)
	return &view, nil
}

// ListCollaborators returns the collaborators of a board the user may view.
func (uc *Usecase) ListCollaborators(ctx context.Context, userID, boardID int64) ([]CollaboratorView, error) {
	if _, err := uc.RequireRead(ctx, boardID, userID); err != nil {
		return nil, err
	}
	collabs, err := uc.repo.ListCollaborators(ctx, boardID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list collaborators", err)
	}
	out := make([]CollaboratorView, len(collabs))
	for i := range collabs {
		out[i] = NewCollaboratorView(&collabs[i])
	}
	return out, nil
}

// AddCollaborator grants board access to a registered user or, by
// email, to someone who has not signed up yet. The latter produces an
// account invitation carrying the pending grant.
func (uc *Usecase) AddCollaborator(ctx context.Context, userID, boardID int64, in AddCollaboratorRequest) (*CollaboratorView, error) {
	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("add collaborator validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}
	if !domain.ValidPermission(in.Permission) {
		return nil, apperrors.NewValidationError("permission", "permission must be read or write")
	}
	if (in.UserID == 0) == (in.Email == "") {
		return nil, apperrors.NewValidationError("", "exactly one of user and email must be provided")
	}

	b, err := uc.RequireWrite(ctx, boardID, userID)
	if err != nil {
		return nil, err
	}

	if in.UserID != 0 {
		return uc.addUserCollaborator(ctx, b, userID, in.UserID, in.Permission)
	}
	return uc.addEmailCollaborator(ctx, b, userID, strings.ToLower(strings.TrimSpace(in.Email)), in.Permission)
}

func (uc *Usecase) addUserCollaborator(ctx context.Context, b *domain.Board, actorID, targetID int64, permission string) (*CollaboratorView, error) {
	target, err := uc.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load user", err)
	}
	if target == nil {
		return nil, apperrors.NewNotFoundError("user", "user not found")
	}
	if existing, err := uc.repo.GetUserCollaborator(ctx, b.ID, targetID); err == nil && existing != nil {
		return nil, apperrors.NewAlreadyExistsError("collaborator", "user already collaborates on this board")
	}

	created, err := uc.repo.CreateCollaborator(ctx, &domain.Collaborator{
		BoardID:     b.ID,
		UserID:      targetID,
		Permission:  permission,
		CreatedByID: actorID,
	})
	if err != nil {
		uc.log.Error("failed to create collaborator", zap.Int64("board_id", b.ID), zap.Error(err))
		return nil, apperrors.NewInternalError("failed to create collaborator", err)
	}

	view := NewCollaboratorView(created)
	uc.announcer.Announce(ctx, b.AnnounceRoom(), "board_collaborator", announce.MethodCreate, view)
	return &view, nil
}

// addEmailCollaborator resolves the email to a registered user when
// possible; otherwise it invites the address to the board's account
// with the grant attached.
func (uc *Usecase) addEmailCollaborator(ctx context.Context, b *domain.Board, actorID int64, email, permission string) (*CollaboratorView, error) {
	if registered, err := uc.users.GetByEmail(ctx, email); err != nil {
		return nil, apperrors.NewInternalError("failed to look up email", err)
	} else if registered != nil {
		return uc.addUserCollaborator(ctx, b, actorID, registered.ID, permission)
	}

	if existing, err := uc.invites.GetInvitedUserByAccountEmail(ctx, b.AccountID, email); err == nil && existing != nil {
		return nil, apperrors.NewAlreadyExistsError("invitation", "email already invited to this account")
	}

	iu, err := uc.invites.CreateInvitedUser(ctx, &invite.InvitedUser{
		AccountID:   b.AccountID,
		Email:       email,
		CreatedByID: actorID,
	})
	if err != nil {
		uc.log.Error("failed to create invitation", zap.Int64("board_id", b.ID), zap.Error(err))
		return nil, apperrors.NewInternalError("failed to create invitation", err)
	}

	created, err := uc.repo.CreateCollaborator(ctx, &domain.Collaborator{
		BoardID:       b.ID,
		InvitedUserID: iu.ID,
		Permission:    permission,
		CreatedByID:   actorID,
	})
	if err != nil {
		uc.log.Error("failed to create collaborator for invite", zap.Int64("board_id", b.ID), zap.Error(err))
		return nil, apperrors.NewInternalError("failed to create collaborator", err)
	}

	uc.sendInviteEmail(ctx, iu, actorID, b)

	view := NewCollaboratorView(created)
	uc.announcer.Announce(ctx, b.AnnounceRoom(), "board_collaborator", announce.MethodCreate, view)
	return &view, nil
}

// sendInviteEmail mails the invite link. Token failures only lose the
// email, never the grant.
func (uc *Usecase) sendInviteEmail(ctx context.Context, iu *invite.InvitedUser, actorID int64, b *domain.Board) {
	token, err := uc.tokens.IssueInviteToken(iu.ID, iu.Email)
	if err != nil {
		uc.log.Error("failed to issue invite token", zap.Int64("invite_id", iu.ID), zap.Error(err))
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
		ActorID:     actorID,
		ActorName:   actorName,
		Label:       notification.LabelUserInvited,
		Description: fmt.Sprintf("%s/invite/%s", strings.TrimRight(uc.appURL, "/"), token),
		Recipients:  []notify.Recipient{{Email: iu.Email}},
		Target:      map[string]interface{}{"board": b.Name},
	})
}

// UpdateCollaborator changes a collaborator's permission level.
func (uc *Usecase) UpdateCollaborator(ctx context.Context, userID, boardID, collaboratorID int64, in UpdateCollaboratorRequest) (*CollaboratorView, error) {
	if !domain.ValidPermission(in.Permission) {
		return nil, apperrors.NewValidationError("permission", "permission must be read or write")
	}

	b, err := uc.RequireWrite(ctx, boardID, userID)
	if err != nil {
		return nil, err
	}

	c, err := uc.repo.GetCollaborator(ctx, collaboratorID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load collaborator", err)
	}
	if c == nil || c.BoardID != boardID {
		return nil, apperrors.NewNotFoundError("collaborator", "collaborator not found")
	}

	if err := uc.repo.UpdateCollaboratorPermission(ctx, collaboratorID, in.Permission); err != nil {
		return nil, apperrors.NewInternalError("failed to update collaborator", err)
	}
	c.Permission = in.Permission

	view := NewCollaboratorView(c)
	uc.announcer.Announce(ctx, b.AnnounceRoom(), "board_collaborator", announce.MethodUpdate, view)
	return &view, nil
}

// RemoveCollaborator revokes board access. Collaborators may remove
// themselves; otherwise write access is required.
func (uc *Usecase) RemoveCollaborator(ctx context.Context, userID, boardID, collaboratorID int64) error {
	b, err := uc.getBoard(ctx, boardID)
	if err != nil {
		return err
	}

	c, err := uc.repo.GetCollaborator(ctx, collaboratorID)
	if err != nil {
		return apperrors.NewInternalError("failed to load collaborator", err)
	}
	if c == nil || c.BoardID != boardID {
		return apperrors.NewNotFoundError("collaborator", "collaborator not found")
	}

	if c.UserID != userID && !uc.canWrite(ctx, b, userID) {
		return apperrors.NewPermissionDeniedError("you cannot remove this collaborator")
	}

	if err := uc.repo.DeleteCollaborator(ctx, collaboratorID); err != nil {
		return apperrors.NewInternalError("failed to remove collaborator", err)
	}

	uc.announcer.Announce(ctx, b.AnnounceRoom(), "board_collaborator", announce.MethodDelete, NewCollaboratorView(c))
	return nil
}

// RequestAccess records an ask for access to a board. Signed-in users
// identify themselves; anonymous requesters must leave an email.
func (uc *Usecase) RequestAccess(ctx context.Context, userID, boardID int64, in CreateAccessRequest) (*AccessRequestView, error) {
	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("access request validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}
	if userID == 0 && in.Email == "" {
		return nil, apperrors.NewValidationError("email", "email is required for anonymous requests")
	}

	b, err := uc.getBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if userID != 0 {
		if existing, err := uc.repo.GetUserCollaborator(ctx, boardID, userID); err == nil && existing != nil {
			return nil, apperrors.NewAlreadyExistsError("collaborator", "you already collaborate on this board")
		}
	}

	created, err := uc.repo.CreateRequest(ctx, &domain.CollaboratorRequest{
		BoardID:   boardID,
		UserID:    userID,
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Message:   in.Message,
	})
	if err != nil {
		uc.log.Error("failed to create access request", zap.Int64("board_id", boardID), zap.Error(err))
		return nil, apperrors.NewInternalError("failed to create access request", err)
	}

	uc.log.Info("board access requested",
		zap.Int64("board_id", b.ID), zap.Int64("request_id", created.ID))
	view := NewAccessRequestView(created)
	return &view, nil
}

// ResolveAccessByID resolves an access request addressed by id alone,
// looking up the board it belongs to first.
func (uc *Usecase) ResolveAccessByID(ctx context.Context, userID, requestID int64, in ResolveAccessRequest) (*CollaboratorView, error) {
	req, err := uc.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load access request", err)
	}
	if req == nil {
		return nil, apperrors.NewNotFoundError("request", "access request not found")
	}
	return uc.ResolveAccess(ctx, userID, req.BoardID, requestID, in)
}

// ResolveAccess accepts or rejects an access request. Accepting creates
// a collaborator for the requester; either way the request is removed.
func (uc *Usecase) ResolveAccess(ctx context.Context, userID, boardID, requestID int64, in ResolveAccessRequest) (*CollaboratorView, error) {
	b, err := uc.RequireWrite(ctx, boardID, userID)
	if err != nil {
		return nil, err
	}

	req, err := uc.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load access request", err)
	}
	if req == nil || req.BoardID != boardID {
		return nil, apperrors.NewNotFoundError("request", "access request not found")
	}

	var view *CollaboratorView
	if in.Accept {
		permission := in.Permission
		if permission == "" {
			permission = domain.PermissionRead
		}
		if !domain.ValidPermission(permission) {
			return nil, apperrors.NewValidationError("permission", "permission must be read or write")
		}

		if req.UserID != 0 {
			view, err = uc.addUserCollaborator(ctx, b, userID, req.UserID, permission)
		} else {
			view, err = uc.addEmailCollaborator(ctx, b, userID, req.Email, permission)
		}
		if err != nil {
			return nil, err
		}
	}

	if err := uc.repo.DeleteRequest(ctx, requestID); err != nil {
		uc.log.Warn("failed to delete resolved access request",
			zap.Int64("request_id", requestID), zap.Error(err))
	}

	uc.log.Info("board access request resolved",
		zap.Int64("request_id", requestID), zap.Bool("accepted", in.Accept))
	return view, nil
}
