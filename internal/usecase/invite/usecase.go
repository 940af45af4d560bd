package invite

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	domain "boards-backend/internal/domain/invite"
	"boards-backend/internal/domain/notification"
	"boards-backend/internal/domain/user"
	"boards-backend/internal/notify"
	pkgauth "boards-backend/pkg/auth"
	apperrors "boards-backend/pkg/errors"
)

// Repository defines the invitation data access operations.
type Repository interface {
	GetOrCreateSignupRequest(ctx context.Context, email string) (*domain.SignupRequest, bool, error)
	GetSignupRequestByEmail(ctx context.Context, email string) (*domain.SignupRequest, error)
	GetInvitedUser(ctx context.Context, id int64) (*domain.InvitedUser, error)
	AcceptInvitedUser(ctx context.Context, inviteID, userID int64) error
	DeleteInvitedUser(ctx context.Context, id int64) error
}

// UserRepository checks whether an email already belongs to a user.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*user.User, error)
}

// Notifier dispatches notification events.
type Notifier interface {
	Send(ctx context.Context, ev notify.Event)
}

// Usecase implements signup requests and invitation token flows.
type Usecase struct {
	repo     Repository
	users    UserRepository
	notifier Notifier
	tokens   *pkgauth.TokenService
	appURL   string
	log      *zap.Logger
	validate *validator.Validate
}

// New creates a new instance of Usecase.
func New(repo Repository, users UserRepository, notifier Notifier,
	tokens *pkgauth.TokenService, appURL string, log *zap.Logger) *Usecase {
	return &Usecase{
		repo:     repo,
		users:    users,
		notifier: notifier,
		tokens:   tokens,
		appURL:   appURL,
		log:      log,
		validate: validator.New(),
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
			default:
				messages = append(messages, fmt.Sprintf("%s is invalid", e.Field()))
			}
		}
		return apperrors.NewValidationError("", strings.Join(messages, ", "))
	}
	return err
}

// RequestSignup records a signup request for an email and mails back a
// token that unlocks the signup form. Requesting again re-sends the
// email with a fresh token.
func (uc *Usecase) RequestSignup(ctx context.Context, in CreateSignupRequest) error {
	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("signup request validate failed", zap.Error(err))
		return formatValidationError(err)
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))

	existing, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		uc.log.Error("failed to check email", zap.Error(err))
		return apperrors.NewInternalError("failed to check email", err)
	}
	if existing != nil {
		return apperrors.NewAlreadyExistsError("user", "email is already registered")
	}

	req, created, err := uc.repo.GetOrCreateSignupRequest(ctx, email)
	if err != nil {
		uc.log.Error("failed to create signup request", zap.Error(err))
		return apperrors.NewInternalError("failed to create signup request", err)
	}

	token, err := uc.tokens.IssueSignupRequestToken(email)
	if err != nil {
		uc.log.Error("failed to issue signup token", zap.Error(err))
		return apperrors.NewInternalError("failed to issue signup token", err)
	}

	uc.notifier.Send(ctx, notify.Event{
		Label:       notification.LabelSignupRequestCreated,
		Description: fmt.Sprintf("%s/signup/%s", strings.TrimRight(uc.appURL, "/"), token),
		Recipients:  []notify.Recipient{{Email: email}},
	})

	uc.log.Info("signup request",
		zap.Int64("id", req.ID), zap.Bool("created", created))
	return nil
}

// ValidateSignupToken checks a signup token and returns the email it
// was issued to, so the signup form can prefill it.
func (uc *Usecase) ValidateSignupToken(ctx context.Context, in ValidateSignupTokenRequest) (*ValidateSignupTokenResponse, error) {
	if err := uc.validate.Struct(in); err != nil {
		return nil, formatValidationError(err)
	}

	email, err := uc.tokens.ParseSignupRequestToken(in.Token)
	if err != nil {
		return nil, apperrors.NewValidationError("token", "invalid signup token")
	}

	req, err := uc.repo.GetSignupRequestByEmail(ctx, email)
	if err != nil {
		uc.log.Error("failed to load signup request", zap.Error(err))
		return nil, apperrors.NewInternalError("failed to load signup request", err)
	}
	if req == nil {
		return nil, apperrors.NewValidationError("token", "invalid signup token")
	}
	return &ValidateSignupTokenResponse{Email: email}, nil
}

// Accept joins the signed-in user to the inviting account. The token is
// the invitation secret; whoever holds it may accept on their own
// behalf. Linked invitations are bound to the linked user.
func (uc *Usecase) Accept(ctx context.Context, userID int64, in InvitationTokenRequest) (*InvitedUserView, error) {
	if err := uc.validate.Struct(in); err != nil {
		return nil, formatValidationError(err)
	}

	iu, err := uc.loadFromToken(ctx, in.Token)
	if err != nil {
		return nil, err
	}
	if iu.UserID != 0 && iu.UserID != userID {
		return nil, apperrors.NewPermissionDeniedError("invitation belongs to another user")
	}

	if err := uc.repo.AcceptInvitedUser(ctx, iu.ID, userID); err != nil {
		uc.log.Error("failed to accept invitation",
			zap.Int64("invite_id", iu.ID), zap.Int64("user_id", userID), zap.Error(err))
		return nil, apperrors.NewInternalError("failed to accept invitation", err)
	}

	uc.log.Info("invitation accepted",
		zap.Int64("invite_id", iu.ID), zap.Int64("user_id", userID))
	view := NewInvitedUserView(iu)
	return &view, nil
}

// Reject discards an invitation. The token is the invitation secret, so
// no signin is required.
func (uc *Usecase) Reject(ctx context.Context, in InvitationTokenRequest) error {
	if err := uc.validate.Struct(in); err != nil {
		return formatValidationError(err)
	}

	iu, err := uc.loadFromToken(ctx, in.Token)
	if err != nil {
		return err
	}

	if err := uc.repo.DeleteInvitedUser(ctx, iu.ID); err != nil {
		uc.log.Error("failed to reject invitation", zap.Int64("invite_id", iu.ID), zap.Error(err))
		return apperrors.NewInternalError("failed to reject invitation", err)
	}

	uc.log.Info("invitation rejected", zap.Int64("invite_id", iu.ID))
	return nil
}

// loadFromToken resolves an invite token to its pending invitation.
func (uc *Usecase) loadFromToken(ctx context.Context, token string) (*domain.InvitedUser, error) {
	inviteID, email, err := uc.tokens.ParseInviteToken(token)
	if err != nil {
		return nil, apperrors.NewValidationError("token", "invalid invitation token")
	}

	iu, err := uc.repo.GetInvitedUser(ctx, inviteID)
	if err != nil {
		uc.log.Error("failed to load invitation", zap.Int64("invite_id", inviteID), zap.Error(err))
		return nil, apperrors.NewInternalError("failed to load invitation", err)
	}
	if iu == nil || !strings.EqualFold(iu.Email, email) {
		return nil, apperrors.NewNotFoundError("invitation", "invitation not found")
	}
	return iu, nil
}
