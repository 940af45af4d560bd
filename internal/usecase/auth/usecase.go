package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"boards-backend/internal/domain/account"
	"boards-backend/internal/domain/invite"
	"boards-backend/internal/domain/notification"
	"boards-backend/internal/domain/user"
	"boards-backend/internal/notify"
	pkgauth "boards-backend/pkg/auth"
	apperrors "boards-backend/pkg/errors"
)

// UserRepository defines the user data access needed by auth flows.
type UserRepository interface {
	CreateWithAccount(ctx context.Context, u *user.User) (*user.User, *account.Account, error)
	GetByID(ctx context.Context, id int64) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByUsername(ctx context.Context, username string) (*user.User, error)
	GetByUsernameOrEmail(ctx context.Context, identifier string) (*user.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

// InviteRepository defines the invitation data access needed at signup.
type InviteRepository interface {
	GetInvitedUser(ctx context.Context, id int64) (*invite.InvitedUser, error)
	ListInvitedUsersByEmail(ctx context.Context, email string) ([]invite.InvitedUser, error)
	AcceptInvitedUser(ctx context.Context, inviteID, userID int64) error
	DeleteSignupRequestsByEmail(ctx context.Context, email string) error
}

// Notifier dispatches notification events.
type Notifier interface {
	Send(ctx context.Context, ev notify.Event)
}

// Usecase implements the authentication flows: signup, signin, username
// validation, and the password reset loop.
type Usecase struct {
	users      UserRepository
	invites    InviteRepository
	tokens     *pkgauth.TokenService
	hasher     *pkgauth.PasswordHasher
	notifier   Notifier
	log        *zap.Logger
	validate   *validator.Validate
	signupOpen bool
	appURL     string
}

// New creates a new instance of Usecase.
func New(users UserRepository, invites InviteRepository, tokens *pkgauth.TokenService,
	hasher *pkgauth.PasswordHasher, notifier Notifier, signupOpen bool, appURL string, log *zap.Logger) *Usecase {
	return &Usecase{
		users:      users,
		invites:    invites,
		tokens:     tokens,
		hasher:     hasher,
		notifier:   notifier,
		log:        log,
		validate:   validator.New(),
		signupOpen: signupOpen,
		appURL:     appURL,
	}
}

// formatValidationError converts validator.ValidationErrors into a human-readable error.
func formatValidationError(err error) error {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		var messages []string
		for _, e := range validationErrors {
			switch e.Tag() {
			case "required":
				messages = append(messages, fmt.Sprintf("%s is required", e.Field()))
			case "email":
				messages = append(messages, fmt.Sprintf("%s must be a valid email", e.Field()))
			case "min":
				messages = append(messages, fmt.Sprintf("%s must be at least %s characters", e.Field(), e.Param()))
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

// Signup registers a new user with their personal account and signs
// them in. When signups are closed the request must carry a signup
// request token or an invite token matching the email.
func (uc *Usecase) Signup(ctx context.Context, in SignupRequest) (*AuthResponse, error) {
	uc.log.Info("signing up user", zap.String("username", in.Username), zap.String("email", in.Email))

	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("signup validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if reason := usernameProblem(in.Username); reason != "" {
		return nil, apperrors.NewValidationError("username", reason)
	}

	if err := uc.checkSignupAllowed(ctx, in); err != nil {
		return nil, err
	}

	if existing, err := uc.users.GetByUsername(ctx, in.Username); err != nil {
		return nil, apperrors.NewInternalError("failed to check username uniqueness", err)
	} else if existing != nil {
		return nil, apperrors.NewAlreadyExistsError("username", "username already exists")
	}
	if existing, err := uc.users.GetByEmail(ctx, in.Email); err != nil {
		return nil, apperrors.NewInternalError("failed to check email uniqueness", err)
	} else if existing != nil {
		return nil, apperrors.NewAlreadyExistsError("email", "email already exists")
	}

	hash, err := uc.hasher.Hash(in.Password)
	if err != nil {
		uc.log.Error("failed to hash password", zap.Error(err))
		return nil, apperrors.NewInternalError("failed to hash password", err)
	}

	created, acct, err := uc.users.CreateWithAccount(ctx, &user.User{
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
	})
	if err != nil {
		uc.log.Error("failed to create user", zap.Error(err))
		return nil, apperrors.NewInternalError("failed to create user", err)
	}

	uc.acceptOutstandingInvites(ctx, created)

	if err := uc.invites.DeleteSignupRequestsByEmail(ctx, created.Email); err != nil {
		uc.log.Warn("failed to clear signup requests", zap.String("email", created.Email), zap.Error(err))
	}

	token, err := uc.tokens.IssueAccessToken(created.ID, created.Username, created.TokenVersion)
	if err != nil {
		uc.log.Error("failed to issue access token", zap.Error(err))
		return nil, apperrors.NewInternalError("failed to issue token", err)
	}

	uc.log.Info("user signed up", zap.Int64("user_id", created.ID), zap.Int64("account_id", acct.ID))
	return &AuthResponse{Token: token, User: created, Account: acct}, nil
}

// checkSignupAllowed enforces the invite gate when signups are closed.
func (uc *Usecase) checkSignupAllowed(ctx context.Context, in SignupRequest) error {
	if uc.signupOpen {
		return nil
	}

	if in.SignupToken != "" {
		email, err := uc.tokens.ParseSignupRequestToken(in.SignupToken)
		if err != nil {
			return apperrors.NewUnauthorizedError("invalid signup token")
		}
		if !strings.EqualFold(email, in.Email) {
			return apperrors.NewUnauthorizedError("signup token does not match email")
		}
		return nil
	}

	if in.InviteToken != "" {
		inviteID, email, err := uc.tokens.ParseInviteToken(in.InviteToken)
		if err != nil {
			return apperrors.NewUnauthorizedError("invalid invite token")
		}
		if !strings.EqualFold(email, in.Email) {
			return apperrors.NewUnauthorizedError("invite token does not match email")
		}
		if iu, err := uc.invites.GetInvitedUser(ctx, inviteID); err != nil || iu == nil {
			return apperrors.NewUnauthorizedError("invitation no longer exists")
		}
		return nil
	}

	return apperrors.NewUnauthorizedError("signups are closed, a signup or invite token is required")
}

// acceptOutstandingInvites turns every pending invitation for the new
// user's email into membership. Failures are logged, not fatal.
func (uc *Usecase) acceptOutstandingInvites(ctx context.Context, u *user.User) {
	pending, err := uc.invites.ListInvitedUsersByEmail(ctx, u.Email)
	if err != nil {
		uc.log.Warn("failed to list pending invites", zap.String("email", u.Email), zap.Error(err))
		return
	}
	for _, iu := range pending {
		if err := uc.invites.AcceptInvitedUser(ctx, iu.ID, u.ID); err != nil {
			uc.log.Warn("failed to accept pending invite",
				zap.Int64("invite_id", iu.ID), zap.Int64("user_id", u.ID), zap.Error(err))
		}
	}
}

// Signin authenticates a username or email plus password and returns a
// fresh access token. Unknown identifiers and wrong passwords produce
// the same error.
func (uc *Usecase) Signin(ctx context.Context, in SigninRequest) (*AuthResponse, error) {
	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("signin validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	identifier := strings.ToLower(strings.TrimSpace(in.Identifier))
	u, err := uc.users.GetByUsernameOrEmail(ctx, identifier)
	if err != nil {
		uc.log.Error("failed to look up user", zap.Error(err))
		return nil, apperrors.NewInternalError("failed to look up user", err)
	}
	if u == nil || !uc.hasher.Compare(u.PasswordHash, in.Password) {
		uc.log.Warn("signin rejected", zap.String("identifier", identifier))
		return nil, apperrors.NewUnauthorizedError("unable to login with provided credentials")
	}

	token, err := uc.tokens.IssueAccessToken(u.ID, u.Username, u.TokenVersion)
	if err != nil {
		uc.log.Error("failed to issue access token", zap.Error(err))
		return nil, apperrors.NewInternalError("failed to issue token", err)
	}

	uc.log.Info("user signed in", zap.Int64("user_id", u.ID))
	return &AuthResponse{Token: token, User: u}, nil
}

// usernameProblem returns a human-readable reason a username cannot be
// claimed, or empty when it is acceptable.
func usernameProblem(username string) string {
	if !user.IsUsernameValid(username) {
		return "username may only contain letters, digits, and underscores, up to 30 characters"
	}
	if user.IsUsernameReserved(username) {
		return "username is reserved"
	}
	return ""
}

// ValidateUsername checks whether a username is well-formed, not
// reserved, and not taken.
func (uc *Usecase) ValidateUsername(ctx context.Context, in ValidateUsernameRequest) (*ValidateUsernameResponse, error) {
	if err := uc.validate.Struct(in); err != nil {
		return nil, formatValidationError(err)
	}

	username := strings.ToLower(strings.TrimSpace(in.Username))
	if reason := usernameProblem(username); reason != "" {
		return &ValidateUsernameResponse{Available: false, Reason: reason}, nil
	}

	existing, err := uc.users.GetByUsername(ctx, username)
	if err != nil {
		uc.log.Error("failed to check username", zap.String("username", username), zap.Error(err))
		return nil, apperrors.NewInternalError("failed to check username", err)
	}
	if existing != nil {
		return &ValidateUsernameResponse{Available: false, Reason: "username already exists"}, nil
	}
	return &ValidateUsernameResponse{Available: true}, nil
}

// ForgotPassword emails a reset link to the account holder. The token
// embeds the current token version, so it dies with a password change.
func (uc *Usecase) ForgotPassword(ctx context.Context, in ForgotPasswordRequest) error {
	if err := uc.validate.Struct(in); err != nil {
		return formatValidationError(err)
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	u, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		uc.log.Error("failed to look up email", zap.Error(err))
		return apperrors.NewInternalError("failed to look up email", err)
	}
	if u == nil {
		return apperrors.NewNotFoundError("email", "no account found with that email")
	}

	token, err := uc.tokens.IssuePasswordResetToken(u.ID, u.TokenVersion)
	if err != nil {
		uc.log.Error("failed to issue reset token", zap.Error(err))
		return apperrors.NewInternalError("failed to issue reset token", err)
	}

	uc.notifier.Send(ctx, notify.Event{
		Label:       notification.LabelPasswordReset,
		Description: fmt.Sprintf("%s/reset_password/%s", strings.TrimRight(uc.appURL, "/"), token),
		Recipients:  []notify.Recipient{{UserID: u.ID, Email: u.Email}},
	})

	uc.log.Info("password reset email queued", zap.Int64("user_id", u.ID))
	return nil
}

// ResetPassword completes the reset loop: the emailed token is
// exchanged for a new password. A token issued before the last password
// change is rejected.
func (uc *Usecase) ResetPassword(ctx context.Context, in ResetPasswordRequest) error {
	if err := uc.validate.Struct(in); err != nil {
		return formatValidationError(err)
	}

	userID, tokenVersion, err := uc.tokens.ParsePasswordResetToken(in.Token)
	if err != nil {
		return apperrors.NewUnauthorizedError("invalid or expired reset token")
	}

	u, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		uc.log.Error("failed to load user", zap.Int64("user_id", userID), zap.Error(err))
		return apperrors.NewInternalError("failed to load user", err)
	}
	if u == nil || u.TokenVersion != tokenVersion {
		return apperrors.NewUnauthorizedError("invalid or expired reset token")
	}

	hash, err := uc.hasher.Hash(in.NewPassword)
	if err != nil {
		uc.log.Error("failed to hash password", zap.Error(err))
		return apperrors.NewInternalError("failed to hash password", err)
	}
	if err := uc.users.UpdatePassword(ctx, u.ID, hash); err != nil {
		uc.log.Error("failed to update password", zap.Int64("user_id", u.ID), zap.Error(err))
		return apperrors.NewInternalError("failed to update password", err)
	}

	uc.log.Info("password reset completed", zap.Int64("user_id", u.ID))
	return nil
}
