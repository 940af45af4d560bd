package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	domain "boards-backend/internal/domain/user"
	pkgauth "boards-backend/pkg/auth"
	apperrors "boards-backend/pkg/errors"
)

// Repository defines the user data access operations.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) (*domain.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

// Usecase implements the profile operations of the signed-in user.
type Usecase struct {
	repo     Repository
	tokens   *pkgauth.TokenService
	hasher   *pkgauth.PasswordHasher
	log      *zap.Logger
	validate *validator.Validate
}

// New creates a new instance of Usecase.
func New(repo Repository, tokens *pkgauth.TokenService, hasher *pkgauth.PasswordHasher, log *zap.Logger) *Usecase {
	return &Usecase{repo: repo, tokens: tokens, hasher: hasher, log: log, validate: validator.New()}
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

// GetMe returns the signed-in user's profile.
func (uc *Usecase) GetMe(ctx context.Context, userID int64) (*domain.User, error) {
	u, err := uc.repo.GetByID(ctx, userID)
	if err != nil {
		uc.log.Error("failed to load user", zap.Int64("user_id", userID), zap.Error(err))
		return nil, apperrors.NewInternalError("failed to load user", err)
	}
	if u == nil {
		return nil, apperrors.NewNotFoundError("user", "user not found")
	}
	return u, nil
}

// UpdateMe applies profile changes for the signed-in user. Username and
// email changes re-check uniqueness and the reserved list.
func (uc *Usecase) UpdateMe(ctx context.Context, userID int64, in UpdateMeRequest) (*domain.User, error) {
	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("update me validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	u, err := uc.GetMe(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Username != "" {
		username := strings.ToLower(strings.TrimSpace(in.Username))
		if username != u.Username {
			if !domain.IsUsernameValid(username) {
				return nil, apperrors.NewValidationError("username",
					"username may only contain letters, digits, and underscores, up to 30 characters")
			}
			if domain.IsUsernameReserved(username) {
				return nil, apperrors.NewValidationError("username", "username is reserved")
			}
			existing, err := uc.repo.GetByUsername(ctx, username)
			if err != nil {
				return nil, apperrors.NewInternalError("failed to check username uniqueness", err)
			}
			if existing != nil && existing.ID != userID {
				return nil, apperrors.NewAlreadyExistsError("username", "username already exists")
			}
			u.Username = username
		}
	}

	if in.Email != "" {
		email := strings.ToLower(strings.TrimSpace(in.Email))
		if email != u.Email {
			existing, err := uc.repo.GetByEmail(ctx, email)
			if err != nil {
				return nil, apperrors.NewInternalError("failed to check email uniqueness", err)
			}
			if existing != nil && existing.ID != userID {
				return nil, apperrors.NewAlreadyExistsError("email", "email already exists")
			}
			u.Email = email
		}
	}

	if in.FirstName != "" {
		u.FirstName = in.FirstName
	}
	if in.LastName != "" {
		u.LastName = in.LastName
	}
	if in.JobTitle != "" {
		u.JobTitle = in.JobTitle
	}

	updated, err := uc.repo.Update(ctx, u)
	if err != nil {
		uc.log.Error("failed to update user", zap.Int64("user_id", userID), zap.Error(err))
		return nil, apperrors.NewInternalError("failed to update user", err)
	}

	uc.log.Info("user profile updated", zap.Int64("user_id", userID))
	return updated, nil
}

// ChangePassword replaces the password after verifying the current one.
// Every outstanding access token dies with the change, so a replacement
// token is issued.
func (uc *Usecase) ChangePassword(ctx context.Context, userID int64, in ChangePasswordRequest) (*ChangePasswordResponse, error) {
	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("change password validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	u, err := uc.GetMe(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !uc.hasher.Compare(u.PasswordHash, in.CurrentPassword) {
		uc.log.Warn("change password rejected", zap.Int64("user_id", userID))
		return nil, apperrors.NewUnauthorizedError("current password is incorrect")
	}

	hash, err := uc.hasher.Hash(in.NewPassword)
	if err != nil {
		uc.log.Error("failed to hash password", zap.Error(err))
		return nil, apperrors.NewInternalError("failed to hash password", err)
	}
	if err := uc.repo.UpdatePassword(ctx, userID, hash); err != nil {
		uc.log.Error("failed to update password", zap.Int64("user_id", userID), zap.Error(err))
		return nil, apperrors.NewInternalError("failed to update password", err)
	}

	token, err := uc.tokens.IssueAccessToken(u.ID, u.Username, u.TokenVersion+1)
	if err != nil {
		uc.log.Error("failed to issue access token", zap.Error(err))
		return nil, apperrors.NewInternalError("failed to issue token", err)
	}

	uc.log.Info("password changed", zap.Int64("user_id", userID))
	return &ChangePasswordResponse{Token: token}, nil
}
