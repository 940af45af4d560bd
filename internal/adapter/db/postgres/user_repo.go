package postgres

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"boards-backend/internal/domain/account"
	"boards-backend/internal/domain/user"
)

// UserRepo implements user persistence using PostgreSQL and GORM.
type UserRepo struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewUserRepo creates a new instance of UserRepo.
func NewUserRepo(db *gorm.DB, log *zap.Logger) *UserRepo {
	return &UserRepo{db: db, log: log}
}

func userToSchema(u *user.User) UserSchema {
	return UserSchema{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		PasswordHash: u.PasswordHash,
		JobTitle:     u.JobTitle,
		AvatarPath:   u.AvatarPath,
		TokenVersion: u.TokenVersion,
	}
}

func userFromSchema(m *UserSchema) *user.User {
	return &user.User{
		ID:           m.ID,
		Username:     m.Username,
		Email:        m.Email,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		PasswordHash: m.PasswordHash,
		JobTitle:     m.JobTitle,
		AvatarPath:   m.AvatarPath,
		TokenVersion: m.TokenVersion,
		DateCreated:  m.DateCreated,
		DateModified: m.DateModified,
	}
}

// CreateWithAccount inserts a user together with their personal account
// and owner collaborator row, all in one transaction.
func (r *UserRepo) CreateWithAccount(ctx context.Context, u *user.User) (*user.User, *account.Account, error) {
	if u == nil {
		return nil, nil, errors.New("user cannot be nil")
	}

	model := userToSchema(u)
	var acct AccountSchema

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		slug, err := uniqueSlug(account.Slugify(model.Username), func(s string) (bool, error) {
			var n int64
			if err := tx.Model(&AccountSchema{}).Where("slug = ?", s).Count(&n).Error; err != nil {
				return false, err
			}
			return n > 0, nil
		})
		if err != nil {
			return err
		}

		acct = AccountSchema{
			Name:        model.Username,
			Slug:        slug,
			CreatedByID: model.ID,
		}
		if err := tx.Create(&acct).Error; err != nil {
			return fmt.Errorf("failed to create personal account: %w", err)
		}

		collab := AccountCollaboratorSchema{
			AccountID: acct.ID,
			UserID:    model.ID,
			IsOwner:   true,
		}
		if err := tx.Create(&collab).Error; err != nil {
			return fmt.Errorf("failed to create owner collaborator: %w", err)
		}
		return nil
	})
	if err != nil {
		r.log.Error("failed to create user with account", zap.String("username", u.Username), zap.Error(err))
		return nil, nil, err
	}

	r.log.Info("user created in db",
		zap.Int64("id", model.ID),
		zap.Int64("account_id", acct.ID))

	return userFromSchema(&model), &account.Account{
		ID:          acct.ID,
		Name:        acct.Name,
		Slug:        acct.Slug,
		CreatedByID: acct.CreatedByID,
	}, nil
}

// GetByID retrieves a user by their unique ID.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Error("failed to get user from db", zap.Error(err), zap.Int64("id", id))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return userFromSchema(&model), nil
}

// GetByEmail retrieves a user by email. A miss returns (nil, nil).
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Error("failed to get user by email from db", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return userFromSchema(&model), nil
}

// GetByUsername retrieves a user by username. A miss returns (nil, nil).
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Error("failed to get user by username from db", zap.Error(err), zap.String("username", username))
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return userFromSchema(&model), nil
}

// GetByUsernameOrEmail resolves the signin identifier, which may be either.
func (r *UserRepo) GetByUsernameOrEmail(ctx context.Context, identifier string) (*user.User, error) {
	var model UserSchema
	err := r.db.WithContext(ctx).
		Where("username = ? OR email = ?", identifier, identifier).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Error("failed to get user by identifier from db", zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return userFromSchema(&model), nil
}

// Update saves profile fields of an existing user. Password and token
// version are updated through UpdatePassword only.
func (r *UserRepo) Update(ctx context.Context, u *user.User) (*user.User, error) {
	if u == nil || u.ID == 0 {
		return nil, errors.New("invalid user")
	}

	updates := map[string]interface{}{
		"username":    u.Username,
		"email":       u.Email,
		"first_name":  u.FirstName,
		"last_name":   u.LastName,
		"job_title":   u.JobTitle,
		"avatar_path": u.AvatarPath,
	}

	if err := r.db.WithContext(ctx).Model(&UserSchema{}).Where("id = ?", u.ID).Updates(updates).Error; err != nil {
		r.log.Error("failed to update user in db", zap.Error(err), zap.Int64("id", u.ID))
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	r.log.Info("user updated in db", zap.Int64("id", u.ID))
	return r.GetByID(ctx, u.ID)
}

// UpdatePassword stores a new password hash and bumps the token
// version, invalidating all outstanding access tokens.
func (r *UserRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	res := r.db.WithContext(ctx).Model(&UserSchema{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"password_hash": passwordHash,
			"token_version": gorm.Expr("token_version + 1"),
		})
	if res.Error != nil {
		r.log.Error("failed to update password in db", zap.Error(res.Error), zap.Int64("id", id))
		return fmt.Errorf("failed to update password: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user not found: id=%d", id)
	}

	r.log.Info("password updated in db", zap.Int64("id", id))
	return nil
}
