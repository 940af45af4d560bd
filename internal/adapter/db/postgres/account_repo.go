package postgres

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"boards-backend/internal/domain/account"
)

// AccountRepo implements account persistence using PostgreSQL and GORM.
type AccountRepo struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewAccountRepo creates a new instance of AccountRepo.
func NewAccountRepo(db *gorm.DB, log *zap.Logger) *AccountRepo {
	return &AccountRepo{db: db, log: log}
}

func accountFromSchema(m *AccountSchema) *account.Account {
	return &account.Account{
		ID:           m.ID,
		Name:         m.Name,
		Slug:         m.Slug,
		CreatedByID:  m.CreatedByID,
		DateCreated:  m.DateCreated,
		DateModified: m.DateModified,
	}
}

// GetByID retrieves an account by ID. A miss returns (nil, nil).
func (r *AccountRepo) GetByID(ctx context.Context, id int64) (*account.Account, error) {
	var model AccountSchema
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Error("failed to get account from db", zap.Error(err), zap.Int64("id", id))
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return accountFromSchema(&model), nil
}

// GetBySlug retrieves an account by slug. A miss returns (nil, nil).
func (r *AccountRepo) GetBySlug(ctx context.Context, slug string) (*account.Account, error) {
	var model AccountSchema
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Error("failed to get account by slug from db", zap.Error(err), zap.String("slug", slug))
		return nil, fmt.Errorf("failed to get account by slug: %w", err)
	}
	return accountFromSchema(&model), nil
}

// ListForUser returns all accounts the user collaborates on, newest first.
func (r *AccountRepo) ListForUser(ctx context.Context, userID int64) ([]account.Account, error) {
	var models []AccountSchema
	err := r.db.WithContext(ctx).
		Joins("JOIN account_collaborators ON account_collaborators.account_id = accounts.id").
		Where("account_collaborators.user_id = ?", userID).
		Order("accounts.date_created DESC").
		Find(&models).Error
	if err != nil {
		r.log.Error("failed to list accounts from db", zap.Error(err), zap.Int64("user_id", userID))
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	accounts := make([]account.Account, len(models))
	for i := range models {
		accounts[i] = *accountFromSchema(&models[i])
	}
	return accounts, nil
}

// GetCollaborator returns the collaborator row linking a user to an
// account. A miss returns (nil, nil).
func (r *AccountRepo) GetCollaborator(ctx context.Context, accountID, userID int64) (*account.Collaborator, error) {
	var model AccountCollaboratorSchema
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND user_id = ?", accountID, userID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Error("failed to get account collaborator from db", zap.Error(err),
			zap.Int64("account_id", accountID), zap.Int64("user_id", userID))
		return nil, fmt.Errorf("failed to get account collaborator: %w", err)
	}
	return &account.Collaborator{
		ID:        model.ID,
		AccountID: model.AccountID,
		UserID:    model.UserID,
		IsOwner:   model.IsOwner,
	}, nil
}

// GetOwner returns the owner collaborator of an account.
func (r *AccountRepo) GetOwner(ctx context.Context, accountID int64) (*account.Collaborator, error) {
	var model AccountCollaboratorSchema
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND is_owner = ?", accountID, true).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Error("failed to get account owner from db", zap.Error(err), zap.Int64("account_id", accountID))
		return nil, fmt.Errorf("failed to get account owner: %w", err)
	}
	return &account.Collaborator{
		ID:        model.ID,
		AccountID: model.AccountID,
		UserID:    model.UserID,
		IsOwner:   model.IsOwner,
	}, nil
}

// HasSharedBoard reports whether any board of the account is shared,
// which is what authorizes anonymous socket subscriptions to its room.
func (r *AccountRepo) HasSharedBoard(ctx context.Context, accountID int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&BoardSchema{}).
		Where("account_id = ? AND is_shared = ?", accountID, true).
		Count(&n).Error
	if err != nil {
		r.log.Error("failed to count shared boards", zap.Error(err), zap.Int64("account_id", accountID))
		return false, fmt.Errorf("failed to count shared boards: %w", err)
	}
	return n > 0, nil
}
