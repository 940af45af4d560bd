package postgres

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"boards-backend/internal/domain/invite"
)

// InviteRepo implements signup request and invited user persistence
// using PostgreSQL and GORM.
type InviteRepo struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewInviteRepo creates a new instance of InviteRepo.
func NewInviteRepo(db *gorm.DB, log *zap.Logger) *InviteRepo {
	return &InviteRepo{db: db, log: log}
}

func signupRequestFromSchema(m *SignupRequestSchema) *invite.SignupRequest {
	return &invite.SignupRequest{
		ID:           m.ID,
		Email:        m.Email,
		DateCreated:  m.DateCreated,
		DateModified: m.DateModified,
	}
}

func invitedUserFromSchema(m *InvitedUserSchema) *invite.InvitedUser {
	return &invite.InvitedUser{
		ID:                  m.ID,
		AccountID:           m.AccountID,
		Email:               m.Email,
		FirstName:           m.FirstName,
		LastName:            m.LastName,
		UserID:              m.UserID,
		BoardCollaboratorID: m.BoardCollaboratorID,
		CreatedByID:         m.CreatedByID,
		DateCreated:         m.DateCreated,
		DateModified:        m.DateModified,
	}
}

// GetOrCreateSignupRequest returns the signup request for an email,
// creating it when missing. The bool reports whether a row was created.
func (r *InviteRepo) GetOrCreateSignupRequest(ctx context.Context, email string) (*invite.SignupRequest, bool, error) {
	var model SignupRequestSchema
	created := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("email = ?", email).First(&model).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to get signup request: %w", err)
		}
		model = SignupRequestSchema{Email: email}
		if err := tx.Create(&model).Error; err != nil {
			return fmt.Errorf("failed to create signup request: %w", err)
		}
		created = true
		return nil
	})
	if err != nil {
		r.log.Error("failed to get or create signup request in db", zap.Error(err), zap.String("email", email))
		return nil, false, err
	}

	if created {
		r.log.Info("signup request created in db", zap.Int64("id", model.ID))
	}
	return signupRequestFromSchema(&model), created, nil
}

// GetSignupRequestByEmail returns a signup request. A miss returns (nil, nil).
func (r *InviteRepo) GetSignupRequestByEmail(ctx context.Context, email string) (*invite.SignupRequest, error) {
	var model SignupRequestSchema
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Error("failed to get signup request from db", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("failed to get signup request: %w", err)
	}
	return signupRequestFromSchema(&model), nil
}

// DeleteSignupRequestsByEmail removes any signup requests for an email.
// Called once the email is registered or invited.
func (r *InviteRepo) DeleteSignupRequestsByEmail(ctx context.Context, email string) error {
	if err := r.db.WithContext(ctx).Where("email = ?", email).Delete(&SignupRequestSchema{}).Error; err != nil {
		r.log.Error("failed to delete signup requests in db", zap.Error(err), zap.String("email", email))
		return fmt.Errorf("failed to delete signup requests: %w", err)
	}
	return nil
}

// CreateInvitedUser inserts a pending invitation.
func (r *InviteRepo) CreateInvitedUser(ctx context.Context, iu *invite.InvitedUser) (*invite.InvitedUser, error) {
	if iu == nil {
		return nil, errors.New("invited user cannot be nil")
	}

	model := InvitedUserSchema{
		AccountID:           iu.AccountID,
		Email:               iu.Email,
		FirstName:           iu.FirstName,
		LastName:            iu.LastName,
		UserID:              iu.UserID,
		BoardCollaboratorID: iu.BoardCollaboratorID,
		CreatedByID:         iu.CreatedByID,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		r.log.Error("failed to create invited user in db", zap.Error(err),
			zap.Int64("account_id", iu.AccountID))
		return nil, fmt.Errorf("failed to create invited user: %w", err)
	}

	r.log.Info("invited user created in db",
		zap.Int64("id", model.ID), zap.Int64("account_id", model.AccountID))
	return invitedUserFromSchema(&model), nil
}

// GetInvitedUser returns a pending invitation by ID. A miss returns (nil, nil).
func (r *InviteRepo) GetInvitedUser(ctx context.Context, id int64) (*invite.InvitedUser, error) {
	var model InvitedUserSchema
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Error("failed to get invited user from db", zap.Error(err), zap.Int64("id", id))
		return nil, fmt.Errorf("failed to get invited user: %w", err)
	}
	return invitedUserFromSchema(&model), nil
}

// GetInvitedUserByAccountEmail returns the pending invitation of an
// email on an account. A miss returns (nil, nil).
func (r *InviteRepo) GetInvitedUserByAccountEmail(ctx context.Context, accountID int64, email string) (*invite.InvitedUser, error) {
	var model InvitedUserSchema
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND email = ?", accountID, email).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Error("failed to get invited user from db", zap.Error(err),
			zap.Int64("account_id", accountID))
		return nil, fmt.Errorf("failed to get invited user: %w", err)
	}
	return invitedUserFromSchema(&model), nil
}

// ListInvitedUsersByEmail returns every pending invitation for an email
// across accounts. Used at signup to accept outstanding invites.
func (r *InviteRepo) ListInvitedUsersByEmail(ctx context.Context, email string) ([]invite.InvitedUser, error) {
	var models []InvitedUserSchema
	if err := r.db.WithContext(ctx).Where("email = ?", email).Find(&models).Error; err != nil {
		r.log.Error("failed to list invited users from db", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("failed to list invited users: %w", err)
	}

	out := make([]invite.InvitedUser, len(models))
	for i := range models {
		out[i] = *invitedUserFromSchema(&models[i])
	}
	return out, nil
}

// LinkInvitedUser points a pending invitation at a registered user.
func (r *InviteRepo) LinkInvitedUser(ctx context.Context, id, userID int64) error {
	res := r.db.WithContext(ctx).Model(&InvitedUserSchema{}).
		Where("id = ?", id).
		Update("user_id", userID)
	if res.Error != nil {
		r.log.Error("failed to link invited user in db", zap.Error(res.Error), zap.Int64("id", id))
		return fmt.Errorf("failed to link invited user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("invited user not found: id=%d", id)
	}
	return nil
}

// AcceptInvitedUser turns a pending invitation into membership for a
// user: an account collaborator row is created unless one exists, the
// pending board grant is re-pointed from the invite to the user, the
// email's signup requests are dropped, and the invite is deleted. Runs
// in a transaction.
func (r *InviteRepo) AcceptInvitedUser(ctx context.Context, inviteID, userID int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var iu InvitedUserSchema
		if err := tx.First(&iu, inviteID).Error; err != nil {
			return fmt.Errorf("failed to load invited user: %w", err)
		}

		var existing AccountCollaboratorSchema
		err := tx.Where("account_id = ? AND user_id = ?", iu.AccountID, userID).
			First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			collab := AccountCollaboratorSchema{AccountID: iu.AccountID, UserID: userID}
			if err := tx.Create(&collab).Error; err != nil {
				return fmt.Errorf("failed to create account collaborator: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("failed to get account collaborator: %w", err)
		}

		if iu.BoardCollaboratorID != 0 {
			if err := tx.Model(&BoardCollaboratorSchema{}).
				Where("id = ?", iu.BoardCollaboratorID).
				Updates(map[string]interface{}{
					"user_id":         userID,
					"invited_user_id": 0,
				}).Error; err != nil {
				return fmt.Errorf("failed to repoint board collaborator: %w", err)
			}
		}

		if err := tx.Where("email = ?", iu.Email).Delete(&SignupRequestSchema{}).Error; err != nil {
			return fmt.Errorf("failed to delete signup requests: %w", err)
		}

		return tx.Delete(&InvitedUserSchema{}, inviteID).Error
	})
	if err != nil {
		r.log.Error("failed to accept invited user in db", zap.Error(err),
			zap.Int64("invite_id", inviteID), zap.Int64("user_id", userID))
		return err
	}

	r.log.Info("invited user accepted in db",
		zap.Int64("invite_id", inviteID), zap.Int64("user_id", userID))
	return nil
}

// DeleteInvitedUser removes a pending invitation along with any board
// grant attached to it. Runs in a transaction.
func (r *InviteRepo) DeleteInvitedUser(ctx context.Context, id int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var iu InvitedUserSchema
		if err := tx.First(&iu, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("failed to load invited user: %w", err)
		}
		if iu.BoardCollaboratorID != 0 {
			if err := tx.Delete(&BoardCollaboratorSchema{}, iu.BoardCollaboratorID).Error; err != nil {
				return fmt.Errorf("failed to delete board collaborator: %w", err)
			}
		}
		return tx.Delete(&InvitedUserSchema{}, id).Error
	})
	if err != nil {
		r.log.Error("failed to delete invited user in db", zap.Error(err), zap.Int64("id", id))
		return err
	}

	r.log.Info("invited user deleted in db", zap.Int64("id", id))
	return nil
}
