package account

import (
	"context"

	"go.uber.org/zap"

	domain "boards-backend/internal/domain/account"
	boarddomain "boards-backend/internal/domain/board"
	boarduc "boards-backend/internal/usecase/board"
	apperrors "boards-backend/pkg/errors"
)

// Repository defines the account data access operations.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Account, error)
	ListForUser(ctx context.Context, userID int64) ([]domain.Account, error)
	GetCollaborator(ctx context.Context, accountID, userID int64) (*domain.Collaborator, error)
}

// BoardRepository lists the boards shown on an account page.
type BoardRepository interface {
	ListForUser(ctx context.Context, userID, accountID int64) ([]boarddomain.Board, error)
	ListSharedForAccount(ctx context.Context, accountID int64) ([]boarddomain.Board, error)
}

// Usecase implements account listing and the public account page.
type Usecase struct {
	repo   Repository
	boards BoardRepository
	log    *zap.Logger
}

// New creates a new instance of Usecase.
func New(repo Repository, boards BoardRepository, log *zap.Logger) *Usecase {
	return &Usecase{repo: repo, boards: boards, log: log}
}

// List returns the accounts the user collaborates on.
func (uc *Usecase) List(ctx context.Context, userID int64) ([]View, error) {
	accounts, err := uc.repo.ListForUser(ctx, userID)
	if err != nil {
		uc.log.Error("failed to list accounts", zap.Int64("user_id", userID), zap.Error(err))
		return nil, apperrors.NewInternalError("failed to list accounts", err)
	}
	return NewViews(accounts), nil
}

// GetBySlug returns an account page. Collaborators see the boards they
// have access to; everyone else, anonymous visitors included, sees only
// the shared ones.
func (uc *Usecase) GetBySlug(ctx context.Context, userID int64, slug string) (*DetailView, error) {
	a, err := uc.repo.GetBySlug(ctx, slug)
	if err != nil {
		uc.log.Error("failed to get account", zap.String("slug", slug), zap.Error(err))
		return nil, apperrors.NewInternalError("failed to get account", err)
	}
	if a == nil {
		return nil, apperrors.NewNotFoundError("account", "account not found")
	}

	var boards []boarddomain.Board
	if member, err := uc.isCollaborator(ctx, a.ID, userID); err != nil {
		return nil, err
	} else if member {
		boards, err = uc.boards.ListForUser(ctx, userID, a.ID)
		if err != nil {
			uc.log.Error("failed to list account boards", zap.Int64("account_id", a.ID), zap.Error(err))
			return nil, apperrors.NewInternalError("failed to list boards", err)
		}
	} else {
		boards, err = uc.boards.ListSharedForAccount(ctx, a.ID)
		if err != nil {
			uc.log.Error("failed to list shared boards", zap.Int64("account_id", a.ID), zap.Error(err))
			return nil, apperrors.NewInternalError("failed to list boards", err)
		}
	}

	return &DetailView{View: NewView(a), Boards: boarduc.NewViews(boards)}, nil
}

func (uc *Usecase) isCollaborator(ctx context.Context, accountID, userID int64) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	c, err := uc.repo.GetCollaborator(ctx, accountID, userID)
	if err != nil {
		uc.log.Error("failed to check account membership",
			zap.Int64("account_id", accountID), zap.Int64("user_id", userID), zap.Error(err))
		return false, apperrors.NewInternalError("failed to check account membership", err)
	}
	return c != nil, nil
}
