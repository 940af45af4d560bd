package postgres

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"boards-backend/internal/domain/board"
)

// BoardRepo implements board persistence using PostgreSQL and GORM.
type BoardRepo struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewBoardRepo creates a new instance of BoardRepo.
func NewBoardRepo(db *gorm.DB, log *zap.Logger) *BoardRepo {
	return &BoardRepo{db: db, log: log}
}

func boardToSchema(b *board.Board) BoardSchema {
	return BoardSchema{
		ID:              b.ID,
		AccountID:       b.AccountID,
		Name:            b.Name,
		Slug:            b.Slug,
		Color:           b.Color,
		IsShared:        b.IsShared,
		ThumbnailXSPath: b.ThumbnailXSPath,
		ThumbnailSMPath: b.ThumbnailSMPath,
		ThumbnailMDPath: b.ThumbnailMDPath,
		ThumbnailLGPath: b.ThumbnailLGPath,
		CreatedByID:     b.CreatedByID,
		ModifiedByID:    b.ModifiedByID,
	}
}

func boardFromSchema(m *BoardSchema) *board.Board {
	return &board.Board{
		ID:              m.ID,
		AccountID:       m.AccountID,
		Name:            m.Name,
		Slug:            m.Slug,
		Color:           m.Color,
		IsShared:        m.IsShared,
		ThumbnailXSPath: m.ThumbnailXSPath,
		ThumbnailSMPath: m.ThumbnailSMPath,
		ThumbnailMDPath: m.ThumbnailMDPath,
		ThumbnailLGPath: m.ThumbnailLGPath,
		CreatedByID:     m.CreatedByID,
		ModifiedByID:    m.ModifiedByID,
		DateCreated:     m.DateCreated,
		DateModified:    m.DateModified,
	}
}

func collaboratorFromSchema(m *BoardCollaboratorSchema) *board.Collaborator {
	return &board.Collaborator{
		ID:            m.ID,
		BoardID:       m.BoardID,
		UserID:        m.UserID,
		InvitedUserID: m.InvitedUserID,
		Permission:    m.Permission,
		CreatedByID:   m.CreatedByID,
		DateCreated:   m.DateCreated,
		DateModified:  m.DateModified,
	}
}

// boardSlug finds a free slug for a board name within an account.
func boardSlug(tx *gorm.DB, accountID int64, name string, excludeID int64) (string, error) {
	return uniqueSlug(board.Slugify(name), func(s string) (bool, error) {
		var n int64
		q := tx.Model(&BoardSchema{}).Where("account_id = ? AND slug = ?", accountID, s)
		if excludeID != 0 {
			q = q.Where("id <> ?", excludeID)
		}
		if err := q.Count(&n).Error; err != nil {
			return false, err
		}
		return n > 0, nil
	})
}

// Create inserts a board and its initial write collaborators: the
// creator, and the account owner if that is someone else. Runs in a
// transaction.
func (r *BoardRepo) Create(ctx context.Context, b *board.Board, ownerUserID int64) (*board.Board, error) {
	if b == nil {
		return nil, errors.New("board cannot be nil")
	}

	model := boardToSchema(b)
	if model.ModifiedByID == 0 {
		model.ModifiedByID = model.CreatedByID
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slug, err := boardSlug(tx, b.AccountID, b.Name, 0)
		if err != nil {
			return err
		}
		model.Slug = slug

		if err := tx.Create(&model).Error; err != nil {
			return fmt.Errorf("failed to create board: %w", err)
		}

		collaborators := []BoardCollaboratorSchema{{
			BoardID:     model.ID,
			UserID:      model.CreatedByID,
			Permission:  board.PermissionWrite,
			CreatedByID: model.CreatedByID,
		}}
		if ownerUserID != 0 && ownerUserID != model.CreatedByID {
			collaborators = append(collaborators, BoardCollaboratorSchema{
				BoardID:     model.ID,
				UserID:      ownerUserID,
				Permission:  board.PermissionWrite,
				CreatedByID: model.CreatedByID,
			})
		}
		if err := tx.Create(&collaborators).Error; err != nil {
			return fmt.Errorf("failed to create board collaborators: %w", err)
		}
		return nil
	})
	if err != nil {
		r.log.Error("failed to create board in db", zap.Error(err), zap.String("name", b.Name))
		return nil, err
	}

	r.log.Info("board created in db", zap.Int64("id", model.ID), zap.Int64("account_id", model.AccountID))
	return boardFromSchema(&model), nil
}

// GetByID retrieves a board by ID. A miss returns (nil, nil).
func (r *BoardRepo) GetByID(ctx context.Context, id int64) (*board.Board, error) {
	var model BoardSchema
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Error("failed to get board from db", zap.Error(err), zap.Int64("id", id))
		return nil, fmt.Errorf("failed to get board: %w", err)
	}
	return boardFromSchema(&model), nil
}

// ListForUser returns boards the user collaborates on, optionally
// restricted to one account.
func (r *BoardRepo) ListForUser(ctx context.Context, userID, accountID int64) ([]board.Board, error) {
	var models []BoardSchema
	q := r.db.WithContext(ctx).
		Joins("JOIN board_collaborators ON board_collaborators.board_id = boards.id").
		Where("board_collaborators.user_id = ?", userID)
	if accountID != 0 {
		q = q.Where("boards.account_id = ?", accountID)
	}
	if err := q.Order("boards.date_modified DESC").Find(&models).Error; err != nil {
		r.log.Error("failed to list boards from db", zap.Error(err), zap.Int64("user_id", userID))
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}

	boards := make([]board.Board, len(models))
	for i := range models {
		boards[i] = *boardFromSchema(&models[i])
	}
	return boards, nil
}

// ListSharedForAccount returns the publicly shared boards of an account.
func (r *BoardRepo) ListSharedForAccount(ctx context.Context, accountID int64) ([]board.Board, error) {
	var models []BoardSchema
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND is_shared = ?", accountID, true).
		Order("date_modified DESC").
		Find(&models).Error
	if err != nil {
		r.log.Error("failed to list shared boards from db", zap.Error(err), zap.Int64("account_id", accountID))
		return nil, fmt.Errorf("failed to list shared boards: %w", err)
	}

	boards := make([]board.Board, len(models))
	for i := range models {
		boards[i] = *boardFromSchema(&models[i])
	}
	return boards, nil
}

// Update saves mutable board fields. A name change re-derives the slug.
func (r *BoardRepo) Update(ctx context.Context, b *board.Board) (*board.Board, error) {
	if b == nil || b.ID == 0 {
		return nil, errors.New("invalid board")
	}

	var model BoardSchema
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&model, b.ID).Error; err != nil {
			return fmt.Errorf("failed to load board: %w", err)
		}

		if b.Name != model.Name {
			slug, err := boardSlug(tx, model.AccountID, b.Name, model.ID)
			if err != nil {
				return err
			}
			model.Slug = slug
		}
		model.Name = b.Name
		model.Color = b.Color
		model.IsShared = b.IsShared
		model.ThumbnailXSPath = b.ThumbnailXSPath
		model.ThumbnailSMPath = b.ThumbnailSMPath
		model.ThumbnailMDPath = b.ThumbnailMDPath
		model.ThumbnailLGPath = b.ThumbnailLGPath
		model.ModifiedByID = b.ModifiedByID

		return tx.Save(&model).Error
	})
	if err != nil {
		r.log.Error("failed to update board in db", zap.Error(err), zap.Int64("id", b.ID))
		return nil, err
	}

	r.log.Info("board updated in db", zap.Int64("id", model.ID))
	return boardFromSchema(&model), nil
}

// Delete removes a board and everything under it: collaborators,
// access requests, cards, and their comments. Runs in a transaction.
func (r *BoardRepo) Delete(ctx context.Context, id int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("card_id IN (?)",
			tx.Model(&CardSchema{}).Select("id").Where("board_id = ?", id),
		).Delete(&CommentSchema{}).Error; err != nil {
			return fmt.Errorf("failed to delete card comments: %w", err)
		}
		if err := tx.Where("board_id = ?", id).Delete(&CardSchema{}).Error; err != nil {
			return fmt.Errorf("failed to delete cards: %w", err)
		}
		if err := tx.Where("board_id = ?", id).Delete(&BoardCollaboratorSchema{}).Error; err != nil {
			return fmt.Errorf("failed to delete collaborators: %w", err)
		}
		if err := tx.Where("board_id = ?", id).Delete(&BoardCollaboratorRequestSchema{}).Error; err != nil {
			return fmt.Errorf("failed to delete collaborator requests: %w", err)
		}
		return tx.Delete(&BoardSchema{}, id).Error
	})
	if err != nil {
		r.log.Error("failed to delete board in db", zap.Error(err), zap.Int64("id", id))
		return err
	}

	r.log.Info("board deleted in db", zap.Int64("id", id))
	return nil
}

// GetUserCollaborator returns the collaborator row of a user on a
// board. A miss returns (nil, nil). This backs every board-level
// authorization decision.
func (r *BoardRepo) GetUserCollaborator(ctx context.Context, boardID, userID int64) (*board.Collaborator, error) {
	var model BoardCollaboratorSchema
	err := r.db.WithContext(ctx).
		Where("board_id = ? AND user_id = ?", boardID, userID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Error("failed to get board collaborator from db", zap.Error(err),
			zap.Int64("board_id", boardID), zap.Int64("user_id", userID))
		return nil, fmt.Errorf("failed to get board collaborator: %w", err)
	}
	return collaboratorFromSchema(&model), nil
}

// ListCollaborators returns all collaborator rows of a board.
func (r *BoardRepo) ListCollaborators(ctx context.Context, boardID int64) ([]board.Collaborator, error) {
	var models []BoardCollaboratorSchema
	err := r.db.WithContext(ctx).
		Where("board_id = ?", boardID).
		Order("date_created ASC").
		Find(&models).Error
	if err != nil {
		r.log.Error("failed to list board collaborators from db", zap.Error(err), zap.Int64("board_id", boardID))
		return nil, fmt.Errorf("failed to list board collaborators: %w", err)
	}

	out := make([]board.Collaborator, len(models))
	for i := range models {
		out[i] = *collaboratorFromSchema(&models[i])
	}
	return out, nil
}

// GetCollaborator returns a collaborator row by ID. A miss returns (nil, nil).
func (r *BoardRepo) GetCollaborator(ctx context.Context, id int64) (*board.Collaborator, error) {
	var model BoardCollaboratorSchema
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Error("failed to get board collaborator from db", zap.Error(err), zap.Int64("id", id))
		return nil, fmt.Errorf("failed to get board collaborator: %w", err)
	}
	return collaboratorFromSchema(&model), nil
}

// CreateCollaborator inserts a collaborator row.
func (r *BoardRepo) CreateCollaborator(ctx context.Context, c *board.Collaborator) (*board.Collaborator, error) {
	if c == nil {
		return nil, errors.New("collaborator cannot be nil")
	}
	if (c.UserID == 0) == (c.InvitedUserID == 0) {
		return nil, errors.New("exactly one of user and invited user must be set")
	}

	model := BoardCollaboratorSchema{
		BoardID:       c.BoardID,
		UserID:        c.UserID,
		InvitedUserID: c.InvitedUserID,
		Permission:    c.Permission,
		CreatedByID:   c.CreatedByID,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		r.log.Error("failed to create board collaborator in db", zap.Error(err), zap.Int64("board_id", c.BoardID))
		return nil, fmt.Errorf("failed to create board collaborator: %w", err)
	}

	r.log.Info("board collaborator created in db",
		zap.Int64("id", model.ID), zap.Int64("board_id", model.BoardID))
	return collaboratorFromSchema(&model), nil
}

// UpdateCollaboratorPermission changes a collaborator's permission level.
func (r *BoardRepo) UpdateCollaboratorPermission(ctx context.Context, id int64, permission string) error {
	res := r.db.WithContext(ctx).Model(&BoardCollaboratorSchema{}).
		Where("id = ?", id).
		Update("permission", permission)
	if res.Error != nil {
		r.log.Error("failed to update board collaborator in db", zap.Error(res.Error), zap.Int64("id", id))
		return fmt.Errorf("failed to update board collaborator: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("board collaborator not found: id=%d", id)
	}
	return nil
}

// DeleteCollaborator removes a collaborator row.
func (r *BoardRepo) DeleteCollaborator(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Delete(&BoardCollaboratorSchema{}, id).Error; err != nil {
		r.log.Error("failed to delete board collaborator in db", zap.Error(err), zap.Int64("id", id))
		return fmt.Errorf("failed to delete board collaborator: %w", err)
	}
	return nil
}

// CreateRequest inserts a collaborator access request.
func (r *BoardRepo) CreateRequest(ctx context.Context, req *board.CollaboratorRequest) (*board.CollaboratorRequest, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}
	model := BoardCollaboratorRequestSchema{
		BoardID:   req.BoardID,
		UserID:    req.UserID,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Message:   req.Message,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		r.log.Error("failed to create collaborator request in db", zap.Error(err), zap.Int64("board_id", req.BoardID))
		return nil, fmt.Errorf("failed to create collaborator request: %w", err)
	}

	out := *req
	out.ID = model.ID
	out.DateCreated = model.DateCreated
	out.DateModified = model.DateModified
	return &out, nil
}

// GetRequest returns a collaborator request by ID. A miss returns (nil, nil).
func (r *BoardRepo) GetRequest(ctx context.Context, id int64) (*board.CollaboratorRequest, error) {
	var model BoardCollaboratorRequestSchema
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Error("failed to get collaborator request from db", zap.Error(err), zap.Int64("id", id))
		return nil, fmt.Errorf("failed to get collaborator request: %w", err)
	}
	return &board.CollaboratorRequest{
		ID:           model.ID,
		BoardID:      model.BoardID,
		UserID:       model.UserID,
		Email:        model.Email,
		FirstName:    model.FirstName,
		LastName:     model.LastName,
		Message:      model.Message,
		DateCreated:  model.DateCreated,
		DateModified: model.DateModified,
	}, nil
}

// DeleteRequest removes a collaborator request.
func (r *BoardRepo) DeleteRequest(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Delete(&BoardCollaboratorRequestSchema{}, id).Error; err != nil {
		r.log.Error("failed to delete collaborator request in db", zap.Error(err), zap.Int64("id", id))
		return fmt.Errorf("failed to delete collaborator request: %w", err)
	}
	return nil
}

// Clone deep-copies a board with its cards and comments into a target
// account, with the given user as creator. Stack parent links are
// remapped to the cloned cards. Runs in a transaction.
func (r *BoardRepo) Clone(ctx context.Context, boardID, targetAccountID, creatorID, ownerUserID int64) (*board.Board, error) {
	var cloned BoardSchema

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var src BoardSchema
		if err := tx.First(&src, boardID).Error; err != nil {
			return fmt.Errorf("failed to load source board: %w", err)
		}

		slug, err := boardSlug(tx, targetAccountID, src.Name, 0)
		if err != nil {
			return err
		}

		cloned = BoardSchema{
			AccountID:       targetAccountID,
			Name:            src.Name,
			Slug:            slug,
			Color:           src.Color,
			ThumbnailXSPath: src.ThumbnailXSPath,
			ThumbnailSMPath: src.ThumbnailSMPath,
			ThumbnailMDPath: src.ThumbnailMDPath,
			ThumbnailLGPath: src.ThumbnailLGPath,
			CreatedByID:     creatorID,
			ModifiedByID:    creatorID,
		}
		if err := tx.Create(&cloned).Error; err != nil {
			return fmt.Errorf("failed to clone board: %w", err)
		}

		collaborators := []BoardCollaboratorSchema{{
			BoardID:     cloned.ID,
			UserID:      creatorID,
			Permission:  board.PermissionWrite,
			CreatedByID: creatorID,
		}}
		if ownerUserID != 0 && ownerUserID != creatorID {
			collaborators = append(collaborators, BoardCollaboratorSchema{
				BoardID:     cloned.ID,
				UserID:      ownerUserID,
				Permission:  board.PermissionWrite,
				CreatedByID: creatorID,
			})
		}
		if err := tx.Create(&collaborators).Error; err != nil {
			return fmt.Errorf("failed to clone collaborators: %w", err)
		}

		var cards []CardSchema
		if err := tx.Where("board_id = ?", boardID).Order("position ASC").Find(&cards).Error; err != nil {
			return fmt.Errorf("failed to load source cards: %w", err)
		}

		// old card id -> new card id, for comments and stack remapping
		idMap := make(map[int64]int64, len(cards))

		for i := range cards {
			src := cards[i]
			clone := src
			clone.ID = 0
			clone.BoardID = cloned.ID
			clone.CreatedByID = creatorID
			clone.ModifiedByID = creatorID
			clone.StackID = 0 // remapped below
			clone.CommentsCount = 0
			if err := tx.Create(&clone).Error; err != nil {
				return fmt.Errorf("failed to clone card: %w", err)
			}
			idMap[src.ID] = clone.ID
		}

		for i := range cards {
			src := cards[i]
			if src.StackID == 0 {
				continue
			}
			newStack, ok := idMap[src.StackID]
			if !ok {
				continue
			}
			if err := tx.Model(&CardSchema{}).
				Where("id = ?", idMap[src.ID]).
				Update("stack_id", newStack).Error; err != nil {
				return fmt.Errorf("failed to remap stack: %w", err)
			}
		}

		for oldID, newID := range idMap {
			var comments []CommentSchema
			if err := tx.Where("card_id = ?", oldID).Find(&comments).Error; err != nil {
				return fmt.Errorf("failed to load source comments: %w", err)
			}
			for i := range comments {
				clone := comments[i]
				clone.ID = 0
				clone.CardID = newID
				if err := tx.Create(&clone).Error; err != nil {
					return fmt.Errorf("failed to clone comment: %w", err)
				}
			}
			if len(comments) > 0 {
				if err := tx.Model(&CardSchema{}).
					Where("id = ?", newID).
					Update("comments_count", len(comments)).Error; err != nil {
					return fmt.Errorf("failed to restore comment count: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		r.log.Error("failed to clone board in db", zap.Error(err), zap.Int64("board_id", boardID))
		return nil, err
	}

	r.log.Info("board cloned in db",
		zap.Int64("source_id", boardID),
		zap.Int64("clone_id", cloned.ID),
		zap.Int64("account_id", targetAccountID))
	return boardFromSchema(&cloned), nil
}
