package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"boards-backend/internal/domain/card"
)

// CardRepo implements card persistence using PostgreSQL and GORM.
type CardRepo struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewCardRepo creates a new instance of CardRepo.
func NewCardRepo(db *gorm.DB, log *zap.Logger) *CardRepo {
	return &CardRepo{db: db, log: log}
}

func cardToSchema(c *card.Card) CardSchema {
	return CardSchema{
		ID:              c.ID,
		BoardID:         c.BoardID,
		Name:            c.Name,
		Slug:            c.Slug,
		Type:            c.Type,
		Content:         c.Content,
		Position:        c.Position,
		StackID:         c.StackID,
		Featured:        c.Featured,
		OriginURL:       c.OriginURL,
		FileSize:        c.FileSize,
		MimeType:        c.MimeType,
		ThumbnailXSPath: c.ThumbnailXSPath,
		ThumbnailSMPath: c.ThumbnailSMPath,
		ThumbnailMDPath: c.ThumbnailMDPath,
		ThumbnailLGPath: c.ThumbnailLGPath,
		Data:            string(c.Data),
		CommentsCount:   c.CommentsCount,
		CreatedByID:     c.CreatedByID,
		ModifiedByID:    c.ModifiedByID,
	}
}

func cardFromSchema(m *CardSchema) *card.Card {
	var data json.RawMessage
	if m.Data != "" {
		data = json.RawMessage(m.Data)
	}
	return &card.Card{
		ID:              m.ID,
		BoardID:         m.BoardID,
		Name:            m.Name,
		Slug:            m.Slug,
		Type:            m.Type,
		Content:         m.Content,
		Position:        m.Position,
		StackID:         m.StackID,
		Featured:        m.Featured,
		OriginURL:       m.OriginURL,
		FileSize:        m.FileSize,
		MimeType:        m.MimeType,
		ThumbnailXSPath: m.ThumbnailXSPath,
		ThumbnailSMPath: m.ThumbnailSMPath,
		ThumbnailMDPath: m.ThumbnailMDPath,
		ThumbnailLGPath: m.ThumbnailLGPath,
		Data:            data,
		CommentsCount:   m.CommentsCount,
		CreatedByID:     m.CreatedByID,
		ModifiedByID:    m.ModifiedByID,
		DateCreated:     m.DateCreated,
		DateModified:    m.DateModified,
	}
}

// cardSlug finds a free slug for a card name within a board.
func cardSlug(tx *gorm.DB, boardID int64, name string, excludeID int64) (string, error) {
	return uniqueSlug(card.Slugify(name), func(s string) (bool, error) {
		var n int64
		q := tx.Model(&CardSchema{}).Where("board_id = ? AND slug = ?", boardID, s)
		if excludeID != 0 {
			q = q.Where("id <> ?", excludeID)
		}
		if err := q.Count(&n).Error; err != nil {
			return false, err
		}
		return n > 0, nil
	})
}

// Create inserts a card at the end of the board: its position is one
// past the current maximum. Runs in a transaction so two concurrent
// creates cannot claim the same slot.
func (r *CardRepo) Create(ctx context.Context, c *card.Card) (*card.Card, error) {
	if c == nil {
		return nil, errors.New("card cannot be nil")
	}

	model := cardToSchema(c)
	if model.ModifiedByID == 0 {
		model.ModifiedByID = model.CreatedByID
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slug, err := cardSlug(tx, c.BoardID, c.Name, 0)
		if err != nil {
			return err
		}
		model.Slug = slug

		var maxPos int64
		if err := tx.Model(&CardSchema{}).
			Where("board_id = ?", c.BoardID).
			Select("COALESCE(MAX(position), 0)").
			Scan(&maxPos).Error; err != nil {
			return fmt.Errorf("failed to compute card position: %w", err)
		}
		model.Position = maxPos + 1

		if err := tx.Create(&model).Error; err != nil {
			return fmt.Errorf("failed to create card: %w", err)
		}
		return nil
	})
	if err != nil {
		r.log.Error("failed to create card in db", zap.Error(err), zap.Int64("board_id", c.BoardID))
		return nil, err
	}

	r.log.Info("card created in db",
		zap.Int64("id", model.ID), zap.Int64("board_id", model.BoardID), zap.String("type", model.Type))
	return cardFromSchema(&model), nil
}

// GetByID retrieves a card by ID. A miss returns (nil, nil).
func (r *CardRepo) GetByID(ctx context.Context, id int64) (*card.Card, error) {
	var model CardSchema
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Error("failed to get card from db", zap.Error(err), zap.Int64("id", id))
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	return cardFromSchema(&model), nil
}

// ListForBoard returns the cards of a board in position order.
func (r *CardRepo) ListForBoard(ctx context.Context, boardID int64) ([]card.Card, error) {
	var models []CardSchema
	err := r.db.WithContext(ctx).
		Where("board_id = ?", boardID).
		Order("position ASC").
		Find(&models).Error
	if err != nil {
		r.log.Error("failed to list cards from db", zap.Error(err), zap.Int64("board_id", boardID))
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}

	cards := make([]card.Card, len(models))
	for i := range models {
		cards[i] = *cardFromSchema(&models[i])
	}
	return cards, nil
}

// ListStackMembers returns the cards stacked under a stack card.
func (r *CardRepo) ListStackMembers(ctx context.Context, stackID int64) ([]card.Card, error) {
	var models []CardSchema
	err := r.db.WithContext(ctx).
		Where("stack_id = ?", stackID).
		Order("position ASC").
		Find(&models).Error
	if err != nil {
		r.log.Error("failed to list stack members from db", zap.Error(err), zap.Int64("stack_id", stackID))
		return nil, fmt.Errorf("failed to list stack members: %w", err)
	}

	cards := make([]card.Card, len(models))
	for i := range models {
		cards[i] = *cardFromSchema(&models[i])
	}
	return cards, nil
}

// Update saves mutable card fields. A name change re-derives the slug.
// Position is left alone; Move handles reordering.
func (r *CardRepo) Update(ctx context.Context, c *card.Card) (*card.Card, error) {
	if c == nil || c.ID == 0 {
		return nil, errors.New("invalid card")
	}

	var model CardSchema
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&model, c.ID).Error; err != nil {
			return fmt.Errorf("failed to load card: %w", err)
		}

		if c.Name != model.Name {
			slug, err := cardSlug(tx, model.BoardID, c.Name, model.ID)
			if err != nil {
				return err
			}
			model.Slug = slug
		}
		model.Name = c.Name
		model.Content = c.Content
		model.OriginURL = c.OriginURL
		model.FileSize = c.FileSize
		model.MimeType = c.MimeType
		model.ThumbnailXSPath = c.ThumbnailXSPath
		model.ThumbnailSMPath = c.ThumbnailSMPath
		model.ThumbnailMDPath = c.ThumbnailMDPath
		model.ThumbnailLGPath = c.ThumbnailLGPath
		model.Data = string(c.Data)
		model.ModifiedByID = c.ModifiedByID

		return tx.Save(&model).Error
	})
	if err != nil {
		r.log.Error("failed to update card in db", zap.Error(err), zap.Int64("id", c.ID))
		return nil, err
	}

	r.log.Info("card updated in db", zap.Int64("id", model.ID))
	return cardFromSchema(&model), nil
}

// SetFeatured flips the featured flag and reports whether it changed.
func (r *CardRepo) SetFeatured(ctx context.Context, id int64, featured bool, modifiedByID int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&CardSchema{}).
		Where("id = ? AND featured = ?", id, !featured).
		Updates(map[string]interface{}{
			"featured":       featured,
			"modified_by_id": modifiedByID,
		})
	if res.Error != nil {
		r.log.Error("failed to set card featured in db", zap.Error(res.Error), zap.Int64("id", id))
		return false, fmt.Errorf("failed to set card featured: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Move places a card at the given position within its board, shifting
// the cards in between by one. Runs in a transaction.
func (r *CardRepo) Move(ctx context.Context, id, position int64) (*card.Card, error) {
	if position < 1 {
		position = 1
	}

	var model CardSchema
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&model, id).Error; err != nil {
			return fmt.Errorf("failed to load card: %w", err)
		}
		if model.Position == position {
			return nil
		}

		var shift *gorm.DB
		if position < model.Position {
			// moving up: everything in [position, old) shifts down
			shift = tx.Model(&CardSchema{}).
				Where("board_id = ? AND position >= ? AND position < ?", model.BoardID, position, model.Position).
				Update("position", gorm.Expr("position + 1"))
		} else {
			// moving down: everything in (old, position] shifts up
			shift = tx.Model(&CardSchema{}).
				Where("board_id = ? AND position > ? AND position <= ?", model.BoardID, model.Position, position).
				Update("position", gorm.Expr("position - 1"))
		}
		if shift.Error != nil {
			return fmt.Errorf("failed to shift card positions: %w", shift.Error)
		}

		model.Position = position
		return tx.Model(&CardSchema{}).Where("id = ?", id).Update("position", position).Error
	})
	if err != nil {
		r.log.Error("failed to move card in db", zap.Error(err), zap.Int64("id", id), zap.Int64("position", position))
		return nil, err
	}

	r.log.Info("card moved in db", zap.Int64("id", id), zap.Int64("position", position))
	return cardFromSchema(&model), nil
}

// SetStackMembers replaces the member set of a stack: cards newly
// listed get their stack pointer set, cards no longer listed get it
// cleared. Runs in a transaction. Returns the resulting member set.
func (r *CardRepo) SetStackMembers(ctx context.Context, stackID int64, memberIDs []int64) ([]card.Card, error) {
	var models []CardSchema

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stack CardSchema
		if err := tx.First(&stack, stackID).Error; err != nil {
			return fmt.Errorf("failed to load stack: %w", err)
		}
		if stack.Type != card.TypeStack {
			return errors.New("card is not a stack")
		}

		if len(memberIDs) == 0 {
			if err := tx.Model(&CardSchema{}).
				Where("stack_id = ?", stackID).
				Update("stack_id", 0).Error; err != nil {
				return fmt.Errorf("failed to clear stack: %w", err)
			}
			return nil
		}

		// dropped members leave the stack
		if err := tx.Model(&CardSchema{}).
			Where("stack_id = ? AND id NOT IN (?)", stackID, memberIDs).
			Update("stack_id", 0).Error; err != nil {
			return fmt.Errorf("failed to remove stack members: %w", err)
		}

		// new members join; stacks and cards from other boards cannot
		res := tx.Model(&CardSchema{}).
			Where("id IN (?) AND board_id = ? AND type <> ? AND id <> ?",
				memberIDs, stack.BoardID, card.TypeStack, stackID).
			Update("stack_id", stackID)
		if res.Error != nil {
			return fmt.Errorf("failed to add stack members: %w", res.Error)
		}

		return tx.Where("stack_id = ?", stackID).Order("position ASC").Find(&models).Error
	})
	if err != nil {
		r.log.Error("failed to set stack members in db", zap.Error(err), zap.Int64("stack_id", stackID))
		return nil, err
	}

	cards := make([]card.Card, len(models))
	for i := range models {
		cards[i] = *cardFromSchema(&models[i])
	}
	return cards, nil
}

// Delete removes a card and its comments. Deleting a stack releases its
// members instead of deleting them. Runs in a transaction.
func (r *CardRepo) Delete(ctx context.Context, id int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&CardSchema{}).
			Where("stack_id = ?", id).
			Update("stack_id", 0).Error; err != nil {
			return fmt.Errorf("failed to release stack members: %w", err)
		}
		if err := tx.Where("card_id = ?", id).Delete(&CommentSchema{}).Error; err != nil {
			return fmt.Errorf("failed to delete card comments: %w", err)
		}
		return tx.Delete(&CardSchema{}, id).Error
	})
	if err != nil {
		r.log.Error("failed to delete card in db", zap.Error(err), zap.Int64("id", id))
		return err
	}

	r.log.Info("card deleted in db", zap.Int64("id", id))
	return nil
}
