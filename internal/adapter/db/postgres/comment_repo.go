package postgres

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"boards-backend/internal/domain/comment"
)

// CommentRepo implements comment persistence using PostgreSQL and GORM.
type CommentRepo struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewCommentRepo creates a new instance of CommentRepo.
func NewCommentRepo(db *gorm.DB, log *zap.Logger) *CommentRepo {
	return &CommentRepo{db: db, log: log}
}

func commentFromSchema(m *CommentSchema) *comment.Comment {
	return &comment.Comment{
		ID:           m.ID,
		CardID:       m.CardID,
		Content:      m.Content,
		CreatedByID:  m.CreatedByID,
		ModifiedByID: m.ModifiedByID,
		DateCreated:  m.DateCreated,
		DateModified: m.DateModified,
	}
}

// Create inserts a comment and bumps the card's comment counter in the
// same transaction.
func (r *CommentRepo) Create(ctx context.Context, c *comment.Comment) (*comment.Comment, error) {
	if c == nil {
		return nil, errors.New("comment cannot be nil")
	}

	model := CommentSchema{
		CardID:       c.CardID,
		Content:      c.Content,
		CreatedByID:  c.CreatedByID,
		ModifiedByID: c.CreatedByID,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model).Error; err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}
		res := tx.Model(&CardSchema{}).
			Where("id = ?", c.CardID).
			Update("comments_count", gorm.Expr("comments_count + 1"))
		if res.Error != nil {
			return fmt.Errorf("failed to bump comment count: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("card not found: id=%d", c.CardID)
		}
		return nil
	})
	if err != nil {
		r.log.Error("failed to create comment in db", zap.Error(err), zap.Int64("card_id", c.CardID))
		return nil, err
	}

	r.log.Info("comment created in db", zap.Int64("id", model.ID), zap.Int64("card_id", model.CardID))
	return commentFromSchema(&model), nil
}

// GetByID retrieves a comment by ID. A miss returns (nil, nil).
func (r *CommentRepo) GetByID(ctx context.Context, id int64) (*comment.Comment, error) {
	var model CommentSchema
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Error("failed to get comment from db", zap.Error(err), zap.Int64("id", id))
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return commentFromSchema(&model), nil
}

// ListForCard returns the comments of a card, oldest first.
func (r *CommentRepo) ListForCard(ctx context.Context, cardID int64) ([]comment.Comment, error) {
	var models []CommentSchema
	err := r.db.WithContext(ctx).
		Where("card_id = ?", cardID).
		Order("date_created ASC").
		Find(&models).Error
	if err != nil {
		r.log.Error("failed to list comments from db", zap.Error(err), zap.Int64("card_id", cardID))
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	comments := make([]comment.Comment, len(models))
	for i := range models {
		comments[i] = *commentFromSchema(&models[i])
	}
	return comments, nil
}

// Update saves the comment content.
func (r *CommentRepo) Update(ctx context.Context, id int64, content string, modifiedByID int64) (*comment.Comment, error) {
	var model CommentSchema
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&model, id).Error; err != nil {
			return fmt.Errorf("failed to load comment: %w", err)
		}
		model.Content = content
		model.ModifiedByID = modifiedByID
		return tx.Save(&model).Error
	})
	if err != nil {
		r.log.Error("failed to update comment in db", zap.Error(err), zap.Int64("id", id))
		return nil, err
	}
	return commentFromSchema(&model), nil
}

// Delete removes a comment and decrements the card's comment counter
// in the same transaction.
func (r *CommentRepo) Delete(ctx context.Context, id int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model CommentSchema
		if err := tx.First(&model, id).Error; err != nil {
			return fmt.Errorf("failed to load comment: %w", err)
		}
		if err := tx.Delete(&CommentSchema{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete comment: %w", err)
		}
		return tx.Model(&CardSchema{}).
			Where("id = ? AND comments_count > 0", model.CardID).
			Update("comments_count", gorm.Expr("comments_count - 1")).Error
	})
	if err != nil {
		r.log.Error("failed to delete comment in db", zap.Error(err), zap.Int64("id", id))
		return err
	}

	r.log.Info("comment deleted in db", zap.Int64("id", id))
	return nil
}
