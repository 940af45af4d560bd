package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boards-backend/internal/domain/card"
	"boards-backend/internal/domain/comment"
)

func TestCommentRepo_CreateAndDelete_MaintainCount(t *testing.T) {
	db := setupTestDB(t)
	log := testLogger(t)
	userID, acctID := seedUser(t, db, log, "owner")
	b := seedBoard(t, db, userID, acctID)
	cards := NewCardRepo(db, log)
	repo := NewCommentRepo(db, log)

	c, err := cards.Create(context.Background(), &card.Card{
		BoardID: b.ID, Name: "n", Type: card.TypeNote, Content: "n", CreatedByID: userID,
	})
	require.NoError(t, err)

	first, err := repo.Create(context.Background(), &comment.Comment{
		CardID: c.ID, Content: "one", CreatedByID: userID,
	})
	require.NoError(t, err)
	_, err = repo.Create(context.Background(), &comment.Comment{
		CardID: c.ID, Content: "two", CreatedByID: userID,
	})
	require.NoError(t, err)

	got, err := cards.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.CommentsCount)

	require.NoError(t, repo.Delete(context.Background(), first.ID))

	got, err = cards.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.CommentsCount)

	remaining, err := repo.ListForCard(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "two", remaining[0].Content)
}

func TestCommentRepo_Create_MissingCard(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCommentRepo(db, testLogger(t))

	_, err := repo.Create(context.Background(), &comment.Comment{
		CardID: 9999, Content: "orphan", CreatedByID: 1,
	})
	assert.Error(t, err)
}

func TestCommentRepo_Update(t *testing.T) {
	db := setupTestDB(t)
	log := testLogger(t)
	userID, acctID := seedUser(t, db, log, "owner")
	b := seedBoard(t, db, userID, acctID)
	cards := NewCardRepo(db, log)
	repo := NewCommentRepo(db, log)

	c, err := cards.Create(context.Background(), &card.Card{
		BoardID: b.ID, Name: "n", Type: card.TypeNote, Content: "n", CreatedByID: userID,
	})
	require.NoError(t, err)

	created, err := repo.Create(context.Background(), &comment.Comment{
		CardID: c.ID, Content: "typo", CreatedByID: userID,
	})
	require.NoError(t, err)

	updated, err := repo.Update(context.Background(), created.ID, "fixed", userID)
	require.NoError(t, err)
	assert.Equal(t, "fixed", updated.Content)
	assert.Equal(t, userID, updated.ModifiedByID)
}
