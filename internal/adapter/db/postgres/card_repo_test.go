package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"boards-backend/internal/domain/board"
	"boards-backend/internal/domain/card"
	"boards-backend/internal/domain/comment"
)

func seedBoard(t *testing.T, db *gorm.DB, userID, acctID int64) *board.Board {
	t.Helper()
	repo := NewBoardRepo(db, testLogger(t))
	b, err := repo.Create(context.Background(), &board.Board{
		AccountID: acctID, Name: "Test Board", CreatedByID: userID,
	}, userID)
	require.NoError(t, err)
	return b
}

func TestCardRepo_Create_AppendsPosition(t *testing.T) {
	db := setupTestDB(t)
	log := testLogger(t)
	userID, acctID := seedUser(t, db, log, "owner")
	b := seedBoard(t, db, userID, acctID)
	repo := NewCardRepo(db, log)

	first, err := repo.Create(context.Background(), &card.Card{
		BoardID: b.ID, Name: "First", Type: card.TypeNote, Content: "a", CreatedByID: userID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Position)

	second, err := repo.Create(context.Background(), &card.Card{
		BoardID: b.ID, Name: "Second", Type: card.TypeLink, Content: "https://example.com", CreatedByID: userID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Position)
}

func TestCardRepo_SlugUniquePerBoard(t *testing.T) {
	db := setupTestDB(t)
	log := testLogger(t)
	userID, acctID := seedUser(t, db, log, "owner")
	b := seedBoard(t, db, userID, acctID)
	repo := NewCardRepo(db, log)

	first, err := repo.Create(context.Background(), &card.Card{
		BoardID: b.ID, Name: "Sketch", Type: card.TypeNote, Content: "a", CreatedByID: userID,
	})
	require.NoError(t, err)
	assert.Equal(t, "sketch", first.Slug)

	second, err := repo.Create(context.Background(), &card.Card{
		BoardID: b.ID, Name: "Sketch", Type: card.TypeNote, Content: "b", CreatedByID: userID,
	})
	require.NoError(t, err)
	assert.Equal(t, "sketch-2", second.Slug)

	// sub-route names get suffixed rather than colliding
	reserved, err := repo.Create(context.Background(), &card.Card{
		BoardID: b.ID, Name: "Download", Type: card.TypeNote, Content: "c", CreatedByID: userID,
	})
	require.NoError(t, err)
	assert.Equal(t, "download-card", reserved.Slug)
}

func TestCardRepo_Move(t *testing.T) {
	db := setupTestDB(t)
	log := testLogger(t)
	userID, acctID := seedUser(t, db, log, "owner")
	b := seedBoard(t, db, userID, acctID)
	repo := NewCardRepo(db, log)

	ids := make([]int64, 4)
	for i, name := range []string{"a", "b", "c", "d"} {
		c, err := repo.Create(context.Background(), &card.Card{
			BoardID: b.ID, Name: name, Type: card.TypeNote, Content: name, CreatedByID: userID,
		})
		require.NoError(t, err)
		ids[i] = c.ID
	}

	positions := func() map[int64]int64 {
		cards, err := repo.ListForBoard(context.Background(), b.ID)
		require.NoError(t, err)
		out := make(map[int64]int64, len(cards))
		for _, c := range cards {
			out[c.ID] = c.Position
		}
		return out
	}

	// move the last card to the front
	_, err := repo.Move(context.Background(), ids[3], 1)
	require.NoError(t, err)
	pos := positions()
	assert.Equal(t, int64(1), pos[ids[3]])
	assert.Equal(t, int64(2), pos[ids[0]])
	assert.Equal(t, int64(3), pos[ids[1]])
	assert.Equal(t, int64(4), pos[ids[2]])

	// move it back down two slots
	_, err = repo.Move(context.Background(), ids[3], 3)
	require.NoError(t, err)
	pos = positions()
	assert.Equal(t, int64(1), pos[ids[0]])
	assert.Equal(t, int64(2), pos[ids[1]])
	assert.Equal(t, int64(3), pos[ids[3]])
	assert.Equal(t, int64(4), pos[ids[2]])
}

func TestCardRepo_SetStackMembers(t *testing.T) {
	db := setupTestDB(t)
	log := testLogger(t)
	userID, acctID := seedUser(t, db, log, "owner")
	b := seedBoard(t, db, userID, acctID)
	repo := NewCardRepo(db, log)

	stack, err := repo.Create(context.Background(), &card.Card{
		BoardID: b.ID, Name: "Stack", Type: card.TypeStack, CreatedByID: userID,
	})
	require.NoError(t, err)

	var notes []int64
	for _, name := range []string{"n1", "n2", "n3"} {
		c, err := repo.Create(context.Background(), &card.Card{
			BoardID: b.ID, Name: name, Type: card.TypeNote, Content: name, CreatedByID: userID,
		})
		require.NoError(t, err)
		notes = append(notes, c.ID)
	}

	members, err := repo.SetStackMembers(context.Background(), stack.ID, notes[:2])
	require.NoError(t, err)
	assert.Len(t, members, 2)

	// replacing the set removes dropped members and adds new ones
	members, err = repo.SetStackMembers(context.Background(), stack.ID, []int64{notes[1], notes[2]})
	require.NoError(t, err)
	require.Len(t, members, 2)

	released, err := repo.GetByID(context.Background(), notes[0])
	require.NoError(t, err)
	assert.Zero(t, released.StackID)

	// empty set clears the stack
	members, err = repo.SetStackMembers(context.Background(), stack.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestCardRepo_SetStackMembers_RejectsNonStack(t *testing.T) {
	db := setupTestDB(t)
	log := testLogger(t)
	userID, acctID := seedUser(t, db, log, "owner")
	b := seedBoard(t, db, userID, acctID)
	repo := NewCardRepo(db, log)

	note, err := repo.Create(context.Background(), &card.Card{
		BoardID: b.ID, Name: "n", Type: card.TypeNote, Content: "n", CreatedByID: userID,
	})
	require.NoError(t, err)

	_, err = repo.SetStackMembers(context.Background(), note.ID, []int64{note.ID})
	assert.Error(t, err)
}

func TestCardRepo_SetStackMembers_IgnoresStacksAndForeignCards(t *testing.T) {
	db := setupTestDB(t)
	log := testLogger(t)
	userID, acctID := seedUser(t, db, log, "owner")
	b := seedBoard(t, db, userID, acctID)
	other := seedBoard(t, db, userID, acctID)
	repo := NewCardRepo(db, log)

	stack, err := repo.Create(context.Background(), &card.Card{
		BoardID: b.ID, Name: "Stack", Type: card.TypeStack, CreatedByID: userID,
	})
	require.NoError(t, err)
	otherStack, err := repo.Create(context.Background(), &card.Card{
		BoardID: b.ID, Name: "Other Stack", Type: card.TypeStack, CreatedByID: userID,
	})
	require.NoError(t, err)
	foreign, err := repo.Create(context.Background(), &card.Card{
		BoardID: other.ID, Name: "Foreign", Type: card.TypeNote, Content: "x", CreatedByID: userID,
	})
	require.NoError(t, err)

	members, err := repo.SetStackMembers(context.Background(), stack.ID,
		[]int64{otherStack.ID, foreign.ID, stack.ID})
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestCardRepo_SetFeatured(t *testing.T) {
	db := setupTestDB(t)
	log := testLogger(t)
	userID, acctID := seedUser(t, db, log, "owner")
	b := seedBoard(t, db, userID, acctID)
	repo := NewCardRepo(db, log)

	c, err := repo.Create(context.Background(), &card.Card{
		BoardID: b.ID, Name: "n", Type: card.TypeNote, Content: "n", CreatedByID: userID,
	})
	require.NoError(t, err)

	changed, err := repo.SetFeatured(context.Background(), c.ID, true, userID)
	require.NoError(t, err)
	assert.True(t, changed)

	// already featured, nothing to change
	changed, err = repo.SetFeatured(context.Background(), c.ID, true, userID)
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := repo.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.True(t, got.Featured)
}

func TestCardRepo_Delete_ReleasesMembersAndComments(t *testing.T) {
	db := setupTestDB(t)
	log := testLogger(t)
	userID, acctID := seedUser(t, db, log, "owner")
	b := seedBoard(t, db, userID, acctID)
	cards := NewCardRepo(db, log)
	comments := NewCommentRepo(db, log)

	stack, err := cards.Create(context.Background(), &card.Card{
		BoardID: b.ID, Name: "Stack", Type: card.TypeStack, CreatedByID: userID,
	})
	require.NoError(t, err)
	note, err := cards.Create(context.Background(), &card.Card{
		BoardID: b.ID, Name: "n", Type: card.TypeNote, Content: "n", CreatedByID: userID,
	})
	require.NoError(t, err)
	_, err = cards.SetStackMembers(context.Background(), stack.ID, []int64{note.ID})
	require.NoError(t, err)
	_, err = comments.Create(context.Background(), &comment.Comment{
		CardID: stack.ID, Content: "on the stack", CreatedByID: userID,
	})
	require.NoError(t, err)

	require.NoError(t, cards.Delete(context.Background(), stack.ID))

	survivor, err := cards.GetByID(context.Background(), note.ID)
	require.NoError(t, err)
	require.NotNil(t, survivor)
	assert.Zero(t, survivor.StackID)

	var n int64
	require.NoError(t, db.Model(&CommentSchema{}).Where("card_id = ?", stack.ID).Count(&n).Error)
	assert.Zero(t, n)
}
