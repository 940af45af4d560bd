package comment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"boards-backend/internal/adapter/db/postgres"
	"boards-backend/internal/announce"
	boarddomain "boards-backend/internal/domain/board"
	carddomain "boards-backend/internal/domain/card"
	"boards-backend/internal/domain/notification"
	"boards-backend/internal/domain/user"
	"boards-backend/internal/notify"
	boarduc "boards-backend/internal/usecase/board"
	pkgauth "boards-backend/pkg/auth"
	apperrors "boards-backend/pkg/errors"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *recordingNotifier) Send(_ context.Context, ev notify.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

type fixture struct {
	uc        *Usecase
	boards    *boarduc.Usecase
	cards     *postgres.CardRepo
	announcer *announce.MemoryAnnouncer
	notifier  *recordingNotifier
	users     *postgres.UserRepo
}

func newFixture(t *testing.T) *fixture {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(postgres.MigrationModels()...))

	log := zaptest.NewLogger(t)
	announcer := announce.NewMemoryAnnouncer()
	notifier := &recordingNotifier{}
	users := postgres.NewUserRepo(db, log)
	boardRepo := postgres.NewBoardRepo(db, log)
	cardRepo := postgres.NewCardRepo(db, log)
	tokens := pkgauth.NewTokenService("test-secret", 90*24*time.Hour)

	boards := boarduc.New(boardRepo, postgres.NewAccountRepo(db, log), users,
		postgres.NewInviteRepo(db, log), announcer, notifier, tokens, "http://localhost:3000", log)

	uc := New(postgres.NewCommentRepo(db, log), cardRepo, boards, users,
		announcer, notifier, log)

	return &fixture{uc: uc, boards: boards, cards: cardRepo, announcer: announcer, notifier: notifier, users: users}
}

func (f *fixture) seedUser(t *testing.T, username string) (int64, int64) {
	t.Helper()
	u, acct, err := f.users.CreateWithAccount(context.Background(), &user.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
	})
	require.NoError(t, err)
	return u.ID, acct.ID
}

// seedCard creates a board owned by userID with a single note card on it.
func (f *fixture) seedCard(t *testing.T, userID, acctID int64) (int64, int64) {
	t.Helper()
	b, err := f.boards.Create(context.Background(), userID, boarduc.CreateBoardRequest{
		AccountID: acctID, Name: "Work",
	})
	require.NoError(t, err)

	c, err := f.cards.Create(context.Background(), &carddomain.Card{
		BoardID:     b.ID,
		Name:        "A note",
		Type:        carddomain.TypeNote,
		Content:     "remember this",
		CreatedByID: userID,
	})
	require.NoError(t, err)
	f.announcer.Reset()
	return b.ID, c.ID
}

func TestCommentCreate_AnnouncesAndNotifiesCardCreator(t *testing.T) {
	f := newFixture(t)
	ownerID, acctID := f.seedUser(t, "owner")
	memberID, _ := f.seedUser(t, "member")
	boardID, cardID := f.seedCard(t, ownerID, acctID)

	_, err := f.boards.AddCollaborator(context.Background(), ownerID, boardID, boarduc.AddCollaboratorRequest{
		UserID: memberID, Permission: boarddomain.PermissionWrite,
	})
	require.NoError(t, err)
	f.announcer.Reset()

	view, err := f.uc.Create(context.Background(), memberID, cardID, CreateCommentRequest{
		Content: "nice find",
	})
	require.NoError(t, err)
	assert.Equal(t, cardID, view.CardID)
	assert.Equal(t, memberID, view.CreatedBy)

	msgs := f.announcer.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, boarddomain.Room(acctID), msgs[0].Room)
	assert.Equal(t, "comment", msgs[0].Data.DataType)
	assert.Equal(t, announce.MethodCreate, msgs[0].Data.Method)

	require.Len(t, f.notifier.events, 1)
	ev := f.notifier.events[0]
	assert.Equal(t, notification.LabelCardCommentCreated, ev.Label)
	assert.Equal(t, []notify.Recipient{{UserID: ownerID}}, ev.Recipients)
	assert.Equal(t, memberID, ev.ActorID)
}

func TestCommentCreate_OwnCardSkipsNotification(t *testing.T) {
	f := newFixture(t)
	ownerID, acctID := f.seedUser(t, "owner")
	_, cardID := f.seedCard(t, ownerID, acctID)

	_, err := f.uc.Create(context.Background(), ownerID, cardID, CreateCommentRequest{
		Content: "note to self",
	})
	require.NoError(t, err)
	assert.Empty(t, f.notifier.events)
}

func TestCommentCreate_ReaderDenied(t *testing.T) {
	f := newFixture(t)
	ownerID, acctID := f.seedUser(t, "owner")
	readerID, _ := f.seedUser(t, "reader")
	boardID, cardID := f.seedCard(t, ownerID, acctID)

	_, err := f.boards.AddCollaborator(context.Background(), ownerID, boardID, boarduc.AddCollaboratorRequest{
		UserID: readerID, Permission: boarddomain.PermissionRead,
	})
	require.NoError(t, err)

	_, err = f.uc.Create(context.Background(), readerID, cardID, CreateCommentRequest{
		Content: "let me in",
	})
	require.Error(t, err)
	var denied *apperrors.PermissionDeniedError
	assert.ErrorAs(t, err, &denied)
}

func TestCommentCreate_ValidatesContent(t *testing.T) {
	f := newFixture(t)
	ownerID, acctID := f.seedUser(t, "owner")
	_, cardID := f.seedCard(t, ownerID, acctID)

	_, err := f.uc.Create(context.Background(), ownerID, cardID, CreateCommentRequest{})
	require.Error(t, err)
	var validation *apperrors.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestCommentList_SharedBoardIsPublic(t *testing.T) {
	f := newFixture(t)
	ownerID, acctID := f.seedUser(t, "owner")
	boardID, cardID := f.seedCard(t, ownerID, acctID)

	_, err := f.uc.Create(context.Background(), ownerID, cardID, CreateCommentRequest{Content: "first"})
	require.NoError(t, err)
	_, err = f.uc.Create(context.Background(), ownerID, cardID, CreateCommentRequest{Content: "second"})
	require.NoError(t, err)

	// anonymous listing is rejected while the board is private
	_, err = f.uc.List(context.Background(), 0, cardID)
	require.Error(t, err)

	shared := true
	_, err = f.boards.Update(context.Background(), ownerID, boardID, boarduc.UpdateBoardRequest{IsShared: &shared})
	require.NoError(t, err)

	views, err := f.uc.List(context.Background(), 0, cardID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "first", views[0].Content)
	assert.Equal(t, "second", views[1].Content)
}

func TestCommentUpdate_AuthorOnly(t *testing.T) {
	f := newFixture(t)
	ownerID, acctID := f.seedUser(t, "owner")
	memberID, _ := f.seedUser(t, "member")
	boardID, cardID := f.seedCard(t, ownerID, acctID)

	_, err := f.boards.AddCollaborator(context.Background(), ownerID, boardID, boarduc.AddCollaboratorRequest{
		UserID: memberID, Permission: boarddomain.PermissionWrite,
	})
	require.NoError(t, err)

	view, err := f.uc.Create(context.Background(), memberID, cardID, CreateCommentRequest{Content: "draft"})
	require.NoError(t, err)
	f.announcer.Reset()

	updated, err := f.uc.Update(context.Background(), memberID, view.ID, UpdateCommentRequest{Content: "final"})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Content)
	assert.Equal(t, memberID, updated.ModifiedBy)

	msgs := f.announcer.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, announce.MethodUpdate, msgs[0].Data.Method)

	// even the board owner cannot edit someone else's comment
	_, err = f.uc.Update(context.Background(), ownerID, view.ID, UpdateCommentRequest{Content: "hijacked"})
	require.Error(t, err)
	var denied *apperrors.PermissionDeniedError
	assert.ErrorAs(t, err, &denied)
}

func TestCommentDelete_AuthorAndModerator(t *testing.T) {
	f := newFixture(t)
	ownerID, acctID := f.seedUser(t, "owner")
	memberID, _ := f.seedUser(t, "member")
	readerID, _ := f.seedUser(t, "reader")
	boardID, cardID := f.seedCard(t, ownerID, acctID)

	_, err := f.boards.AddCollaborator(context.Background(), ownerID, boardID, boarduc.AddCollaboratorRequest{
		UserID: memberID, Permission: boarddomain.PermissionWrite,
	})
	require.NoError(t, err)
	_, err = f.boards.AddCollaborator(context.Background(), ownerID, boardID, boarduc.AddCollaboratorRequest{
		UserID: readerID, Permission: boarddomain.PermissionRead,
	})
	require.NoError(t, err)

	first, err := f.uc.Create(context.Background(), memberID, cardID, CreateCommentRequest{Content: "one"})
	require.NoError(t, err)
	second, err := f.uc.Create(context.Background(), memberID, cardID, CreateCommentRequest{Content: "two"})
	require.NoError(t, err)

	// a read-only collaborator cannot moderate
	err = f.uc.Delete(context.Background(), readerID, first.ID)
	require.Error(t, err)

	// the author deletes their own
	require.NoError(t, f.uc.Delete(context.Background(), memberID, first.ID))

	// a writer moderates someone else's
	f.announcer.Reset()
	require.NoError(t, f.uc.Delete(context.Background(), ownerID, second.ID))

	msgs := f.announcer.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, announce.MethodDelete, msgs[0].Data.Method)

	views, err := f.uc.List(context.Background(), ownerID, cardID)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestCommentDelete_UnknownComment(t *testing.T) {
	f := newFixture(t)
	ownerID, _ := f.seedUser(t, "owner")

	err := f.uc.Delete(context.Background(), ownerID, 999)
	require.Error(t, err)
	var notFound *apperrors.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}
