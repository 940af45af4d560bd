package card

import (
	"context"
	"strings"
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
	domain "boards-backend/internal/domain/card"
	"boards-backend/internal/domain/notification"
	"boards-backend/internal/domain/user"
	"boards-backend/internal/notify"
	"boards-backend/internal/storage"
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
	tokens := pkgauth.NewTokenService("test-secret", 90*24*time.Hour)

	boards := boarduc.New(boardRepo, postgres.NewAccountRepo(db, log), users,
		postgres.NewInviteRepo(db, log), announcer, notifier, tokens, "http://localhost:3000", log)

	signer := storage.NewSigner("AKIATEST", "secret", "boards-test", 3*time.Hour)
	uc := New(postgres.NewCardRepo(db, log), boards, boardRepo, users,
		announcer, notifier, tokens, signer, nil, log)

	return &fixture{uc: uc, boards: boards, announcer: announcer, notifier: notifier, users: users}
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

func (f *fixture) seedBoard(t *testing.T, userID, acctID int64) int64 {
	t.Helper()
	v, err := f.boards.Create(context.Background(), userID, boarduc.CreateBoardRequest{
		AccountID: acctID, Name: "Work",
	})
	require.NoError(t, err)
	f.announcer.Reset()
	return v.ID
}

func TestCardCreate_AnnouncesAndNotifies(t *testing.T) {
	f := newFixture(t)
	ownerID, acctID := f.seedUser(t, "owner")
	memberID, _ := f.seedUser(t, "member")
	boardID := f.seedBoard(t, ownerID, acctID)

	_, err := f.boards.AddCollaborator(context.Background(), ownerID, boardID, boarduc.AddCollaboratorRequest{
		UserID: memberID, Permission: boarddomain.PermissionWrite,
	})
	require.NoError(t, err)
	f.announcer.Reset()

	view, err := f.uc.Create(context.Background(), ownerID, CreateCardRequest{
		BoardID: boardID,
		Name:    "A note",
		Type:    domain.TypeNote,
		Content: "remember this",
	})
	require.NoError(t, err)
	assert.Equal(t, "a-note", view.Slug)
	assert.Equal(t, int64(1), view.Position)

	msgs := f.announcer.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, boarddomain.Room(acctID), msgs[0].Room)
	assert.Equal(t, "card", msgs[0].Data.DataType)
	assert.Equal(t, announce.MethodCreate, msgs[0].Data.Method)

	// the other collaborator is notified, the actor is not
	require.Len(t, f.notifier.events, 1)
	ev := f.notifier.events[0]
	assert.Equal(t, notification.LabelCardCreated, ev.Label)
	require.Len(t, ev.Recipients, 1)
	assert.Equal(t, memberID, ev.Recipients[0].UserID)
}

func TestCardCreate_StackLabel(t *testing.T) {
	f := newFixture(t)
	ownerID, acctID := f.seedUser(t, "owner")
	memberID, _ := f.seedUser(t, "member")
	boardID := f.seedBoard(t, ownerID, acctID)
	_, err := f.boards.AddCollaborator(context.Background(), ownerID, boardID, boarduc.AddCollaboratorRequest{
		UserID: memberID, Permission: boarddomain.PermissionRead,
	})
	require.NoError(t, err)

	note, err := f.uc.Create(context.Background(), ownerID, CreateCardRequest{
		BoardID: boardID, Name: "n", Type: domain.TypeNote, Content: "x",
	})
	require.NoError(t, err)

	stack, err := f.uc.Create(context.Background(), ownerID, CreateCardRequest{
		BoardID: boardID, Name: "Pile", Type: domain.TypeStack, StackIDs: []int64{note.ID},
	})
	require.NoError(t, err)

	members, err := f.uc.ListStackMembers(context.Background(), ownerID, stack.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, note.ID, members[0].ID)

	var labels []string
	for _, ev := range f.notifier.events {
		labels = append(labels, ev.Label)
	}
	assert.Contains(t, labels, notification.LabelCardStackCreated)
}

func TestCardCreate_ValidatesInvariants(t *testing.T) {
	f := newFixture(t)
	ownerID, acctID := f.seedUser(t, "owner")
	boardID := f.seedBoard(t, ownerID, acctID)

	// content required for non-stacks
	_, err := f.uc.Create(context.Background(), ownerID, CreateCardRequest{
		BoardID: boardID, Name: "Empty", Type: domain.TypeNote,
	})
	var validation *apperrors.ValidationError
	require.ErrorAs(t, err, &validation)

	// stacks reject file fields
	_, err = f.uc.Create(context.Background(), ownerID, CreateCardRequest{
		BoardID: boardID, Name: "Pile", Type: domain.TypeStack, MimeType: "image/png",
	})
	require.ErrorAs(t, err, &validation)
}

func TestCardCreate_RequiresWrite(t *testing.T) {
	f := newFixture(t)
	ownerID, acctID := f.seedUser(t, "owner")
	readerID, _ := f.seedUser(t, "reader")
	boardID := f.seedBoard(t, ownerID, acctID)
	_, err := f.boards.AddCollaborator(context.Background(), ownerID, boardID, boarduc.AddCollaboratorRequest{
		UserID: readerID, Permission: boarddomain.PermissionRead,
	})
	require.NoError(t, err)

	_, err = f.uc.Create(context.Background(), readerID, CreateCardRequest{
		BoardID: boardID, Name: "Nope", Type: domain.TypeNote, Content: "x",
	})
	var denied *apperrors.PermissionDeniedError
	assert.ErrorAs(t, err, &denied)
}

func TestCardUpdate_MoveAndContent(t *testing.T) {
	f := newFixture(t)
	ownerID, acctID := f.seedUser(t, "owner")
	boardID := f.seedBoard(t, ownerID, acctID)

	var ids []int64
	for _, name := range []string{"a", "b", "c"} {
		v, err := f.uc.Create(context.Background(), ownerID, CreateCardRequest{
			BoardID: boardID, Name: name, Type: domain.TypeNote, Content: name,
		})
		require.NoError(t, err)
		ids = append(ids, v.ID)
	}

	pos := int64(1)
	content := "updated"
	moved, err := f.uc.Update(context.Background(), ownerID, ids[2], UpdateCardRequest{
		Content:  &content,
		Position: &pos,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), moved.Position)
	assert.Equal(t, "updated", moved.Content)

	list, err := f.uc.List(context.Background(), ownerID, boardID)
	require.NoError(t, err)
	assert.Equal(t, ids[2], list[0].ID)
}

func TestCardSetFeatured_NotifiesOnce(t *testing.T) {
	f := newFixture(t)
	ownerID, acctID := f.seedUser(t, "owner")
	memberID, _ := f.seedUser(t, "member")
	boardID := f.seedBoard(t, ownerID, acctID)
	_, err := f.boards.AddCollaborator(context.Background(), ownerID, boardID, boarduc.AddCollaboratorRequest{
		UserID: memberID, Permission: boarddomain.PermissionRead,
	})
	require.NoError(t, err)

	v, err := f.uc.Create(context.Background(), ownerID, CreateCardRequest{
		BoardID: boardID, Name: "Star", Type: domain.TypeNote, Content: "x",
	})
	require.NoError(t, err)
	before := len(f.notifier.events)

	featured, err := f.uc.SetFeatured(context.Background(), ownerID, v.ID, true)
	require.NoError(t, err)
	assert.True(t, featured.Featured)
	require.Len(t, f.notifier.events, before+1)
	assert.Equal(t, notification.LabelCardFeatured, f.notifier.events[before].Label)

	// featuring an already featured card is a no-op
	_, err = f.uc.SetFeatured(context.Background(), ownerID, v.ID, true)
	require.NoError(t, err)
	assert.Len(t, f.notifier.events, before+1)
}

func TestCardDownload(t *testing.T) {
	f := newFixture(t)
	ownerID, acctID := f.seedUser(t, "owner")
	boardID := f.seedBoard(t, ownerID, acctID)

	file, err := f.uc.Create(context.Background(), ownerID, CreateCardRequest{
		BoardID:  boardID,
		Name:     "report.pdf",
		Type:     domain.TypeFile,
		Content:  "uploads/abc/report.pdf",
		MimeType: "application/pdf",
	})
	require.NoError(t, err)

	resp, err := f.uc.Download(context.Background(), ownerID, file.ID, "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.URL, "https://boards-test.s3.amazonaws.com/uploads/abc/report.pdf?"))
	assert.Contains(t, resp.URL, "Signature=")
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, 3*time.Hour, resp.ExpiresIn)

	// note cards have nothing to download
	note, err := f.uc.Create(context.Background(), ownerID, CreateCardRequest{
		BoardID: boardID, Name: "n", Type: domain.TypeNote, Content: "x",
	})
	require.NoError(t, err)
	_, err = f.uc.Download(context.Background(), ownerID, note.ID, "")
	var validation *apperrors.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestCardDownload_TokenGrantsAnonymousAccess(t *testing.T) {
	f := newFixture(t)
	ownerID, acctID := f.seedUser(t, "owner")
	boardID := f.seedBoard(t, ownerID, acctID)

	file, err := f.uc.Create(context.Background(), ownerID, CreateCardRequest{
		BoardID:  boardID,
		Name:     "report.pdf",
		Type:     domain.TypeFile,
		Content:  "uploads/abc/report.pdf",
		MimeType: "application/pdf",
	})
	require.NoError(t, err)

	other, err := f.uc.Create(context.Background(), ownerID, CreateCardRequest{
		BoardID:  boardID,
		Name:     "notes.pdf",
		Type:     domain.TypeFile,
		Content:  "uploads/def/notes.pdf",
		MimeType: "application/pdf",
	})
	require.NoError(t, err)

	// the board is private: no session, no token, no download
	var denied *apperrors.PermissionDeniedError
	_, err = f.uc.Download(context.Background(), 0, file.ID, "")
	require.ErrorAs(t, err, &denied)

	resp, err := f.uc.Download(context.Background(), ownerID, file.ID, "")
	require.NoError(t, err)

	// a shared token stands in for the session
	shared, err := f.uc.Download(context.Background(), 0, file.ID, resp.Token)
	require.NoError(t, err)
	assert.Contains(t, shared.URL, "Signature=")

	// the token is bound to its card
	var unauthorized *apperrors.UnauthorizedError
	_, err = f.uc.Download(context.Background(), 0, other.ID, resp.Token)
	require.ErrorAs(t, err, &unauthorized)

	_, err = f.uc.Download(context.Background(), 0, file.ID, "not-a-token")
	require.ErrorAs(t, err, &unauthorized)
}

func TestCardSignUpload(t *testing.T) {
	f := newFixture(t)

	resp, err := f.uc.SignUpload(context.Background(), SignUploadRequest{
		Name:     "photo.png",
		MimeType: "image/png",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.Key, "uploads/"))
	assert.True(t, strings.HasSuffix(resp.Key, "/photo.png"))
	assert.Equal(t, "https://boards-test.s3.amazonaws.com/", resp.URL)
	assert.Equal(t, "AKIATEST", resp.AccessKeyID)
	assert.Equal(t, "private", resp.ACL)
	assert.NotEmpty(t, resp.Policy)
	assert.NotEmpty(t, resp.Signature)

	_, err = f.uc.SignUpload(context.Background(), SignUploadRequest{})
	var validation *apperrors.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestCardDelete_Announces(t *testing.T) {
	f := newFixture(t)
	ownerID, acctID := f.seedUser(t, "owner")
	boardID := f.seedBoard(t, ownerID, acctID)

	v, err := f.uc.Create(context.Background(), ownerID, CreateCardRequest{
		BoardID: boardID, Name: "gone", Type: domain.TypeNote, Content: "x",
	})
	require.NoError(t, err)
	f.announcer.Reset()

	require.NoError(t, f.uc.Delete(context.Background(), ownerID, v.ID))

	msgs := f.announcer.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, announce.MethodDelete, msgs[0].Data.Method)

	_, err = f.uc.Get(context.Background(), ownerID, v.ID)
	var notFound *apperrors.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}
