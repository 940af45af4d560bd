package board

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
	domain "boards-backend/internal/domain/board"
	"boards-backend/internal/domain/notification"
	"boards-backend/internal/domain/user"
	"boards-backend/internal/notify"
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
	announcer *announce.MemoryAnnouncer
	notifier  *recordingNotifier
	users     *postgres.UserRepo
	invites   *postgres.InviteRepo
	db        *gorm.DB
}

func newFixture(t *testing.T) *fixture {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(postgres.MigrationModels()...))

	log := zaptest.NewLogger(t)
	announcer := announce.NewMemoryAnnouncer()
	notifier := &recordingNotifier{}
	users := postgres.NewUserRepo(db, log)
	invites := postgres.NewInviteRepo(db, log)
	tokens := pkgauth.NewTokenService("test-secret", 90*24*time.Hour)

	uc := New(
		postgres.NewBoardRepo(db, log),
		postgres.NewAccountRepo(db, log),
		users,
		invites,
		announcer,
		notifier,
		tokens,
		"http://localhost:3000",
		log,
	)
	return &fixture{uc: uc, announcer: announcer, notifier: notifier, users: users, invites: invites, db: db}
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

func TestBoardCreate_AnnouncesToAccountRoom(t *testing.T) {
	f := newFixture(t)
	userID, acctID := f.seedUser(t, "owner")

	view, err := f.uc.Create(context.Background(), userID, CreateBoardRequest{
		AccountID: acctID,
		Name:      "Inspiration",
	})
	require.NoError(t, err)
	assert.Equal(t, "inspiration", view.Slug)

	msgs := f.announcer.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.Room(acctID), msgs[0].Room)
	assert.Equal(t, "board", msgs[0].Data.DataType)
	assert.Equal(t, announce.MethodCreate, msgs[0].Data.Method)
}

func TestBoardCreate_RequiresAccountMembership(t *testing.T) {
	f := newFixture(t)
	_, acctID := f.seedUser(t, "owner")
	strangerID, _ := f.seedUser(t, "stranger")

	_, err := f.uc.Create(context.Background(), strangerID, CreateBoardRequest{
		AccountID: acctID,
		Name:      "Sneaky",
	})
	var denied *apperrors.PermissionDeniedError
	assert.ErrorAs(t, err, &denied)
}

func TestBoardGet_SharedIsPublic(t *testing.T) {
	f := newFixture(t)
	userID, acctID := f.seedUser(t, "owner")

	private, err := f.uc.Create(context.Background(), userID, CreateBoardRequest{
		AccountID: acctID, Name: "Private",
	})
	require.NoError(t, err)
	shared, err := f.uc.Create(context.Background(), userID, CreateBoardRequest{
		AccountID: acctID, Name: "Public", IsShared: true,
	})
	require.NoError(t, err)

	// anonymous caller, user id zero
	_, err = f.uc.Get(context.Background(), 0, private.ID)
	var denied *apperrors.PermissionDeniedError
	assert.ErrorAs(t, err, &denied)

	got, err := f.uc.Get(context.Background(), 0, shared.ID)
	require.NoError(t, err)
	assert.True(t, got.IsShared)
}

func TestBoardUpdate_RequiresWrite(t *testing.T) {
	f := newFixture(t)
	ownerID, acctID := f.seedUser(t, "owner")
	readerID, _ := f.seedUser(t, "reader")

	b, err := f.uc.Create(context.Background(), ownerID, CreateBoardRequest{
		AccountID: acctID, Name: "Docs",
	})
	require.NoError(t, err)

	_, err = f.uc.AddCollaborator(context.Background(), ownerID, b.ID, AddCollaboratorRequest{
		UserID: readerID, Permission: domain.PermissionRead,
	})
	require.NoError(t, err)

	name := "Renamed"
	_, err = f.uc.Update(context.Background(), readerID, b.ID, UpdateBoardRequest{Name: &name})
	var denied *apperrors.PermissionDeniedError
	assert.ErrorAs(t, err, &denied)

	updated, err := f.uc.Update(context.Background(), ownerID, b.ID, UpdateBoardRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "renamed", updated.Slug)
}

func TestBoardDelete_OnlyCreatorOrAccountOwner(t *testing.T) {
	f := newFixture(t)
	ownerID, acctID := f.seedUser(t, "owner")
	writerID, _ := f.seedUser(t, "writer")

	b, err := f.uc.Create(context.Background(), ownerID, CreateBoardRequest{
		AccountID: acctID, Name: "Keep",
	})
	require.NoError(t, err)
	_, err = f.uc.AddCollaborator(context.Background(), ownerID, b.ID, AddCollaboratorRequest{
		UserID: writerID, Permission: domain.PermissionWrite,
	})
	require.NoError(t, err)

	err = f.uc.Delete(context.Background(), writerID, b.ID)
	var denied *apperrors.PermissionDeniedError
	assert.ErrorAs(t, err, &denied)

	require.NoError(t, f.uc.Delete(context.Background(), ownerID, b.ID))

	msgs := f.announcer.Messages()
	last := msgs[len(msgs)-1]
	assert.Equal(t, announce.MethodDelete, last.Data.Method)
}

func TestAddCollaborator_ByEmailInvites(t *testing.T) {
	f := newFixture(t)
	ownerID, acctID := f.seedUser(t, "owner")

	b, err := f.uc.Create(context.Background(), ownerID, CreateBoardRequest{
		AccountID: acctID, Name: "Team",
	})
	require.NoError(t, err)

	view, err := f.uc.AddCollaborator(context.Background(), ownerID, b.ID, AddCollaboratorRequest{
		Email:      "new.person@example.com",
		Permission: domain.PermissionWrite,
	})
	require.NoError(t, err)
	assert.Zero(t, view.UserID)
	assert.NotZero(t, view.InvitedUserID)

	iu, err := f.invites.GetInvitedUserByAccountEmail(context.Background(), acctID, "new.person@example.com")
	require.NoError(t, err)
	require.NotNil(t, iu)

	require.Len(t, f.notifier.events, 1)
	ev := f.notifier.events[0]
	assert.Equal(t, notification.LabelUserInvited, ev.Label)
	assert.Contains(t, ev.Description, "/invite/")
	require.Len(t, ev.Recipients, 1)
	assert.Equal(t, "new.person@example.com", ev.Recipients[0].Email)

	// same email again is a conflict
	_, err = f.uc.AddCollaborator(context.Background(), ownerID, b.ID, AddCollaboratorRequest{
		Email:      "new.person@example.com",
		Permission: domain.PermissionRead,
	})
	var exists *apperrors.AlreadyExistsError
	assert.ErrorAs(t, err, &exists)
}

func TestAddCollaborator_EmailOfRegisteredUser(t *testing.T) {
	f := newFixture(t)
	ownerID, acctID := f.seedUser(t, "owner")
	memberID, _ := f.seedUser(t, "member")

	b, err := f.uc.Create(context.Background(), ownerID, CreateBoardRequest{
		AccountID: acctID, Name: "Team",
	})
	require.NoError(t, err)

	view, err := f.uc.AddCollaborator(context.Background(), ownerID, b.ID, AddCollaboratorRequest{
		Email:      "member@example.com",
		Permission: domain.PermissionRead,
	})
	require.NoError(t, err)
	assert.Equal(t, memberID, view.UserID)
	assert.Zero(t, view.InvitedUserID)
	assert.Empty(t, f.notifier.events)
}

func TestRemoveCollaborator_SelfRemoval(t *testing.T) {
	f := newFixture(t)
	ownerID, acctID := f.seedUser(t, "owner")
	readerID, _ := f.seedUser(t, "reader")

	b, err := f.uc.Create(context.Background(), ownerID, CreateBoardRequest{
		AccountID: acctID, Name: "Team",
	})
	require.NoError(t, err)
	added, err := f.uc.AddCollaborator(context.Background(), ownerID, b.ID, AddCollaboratorRequest{
		UserID: readerID, Permission: domain.PermissionRead,
	})
	require.NoError(t, err)

	// a read-only collaborator can still remove themselves
	require.NoError(t, f.uc.RemoveCollaborator(context.Background(), readerID, b.ID, added.ID))

	_, err = f.uc.Get(context.Background(), readerID, b.ID)
	var denied *apperrors.PermissionDeniedError
	assert.ErrorAs(t, err, &denied)
}

func TestAccessRequestFlow(t *testing.T) {
	f := newFixture(t)
	ownerID, acctID := f.seedUser(t, "owner")
	askerID, _ := f.seedUser(t, "asker")

	b, err := f.uc.Create(context.Background(), ownerID, CreateBoardRequest{
		AccountID: acctID, Name: "Wanted", IsShared: true,
	})
	require.NoError(t, err)

	req, err := f.uc.RequestAccess(context.Background(), askerID, b.ID, CreateAccessRequest{
		Message: "please",
	})
	require.NoError(t, err)
	assert.Equal(t, askerID, req.UserID)

	view, err := f.uc.ResolveAccess(context.Background(), ownerID, b.ID, req.ID, ResolveAccessRequest{
		Accept: true, Permission: domain.PermissionWrite,
	})
	require.NoError(t, err)
	assert.Equal(t, askerID, view.UserID)
	assert.Equal(t, domain.PermissionWrite, view.Permission)

	// request is gone either way
	_, err = f.uc.ResolveAccess(context.Background(), ownerID, b.ID, req.ID, ResolveAccessRequest{Accept: false})
	var notFound *apperrors.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestAccessRequest_AnonymousNeedsEmail(t *testing.T) {
	f := newFixture(t)
	ownerID, acctID := f.seedUser(t, "owner")

	b, err := f.uc.Create(context.Background(), ownerID, CreateBoardRequest{
		AccountID: acctID, Name: "Open", IsShared: true,
	})
	require.NoError(t, err)

	_, err = f.uc.RequestAccess(context.Background(), 0, b.ID, CreateAccessRequest{})
	var validation *apperrors.ValidationError
	assert.ErrorAs(t, err, &validation)

	req, err := f.uc.RequestAccess(context.Background(), 0, b.ID, CreateAccessRequest{
		Email: "visitor@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "visitor@example.com", req.Email)
}

func TestBoardClone(t *testing.T) {
	f := newFixture(t)
	ownerID, acctID := f.seedUser(t, "owner")

	src, err := f.uc.Create(context.Background(), ownerID, CreateBoardRequest{
		AccountID: acctID, Name: "Template",
	})
	require.NoError(t, err)

	cloned, err := f.uc.Clone(context.Background(), ownerID, src.ID, CloneBoardRequest{})
	require.NoError(t, err)
	assert.Equal(t, acctID, cloned.AccountID)
	assert.Equal(t, "template-2", cloned.Slug)
}
