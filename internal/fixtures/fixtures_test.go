package fixtures

import (
	"context"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"boards-backend/internal/adapter/db/postgres"
	pkgauth "boards-backend/pkg/auth"
)

const sampleFixture = `[
  {"model": "users.user", "pk": 1, "fields": {
    "username": "Frank", "email": "Frank@example.com",
    "first_name": "Frank", "password": "s3cretpass"}},
  {"model": "accounts.account", "pk": 1, "fields": {
    "name": "Frank Media", "created_by": 1}},
  {"model": "boards.board", "pk": 1, "fields": {
    "account": 1, "name": "Inspiration", "is_shared": true, "created_by": 1}},
  {"model": "cards.card", "pk": 1, "fields": {
    "board": 1, "name": "Welcome", "type": "note",
    "content": "hello", "created_by": 1}}
]`

func newLoader(t *testing.T) (*Loader, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(postgres.MigrationModels()...))

	hasher := pkgauth.NewPasswordHasher(4)
	return NewLoader(db, hasher, zaptest.NewLogger(t)), db
}

func TestLoadSampleFixture(t *testing.T) {
	loader, db := newLoader(t)

	n, err := loader.Load(context.Background(), strings.NewReader(sampleFixture))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	var u postgres.UserSchema
	require.NoError(t, db.First(&u, 1).Error)
	assert.Equal(t, "frank", u.Username)
	assert.Equal(t, "frank@example.com", u.Email)
	assert.True(t, pkgauth.NewPasswordHasher(4).Compare(u.PasswordHash, "s3cretpass"))

	var acct postgres.AccountSchema
	require.NoError(t, db.First(&acct, 1).Error)
	assert.Equal(t, "frank-media", acct.Slug)

	var owner postgres.AccountCollaboratorSchema
	require.NoError(t, db.Where("account_id = ? AND user_id = ?", 1, 1).First(&owner).Error)
	assert.True(t, owner.IsOwner)

	var b postgres.BoardSchema
	require.NoError(t, db.First(&b, 1).Error)
	assert.Equal(t, "inspiration", b.Slug)
	assert.True(t, b.IsShared)

	var c postgres.CardSchema
	require.NoError(t, db.First(&c, 1).Error)
	assert.Equal(t, "note", c.Type)
	assert.Equal(t, int64(1), c.ModifiedByID)
}

func TestLoadIsIdempotent(t *testing.T) {
	loader, db := newLoader(t)

	_, err := loader.Load(context.Background(), strings.NewReader(sampleFixture))
	require.NoError(t, err)
	_, err = loader.Load(context.Background(), strings.NewReader(sampleFixture))
	require.NoError(t, err)

	var users, owners int64
	require.NoError(t, db.Model(&postgres.UserSchema{}).Count(&users).Error)
	require.NoError(t, db.Model(&postgres.AccountCollaboratorSchema{}).Count(&owners).Error)
	assert.Equal(t, int64(1), users)
	assert.Equal(t, int64(1), owners)
}

func TestLoadPrehashedPassword(t *testing.T) {
	loader, db := newLoader(t)

	_, err := loader.Load(context.Background(), strings.NewReader(`[
	  {"model": "users.user", "pk": 2, "fields": {
	    "username": "mary", "email": "mary@example.com",
	    "password_hash": "$2a$04$precomputedhashvalue"}}
	]`))
	require.NoError(t, err)

	var u postgres.UserSchema
	require.NoError(t, db.First(&u, 2).Error)
	assert.Equal(t, "$2a$04$precomputedhashvalue", u.PasswordHash)
}

func TestLoadRejectsUnknownModel(t *testing.T) {
	loader, db := newLoader(t)

	_, err := loader.Load(context.Background(), strings.NewReader(`[
	  {"model": "users.user", "pk": 1, "fields": {
	    "username": "frank", "email": "frank@example.com", "password": "pw"}},
	  {"model": "polls.question", "pk": 1, "fields": {}}
	]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported model")
	assert.Contains(t, err.Error(), "cards.card")

	// the transaction rolled everything back
	var users int64
	require.NoError(t, db.Model(&postgres.UserSchema{}).Count(&users).Error)
	assert.Equal(t, int64(0), users)
}

func TestLoadRejectsGarbage(t *testing.T) {
	loader, _ := newLoader(t)

	_, err := loader.Load(context.Background(), strings.NewReader("not json"))
	require.Error(t, err)
}
