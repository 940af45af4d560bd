package postgres

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"boards-backend/internal/domain/user"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(MigrationModels()...)
	require.NoError(t, err)

	return db
}

// seedUser creates a user with their personal account and returns both ids.
func seedUser(t *testing.T, db *gorm.DB, log *zap.Logger, username string) (int64, int64) {
	t.Helper()
	repo := NewUserRepo(db, log)
	u, acct, err := repo.CreateWithAccount(context.Background(), &user.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
	})
	require.NoError(t, err)
	return u.ID, acct.ID
}

func testLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}
