package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	domain "boards-backend/internal/domain/user"
	pkgauth "boards-backend/pkg/auth"
	apperrors "boards-backend/pkg/errors"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, u *domain.User) (*domain.User, error) {
	args := m.Called(ctx, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func newTestUsecase(t *testing.T, repo *MockRepository) *Usecase {
	tokens := pkgauth.NewTokenService("test-secret", 90*24*time.Hour)
	hasher := pkgauth.NewPasswordHasher(4)
	return New(repo, tokens, hasher, zaptest.NewLogger(t))
}

func TestGetMe(t *testing.T) {
	repo := new(MockRepository)
	uc := newTestUsecase(t, repo)

	repo.On("GetByID", mock.Anything, int64(1)).Return(&domain.User{ID: 1, Username: "jane"}, nil)
	repo.On("GetByID", mock.Anything, int64(2)).Return(nil, nil)

	got, err := uc.GetMe(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "jane", got.Username)

	_, err = uc.GetMe(context.Background(), 2)
	var notFound *apperrors.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestUpdateMe(t *testing.T) {
	repo := new(MockRepository)
	uc := newTestUsecase(t, repo)

	current := &domain.User{ID: 1, Username: "jane", Email: "jane@example.com"}
	repo.On("GetByID", mock.Anything, int64(1)).Return(current, nil)
	repo.On("GetByUsername", mock.Anything, "janedoe").Return(nil, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(
		&domain.User{ID: 1, Username: "janedoe", FirstName: "Jane"}, nil)

	updated, err := uc.UpdateMe(context.Background(), 1, UpdateMeRequest{
		Username:  "JaneDoe",
		FirstName: "Jane",
	})
	require.NoError(t, err)
	assert.Equal(t, "janedoe", updated.Username)
}

func TestUpdateMe_RejectsTakenUsername(t *testing.T) {
	repo := new(MockRepository)
	uc := newTestUsecase(t, repo)

	repo.On("GetByID", mock.Anything, int64(1)).Return(&domain.User{ID: 1, Username: "jane"}, nil)
	repo.On("GetByUsername", mock.Anything, "taken").Return(&domain.User{ID: 2, Username: "taken"}, nil)

	_, err := uc.UpdateMe(context.Background(), 1, UpdateMeRequest{Username: "taken"})
	var exists *apperrors.AlreadyExistsError
	assert.ErrorAs(t, err, &exists)
}

func TestUpdateMe_RejectsReservedUsername(t *testing.T) {
	repo := new(MockRepository)
	uc := newTestUsecase(t, repo)

	repo.On("GetByID", mock.Anything, int64(1)).Return(&domain.User{ID: 1, Username: "jane"}, nil)

	_, err := uc.UpdateMe(context.Background(), 1, UpdateMeRequest{Username: "admin"})
	var validation *apperrors.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestChangePassword(t *testing.T) {
	repo := new(MockRepository)
	uc := newTestUsecase(t, repo)

	hasher := pkgauth.NewPasswordHasher(4)
	hash, err := hasher.Hash("old-pass")
	require.NoError(t, err)

	repo.On("GetByID", mock.Anything, int64(1)).Return(
		&domain.User{ID: 1, Username: "jane", PasswordHash: hash, TokenVersion: 2}, nil)
	repo.On("UpdatePassword", mock.Anything, int64(1), mock.Anything).Return(nil)

	resp, err := uc.ChangePassword(context.Background(), 1, ChangePasswordRequest{
		CurrentPassword: "old-pass",
		NewPassword:     "new-pass-123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)

	// the replacement token carries the bumped version
	tokens := pkgauth.NewTokenService("test-secret", 90*24*time.Hour)
	parsed, err := tokens.ParseAccessToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(3), parsed.TokenVersion)
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	repo := new(MockRepository)
	uc := newTestUsecase(t, repo)

	hasher := pkgauth.NewPasswordHasher(4)
	hash, err := hasher.Hash("old-pass")
	require.NoError(t, err)

	repo.On("GetByID", mock.Anything, int64(1)).Return(
		&domain.User{ID: 1, PasswordHash: hash}, nil)

	_, err = uc.ChangePassword(context.Background(), 1, ChangePasswordRequest{
		CurrentPassword: "wrong",
		NewPassword:     "new-pass-123",
	})
	var unauthorized *apperrors.UnauthorizedError
	assert.ErrorAs(t, err, &unauthorized)
	repo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
}
