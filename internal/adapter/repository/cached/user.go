package cached

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"boards-backend/internal/adapter/cache"
	"boards-backend/internal/domain/account"
	domain "boards-backend/internal/domain/user"
)

// UserRepository is the full user persistence surface. Satisfied by the
// postgres repository; the cached wrapper implements it too so either
// can be injected.
type UserRepository interface {
	CreateWithAccount(ctx context.Context, u *domain.User) (*domain.User, *account.Account, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByUsernameOrEmail(ctx context.Context, identifier string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) (*domain.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

// CachedUserRepository wraps a persistent user repository with a
// cache-aside layer on GetByID. Writes invalidate; lookups by name or
// email go straight to the database.
type CachedUserRepository struct {
	dbRepo UserRepository
	cache  cache.UserCache
	log    *zap.Logger
	group  singleflight.Group
}

// NewCachedUserRepository creates a new instance of CachedUserRepository.
func NewCachedUserRepository(dbRepo UserRepository, cache cache.UserCache, log *zap.Logger) *CachedUserRepository {
	return &CachedUserRepository{dbRepo: dbRepo, cache: cache, log: log}
}

// CreateWithAccount delegates to the DB repository.
func (r *CachedUserRepository) CreateWithAccount(ctx context.Context, u *domain.User) (*domain.User, *account.Account, error) {
	return r.dbRepo.CreateWithAccount(ctx, u)
}

// GetByID retrieves a user by ID using the cache-aside pattern. Misses
// are collapsed through single-flight so one request hits the database.
func (r *CachedUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if r.cache != nil {
		cachedUser, err := r.cache.Get(ctx, id)
		if err != nil {
			r.log.Warn("cache get error, falling back to database", zap.Int64("id", id), zap.Error(err))
		} else if cachedUser != nil {
			return cachedUser, nil
		}
	}

	key := fmt.Sprintf("user:%d", id)
	result, err, _ := r.group.Do(key, func() (any, error) {
		// another request may have populated the cache while we waited
		if r.cache != nil {
			cachedUser, err := r.cache.Get(ctx, id)
			if err == nil && cachedUser != nil {
				return cachedUser, nil
			}
		}

		u, err := r.dbRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if r.cache != nil && u != nil {
			if err := r.cache.Set(ctx, u); err != nil {
				r.log.Warn("failed to cache user", zap.Int64("id", id), zap.Error(err))
			}
		}
		return u, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.User), nil
}

// GetByEmail delegates to the DB repository.
func (r *CachedUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.dbRepo.GetByEmail(ctx, email)
}

// GetByUsername delegates to the DB repository.
func (r *CachedUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.dbRepo.GetByUsername(ctx, username)
}

// GetByUsernameOrEmail delegates to the DB repository.
func (r *CachedUserRepository) GetByUsernameOrEmail(ctx context.Context, identifier string) (*domain.User, error) {
	return r.dbRepo.GetByUsernameOrEmail(ctx, identifier)
}

// Update updates the user in the DB and invalidates the cache.
func (r *CachedUserRepository) Update(ctx context.Context, u *domain.User) (*domain.User, error) {
	updated, err := r.dbRepo.Update(ctx, u)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.Delete(ctx, u.ID); err != nil {
			r.log.Warn("failed to invalidate cache after update", zap.Int64("id", u.ID), zap.Error(err))
		}
	}
	return updated, nil
}

// UpdatePassword updates the hash in the DB and invalidates the cache.
// Invalidation matters here: the cached row carries the token version
// that outstanding JWTs are checked against.
func (r *CachedUserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	if err := r.dbRepo.UpdatePassword(ctx, id, passwordHash); err != nil {
		return err
	}

	if r.cache != nil {
		if err := r.cache.Delete(ctx, id); err != nil {
			r.log.Warn("failed to invalidate cache after password update", zap.Int64("id", id), zap.Error(err))
		}
	}
	return nil
}
