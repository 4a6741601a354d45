package v1

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duynhne/portfolio-service/config"
	"github.com/duynhne/portfolio-service/internal/core/cache"
	"github.com/duynhne/portfolio-service/internal/core/domain"
	"github.com/duynhne/portfolio-service/internal/core/repository/memory"
)

func newTestStore(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	_, err := store.InsertUser(ctx, domain.Document{"_id": "12345", "name": "Ada"})
	require.NoError(t, err)
	_, err = store.InsertPortfolio(ctx, domain.Document{"_id": "67890", "userId": "12345", "strategy": "growth"})
	require.NoError(t, err)
	return store
}

func newTestCache(t *testing.T) (*cache.ProfileCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c, err := cache.NewProfileCache(context.Background(), config.CacheConfig{Addr: mr.Addr(), TTL: time.Minute})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestProfileService_GetProfile(t *testing.T) {
	store := newTestStore(t)
	svc := NewProfileService(store, store, nil, store)

	profile, err := svc.GetProfile(context.Background(), "12345")
	require.NoError(t, err)
	assert.Equal(t, "Ada", profile.Result["name"])
	assert.Equal(t, "growth", profile.Portfolio["strategy"])
}

func TestProfileService_GetProfileWithoutPortfolio(t *testing.T) {
	store := newTestStore(t)
	_, err := store.InsertUser(context.Background(), domain.Document{"_id": "555", "name": "Grace"})
	require.NoError(t, err)
	svc := NewProfileService(store, store, nil, store)

	profile, err := svc.GetProfile(context.Background(), "555")
	require.NoError(t, err)
	assert.Equal(t, "Grace", profile.Result["name"])
	assert.Nil(t, profile.Portfolio)
}

func TestProfileService_GetProfileErrors(t *testing.T) {
	store := newTestStore(t)
	svc := NewProfileService(store, store, nil, store)
	ctx := context.Background()

	_, err := svc.GetProfile(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = svc.GetProfile(ctx, "unknown")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	require.NoError(t, store.Close(ctx))
	_, err = svc.GetProfile(ctx, "12345")
	assert.ErrorIs(t, err, domain.ErrDatabaseUnavailable)
}

func TestProfileService_EditUser(t *testing.T) {
	store := newTestStore(t)
	svc := NewProfileService(store, store, nil, store)
	ctx := context.Background()

	updated, err := svc.EditUser(ctx, domain.Document{"_id": "12345", "city": "London"})
	require.NoError(t, err)
	assert.Equal(t, "London", updated["city"])
	assert.Equal(t, "Ada", updated["name"])

	_, err = svc.EditUser(ctx, domain.Document{"city": "Paris"})
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = svc.EditUser(ctx, domain.Document{"_id": "unknown", "city": "Paris"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestProfileService_EditsAreIdempotent(t *testing.T) {
	store := newTestStore(t)
	svc := NewProfileService(store, store, nil, store)
	ctx := context.Background()

	userEdit := domain.Document{"_id": "12345", "name": "Ada Lovelace"}
	first, err := svc.EditUser(ctx, userEdit)
	require.NoError(t, err)
	second, err := svc.EditUser(ctx, userEdit)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	portfolioEdit := domain.Document{"_id": "67890", "strategy": "income"}
	p1, err := svc.EditPortfolio(ctx, portfolioEdit)
	require.NoError(t, err)
	p2, err := svc.EditPortfolio(ctx, portfolioEdit)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
}

func TestProfileService_EditPortfolioErrors(t *testing.T) {
	store := newTestStore(t)
	svc := NewProfileService(store, store, nil, store)
	ctx := context.Background()

	_, err := svc.EditPortfolio(ctx, domain.Document{"_id": 1.5})
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = svc.EditPortfolio(ctx, domain.Document{"_id": "unknown"})
	assert.ErrorIs(t, err, domain.ErrPortfolioNotFound)

	require.NoError(t, store.Close(ctx))
	_, err = svc.EditPortfolio(ctx, domain.Document{"_id": "67890", "strategy": "income"})
	assert.True(t, errors.Is(err, domain.ErrDatabaseUnavailable))
}

func TestProfileService_CacheReadThrough(t *testing.T) {
	store := newTestStore(t)
	c, mr := newTestCache(t)
	svc := NewProfileService(store, store, c, store)
	ctx := context.Background()

	_, err := svc.GetProfile(ctx, "12345")
	require.NoError(t, err)
	assert.True(t, mr.Exists("profile:12345"))

	// a write behind the service's back stays invisible until the entry goes
	_, err = store.UpdateUser(ctx, "12345", domain.Document{"name": "changed"})
	require.NoError(t, err)
	profile, err := svc.GetProfile(ctx, "12345")
	require.NoError(t, err)
	assert.Equal(t, "Ada", profile.Result["name"])
}

func TestProfileService_CachedProfileNotServedWhileStoreDown(t *testing.T) {
	store := newTestStore(t)
	c, mr := newTestCache(t)
	svc := NewProfileService(store, store, c, store)
	ctx := context.Background()

	_, err := svc.GetProfile(ctx, "12345")
	require.NoError(t, err)
	require.True(t, mr.Exists("profile:12345"))

	require.NoError(t, store.Close(ctx))
	profile, err := svc.GetProfile(ctx, "12345")
	assert.ErrorIs(t, err, domain.ErrDatabaseUnavailable)
	assert.Nil(t, profile)
}

func TestProfileService_PingFailureIsDatabaseUnavailable(t *testing.T) {
	store := newTestStore(t)
	c, _ := newTestCache(t)
	down := errors.New("server selection timeout")
	svc := NewProfileService(store, store, c, pingFunc(func(context.Context) error { return down }))
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "12345", &domain.Profile{Result: domain.Document{"_id": "12345"}}))

	_, err := svc.GetProfile(ctx, "12345")
	assert.ErrorIs(t, err, domain.ErrDatabaseUnavailable)
	assert.ErrorIs(t, err, down)
}

func TestProfileService_MovingPortfolioInvalidatesBothOwners(t *testing.T) {
	store := newTestStore(t)
	c, mr := newTestCache(t)
	svc := NewProfileService(store, store, c, store)
	ctx := context.Background()
	_, err := store.InsertUser(ctx, domain.Document{"_id": "999", "name": "Grace"})
	require.NoError(t, err)

	_, err = svc.GetProfile(ctx, "12345")
	require.NoError(t, err)
	_, err = svc.GetProfile(ctx, "999")
	require.NoError(t, err)

	_, err = svc.EditPortfolio(ctx, domain.Document{"_id": "67890", "userId": "999"})
	require.NoError(t, err)
	assert.False(t, mr.Exists("profile:12345"))
	assert.False(t, mr.Exists("profile:999"))

	previous, err := svc.GetProfile(ctx, "12345")
	require.NoError(t, err)
	assert.Nil(t, previous.Portfolio)

	current, err := svc.GetProfile(ctx, "999")
	require.NoError(t, err)
	assert.Equal(t, "67890", current.Portfolio["_id"])
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestProfileService_EditsInvalidateCache(t *testing.T) {
	store := newTestStore(t)
	c, mr := newTestCache(t)
	svc := NewProfileService(store, store, c, store)
	ctx := context.Background()

	_, err := svc.GetProfile(ctx, "12345")
	require.NoError(t, err)
	_, err = svc.EditUser(ctx, domain.Document{"_id": "12345", "name": "Ada Lovelace"})
	require.NoError(t, err)
	assert.False(t, mr.Exists("profile:12345"))

	profile, err := svc.GetProfile(ctx, "12345")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", profile.Result["name"])

	_, err = svc.EditPortfolio(ctx, domain.Document{"_id": "67890", "strategy": "income"})
	require.NoError(t, err)
	assert.False(t, mr.Exists("profile:12345"), "portfolio edit must drop the owner's profile")
}

func TestProfileService_CacheOutageFallsBackToStore(t *testing.T) {
	store := newTestStore(t)
	c, mr := newTestCache(t)
	svc := NewProfileService(store, store, c, store)
	mr.Close()

	profile, err := svc.GetProfile(context.Background(), "12345")
	require.NoError(t, err)
	assert.Equal(t, "Ada", profile.Result["name"])
}
