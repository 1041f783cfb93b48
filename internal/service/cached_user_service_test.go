package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userflow/internal/domain"
	"userflow/internal/repository"
	"userflow/internal/testutil"
	"userflow/pkg/cache"
	"userflow/pkg/fallback"
)

// fakeCache keeps the cache.Cache contract in process, storing values as JSON
// the way the Redis implementation does.
type fakeCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = data
	return nil
}

func (f *fakeCache) Get(ctx context.Context, key string, dest interface{}) error {
	f.mu.Lock()
	data, ok := f.data[key]
	f.mu.Unlock()

	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (f *fakeCache) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

func (f *fakeCache) Exists(ctx context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[key]
	return ok, nil
}

func (f *fakeCache) DeletePattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")

	f.mu.Lock()
	defer f.mu.Unlock()
	for key := range f.data {
		if strings.HasPrefix(key, prefix) {
			delete(f.data, key)
		}
	}
	return nil
}

func (f *fakeCache) GetKeys(ctx context.Context, pattern string) ([]string, error) {
	prefix := strings.TrimSuffix(pattern, "*")

	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for key := range f.data {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (f *fakeCache) SetMultiple(ctx context.Context, items map[string]interface{}, expiration time.Duration) error {
	for key, value := range items {
		if err := f.Set(ctx, key, value, expiration); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeCache) GetMultiple(ctx context.Context, keys []string) (map[string]interface{}, error) {
	result := make(map[string]interface{})

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		if data, ok := f.data[key]; ok {
			var value interface{}
			if err := json.Unmarshal(data, &value); err == nil {
				result[key] = value
			}
		}
	}
	return result, nil
}

func (f *fakeCache) DeleteMultiple(ctx context.Context, keys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeCache) WarmUp(ctx context.Context, warmUpFunc func(ctx context.Context) error) error {
	return warmUpFunc(ctx)
}

func (f *fakeCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	return f.DeletePattern(ctx, prefix+"*")
}

func (f *fakeCache) Ping(ctx context.Context) error { return nil }

type cachedUserFixture struct {
	db    *sql.DB
	cache *fakeCache
	svc   domain.UserService
}

func newCachedUserFixture(t *testing.T) *cachedUserFixture {
	t.Helper()

	db := testutil.NewTestDB(t)
	log := testutil.NewLogger()

	fm := fallback.NewFallbackManager(log)
	t.Cleanup(fm.Close)

	eventSvc := NewEventStoreService(repository.NewEventStoreRepository(db, log), log)
	roleSvc := NewRoleService(repository.NewRoleRepository(db, log), fm, log)
	auditSvc := NewAuditLogService(repository.NewAuditLogRepository(db, log), fm, log)
	t.Cleanup(auditSvc.Shutdown)
	base := NewUserService(repository.NewUserRepository(db, log), roleSvc, auditSvc, eventSvc, log)

	fc := newFakeCache()
	return &cachedUserFixture{
		db:    db,
		cache: fc,
		svc:   NewCachedUserService(base, fc, cache.NewCacheManager(fc, log), log),
	}
}

func TestCachedUserServiceServesFromCache(t *testing.T) {
	f := newCachedUserFixture(t)

	created, err := f.svc.CreateUser(upsert("a@x.com", "Ali Veli", 1))
	require.NoError(t, err)

	// Remove the row behind the cache's back; the primed entries still answer.
	_, err = f.db.Exec("DELETE FROM users WHERE id = $1", created.ID)
	require.NoError(t, err)

	got, err := f.svc.GetUserByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", got.Email)

	// Cached copies never carry the password.
	assert.Empty(t, got.Password)

	byEmail, err := f.svc.GetUserByEmail("a@x.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
}

func TestCachedUserServiceDeleteInvalidates(t *testing.T) {
	f := newCachedUserFixture(t)

	created, err := f.svc.CreateUser(upsert("a@x.com", "Ali Veli", 1))
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteUser(created.ID))

	_, err = f.svc.GetUserByID(created.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = f.svc.GetUserByEmail("a@x.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestCachedUserServiceUpdateMovesEmailKey(t *testing.T) {
	f := newCachedUserFixture(t)

	created, err := f.svc.CreateUser(upsert("a@x.com", "Ali Veli", 1))
	require.NoError(t, err)

	updated, err := f.svc.UpdateUser(created.ID, upsert("yeni@x.com", "Ali Veli", 1))
	require.NoError(t, err)
	require.Equal(t, "yeni@x.com", updated.Email)

	// The stale email key is dropped, so the lookup reaches the source.
	_, err = f.svc.GetUserByEmail("a@x.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	got, err := f.svc.GetUserByEmail("yeni@x.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	// The id entry was refreshed by the write-through.
	_, err = f.db.Exec("DELETE FROM users WHERE id = $1", created.ID)
	require.NoError(t, err)

	got, err = f.svc.GetUserByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "yeni@x.com", got.Email)
}
