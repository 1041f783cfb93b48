package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userflow/internal/domain"
)

type staticRoleService struct {
	roles []*domain.Role
}

func (s *staticRoleService) GetRoleByID(id int64) (*domain.Role, error) {
	for _, role := range s.roles {
		if role.ID == id {
			return role, nil
		}
	}
	return nil, domain.ErrRoleNotFound
}

func (s *staticRoleService) GetRoleByName(name string) (*domain.Role, error) {
	for _, role := range s.roles {
		if role.Name == name {
			return role, nil
		}
	}
	return nil, domain.ErrRoleNotFound
}

func (s *staticRoleService) ListRoles() ([]*domain.Role, error) {
	return s.roles, nil
}

func (s *staticRoleService) RoleExists(id int64) (bool, error) {
	for _, role := range s.roles {
		if role.ID == id {
			return true, nil
		}
	}
	return false, nil
}

type staticUserService struct {
	users map[int64]*domain.User
}

func (s *staticUserService) GetUserByID(id int64) (*domain.User, error) {
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

func (s *staticUserService) GetUserByEmail(email string) (*domain.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *staticUserService) CreateUser(input *domain.UpsertUser) (*domain.User, error) {
	return nil, errors.New("desteklenmiyor")
}

func (s *staticUserService) UpdateUser(id int64, input *domain.UpsertUser) (*domain.User, error) {
	return nil, errors.New("desteklenmiyor")
}

func (s *staticUserService) DeleteUser(id int64) error {
	return errors.New("desteklenmiyor")
}

func registryRoles() []*domain.Role {
	return []*domain.Role{
		{ID: 1, Name: domain.RoleNameAdmin},
		{ID: 2, Name: domain.RoleNameWriter},
		{ID: 3, Name: domain.RoleNameReader},
	}
}

func TestWarmUpRoles(t *testing.T) {
	mc := newMemoryCache()
	wm := NewWarmUpManager(mc, newQuietLogger(), &staticUserService{}, &staticRoleService{roles: registryRoles()})
	ctx := context.Background()

	require.NoError(t, wm.WarmUpRoles(ctx))

	var all []*domain.Role
	require.NoError(t, mc.Get(ctx, AllRolesKey, &all))
	assert.Len(t, all, 3)

	var admin *domain.Role
	require.NoError(t, mc.Get(ctx, RoleCacheKey(1), &admin))
	assert.Equal(t, domain.RoleNameAdmin, admin.Name)

	var reader *domain.Role
	require.NoError(t, mc.Get(ctx, RoleCacheKeyByName(domain.RoleNameReader), &reader))
	assert.Equal(t, int64(3), reader.ID)

	var exists bool
	require.NoError(t, mc.Get(ctx, RoleExistsCacheKey(2), &exists))
	assert.True(t, exists)

	// The list entry plus three keys per role.
	assert.Equal(t, 10, mc.size())
}

func TestWarmUpUserData(t *testing.T) {
	mc := newMemoryCache()
	users := &staticUserService{users: map[int64]*domain.User{
		7: {ID: 7, Email: "a@x.com", Fullname: "Ali Veli", RoleID: 1},
	}}
	wm := NewWarmUpManager(mc, newQuietLogger(), users, &staticRoleService{})
	ctx := context.Background()

	require.NoError(t, wm.WarmUpUserData(ctx, 7))

	var byID *domain.User
	require.NoError(t, mc.Get(ctx, UserCacheKey(7), &byID))
	assert.Equal(t, "a@x.com", byID.Email)

	var byEmail *domain.User
	require.NoError(t, mc.Get(ctx, UserCacheKeyByEmail("a@x.com"), &byEmail))
	assert.Equal(t, int64(7), byEmail.ID)

	assert.ErrorIs(t, wm.WarmUpUserData(ctx, 4242), domain.ErrUserNotFound)
}

func TestWarmUpUsersSkipsUnknownIDs(t *testing.T) {
	mc := newMemoryCache()
	users := &staticUserService{users: map[int64]*domain.User{
		7: {ID: 7, Email: "a@x.com", RoleID: 1},
		9: {ID: 9, Email: "b@x.com", RoleID: 1},
	}}
	wm := NewWarmUpManager(mc, newQuietLogger(), users, &staticRoleService{})
	ctx := context.Background()

	require.NoError(t, wm.WarmUpUsers(ctx, []int64{7, 9, 4242}))

	exists, err := mc.Exists(ctx, UserCacheKey(7))
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = mc.Exists(ctx, UserCacheKey(9))
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = mc.Exists(ctx, UserCacheKey(4242))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestScheduledWarmUpStopsOnCancel(t *testing.T) {
	mc := newMemoryCache()
	wm := NewWarmUpManager(mc, newQuietLogger(), &staticUserService{}, &staticRoleService{roles: registryRoles()})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		wm.ScheduledWarmUp(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		exists, _ := mc.Exists(context.Background(), AllRolesKey)
		return exists
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduled warm-up did not stop")
	}
}
