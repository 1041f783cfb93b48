package service

import (
	"context"

	"userflow/internal/domain"
	"userflow/pkg/cache"
	"userflow/pkg/logger"
)

// CachedRoleService wraps RoleService with Redis caching. The registry only
// changes by migration, so entries live long and negative answers are never
// cached; a role seeded later must become visible on the next check.
type CachedRoleService struct {
	roleService  domain.RoleService
	cache        cache.Cache
	cacheManager cache.CacheStrategy
	logger       logger.Logger
}

func NewCachedRoleService(
	roleService domain.RoleService,
	cacheInstance cache.Cache,
	cacheManager cache.CacheStrategy,
	logger logger.Logger,
) domain.RoleService {
	return &CachedRoleService{
		roleService:  roleService,
		cache:        cacheInstance,
		cacheManager: cacheManager,
		logger:       logger,
	}
}

func (s *CachedRoleService) GetRoleByID(id int64) (*domain.Role, error) {
	ctx := context.Background()
	key := cache.RoleCacheKey(id)

	var role *domain.Role
	err := s.cacheManager.ReadThrough(ctx, key, &role, func() (interface{}, error) {
		return s.roleService.GetRoleByID(id)
	}, cache.VeryLongExpiration)

	if err != nil {
		return nil, err
	}

	return role, nil
}

func (s *CachedRoleService) GetRoleByName(name string) (*domain.Role, error) {
	ctx := context.Background()
	key := cache.RoleCacheKeyByName(name)

	var role *domain.Role
	err := s.cacheManager.ReadThrough(ctx, key, &role, func() (interface{}, error) {
		return s.roleService.GetRoleByName(name)
	}, cache.VeryLongExpiration)

	if err != nil {
		return nil, err
	}

	return role, nil
}

func (s *CachedRoleService) ListRoles() ([]*domain.Role, error) {
	ctx := context.Background()

	var roles []*domain.Role
	err := s.cacheManager.ReadThrough(ctx, cache.AllRolesKey, &roles, func() (interface{}, error) {
		return s.roleService.ListRoles()
	}, cache.VeryLongExpiration)

	if err != nil {
		return nil, err
	}

	return roles, nil
}

// RoleExists caches positive answers only.
func (s *CachedRoleService) RoleExists(id int64) (bool, error) {
	ctx := context.Background()
	key := cache.RoleExistsCacheKey(id)

	var exists bool
	if err := s.cache.Get(ctx, key, &exists); err == nil && exists {
		return true, nil
	}

	result, err := s.roleService.RoleExists(id)
	if err != nil {
		return false, err
	}

	if result {
		if setErr := s.cache.Set(ctx, key, true, cache.VeryLongExpiration); setErr != nil {
			s.logger.Error("Rol varlığı cache'e yazılamadı", map[string]interface{}{
				"role_id": id,
				"error":   setErr.Error(),
			})
		}
	}

	return result, nil
}
