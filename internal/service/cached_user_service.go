package service

import (
	"context"

	"userflow/internal/domain"
	"userflow/pkg/cache"
	"userflow/pkg/logger"
)

// CachedUserService wraps UserService with Redis caching. Cached copies never
// contain the password; it is excluded from serialization, so a cache hit
// returns a passwordless record.
type CachedUserService struct {
	userService  domain.UserService
	cache        cache.Cache
	cacheManager cache.CacheStrategy
	logger       logger.Logger
}

// NewCachedUserService creates a new cached user service
func NewCachedUserService(
	userService domain.UserService,
	cacheInstance cache.Cache,
	cacheManager cache.CacheStrategy,
	logger logger.Logger,
) domain.UserService {
	return &CachedUserService{
		userService:  userService,
		cache:        cacheInstance,
		cacheManager: cacheManager,
		logger:       logger,
	}
}

func (s *CachedUserService) GetUserByID(id int64) (*domain.User, error) {
	ctx := context.Background()
	key := cache.UserCacheKey(id)

	var user *domain.User
	err := s.cacheManager.ReadThrough(ctx, key, &user, func() (interface{}, error) {
		return s.userService.GetUserByID(id)
	}, cache.LongExpiration)

	if err != nil {
		return nil, err
	}

	return user, nil
}

func (s *CachedUserService) GetUserByEmail(email string) (*domain.User, error) {
	ctx := context.Background()
	key := cache.UserCacheKeyByEmail(email)

	var user *domain.User
	err := s.cacheManager.ReadThrough(ctx, key, &user, func() (interface{}, error) {
		return s.userService.GetUserByEmail(email)
	}, cache.LongExpiration)

	if err != nil {
		return nil, err
	}

	return user, nil
}

func (s *CachedUserService) CreateUser(input *domain.UpsertUser) (*domain.User, error) {
	ctx := context.Background()

	user, err := s.userService.CreateUser(input)
	if err != nil {
		return nil, err
	}

	// Prime both lookup keys; the id is only known after the insert.
	if setErr := s.cache.Set(ctx, cache.UserCacheKey(user.ID), user, cache.LongExpiration); setErr != nil {
		s.logger.Error("Kullanıcı cache'e yazılamadı", map[string]interface{}{
			"user_id": user.ID,
			"error":   setErr.Error(),
		})
	}

	if setErr := s.cache.Set(ctx, cache.UserCacheKeyByEmail(user.Email), user, cache.LongExpiration); setErr != nil {
		s.logger.Error("Kullanıcı cache'e yazılamadı", map[string]interface{}{
			"email": user.Email,
			"error": setErr.Error(),
		})
	}

	return user, nil
}

func (s *CachedUserService) UpdateUser(id int64, input *domain.UpsertUser) (*domain.User, error) {
	ctx := context.Background()

	// Old record is needed to drop the stale email key after the update.
	oldUser, _ := s.userService.GetUserByID(id)

	var updated *domain.User
	err := s.cacheManager.WriteThrough(ctx, cache.UserCacheKey(id), &updated, func(value interface{}) error {
		user, err := s.userService.UpdateUser(id, input)
		if err != nil {
			return err
		}
		updated = user
		return nil
	}, cache.LongExpiration)

	if err != nil {
		return nil, err
	}

	if oldUser != nil && oldUser.Email != updated.Email {
		if delErr := s.cache.Delete(ctx, cache.UserCacheKeyByEmail(oldUser.Email)); delErr != nil {
			s.logger.Error("Eski e-posta cache anahtarı silinemedi", map[string]interface{}{
				"email": oldUser.Email,
				"error": delErr.Error(),
			})
		}
	}

	if setErr := s.cache.Set(ctx, cache.UserCacheKeyByEmail(updated.Email), updated, cache.LongExpiration); setErr != nil {
		s.logger.Error("Kullanıcı cache'e yazılamadı", map[string]interface{}{
			"email": updated.Email,
			"error": setErr.Error(),
		})
	}

	return updated, nil
}

func (s *CachedUserService) DeleteUser(id int64) error {
	ctx := context.Background()

	user, _ := s.userService.GetUserByID(id)

	if err := s.userService.DeleteUser(id); err != nil {
		return err
	}

	email := ""
	if user != nil {
		email = user.Email
	}

	if cacheErr := cache.InvalidateUserCache(ctx, s.cache, id, email); cacheErr != nil {
		s.logger.Error("Kullanıcı cache'i temizlenemedi", map[string]interface{}{
			"user_id": id,
			"error":   cacheErr.Error(),
		})
	}

	return nil
}
