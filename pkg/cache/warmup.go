package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"userflow/internal/domain"
	"userflow/pkg/logger"
)

// WarmUpManager handles cache warming strategies
type WarmUpManager struct {
	cache       Cache
	logger      logger.Logger
	userService domain.UserService
	roleService domain.RoleService
}

// NewWarmUpManager creates a new warm-up manager
func NewWarmUpManager(
	cache Cache,
	logger logger.Logger,
	userService domain.UserService,
	roleService domain.RoleService,
) *WarmUpManager {
	return &WarmUpManager{
		cache:       cache,
		logger:      logger,
		userService: userService,
		roleService: roleService,
	}
}

// WarmUpRoles caches the whole role registry. Roles only change by
// migration, so the entries get the longest expiration.
func (w *WarmUpManager) WarmUpRoles(ctx context.Context) error {
	w.logger.Info("Rol cache warm-up başlatılıyor", map[string]interface{}{})

	roles, err := w.roleService.ListRoles()
	if err != nil {
		return err
	}

	if err := w.cache.Set(ctx, AllRolesKey, roles, VeryLongExpiration); err != nil {
		return err
	}

	for _, role := range roles {
		if err := w.cache.Set(ctx, RoleCacheKey(role.ID), role, VeryLongExpiration); err != nil {
			w.logger.Error("Rol cache set hatası", map[string]interface{}{
				"role_id": role.ID,
				"error":   err.Error(),
			})
			continue
		}

		if err := w.cache.Set(ctx, RoleCacheKeyByName(role.Name), role, VeryLongExpiration); err != nil {
			w.logger.Error("Rol cache set hatası", map[string]interface{}{
				"role":  role.Name,
				"error": err.Error(),
			})
		}

		if err := w.cache.Set(ctx, RoleExistsCacheKey(role.ID), true, VeryLongExpiration); err != nil {
			w.logger.Error("Rol cache set hatası", map[string]interface{}{
				"role_id": role.ID,
				"error":   err.Error(),
			})
		}
	}

	w.logger.Info("Rol cache warm-up tamamlandı", map[string]interface{}{"roles": len(roles)})
	return nil
}

// WarmUpUserData caches a single user under both lookup keys.
func (w *WarmUpManager) WarmUpUserData(ctx context.Context, userID int64) error {
	user, err := w.userService.GetUserByID(userID)
	if err != nil {
		return err
	}

	if err := w.cache.Set(ctx, UserCacheKey(userID), user, LongExpiration); err != nil {
		return err
	}

	if user.Email != "" {
		if err := w.cache.Set(ctx, UserCacheKeyByEmail(user.Email), user, LongExpiration); err != nil {
			return err
		}
	}

	w.logger.Debug("User cache warmed up", map[string]interface{}{"user_id": userID})
	return nil
}

// WarmUpUsers warms a set of users with bounded concurrency. Unknown ids are
// skipped silently so stale id lists do not fail the whole pass.
func (w *WarmUpManager) WarmUpUsers(ctx context.Context, userIDs []int64) error {
	w.logger.Info("User warm-up başlatılıyor", map[string]interface{}{"count": len(userIDs)})

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, 5)

	for _, id := range userIDs {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if err := w.WarmUpUserData(ctx, userID); err != nil {
				if errors.Is(err, domain.ErrUserNotFound) {
					w.logger.Debug("Warm-up atlandı, kullanıcı yok", map[string]interface{}{"user_id": userID})
					return
				}
				w.logger.Error("User warm-up hatası", map[string]interface{}{
					"user_id": userID,
					"error":   err.Error(),
				})
			}
		}(id)
	}

	wg.Wait()
	w.logger.Info("User warm-up tamamlandı", map[string]interface{}{"count": len(userIDs)})
	return nil
}

// ScheduledWarmUp re-warms the role registry on a fixed interval until the
// context is cancelled.
func (w *WarmUpManager) ScheduledWarmUp(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.logger.Info("Scheduled warm-up başlatıldı", map[string]interface{}{
		"interval": interval,
	})

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Scheduled warm-up durduruldu", map[string]interface{}{})
			return
		case <-ticker.C:
			if err := w.WarmUpRoles(ctx); err != nil {
				w.logger.Error("Scheduled warm-up hatası", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}
	}
}
