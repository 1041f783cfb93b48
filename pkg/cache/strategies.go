package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"userflow/pkg/logger"
)

// Cache key constants
const (
	// User cache keys
	UserPrefix     = "user"
	UserByIDKey    = "user:id:%d"
	UserByEmailKey = "user:email:%s"

	// Role cache keys
	RolePrefix    = "role"
	RoleByIDKey   = "role:id:%d"
	RoleByNameKey = "role:name:%s"
	RoleExistsKey = "role:exists:%d"
	AllRolesKey   = "roles:all"

	// Audit log cache keys
	AuditPrefix      = "audit"
	AuditByEntityKey = "audit:entity:%s:%d"

	// Event cache keys
	EventPrefix         = "event"
	EventByAggregateKey = "event:aggregate:%s:%s"
	EventByTypeKey      = "event:type:%s"
)

// Cache expiration times
const (
	ShortExpiration    = 5 * time.Minute  // Frequently changing data
	MediumExpiration   = 30 * time.Minute // Moderately changing data
	LongExpiration     = 2 * time.Hour    // Rarely changing data
	VeryLongExpiration = 24 * time.Hour   // Static or rarely updated data
)

// CacheStrategy defines different caching patterns
type CacheStrategy interface {
	// Read-through: Check cache first, if miss then fetch from source and cache it
	ReadThrough(ctx context.Context, key string, dest interface{}, fetchFunc func() (interface{}, error), expiration time.Duration) error

	// Write-through: Write to cache and source simultaneously
	WriteThrough(ctx context.Context, key string, value interface{}, writeFunc func(value interface{}) error, expiration time.Duration) error

	// Write-behind: Write to cache immediately, write to source asynchronously
	WriteBehind(ctx context.Context, key string, value interface{}, writeFunc func(value interface{}) error, expiration time.Duration) error

	// Cache-aside: Manual cache management
	CacheAside(ctx context.Context, key string, dest interface{}, fetchFunc func() (interface{}, error), expiration time.Duration) error
}

// CacheManager implements various caching strategies
type CacheManager struct {
	cache  Cache
	logger logger.Logger
}

// NewCacheManager creates a new cache manager
func NewCacheManager(cache Cache, logger logger.Logger) CacheStrategy {
	return &CacheManager{
		cache:  cache,
		logger: logger,
	}
}

// ReadThrough implements read-through caching pattern
func (cm *CacheManager) ReadThrough(ctx context.Context, key string, dest interface{}, fetchFunc func() (interface{}, error), expiration time.Duration) error {
	err := cm.cache.Get(ctx, key, dest)
	if err == nil {
		cm.logger.Debug("Cache hit for read-through", map[string]interface{}{"key": key})
		return nil
	}

	if err != ErrCacheMiss {
		// Real error, not just cache miss; still fall through to the source
		cm.logger.Error("Cache error in read-through", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}

	cm.logger.Debug("Cache miss, fetching from source", map[string]interface{}{"key": key})
	data, err := fetchFunc()
	if err != nil {
		cm.logger.Error("Source fetch error in read-through", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return err
	}

	// Store in cache for next time
	if err := cm.cache.Set(ctx, key, data, expiration); err != nil {
		cm.logger.Error("Cache set error in read-through", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}

	return copyData(data, dest)
}

// WriteThrough implements write-through caching pattern
func (cm *CacheManager) WriteThrough(ctx context.Context, key string, value interface{}, writeFunc func(value interface{}) error, expiration time.Duration) error {
	// Write to source first
	err := writeFunc(value)
	if err != nil {
		cm.logger.Error("Source write error in write-through", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return err
	}

	// Cache failures do not fail the request, the source is already updated
	if err := cm.cache.Set(ctx, key, value, expiration); err != nil {
		cm.logger.Error("Cache set error in write-through", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}

	cm.logger.Debug("Write-through completed", map[string]interface{}{"key": key})
	return nil
}

// WriteBehind implements write-behind caching pattern
func (cm *CacheManager) WriteBehind(ctx context.Context, key string, value interface{}, writeFunc func(value interface{}) error, expiration time.Duration) error {
	// Write to cache immediately
	if err := cm.cache.Set(ctx, key, value, expiration); err != nil {
		cm.logger.Error("Cache set error in write-behind", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return err
	}

	// Write to source asynchronously
	go func() {
		if err := writeFunc(value); err != nil {
			cm.logger.Error("Async source write error in write-behind", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		} else {
			cm.logger.Debug("Async write-behind completed", map[string]interface{}{"key": key})
		}
	}()

	return nil
}

// CacheAside implements cache-aside pattern
func (cm *CacheManager) CacheAside(ctx context.Context, key string, dest interface{}, fetchFunc func() (interface{}, error), expiration time.Duration) error {
	err := cm.cache.Get(ctx, key, dest)
	if err == nil {
		cm.logger.Debug("Cache hit for cache-aside", map[string]interface{}{"key": key})
		return nil
	}

	if err != ErrCacheMiss {
		cm.logger.Error("Cache error in cache-aside", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}

	data, err := fetchFunc()
	if err != nil {
		return err
	}

	if err := cm.cache.Set(ctx, key, data, expiration); err != nil {
		cm.logger.Error("Cache set error in cache-aside", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}

	return copyData(data, dest)
}

// Helper functions for cache key generation
func UserCacheKey(userID int64) string {
	return fmt.Sprintf(UserByIDKey, userID)
}

func UserCacheKeyByEmail(email string) string {
	return fmt.Sprintf(UserByEmailKey, email)
}

func RoleCacheKey(roleID int64) string {
	return fmt.Sprintf(RoleByIDKey, roleID)
}

func RoleCacheKeyByName(name string) string {
	return fmt.Sprintf(RoleByNameKey, name)
}

func RoleExistsCacheKey(roleID int64) string {
	return fmt.Sprintf(RoleExistsKey, roleID)
}

func AuditEntityCacheKey(entityType string, entityID int64) string {
	return fmt.Sprintf(AuditByEntityKey, entityType, entityID)
}

func EventCacheKey(aggregateType, aggregateID string) string {
	return fmt.Sprintf(EventByAggregateKey, aggregateType, aggregateID)
}

func EventTypeCacheKey(eventType string) string {
	return fmt.Sprintf(EventByTypeKey, eventType)
}

// Cache invalidation helpers
func InvalidateUserCache(ctx context.Context, cache Cache, userID int64, email string) error {
	keys := []string{
		UserCacheKey(userID),
		UserCacheKeyByEmail(email),
		AuditEntityCacheKey("user", userID),
		EventCacheKey("user", fmt.Sprintf("%d", userID)),
	}
	return cache.DeleteMultiple(ctx, keys)
}

func InvalidateRoleCache(ctx context.Context, cache Cache, roleID int64, name string) error {
	keys := []string{
		RoleCacheKey(roleID),
		RoleCacheKeyByName(name),
		RoleExistsCacheKey(roleID),
		AllRolesKey,
	}
	return cache.DeleteMultiple(ctx, keys)
}

// copyData moves a fetched value into the caller's destination, falling back
// to a JSON round trip for typed destinations.
func copyData(src, dest interface{}) error {
	switch d := dest.(type) {
	case *interface{}:
		*d = src
		return nil
	default:
		data, err := json.Marshal(src)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, dest)
	}
}
