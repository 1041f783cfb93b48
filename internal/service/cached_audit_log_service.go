package service

import (
	"context"

	"userflow/internal/domain"
	"userflow/pkg/cache"
	"userflow/pkg/logger"
)

// CachedAuditLogService caches per entity log reads briefly. Log writes
// invalidate the entity key so a follow up read refetches the fresh trail.
type CachedAuditLogService struct {
	auditService domain.AuditLogService
	cache        cache.Cache
	cacheManager cache.CacheStrategy
	logger       logger.Logger
}

func NewCachedAuditLogService(
	auditService domain.AuditLogService,
	cacheInstance cache.Cache,
	cacheManager cache.CacheStrategy,
	logger logger.Logger,
) domain.AuditLogService {
	return &CachedAuditLogService{
		auditService: auditService,
		cache:        cacheInstance,
		cacheManager: cacheManager,
		logger:       logger,
	}
}

func (s *CachedAuditLogService) LogAction(entityType domain.EntityType, entityID int64, action domain.ActionType, details string) error {
	if err := s.auditService.LogAction(entityType, entityID, action, details); err != nil {
		return err
	}

	s.invalidateEntity(entityType, entityID)
	return nil
}

func (s *CachedAuditLogService) LogActionAsync(entityType domain.EntityType, entityID int64, action domain.ActionType, details string) {
	s.auditService.LogActionAsync(entityType, entityID, action, details)
	s.invalidateEntity(entityType, entityID)
}

func (s *CachedAuditLogService) GetEntityLogs(entityType domain.EntityType, entityID int64) ([]*domain.AuditLog, error) {
	ctx := context.Background()
	key := cache.AuditEntityCacheKey(string(entityType), entityID)

	var logs []*domain.AuditLog
	err := s.cacheManager.CacheAside(ctx, key, &logs, func() (interface{}, error) {
		return s.auditService.GetEntityLogs(entityType, entityID)
	}, cache.ShortExpiration)

	if err != nil {
		return nil, err
	}

	return logs, nil
}

// GetAllLogs is paginated and admin facing; it always reads the source.
func (s *CachedAuditLogService) GetAllLogs(page, pageSize int) ([]*domain.AuditLog, error) {
	return s.auditService.GetAllLogs(page, pageSize)
}

func (s *CachedAuditLogService) Shutdown() {
	s.auditService.Shutdown()
}

func (s *CachedAuditLogService) invalidateEntity(entityType domain.EntityType, entityID int64) {
	ctx := context.Background()
	key := cache.AuditEntityCacheKey(string(entityType), entityID)

	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.Error("Denetim cache anahtarı silinemedi", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}
