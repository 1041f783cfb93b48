package service

import (
	"fmt"
	"time"

	"userflow/internal/concurrent"
	"userflow/internal/domain"
	"userflow/pkg/fallback"
	"userflow/pkg/logger"
)

const (
	auditWorkers   = 5
	auditQueueSize = 100
)

type AuditLogService struct {
	repo     domain.AuditLogRepository
	pool     *concurrent.WorkerPool
	fallback *fallback.FallbackManager
	logger   logger.Logger
}

func NewAuditLogService(repo domain.AuditLogRepository, fm *fallback.FallbackManager, logger logger.Logger) domain.AuditLogService {
	s := &AuditLogService{
		repo:     repo,
		fallback: fm,
		logger:   logger,
	}

	s.pool = concurrent.NewWorkerPool(auditWorkers, auditQueueSize, s.process, logger)
	s.pool.Start()

	return s
}

// process is the worker pool handler. Failed writes are handed to the retry
// queue so an audit entry is only lost after the retries are exhausted.
func (s *AuditLogService) process(entry *domain.AuditLog) error {
	err := s.repo.Create(entry)
	if err != nil && s.fallback != nil {
		s.fallback.QueueRetry(&fallback.RetryItem{
			ID:         fmt.Sprintf("audit:%s:%d:%d", entry.EntityType, entry.EntityID, time.Now().UnixNano()),
			Function:   func() error { return s.repo.Create(entry) },
			MaxRetries: 3,
			Interval:   2 * time.Second,
		})
	}

	return err
}

func (s *AuditLogService) LogAction(entityType domain.EntityType, entityID int64, action domain.ActionType, details string) error {
	auditLog := &domain.AuditLog{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Details:    details,
		CreatedAt:  time.Now(),
	}

	if err := s.repo.Create(auditLog); err != nil {
		s.logger.Error("Denetim kaydı oluşturulamadı", map[string]interface{}{
			"entity_type": entityType,
			"entity_id":   entityID,
			"action":      action,
			"error":       err.Error(),
		})
		return fmt.Errorf("denetim kaydı oluşturulamadı: %w", err)
	}

	return nil
}

// LogActionAsync queues the entry for a pool worker and never blocks the
// caller. When the queue is full the write happens synchronously instead.
func (s *AuditLogService) LogActionAsync(entityType domain.EntityType, entityID int64, action domain.ActionType, details string) {
	auditLog := &domain.AuditLog{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Details:    details,
		CreatedAt:  time.Now(),
	}

	if s.pool.Submit(auditLog) {
		return
	}

	if err := s.repo.Create(auditLog); err != nil {
		s.logger.Error("Denetim kaydı oluşturulamadı", map[string]interface{}{
			"entity_type": entityType,
			"entity_id":   entityID,
			"action":      action,
			"error":       err.Error(),
		})
	}
}

func (s *AuditLogService) GetEntityLogs(entityType domain.EntityType, entityID int64) ([]*domain.AuditLog, error) {
	logs, err := s.repo.FindByEntityID(entityType, entityID)
	if err != nil {
		s.logger.Error("Denetim kayıtları bulunamadı", map[string]interface{}{
			"entity_type": entityType,
			"entity_id":   entityID,
			"error":       err.Error(),
		})
		return nil, fmt.Errorf("denetim kayıtları bulunamadı: %w", err)
	}

	return logs, nil
}

func (s *AuditLogService) GetAllLogs(page, pageSize int) ([]*domain.AuditLog, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	offset := (page - 1) * pageSize
	limit := pageSize

	logs, err := s.repo.FindAll(limit, offset)
	if err != nil {
		s.logger.Error("Denetim kayıtları bulunamadı", map[string]interface{}{
			"page":      page,
			"page_size": pageSize,
			"error":     err.Error(),
		})
		return nil, fmt.Errorf("denetim kayıtları bulunamadı: %w", err)
	}

	return logs, nil
}

// Shutdown drains the pending queue before returning.
func (s *AuditLogService) Shutdown() {
	s.pool.Stop()
}
