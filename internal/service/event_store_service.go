package service

import (
	"fmt"
	"time"

	"userflow/internal/domain"
	"userflow/pkg/logger"
)

type EventStoreService struct {
	repo   domain.EventStoreRepository
	logger logger.Logger
}

func NewEventStoreService(repo domain.EventStoreRepository, logger logger.Logger) domain.EventStoreService {
	return &EventStoreService{
		repo:   repo,
		logger: logger,
	}
}

// SaveEvent appends an event to its aggregate stream. The caller assigns the
// version; anything other than last version plus one is rejected so two
// writers cannot interleave their streams.
func (s *EventStoreService) SaveEvent(event *domain.Event) error {
	if event.AggregateID == "" || event.AggregateType == "" {
		return fmt.Errorf("aggregate kimliği ve tipi zorunludur")
	}

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	lastVersion, err := s.repo.GetLastVersion(event.AggregateType, event.AggregateID)
	if err != nil {
		s.logger.Error("Son versiyon alınamadı", map[string]interface{}{
			"aggregate_id":   event.AggregateID,
			"aggregate_type": event.AggregateType,
			"error":          err.Error(),
		})
		return err
	}

	if event.Version != lastVersion+1 {
		s.logger.Error("Versiyon uyumsuzluğu", map[string]interface{}{
			"aggregate_id":     event.AggregateID,
			"expected_version": lastVersion + 1,
			"actual_version":   event.Version,
		})
		return domain.ErrConcurrentModification
	}

	if err := s.repo.Save(event); err != nil {
		s.logger.Error("Event kaydedilemedi", map[string]interface{}{
			"aggregate_id": event.AggregateID,
			"event_type":   event.EventType,
			"error":        err.Error(),
		})
		return err
	}

	return nil
}

func (s *EventStoreService) GetAggregateEvents(aggregateType string, aggregateID string) ([]*domain.Event, error) {
	events, err := s.repo.GetEvents(aggregateType, aggregateID)
	if err != nil {
		s.logger.Error("Aggregate eventleri alınamadı", map[string]interface{}{
			"aggregate_type": aggregateType,
			"aggregate_id":   aggregateID,
			"error":          err.Error(),
		})
		return nil, err
	}

	return events, nil
}

func (s *EventStoreService) GetEventsByType(eventType domain.EventType) ([]*domain.Event, error) {
	events, err := s.repo.GetEventsByType(eventType)
	if err != nil {
		s.logger.Error("Event tipine göre eventler alınamadı", map[string]interface{}{
			"event_type": eventType,
			"error":      err.Error(),
		})
		return nil, err
	}

	return events, nil
}

func (s *EventStoreService) GetEventsByTimeRange(startTime, endTime time.Time) ([]*domain.Event, error) {
	events, err := s.repo.GetEventsByTimeRange(startTime, endTime)
	if err != nil {
		s.logger.Error("Zaman aralığına göre eventler alınamadı", map[string]interface{}{
			"start_time": startTime,
			"end_time":   endTime,
			"error":      err.Error(),
		})
		return nil, err
	}

	return events, nil
}

// ReplayEvents feeds the stream to handler in version order, stopping at the
// first handler error.
func (s *EventStoreService) ReplayEvents(aggregateType string, aggregateID string, handler func(*domain.Event) error) error {
	events, err := s.GetAggregateEvents(aggregateType, aggregateID)
	if err != nil {
		return err
	}

	for _, event := range events {
		if err := handler(event); err != nil {
			s.logger.Error("Event replay edilemedi", map[string]interface{}{
				"aggregate_id": aggregateID,
				"event_id":     event.ID,
				"error":        err.Error(),
			})
			return err
		}
	}

	return nil
}

func (s *EventStoreService) GetLastVersion(aggregateType string, aggregateID string) (int, error) {
	return s.repo.GetLastVersion(aggregateType, aggregateID)
}
