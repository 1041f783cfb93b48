package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"userflow/internal/domain"
	"userflow/pkg/database"
	"userflow/pkg/logger"
	"userflow/pkg/metrics"
)

type EventStoreRepository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewEventStoreRepository(db *sql.DB, logger logger.Logger) domain.EventStoreRepository {
	return &EventStoreRepository{
		db:     db,
		logger: logger,
	}
}

func (r *EventStoreRepository) Save(event *domain.Event) error {
	start := time.Now()
	defer func() {
		metrics.RecordDatabaseOperation("save", "events", time.Since(start))
	}()

	query := `
		INSERT INTO events (
			aggregate_id, aggregate_type, event_type, event_data, version, created_at, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRow(
		query,
		event.AggregateID,
		event.AggregateType,
		string(event.EventType),
		[]byte(event.EventData),
		event.Version,
		event.CreatedAt,
		[]byte(event.Metadata),
	).Scan(&id)

	if err != nil {
		// The unique (aggregate, version) index catches writers that raced
		// past the optimistic version check.
		if errors.Is(database.TranslateError(err), database.ErrUniqueViolation) {
			return domain.ErrConcurrentModification
		}
		r.logger.Error("Event kaydedilemedi", map[string]interface{}{
			"aggregate_id": event.AggregateID,
			"event_type":   event.EventType,
			"error":        err.Error(),
		})
		return fmt.Errorf("event kaydedilemedi: %w", err)
	}

	event.ID = id
	return nil
}

func (r *EventStoreRepository) GetEvents(aggregateType string, aggregateID string) ([]*domain.Event, error) {
	start := time.Now()
	defer func() {
		metrics.RecordDatabaseOperation("get_events", "events", time.Since(start))
	}()

	query := `
		SELECT id, aggregate_id, aggregate_type, event_type, event_data, version, created_at, metadata
		FROM events
		WHERE aggregate_type = $1 AND aggregate_id = $2
		ORDER BY version ASC
	`

	return r.queryEvents(query, aggregateType, aggregateID)
}

func (r *EventStoreRepository) GetEventsByType(eventType domain.EventType) ([]*domain.Event, error) {
	start := time.Now()
	defer func() {
		metrics.RecordDatabaseOperation("get_events_by_type", "events", time.Since(start))
	}()

	query := `
		SELECT id, aggregate_id, aggregate_type, event_type, event_data, version, created_at, metadata
		FROM events
		WHERE event_type = $1
		ORDER BY created_at ASC
	`

	return r.queryEvents(query, string(eventType))
}

func (r *EventStoreRepository) GetEventsByTimeRange(startTime, endTime time.Time) ([]*domain.Event, error) {
	start := time.Now()
	defer func() {
		metrics.RecordDatabaseOperation("get_events_by_time_range", "events", time.Since(start))
	}()

	query := `
		SELECT id, aggregate_id, aggregate_type, event_type, event_data, version, created_at, metadata
		FROM events
		WHERE created_at BETWEEN $1 AND $2
		ORDER BY created_at ASC
	`

	return r.queryEvents(query, startTime, endTime)
}

func (r *EventStoreRepository) GetLastVersion(aggregateType string, aggregateID string) (int, error) {
	start := time.Now()
	defer func() {
		metrics.RecordDatabaseOperation("get_last_version", "events", time.Since(start))
	}()

	query := `
		SELECT COALESCE(MAX(version), 0)
		FROM events
		WHERE aggregate_type = $1 AND aggregate_id = $2
	`

	var version int
	if err := r.db.QueryRow(query, aggregateType, aggregateID).Scan(&version); err != nil {
		return 0, fmt.Errorf("son event versiyonu okunamadı: %w", err)
	}

	return version, nil
}

func (r *EventStoreRepository) queryEvents(query string, args ...interface{}) ([]*domain.Event, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.logger.Error("Eventler sorgulanamadı", map[string]interface{}{"error": err.Error()})
		return nil, fmt.Errorf("eventler sorgulanamadı: %w", err)
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		event := &domain.Event{}
		var eventTypeStr string
		var eventData, metadata []byte

		err := rows.Scan(
			&event.ID,
			&event.AggregateID,
			&event.AggregateType,
			&eventTypeStr,
			&eventData,
			&event.Version,
			&event.CreatedAt,
			&metadata,
		)
		if err != nil {
			r.logger.Error("Event satırı okunamadı", map[string]interface{}{"error": err.Error()})
			return nil, fmt.Errorf("event satırı okunamadı: %w", err)
		}

		event.EventType = domain.EventType(eventTypeStr)
		event.EventData = eventData
		event.Metadata = metadata
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("eventler okunamadı: %w", err)
	}

	return events, nil
}
