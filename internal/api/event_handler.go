package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"userflow/internal/domain"
	"userflow/pkg/logger"
)

type EventHandler struct {
	service domain.EventStoreService
	logger  logger.Logger
}

func NewEventHandler(service domain.EventStoreService, logger logger.Logger) *EventHandler {
	return &EventHandler{
		service: service,
		logger:  logger,
	}
}

// GetUserEvents returns the event stream of a single user in version order.
func (h *EventHandler) GetUserEvents(w http.ResponseWriter, r *http.Request) {
	idStr := r.URL.Query().Get("id")
	if idStr == "" {
		h.logger.Error("ID parametresi eksik", map[string]interface{}{})
		http.Error(w, "ID parametresi eksik", http.StatusBadRequest)
		return
	}

	if _, err := strconv.ParseInt(idStr, 10, 64); err != nil {
		h.logger.Error("Geçersiz ID formatı", map[string]interface{}{"error": err.Error()})
		http.Error(w, "Geçersiz ID formatı", http.StatusBadRequest)
		return
	}

	events, err := h.service.GetAggregateEvents(domain.AggregateTypeUser, idStr)
	if err != nil {
		h.logger.Error("Kullanıcı eventleri alınamadı", map[string]interface{}{"id": idStr, "error": err.Error()})
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(events)
}

// GetEvents filters the store by event type or by a created_at window.
func (h *EventHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	typeStr := r.URL.Query().Get("type")
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	var events []*domain.Event
	var err error

	switch {
	case typeStr != "":
		eventType := domain.EventType(typeStr)
		switch eventType {
		case domain.EventTypeUserCreated, domain.EventTypeUserUpdated, domain.EventTypeUserDeleted:
		default:
			h.logger.Error("Geçersiz event tipi", map[string]interface{}{"type": typeStr})
			http.Error(w, "Geçersiz event tipi. Geçerli değerler: user_created, user_updated, user_deleted", http.StatusBadRequest)
			return
		}
		events, err = h.service.GetEventsByType(eventType)

	case startStr != "" && endStr != "":
		var start, end time.Time
		start, err = time.Parse(time.RFC3339, startStr)
		if err != nil {
			h.logger.Error("Geçersiz start formatı", map[string]interface{}{"error": err.Error()})
			http.Error(w, "Geçersiz start formatı, RFC3339 bekleniyor", http.StatusBadRequest)
			return
		}
		end, err = time.Parse(time.RFC3339, endStr)
		if err != nil {
			h.logger.Error("Geçersiz end formatı", map[string]interface{}{"error": err.Error()})
			http.Error(w, "Geçersiz end formatı, RFC3339 bekleniyor", http.StatusBadRequest)
			return
		}
		events, err = h.service.GetEventsByTimeRange(start, end)

	default:
		http.Error(w, "type veya start/end parametreleri eksik", http.StatusBadRequest)
		return
	}

	if err != nil {
		h.logger.Error("Eventler alınamadı", map[string]interface{}{"error": err.Error()})
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(events)
}

func (h *EventHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/users/events", h.GetUserEvents)
	mux.HandleFunc("GET /api/events", h.GetEvents)
}
