package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"userflow/pkg/factory"
	"userflow/pkg/logger"
)

type HealthHandler struct {
	factory factory.Factory
	logger  logger.Logger
}

type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Services  map[string]interface{} `json:"services"`
	Version   string                 `json:"version"`
}

func NewHealthHandler(factory factory.Factory, logger logger.Logger) *HealthHandler {
	return &HealthHandler{
		factory: factory,
		logger:  logger,
	}
}

func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	services := make(map[string]interface{})

	services["database"] = h.checkDatabaseHealth(r.Context())

	services["redis"] = h.checkRedisHealth(r.Context())

	if cm := h.factory.GetConnectionManager(); cm != nil {
		services["connection_manager"] = cm.GetStats()
	}

	if fm := h.factory.GetFallbackManager(); fm != nil {
		services["fallback_manager"] = fm.GetStats()
	}

	services["cache"] = h.checkCacheHealth(r.Context())

	// Disabled components do not degrade the overall status.
	status := "healthy"
	for _, service := range services {
		if serviceMap, ok := service.(map[string]interface{}); ok {
			if serviceStatus, exists := serviceMap["status"]; exists {
				if serviceStatus == "unhealthy" {
					status = "degraded"
					break
				}
			}
		}
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Services:  services,
		Version:   "1.0.0",
	}

	if status == "healthy" {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	json.NewEncoder(w).Encode(response)
}

func (h *HealthHandler) checkDatabaseHealth(ctx context.Context) map[string]interface{} {
	cm := h.factory.GetConnectionManager()
	if cm == nil {
		return map[string]interface{}{
			"status": "unhealthy",
			"error":  "database connection is nil",
		}
	}

	// Ping goes through the circuit breaker, so an open breaker shows up here.
	if err := cm.Ping(ctx); err != nil {
		return map[string]interface{}{
			"status": "unhealthy",
			"error":  err.Error(),
		}
	}

	stats := cm.GetWriteDB().Stats()
	return map[string]interface{}{
		"status":           "healthy",
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"idle":             stats.Idle,
		"wait_count":       stats.WaitCount,
		"wait_duration":    stats.WaitDuration.String(),
	}
}

func (h *HealthHandler) checkRedisHealth(ctx context.Context) map[string]interface{} {
	client := h.factory.GetRedisClient()
	if client == nil {
		return map[string]interface{}{
			"status": "disabled",
		}
	}

	_, err := client.Ping(ctx).Result()
	if err != nil {
		return map[string]interface{}{
			"status": "unhealthy",
			"error":  err.Error(),
		}
	}

	poolStats := client.PoolStats()
	return map[string]interface{}{
		"status":      "healthy",
		"hits":        poolStats.Hits,
		"misses":      poolStats.Misses,
		"timeouts":    poolStats.Timeouts,
		"total_conns": poolStats.TotalConns,
		"idle_conns":  poolStats.IdleConns,
		"stale_conns": poolStats.StaleConns,
	}
}

func (h *HealthHandler) checkCacheHealth(ctx context.Context) map[string]interface{} {
	cache := h.factory.GetCache()
	if cache == nil {
		return map[string]interface{}{
			"status": "disabled",
		}
	}

	testKey := "health_check_test"
	testValue := "test"

	err := cache.Set(ctx, testKey, testValue, time.Minute)
	if err != nil {
		return map[string]interface{}{
			"status": "unhealthy",
			"error":  "cache set failed: " + err.Error(),
		}
	}

	var result interface{}
	err = cache.Get(ctx, testKey, &result)
	if err != nil {
		return map[string]interface{}{
			"status": "unhealthy",
			"error":  "cache get failed: " + err.Error(),
		}
	}

	cache.Delete(ctx, testKey)

	return map[string]interface{}{
		"status": "healthy",
	}
}

func (h *HealthHandler) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now(),
	})
}

func (h *HealthHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ready := true
	issues := make([]string, 0)

	if cm := h.factory.GetConnectionManager(); cm != nil {
		if err := cm.Ping(r.Context()); err != nil {
			ready = false
			issues = append(issues, "database: "+err.Error())
		}
	} else {
		ready = false
		issues = append(issues, "database: connection is nil")
	}

	// Redis only blocks readiness when it is configured.
	if client := h.factory.GetRedisClient(); client != nil {
		if _, err := client.Ping(r.Context()).Result(); err != nil {
			ready = false
			issues = append(issues, "redis: "+err.Error())
		}
	}

	response := map[string]interface{}{
		"timestamp": time.Now(),
	}

	if ready {
		response["status"] = "ready"
		w.WriteHeader(http.StatusOK)
	} else {
		response["status"] = "not_ready"
		response["issues"] = issues
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	json.NewEncoder(w).Encode(response)
}
