package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"userflow/pkg/cache"
	"userflow/pkg/logger"
)

type CacheHandler struct {
	cache         cache.Cache
	warmUpManager *cache.WarmUpManager
	logger        logger.Logger
}

type CacheStatsResponse struct {
	CacheType  string                 `json:"cache_type"`
	TotalKeys  int                    `json:"total_keys"`
	CacheStats map[string]interface{} `json:"cache_stats"`
	Timestamp  time.Time              `json:"timestamp"`
}

type WarmUpRequest struct {
	UserID  *int64  `json:"user_id,omitempty"`
	UserIDs []int64 `json:"user_ids,omitempty"`
	Type    string  `json:"type"` // "user", "users", "roles"
}

type CacheInvalidateRequest struct {
	Pattern *string  `json:"pattern,omitempty"`
	Keys    []string `json:"keys,omitempty"`
	UserID  *int64   `json:"user_id,omitempty"`
	Email   string   `json:"email,omitempty"`
}

func NewCacheHandler(cache cache.Cache, warmUpManager *cache.WarmUpManager, logger logger.Logger) *CacheHandler {
	return &CacheHandler{
		cache:         cache,
		warmUpManager: warmUpManager,
		logger:        logger,
	}
}

func (h *CacheHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/cache/stats", h.handleCacheStats)
	mux.HandleFunc("/api/cache/warmup", h.handleWarmUp)
	mux.HandleFunc("/api/cache/invalidate", h.handleInvalidate)
	mux.HandleFunc("/api/cache/keys", h.handleKeys)
	mux.HandleFunc("/api/cache/health", h.handleHealth)
}

func (h *CacheHandler) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	keys, err := h.cache.GetKeys(r.Context(), "*")
	if err != nil {
		h.logger.Error("Cache keys alınamadı", map[string]interface{}{"error": err.Error()})
		http.Error(w, "Cache stats could not be retrieved", http.StatusInternalServerError)
		return
	}

	stats := CacheStatsResponse{
		CacheType: "Redis",
		TotalKeys: len(keys),
		CacheStats: map[string]interface{}{
			"user_keys":  countKeysByPrefix(keys, cache.UserPrefix),
			"role_keys":  countKeysByPrefix(keys, cache.RolePrefix),
			"audit_keys": countKeysByPrefix(keys, cache.AuditPrefix),
			"event_keys": countKeysByPrefix(keys, cache.EventPrefix),
		},
		Timestamp: time.Now(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

func (h *CacheHandler) handleWarmUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req WarmUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	var err error

	switch req.Type {
	case "user":
		if req.UserID == nil {
			http.Error(w, "user_id is required for user warm-up", http.StatusBadRequest)
			return
		}
		err = h.warmUpManager.WarmUpUserData(ctx, *req.UserID)

	case "users":
		if len(req.UserIDs) == 0 {
			http.Error(w, "user_ids is required for users warm-up", http.StatusBadRequest)
			return
		}
		err = h.warmUpManager.WarmUpUsers(ctx, req.UserIDs)

	case "roles":
		err = h.warmUpManager.WarmUpRoles(ctx)

	default:
		http.Error(w, "Invalid warm-up type. Use: user, users, roles", http.StatusBadRequest)
		return
	}

	if err != nil {
		h.logger.Error("Cache warm-up hatası", map[string]interface{}{
			"type":  req.Type,
			"error": err.Error(),
		})
		http.Error(w, fmt.Sprintf("Warm-up failed: %v", err), http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"status":    "success",
		"type":      req.Type,
		"timestamp": time.Now(),
	}

	if req.UserID != nil {
		response["user_id"] = *req.UserID
	}
	if len(req.UserIDs) > 0 {
		response["user_count"] = len(req.UserIDs)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (h *CacheHandler) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CacheInvalidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	var err error
	var deletedCount int

	if req.Pattern != nil {
		keys, getErr := h.cache.GetKeys(ctx, *req.Pattern)
		if getErr != nil {
			http.Error(w, fmt.Sprintf("Error getting keys: %v", getErr), http.StatusInternalServerError)
			return
		}
		deletedCount = len(keys)
		err = h.cache.DeletePattern(ctx, *req.Pattern)

	} else if len(req.Keys) > 0 {
		deletedCount = len(req.Keys)
		err = h.cache.DeleteMultiple(ctx, req.Keys)

	} else if req.UserID != nil {
		err = cache.InvalidateUserCache(ctx, h.cache, *req.UserID, req.Email)
		if err == nil {
			deletedCount = 4 // id, email, audit and event keys
		}

	} else {
		http.Error(w, "Either pattern, keys, or user_id must be provided", http.StatusBadRequest)
		return
	}

	if err != nil {
		h.logger.Error("Cache invalidation hatası", map[string]interface{}{"error": err.Error()})
		http.Error(w, fmt.Sprintf("Cache invalidation failed: %v", err), http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"status":        "success",
		"deleted_count": deletedCount,
		"timestamp":     time.Now(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (h *CacheHandler) handleKeys(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	pattern := r.URL.Query().Get("pattern")
	if pattern == "" {
		pattern = "*"
	}

	limitStr := r.URL.Query().Get("limit")
	limit := 100
	if limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}

	keys, err := h.cache.GetKeys(r.Context(), pattern)
	if err != nil {
		h.logger.Error("Cache keys alınamadı", map[string]interface{}{
			"pattern": pattern,
			"error":   err.Error(),
		})
		http.Error(w, "Error retrieving cache keys", http.StatusInternalServerError)
		return
	}

	if len(keys) > limit {
		keys = keys[:limit]
	}

	response := map[string]interface{}{
		"keys":      keys,
		"count":     len(keys),
		"pattern":   pattern,
		"limit":     limit,
		"timestamp": time.Now(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (h *CacheHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	err := h.cache.Ping(r.Context())

	response := map[string]interface{}{
		"timestamp": time.Now(),
	}

	w.Header().Set("Content-Type", "application/json")

	if err != nil {
		response["status"] = "unhealthy"
		response["error"] = err.Error()
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(response)
		return
	}

	response["status"] = "healthy"
	json.NewEncoder(w).Encode(response)
}

func countKeysByPrefix(keys []string, prefix string) int {
	count := 0
	for _, key := range keys {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			count++
		}
	}
	return count
}
