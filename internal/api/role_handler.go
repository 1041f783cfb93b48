package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"userflow/internal/domain"
	"userflow/pkg/logger"
)

type RoleHandler struct {
	service domain.RoleService
	logger  logger.Logger
}

func NewRoleHandler(service domain.RoleService, logger logger.Logger) *RoleHandler {
	return &RoleHandler{
		service: service,
		logger:  logger,
	}
}

// GetRoles returns a single role when an id or name parameter is present,
// otherwise the whole registry.
func (h *RoleHandler) GetRoles(w http.ResponseWriter, r *http.Request) {
	idStr := r.URL.Query().Get("id")
	name := r.URL.Query().Get("name")

	if idStr == "" && name == "" {
		roles, err := h.service.ListRoles()
		if err != nil {
			h.logger.Error("Roller alınamadı", map[string]interface{}{"error": err.Error()})
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(roles)
		return
	}

	var role *domain.Role
	var err error

	if idStr != "" {
		var id int64
		id, err = strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			h.logger.Error("Geçersiz ID formatı", map[string]interface{}{"error": err.Error()})
			http.Error(w, "Geçersiz ID formatı", http.StatusBadRequest)
			return
		}
		role, err = h.service.GetRoleByID(id)
	} else {
		role, err = h.service.GetRoleByName(name)
	}

	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrRoleNotFound) {
			status = http.StatusNotFound
		}
		h.logger.Error("Rol bulunamadı", map[string]interface{}{"id": idStr, "name": name, "error": err.Error()})
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(role)
}

func (h *RoleHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/roles", h.GetRoles)
}
