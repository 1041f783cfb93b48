package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"userflow/internal/domain"
	"userflow/pkg/logger"
)

type UserHandler struct {
	service domain.UserService
	logger  logger.Logger
}

func NewUserHandler(service domain.UserService, logger logger.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger,
	}
}

// userErrorStatus maps the service errors onto HTTP codes. A rejected role
// reference counts as a bad request here; only the role endpoints report a
// missing role as 404.
func userErrorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateEmail):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRoleNotFound),
		errors.Is(err, domain.ErrMissingField),
		errors.Is(err, domain.ErrFieldTooLong):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var input domain.UpsertUser

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.logger.Error("İstek gövdesi decode edilemedi", map[string]interface{}{"error": err.Error()})
		http.Error(w, "Geçersiz istek gövdesi", http.StatusBadRequest)
		return
	}

	user, err := h.service.CreateUser(&input)
	if err != nil {
		h.logger.Error("Kullanıcı oluşturma hatası", map[string]interface{}{"email": input.Email, "error": err.Error()})
		http.Error(w, err.Error(), userErrorStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user)
}

// GetUser looks a user up by id or by email, whichever parameter is present.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	idStr := r.URL.Query().Get("id")
	email := r.URL.Query().Get("email")

	if idStr == "" && email == "" {
		h.logger.Error("id veya email parametresi eksik", map[string]interface{}{})
		http.Error(w, "id veya email parametresi eksik", http.StatusBadRequest)
		return
	}

	var user *domain.User
	var err error

	if idStr != "" {
		var id int64
		id, err = strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			h.logger.Error("Geçersiz ID formatı", map[string]interface{}{"error": err.Error()})
			http.Error(w, "Geçersiz ID formatı", http.StatusBadRequest)
			return
		}
		user, err = h.service.GetUserByID(id)
	} else {
		user, err = h.service.GetUserByEmail(email)
	}

	if err != nil {
		h.logger.Error("Kullanıcı bulunamadı", map[string]interface{}{"id": idStr, "email": email, "error": err.Error()})
		http.Error(w, err.Error(), userErrorStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	idStr := r.URL.Query().Get("id")
	if idStr == "" {
		h.logger.Error("ID parametresi eksik", map[string]interface{}{})
		http.Error(w, "ID parametresi eksik", http.StatusBadRequest)
		return
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.logger.Error("Geçersiz ID formatı", map[string]interface{}{"error": err.Error()})
		http.Error(w, "Geçersiz ID formatı", http.StatusBadRequest)
		return
	}

	var input domain.UpsertUser
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.logger.Error("İstek gövdesi decode edilemedi", map[string]interface{}{"error": err.Error()})
		http.Error(w, "Geçersiz istek gövdesi", http.StatusBadRequest)
		return
	}

	user, err := h.service.UpdateUser(id, &input)
	if err != nil {
		h.logger.Error("Kullanıcı güncelleme hatası", map[string]interface{}{"id": id, "error": err.Error()})
		http.Error(w, err.Error(), userErrorStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	idStr := r.URL.Query().Get("id")
	if idStr == "" {
		h.logger.Error("ID parametresi eksik", map[string]interface{}{})
		http.Error(w, "ID parametresi eksik", http.StatusBadRequest)
		return
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.logger.Error("Geçersiz ID formatı", map[string]interface{}{"error": err.Error()})
		http.Error(w, "Geçersiz ID formatı", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteUser(id); err != nil {
		h.logger.Error("Kullanıcı silme hatası", map[string]interface{}{"id": id, "error": err.Error()})
		http.Error(w, err.Error(), userErrorStatus(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/users", h.CreateUser)
	mux.HandleFunc("GET /api/users", h.GetUser)
	mux.HandleFunc("PUT /api/users", h.UpdateUser)
	mux.HandleFunc("DELETE /api/users", h.DeleteUser)
}
