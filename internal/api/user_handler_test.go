package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userflow/internal/domain"
	"userflow/internal/repository"
	"userflow/internal/service"
	"userflow/internal/testutil"
	"userflow/pkg/fallback"
)

type apiFixture struct {
	mux    *http.ServeMux
	users  domain.UserService
	audits domain.AuditLogService
}

// newAPIFixture wires every handler over real services and an isolated
// database, the same way the factory does at boot.
func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	db := testutil.NewTestDB(t)
	log := testutil.NewLogger()

	fm := fallback.NewFallbackManager(log)
	t.Cleanup(fm.Close)

	eventSvc := service.NewEventStoreService(repository.NewEventStoreRepository(db, log), log)
	roleSvc := service.NewRoleService(repository.NewRoleRepository(db, log), fm, log)
	auditSvc := service.NewAuditLogService(repository.NewAuditLogRepository(db, log), fm, log)
	t.Cleanup(auditSvc.Shutdown)
	userSvc := service.NewUserService(repository.NewUserRepository(db, log), roleSvc, auditSvc, eventSvc, log)

	mux := http.NewServeMux()
	NewUserHandler(userSvc, log).RegisterRoutes(mux)
	NewRoleHandler(roleSvc, log).RegisterRoutes(mux)
	NewAuditLogHandler(auditSvc, log).RegisterRoutes(mux)
	NewEventHandler(eventSvc, log).RegisterRoutes(mux)

	return &apiFixture{mux: mux, users: userSvc, audits: auditSvc}
}

func (f *apiFixture) do(t *testing.T, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func userPayload(email, fullname string, roleID int64) *domain.UpsertUser {
	return &domain.UpsertUser{
		Email:    email,
		Password: "gizli123",
		Fullname: fullname,
		RoleID:   roleID,
	}
}

func (f *apiFixture) createUser(t *testing.T, email, fullname string, roleID int64) *domain.User {
	t.Helper()

	rec := f.do(t, http.MethodPost, "/api/users", userPayload(email, fullname, roleID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var user domain.User
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&user))
	return &user
}

func TestCreateUserEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/users", userPayload("a@x.com", "Ali Veli", 1))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var user domain.User
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&user))
	assert.NotZero(t, user.ID)
	assert.Equal(t, "a@x.com", user.Email)
	assert.Equal(t, int64(1), user.RoleID)
}

func TestCreateUserEndpointRejectsBadBody(t *testing.T) {
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateUserEndpointValidation(t *testing.T) {
	f := newAPIFixture(t)
	f.createUser(t, "a@x.com", "Ali Veli", 1)

	cases := map[string]struct {
		payload *domain.UpsertUser
		status  int
	}{
		"eksik email": {
			payload: userPayload("", "Ali Veli", 1),
			status:  http.StatusBadRequest,
		},
		"bilinmeyen rol": {
			payload: userPayload("c@x.com", "Can Demir", 99),
			status:  http.StatusBadRequest,
		},
		"tekrarlanan email": {
			payload: userPayload("a@x.com", "Ayşe Kaya", 1),
			status:  http.StatusConflict,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/api/users", tc.payload)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}
}

func TestGetUserEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	created := f.createUser(t, "a@x.com", "Ali Veli", 1)

	rec := f.do(t, http.MethodGet, fmt.Sprintf("/api/users?id=%d", created.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var byID domain.User
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&byID))
	assert.Equal(t, created.ID, byID.ID)
	assert.Equal(t, created.Email, byID.Email)

	rec = f.do(t, http.MethodGet, "/api/users?email=a@x.com", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var byEmail domain.User
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&byEmail))
	assert.Equal(t, created.ID, byEmail.ID)
}

func TestGetUserEndpointErrors(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/api/users?id=4242", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/users?email=ghost@x.com", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/users", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/users?id=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateUserEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	created := f.createUser(t, "a@x.com", "Ali Veli", 1)

	rec := f.do(t, http.MethodPut, fmt.Sprintf("/api/users?id=%d", created.ID),
		userPayload("yeni@x.com", "Ali Veli Yeni", 2))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated domain.User
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&updated))
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "yeni@x.com", updated.Email)
	assert.Equal(t, int64(2), updated.RoleID)

	// The old address no longer resolves.
	rec = f.do(t, http.MethodGet, "/api/users?email=a@x.com", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateUserEndpointErrors(t *testing.T) {
	f := newAPIFixture(t)
	f.createUser(t, "a@x.com", "Ali Veli", 1)
	other := f.createUser(t, "b@x.com", "Burcu Sönmez", 1)

	rec := f.do(t, http.MethodPut, "/api/users?id=4242", userPayload("g@x.com", "Ghost", 1))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPut, fmt.Sprintf("/api/users?id=%d", other.ID),
		userPayload("a@x.com", "Burcu Sönmez", 1))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPut, fmt.Sprintf("/api/users?id=%d", other.ID),
		userPayload("b@x.com", "Burcu Sönmez", 99))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/users", userPayload("b@x.com", "Burcu Sönmez", 1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteUserEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	created := f.createUser(t, "a@x.com", "Ali Veli", 1)

	rec := f.do(t, http.MethodDelete, fmt.Sprintf("/api/users?id=%d", created.ID), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/users?id=%d", created.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodDelete, fmt.Sprintf("/api/users?id=%d", created.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// TestUserEndpointsScenario walks the API end to end: two users share a role,
// a duplicate registration is refused and removing one user leaves the other
// reachable.
func TestUserEndpointsScenario(t *testing.T) {
	f := newAPIFixture(t)

	alice := f.createUser(t, "a@x.com", "Ayşe Kaya", 1)
	bill := f.createUser(t, "b@x.com", "Bilal Demir", 1)
	require.NotEqual(t, alice.ID, bill.ID)

	rec := f.do(t, http.MethodPost, "/api/users", userPayload("a@x.com", "Ayşe Kaya", 1))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodDelete, fmt.Sprintf("/api/users?id=%d", alice.ID), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/users?email=a@x.com", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/users?email=b@x.com", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var survivor domain.User
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&survivor))
	assert.Equal(t, bill.ID, survivor.ID)
}
