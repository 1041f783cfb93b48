package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userflow/internal/domain"
)

func TestGetUserEventsEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	created := f.createUser(t, "a@x.com", "Ali Veli", 1)

	rec := f.do(t, http.MethodPut, fmt.Sprintf("/api/users?id=%d", created.ID),
		userPayload("a@x.com", "Ali Veli Yeni", 1))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodDelete, fmt.Sprintf("/api/users?id=%d", created.ID), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/users/events?id=%d", created.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var events []*domain.Event
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&events))
	require.Len(t, events, 3)

	assert.Equal(t, 1, events[0].Version)
	assert.Equal(t, domain.EventTypeUserCreated, events[0].EventType)
	assert.Equal(t, 2, events[1].Version)
	assert.Equal(t, domain.EventTypeUserUpdated, events[1].EventType)
	assert.Equal(t, 3, events[2].Version)
	assert.Equal(t, domain.EventTypeUserDeleted, events[2].EventType)
}

func TestGetUserEventsEndpointValidation(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/api/users/events", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/users/events?id=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// An aggregate nobody wrote to has an empty stream, not an error.
	rec = f.do(t, http.MethodGet, "/api/users/events?id=4242", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var events []*domain.Event
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&events))
	assert.Empty(t, events)
}

func TestGetEventsEndpointByType(t *testing.T) {
	f := newAPIFixture(t)

	first := f.createUser(t, "a@x.com", "Ali Veli", 1)
	f.createUser(t, "b@x.com", "Bilal Demir", 1)

	rec := f.do(t, http.MethodPut, fmt.Sprintf("/api/users?id=%d", first.ID),
		userPayload("a@x.com", "Ali Veli Yeni", 2))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/events?type=user_created", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var events []*domain.Event
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&events))
	assert.Len(t, events, 2)

	rec = f.do(t, http.MethodGet, "/api/events?type=user_updated", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	events = nil
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&events))
	assert.Len(t, events, 1)

	rec = f.do(t, http.MethodGet, "/api/events?type=invoice_created", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Geçerli değerler")
}

func TestGetEventsEndpointByTimeRange(t *testing.T) {
	f := newAPIFixture(t)
	f.createUser(t, "a@x.com", "Ali Veli", 1)

	window := func(start, end time.Time) string {
		return "/api/events?start=" + url.QueryEscape(start.Format(time.RFC3339)) +
			"&end=" + url.QueryEscape(end.Format(time.RFC3339))
	}

	now := time.Now()
	rec := f.do(t, http.MethodGet, window(now.Add(-time.Hour), now.Add(time.Hour)), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var events []*domain.Event
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&events))
	assert.Len(t, events, 1)

	rec = f.do(t, http.MethodGet, window(now.Add(time.Hour), now.Add(2*time.Hour)), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	events = nil
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&events))
	assert.Empty(t, events)

	rec = f.do(t, http.MethodGet, "/api/events?start=gecen-hafta&end=bugun", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/events", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
