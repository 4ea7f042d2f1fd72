package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	apperrors "calendar-relay-backend/internal/errors"
	"calendar-relay-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestListCalendars_Success(t *testing.T) {
	tr := setupTestRouter(t)
	tr.calendarSvc.EXPECT().
		ListCalendars(gomock.Any(), testUserID).
		Return(&service.CalendarListResponse{
			Calendars: []service.CalendarInfo{
				{ID: "cal-1", Name: "Calendar", IsDefault: true, Category: "personal"},
				{ID: "cal-2", Name: "Roadmap", Category: "group", GroupName: "Projects"},
			},
		}, nil)

	w := tr.do(t, http.MethodPost, "/api/v1/calendars", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp service.CalendarListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Calendars, 2)
	assert.Equal(t, "personal", resp.Calendars[0].Category)
	assert.Equal(t, "Projects", resp.Calendars[1].GroupName)
}

func TestListCalendars_NotConnected(t *testing.T) {
	tr := setupTestRouter(t)
	tr.calendarSvc.EXPECT().
		ListCalendars(gomock.Any(), testUserID).
		Return(nil, apperrors.ErrNotConnected)

	w := tr.do(t, http.MethodPost, "/api/v1/calendars", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Microsoft account not connected. Please connect your Microsoft account.", resp["error"])
	assert.Equal(t, "not_connected", resp["reason"])
}

func TestListCalendars_GraphFailureMapsTo502(t *testing.T) {
	tr := setupTestRouter(t)
	tr.calendarSvc.EXPECT().
		ListCalendars(gomock.Any(), testUserID).
		Return(nil, apperrors.NewProviderError(503, `{"error":{"code":"ServiceUnavailable"}}`))

	w := tr.do(t, http.MethodPost, "/api/v1/calendars", nil)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(503), resp["provider_status"])
	assert.Contains(t, resp["provider_body"], "ServiceUnavailable")
}

func TestListEvents_Success(t *testing.T) {
	tr := setupTestRouter(t)
	tr.calendarSvc.EXPECT().
		ListEvents(gomock.Any(), testUserID, "cal-1").
		Return(&service.EventListResponse{
			Events: []map[string]interface{}{{"subject": "Standup", "startDisplay": "Jun 1, 2025 9:30 AM"}},
			Total:  1,
		}, nil)

	w := tr.do(t, http.MethodPost, "/api/v1/calendars/events", gin.H{"calendar_id": "cal-1"})

	assert.Equal(t, http.StatusOK, w.Code)
	var resp service.EventListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, "Standup", resp.Events[0]["subject"])
}

func TestListEvents_MissingCalendarIDMapsTo400(t *testing.T) {
	tr := setupTestRouter(t)
	tr.calendarSvc.EXPECT().
		ListEvents(gomock.Any(), testUserID, "").
		Return(nil, apperrors.ErrMissingCalendarID)

	w := tr.do(t, http.MethodPost, "/api/v1/calendars/events", gin.H{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "calendar_id")
}

func TestCreateEvent_Relayed(t *testing.T) {
	tr := setupTestRouter(t)
	event := map[string]interface{}{
		"subject": "Planning",
		"start":   map[string]interface{}{"dateTime": "2025-06-02T10:00:00", "timeZone": "UTC"},
		"end":     map[string]interface{}{"dateTime": "2025-06-02T11:00:00", "timeZone": "UTC"},
	}
	tr.calendarSvc.EXPECT().
		CreateEvent(gomock.Any(), testUserID, "cal-1", event).
		Return(json.RawMessage(`{"id":"evt-1","subject":"Planning"}`), nil)

	w := tr.do(t, http.MethodPost, "/api/v1/events", gin.H{"event": event, "calendar_id": "cal-1"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"evt-1","subject":"Planning"}`, w.Body.String())
}

func TestCreateEvent_NotConnected(t *testing.T) {
	tr := setupTestRouter(t)
	tr.calendarSvc.EXPECT().
		CreateEvent(gomock.Any(), testUserID, "", map[string]interface{}{"subject": "x"}).
		Return(nil, apperrors.ErrNotConnected)

	w := tr.do(t, http.MethodPost, "/api/v1/events", gin.H{"event": gin.H{"subject": "x"}})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Microsoft account not connected")
}

func TestCreateEvent_ProviderErrorRelayedVerbatim(t *testing.T) {
	tr := setupTestRouter(t)
	body := `{"error":{"code":"ErrorAccessDenied","message":"Access is denied."}}`
	tr.calendarSvc.EXPECT().
		CreateEvent(gomock.Any(), testUserID, "", map[string]interface{}{"subject": "x"}).
		Return(nil, apperrors.NewProviderError(http.StatusForbidden, body))

	w := tr.do(t, http.MethodPost, "/api/v1/events", gin.H{"event": gin.H{"subject": "x"}})

	// Create-event relays the provider's own status and body, not a 502 wrapper
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, body, w.Body.String())
}

func TestCreateEvent_MissingPayload(t *testing.T) {
	tr := setupTestRouter(t)
	tr.calendarSvc.EXPECT().
		CreateEvent(gomock.Any(), testUserID, "", nil).
		Return(nil, apperrors.ErrMissingEventPayload)

	w := tr.do(t, http.MethodPost, "/api/v1/events", gin.H{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "event")
}
