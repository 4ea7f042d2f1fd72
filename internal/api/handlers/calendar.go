package handlers

import (
	"net/http"

	"calendar-relay-backend/internal/auth"
	apperrors "calendar-relay-backend/internal/errors"
	"calendar-relay-backend/internal/logger"
	"calendar-relay-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// CalendarHandler handles HTTP requests for calendar pass-through operations
type CalendarHandler struct {
	calendarService service.CalendarServiceInterface
}

// NewCalendarHandler creates a new calendar handler
func NewCalendarHandler(calendarService service.CalendarServiceInterface) *CalendarHandler {
	return &CalendarHandler{calendarService: calendarService}
}

// ListEventsRequest is the body of POST /calendars/events
type ListEventsRequest struct {
	CalendarID string `json:"calendar_id"`
}

// CreateEventRequest is the body of POST /events
type CreateEventRequest struct {
	Event      map[string]interface{} `json:"event"`
	CalendarID string                 `json:"calendar_id,omitempty"`
}

// ListCalendars handles POST /calendars
// @Summary List the caller's Microsoft calendars
// @Description Returns all calendars visible to the connected account, annotated with a best-effort personal/shared/group category.
// @Tags calendars
// @Produce json
// @Success 200 {object} service.CalendarListResponse
// @Failure 401 {object} map[string]interface{} "Not connected or token lifecycle failure"
// @Failure 502 {object} map[string]interface{} "Microsoft Graph failure"
// @Security BearerAuth
// @Router /calendars [post]
func (h *CalendarHandler) ListCalendars(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	calendars, err := h.calendarService.ListCalendars(c.Request.Context(), userID)
	if err != nil {
		logger.FromGinContext(c).WithField("user_id", userID).Warnf("list calendars failed: %v", err)
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, calendars)
}

// ListEvents handles POST /calendars/events
// @Summary List the events of one calendar
// @Description Returns provider events annotated with human-readable startDisplay/endDisplay fields.
// @Tags calendars
// @Accept json
// @Produce json
// @Param body body ListEventsRequest true "Calendar id"
// @Success 200 {object} service.EventListResponse
// @Failure 400 {object} map[string]interface{} "Missing calendar id"
// @Failure 401 {object} map[string]interface{} "Not connected or token lifecycle failure"
// @Failure 502 {object} map[string]interface{} "Microsoft Graph failure"
// @Security BearerAuth
// @Router /calendars/events [post]
func (h *CalendarHandler) ListEvents(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req ListEventsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing calendar_id"})
		return
	}

	events, err := h.calendarService.ListEvents(c.Request.Context(), userID, req.CalendarID)
	if err != nil {
		logger.FromGinContext(c).WithField("user_id", userID).Warnf("list events failed: %v", err)
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// CreateEvent handles POST /events
// @Summary Create a calendar event
// @Description Forwards the event payload to Microsoft Graph. Uses the default calendar when calendar_id is omitted. Provider failures are relayed with their original status code and body.
// @Tags events
// @Accept json
// @Produce json
// @Param body body CreateEventRequest true "Event payload and optional calendar id"
// @Success 200 {object} map[string]interface{} "Provider event object"
// @Failure 400 {object} map[string]interface{} "Missing event payload"
// @Failure 401 {object} map[string]interface{} "Not connected or token lifecycle failure"
// @Security BearerAuth
// @Router /events [post]
func (h *CalendarHandler) CreateEvent(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	log := logger.FromGinContext(c).WithField("user_id", userID)

	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing event payload"})
		return
	}

	created, err := h.calendarService.CreateEvent(c.Request.Context(), userID, req.CalendarID, req.Event)
	if err != nil {
		// The create-event route relays provider failures verbatim rather
		// than wrapping them, matching the provider's own status and body.
		if providerErr, ok := apperrors.AsProvider(err); ok {
			log.Warnf("provider rejected event creation with status %d", providerErr.StatusCode)
			c.Data(providerErr.StatusCode, "application/json", []byte(providerErr.Body))
			return
		}
		log.Warnf("create event failed: %v", err)
		respondWithError(c, err)
		return
	}

	log.Debug("event created")
	c.Data(http.StatusOK, "application/json", created)
}
