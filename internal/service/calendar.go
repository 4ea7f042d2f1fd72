package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"calendar-relay-backend/internal/client"
	apperrors "calendar-relay-backend/internal/errors"
	"calendar-relay-backend/internal/logger"
)

// AccessTokenProvider is the slice of the token lifecycle the calendar
// operations need: a currently valid access token or an explicit failure.
type AccessTokenProvider interface {
	GetValidAccessToken(ctx context.Context, userID string) (string, error)
}

// GraphCalendarAPI is the slice of the provider client used for calendar
// pass-through operations.
type GraphCalendarAPI interface {
	GetMe(ctx context.Context, accessToken string) (*client.UserProfile, error)
	ListCalendars(ctx context.Context, accessToken string) ([]client.Calendar, error)
	ListCalendarGroups(ctx context.Context, accessToken string) ([]client.CalendarGroup, error)
	ListGroupCalendars(ctx context.Context, accessToken, groupID string) ([]client.Calendar, error)
	ListEvents(ctx context.Context, accessToken, calendarID string) ([]map[string]interface{}, error)
	CreateEvent(ctx context.Context, accessToken, calendarID string, event map[string]interface{}) (json.RawMessage, error)
}

// CalendarInfo is a provider calendar annotated with the relay's
// best-effort category classification.
type CalendarInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color,omitempty"`
	IsDefault bool   `json:"is_default"`
	CanEdit   bool   `json:"can_edit"`
	Owner     string `json:"owner,omitempty"`
	// Category is personal, shared or group. Best-effort: calendars without
	// owner metadata may be misclassified; never correctness-bearing.
	Category  string `json:"category"`
	GroupName string `json:"group_name,omitempty"`
}

// CalendarListResponse is the response for the list-calendars operation
type CalendarListResponse struct {
	Calendars []CalendarInfo `json:"calendars"`
}

// EventListResponse is the response for the list-events operation
type EventListResponse struct {
	Events []map[string]interface{} `json:"events"`
	Total  int                      `json:"total"`
}

// CalendarService relays calendar operations to Microsoft Graph on behalf of
// connected users. Every operation acquires a valid access token first.
type CalendarService struct {
	tokens AccessTokenProvider
	graph  GraphCalendarAPI
}

// NewCalendarService creates a new calendar service
func NewCalendarService(tokens AccessTokenProvider, graph GraphCalendarAPI) *CalendarService {
	return &CalendarService{tokens: tokens, graph: graph}
}

// ListCalendars returns all calendars visible to the user, grouped and
// classified. Calendar-group calendars come back with category "group";
// top-level calendars classify as personal or shared by comparing the owner
// address against the signed-in user's addresses.
func (s *CalendarService) ListCalendars(ctx context.Context, userID string) (*CalendarListResponse, error) {
	accessToken, err := s.tokens.GetValidAccessToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	me, err := s.graph.GetMe(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	calendars, err := s.graph.ListCalendars(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	response := &CalendarListResponse{Calendars: make([]CalendarInfo, 0, len(calendars))}
	seen := make(map[string]bool, len(calendars))
	for _, cal := range calendars {
		info := toCalendarInfo(cal)
		info.Category = classifyCalendar(cal, me)
		response.Calendars = append(response.Calendars, info)
		seen[cal.ID] = true
	}

	// Calendar groups are additive: group calendars not already listed get
	// the "group" category. Group listing failures degrade to the flat list.
	groups, err := s.graph.ListCalendarGroups(ctx, accessToken)
	if err != nil {
		logger.WithField("user_id", userID).Warnf("listing calendar groups failed: %v", err)
		return response, nil
	}
	for _, group := range groups {
		groupCals, err := s.graph.ListGroupCalendars(ctx, accessToken, group.ID)
		if err != nil {
			logger.WithField("user_id", userID).Warnf("listing calendars of group %q failed: %v", group.Name, err)
			continue
		}
		for _, cal := range groupCals {
			if seen[cal.ID] {
				continue
			}
			info := toCalendarInfo(cal)
			info.Category = "group"
			info.GroupName = group.Name
			response.Calendars = append(response.Calendars, info)
			seen[cal.ID] = true
		}
	}

	return response, nil
}

// ListEvents returns the events of one calendar, annotated with
// human-readable start/end display strings derived from the provider
// timestamps.
func (s *CalendarService) ListEvents(ctx context.Context, userID, calendarID string) (*EventListResponse, error) {
	if calendarID == "" {
		return nil, apperrors.ErrMissingCalendarID
	}

	accessToken, err := s.tokens.GetValidAccessToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	events, err := s.graph.ListEvents(ctx, accessToken, calendarID)
	if err != nil {
		return nil, err
	}

	for _, event := range events {
		annotateEventTimes(event)
	}

	return &EventListResponse{Events: events, Total: len(events)}, nil
}

// CreateEvent forwards the event payload to the provider. Provider failures
// are relayed verbatim (status code and body) via ProviderError.
func (s *CalendarService) CreateEvent(ctx context.Context, userID, calendarID string, event map[string]interface{}) (json.RawMessage, error) {
	if len(event) == 0 {
		return nil, apperrors.ErrMissingEventPayload
	}

	accessToken, err := s.tokens.GetValidAccessToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.graph.CreateEvent(ctx, accessToken, calendarID, event)
}

func toCalendarInfo(cal client.Calendar) CalendarInfo {
	info := CalendarInfo{
		ID:        cal.ID,
		Name:      cal.Name,
		Color:     cal.Color,
		IsDefault: cal.IsDefaultCalendar,
		CanEdit:   cal.CanEdit,
	}
	if cal.Owner != nil {
		info.Owner = cal.Owner.Address
	}
	return info
}

// classifyCalendar decides personal vs. shared by owner address. Calendars
// without owner metadata classify as shared.
func classifyCalendar(cal client.Calendar, me *client.UserProfile) string {
	if cal.Owner == nil || cal.Owner.Address == "" {
		return "shared"
	}
	owner := strings.ToLower(cal.Owner.Address)
	if owner == strings.ToLower(me.Mail) || owner == strings.ToLower(me.UserPrincipalName) {
		return "personal"
	}
	return "shared"
}

// graphTimeLayout matches Graph's dateTime values (no offset, 7-digit fractions)
const graphTimeLayout = "2006-01-02T15:04:05.9999999"

// annotateEventTimes adds startDisplay/endDisplay fields derived from the
// event's start/end objects. Unparseable values are left unannotated.
func annotateEventTimes(event map[string]interface{}) {
	if display, ok := formatEventTime(event["start"]); ok {
		event["startDisplay"] = display
	}
	if display, ok := formatEventTime(event["end"]); ok {
		event["endDisplay"] = display
	}
}

func formatEventTime(value interface{}) (string, bool) {
	obj, ok := value.(map[string]interface{})
	if !ok {
		return "", false
	}
	raw, ok := obj["dateTime"].(string)
	if !ok || raw == "" {
		return "", false
	}
	t, err := time.Parse(graphTimeLayout, raw)
	if err != nil {
		// Some responses carry an explicit offset
		t, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return "", false
		}
	}
	display := t.Format("Jan 2, 2006 3:04 PM")
	if tz, ok := obj["timeZone"].(string); ok && tz != "" && tz != "UTC" {
		display += " (" + tz + ")"
	}
	return display, true
}
