package service

import (
	"context"
	"encoding/json"
)

//go:generate mockgen -source=interfaces.go -destination=../mocks/service_mocks.go -package=mocks

// TokenServiceInterface defines the connection-lifecycle operations the
// handlers depend on.
type TokenServiceInterface interface {
	ConsentURL(state string) string
	ExchangeCode(ctx context.Context, userID, code string) (json.RawMessage, error)
	Status(userID string) (bool, error)
	Disconnect(userID string) error
	GetValidAccessToken(ctx context.Context, userID string) (string, error)
}

// CalendarServiceInterface defines the calendar operations the handlers
// depend on.
type CalendarServiceInterface interface {
	ListCalendars(ctx context.Context, userID string) (*CalendarListResponse, error)
	ListEvents(ctx context.Context, userID, calendarID string) (*EventListResponse, error)
	CreateEvent(ctx context.Context, userID, calendarID string, event map[string]interface{}) (json.RawMessage, error)
}
