// internal/services/calendar_service.go
package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// eventTimeZone is fixed for every published event.
const eventTimeZone = "Asia/Tokyo"

// CalendarEventInput is the internal shape of an event to publish.
type CalendarEventInput struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

// CalendarService publishes events to the user's primary Google calendar.
type CalendarService interface {
	CreateEvent(ctx context.Context, userID string, input CalendarEventInput) (*calendar.Event, error)
}

type calendarService struct {
	oauth GoogleOAuthService

	// newService is swappable so tests can point the Calendar client at a
	// local server.
	newService func(ctx context.Context, accessToken string) (*calendar.Service, error)
}

func NewCalendarService(oauth GoogleOAuthService) CalendarService {
	return &calendarService{
		oauth: oauth,
		newService: func(ctx context.Context, accessToken string) (*calendar.Service, error) {
			src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
			return calendar.NewService(ctx, option.WithTokenSource(src))
		},
	}
}

// CreateEvent obtains a valid access token and issues a single insert call.
// One attempt, no retry; token errors propagate so the caller can restart
// the authorization flow.
func (s *calendarService) CreateEvent(ctx context.Context, userID string, input CalendarEventInput) (*calendar.Event, error) {
	accessToken, err := s.oauth.GetValidAccessToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	svc, err := s.newService(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("create calendar client: %w", err)
	}

	event := &calendar.Event{
		Summary:     input.Summary,
		Description: input.Description,
		Start: &calendar.EventDateTime{
			DateTime: input.Start.Format(time.RFC3339),
			TimeZone: eventTimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: input.End.Format(time.RFC3339),
			TimeZone: eventTimeZone,
		},
	}

	created, err := svc.Events.Insert("primary", event).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("insert calendar event: %w", err)
	}
	log.Printf("[calendar][create][ok] userID=%s event_id=%s summary=%q", userID, created.Id, input.Summary)
	return created, nil
}
