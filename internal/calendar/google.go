package calendar

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	googleauth "golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/BuzzLyutic/task-sync-api/internal/config"
	"github.com/BuzzLyutic/task-sync-api/internal/model"
)

const googleCalendarID = "primary"

// GoogleProvider синхронизирует задачи с Google Calendar через calendar/v3.
// Без полного набора кредов остается в выключенном состоянии.
type GoogleProvider struct {
	srv *calendar.Service
}

func NewGoogleProvider(cfg config.GoogleConfig, logger *zap.Logger) (*GoogleProvider, error) {
	if !cfg.Complete() {
		logger.Warn("Google Calendar credentials not found, sync disabled")
		return &GoogleProvider{}, nil
	}

	ctx := context.Background()
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     googleauth.Endpoint,
		Scopes:       []string{calendar.CalendarEventsScope},
	}
	// Refresh-токен выдан заранее, обмен на access-токен делает TokenSource
	ts := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})

	srv, err := calendar.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return &GoogleProvider{srv: srv}, nil
}

func (p *GoogleProvider) Name() string {
	return "Google Calendar"
}

func (p *GoogleProvider) IsInitialized() bool {
	return p.srv != nil
}

func (p *GoogleProvider) CreateEvent(ctx context.Context, t model.Task) (string, error) {
	if p.srv == nil {
		return "", ErrNotInitialized
	}

	created, err := p.srv.Events.Insert(googleCalendarID, googleEvent(t)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert event: %w", err)
	}
	return created.Id, nil
}

func (p *GoogleProvider) UpdateEvent(ctx context.Context, eventID string, t model.Task) error {
	if p.srv == nil {
		return ErrNotInitialized
	}

	_, err := p.srv.Events.Update(googleCalendarID, eventID, googleEvent(t)).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return nil
}

func (p *GoogleProvider) DeleteEvent(ctx context.Context, eventID string) error {
	if p.srv == nil {
		return ErrNotInitialized
	}

	if err := p.srv.Events.Delete(googleCalendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// googleEvent собирает событие: час от dueDate, либо all-day на сегодня
func googleEvent(t model.Task) *calendar.Event {
	ev := &calendar.Event{
		Summary:     t.Title,
		Description: descriptionOrEmpty(t),
	}

	if t.DueDate != nil {
		start := t.DueDate.UTC()
		ev.Start = &calendar.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: "UTC"}
		ev.End = &calendar.EventDateTime{DateTime: start.Add(time.Hour).Format(time.RFC3339), TimeZone: "UTC"}
	} else {
		today := time.Now().UTC()
		ev.Start = &calendar.EventDateTime{Date: today.Format("2006-01-02")}
		ev.End = &calendar.EventDateTime{Date: today.AddDate(0, 0, 1).Format("2006-01-02")}
	}
	return ev
}
