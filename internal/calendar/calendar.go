package calendar

import (
	"context"
	"errors"

	"github.com/BuzzLyutic/task-sync-api/internal/model"
)

// ErrNotInitialized возвращается адаптером без кредов вместо сетевого вызова
var ErrNotInitialized = errors.New("calendar provider not initialized")

// Provider - общий интерфейс внешнего календаря.
// CreateEvent возвращает внешний id события.
type Provider interface {
	Name() string
	IsInitialized() bool
	CreateEvent(ctx context.Context, t model.Task) (string, error)
	UpdateEvent(ctx context.Context, eventID string, t model.Task) error
	DeleteEvent(ctx context.Context, eventID string) error
}

func descriptionOrEmpty(t model.Task) string {
	if t.Description != nil {
		return *t.Description
	}
	return ""
}
