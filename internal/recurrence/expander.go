package recurrence

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-sync-api/internal/model"
	"github.com/BuzzLyutic/task-sync-api/internal/repo"
)

var ErrInvalidRecurrence = errors.New("invalid recurrence settings")

const (
	// Жесткий потолок на число экземпляров за один проход
	maxInstances = 52
	// Окно по умолчанию, если дата окончания не задана
	defaultWindow = 365
)

// Submitter принимает id задачи на асинхронную синхронизацию
type Submitter interface {
	Submit(taskID int64)
}

// Expander разворачивает повторяющуюся задачу в конкретные датированные
// экземпляры. Каждый проход заново обходит все окно - повторный вызов
// создает дубликаты, идемпотентности здесь нет.
type Expander struct {
	repo   repo.TaskRepository
	pool   Submitter
	logger *zap.Logger
}

func NewExpander(repo repo.TaskRepository, pool Submitter, logger *zap.Logger) *Expander {
	return &Expander{
		repo:   repo,
		pool:   pool,
		logger: logger,
	}
}

// GenerateInstances создает экземпляры от dueDate до recurringEndDate
// (или +365 дней) и сразу отдает каждый в очередь синхронизации.
func (e *Expander) GenerateInstances(ctx context.Context, parent model.Task) ([]model.Task, error) {
	if !parent.IsRecurring || parent.RecurringPattern == nil || parent.DueDate == nil {
		return []model.Task{}, nil
	}

	pattern := *parent.RecurringPattern
	// Неизвестный паттерн или шаг <= 0 дали бы незатухающий цикл - отклоняем
	if !model.ValidPattern(pattern) || parent.RecurringInterval < 1 {
		return nil, ErrInvalidRecurrence
	}

	start := *parent.DueDate
	end := start.AddDate(0, 0, defaultWindow)
	if parent.RecurringEndDate != nil {
		end = *parent.RecurringEndDate
	}

	instances := make([]model.Task, 0)
	current := start
	for len(instances) < maxInstances {
		next := step(current, pattern, parent.RecurringInterval)
		if next.After(end) {
			break
		}

		instance, err := e.repo.CreateInstance(ctx, parent, next)
		if err != nil {
			return instances, err
		}
		instances = append(instances, instance)
		e.pool.Submit(instance.ID)

		current = next
	}

	e.logger.Info("Generated recurring instances",
		zap.Int64("parent_id", parent.ID),
		zap.String("pattern", pattern),
		zap.Int("count", len(instances)),
	)
	return instances, nil
}

func step(t time.Time, pattern string, interval int) time.Time {
	switch pattern {
	case model.PatternDaily:
		return t.AddDate(0, 0, interval)
	case model.PatternWeekly:
		return t.AddDate(0, 0, 7*interval)
	case model.PatternMonthly:
		return t.AddDate(0, interval, 0)
	case model.PatternYearly:
		return t.AddDate(interval, 0, 0)
	}
	return t
}
