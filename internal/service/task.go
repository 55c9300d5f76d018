package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-sync-api/internal/model"
	"github.com/BuzzLyutic/task-sync-api/internal/recurrence"
	"github.com/BuzzLyutic/task-sync-api/internal/repo"
	tasksync "github.com/BuzzLyutic/task-sync-api/internal/sync"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrNotRecurring = errors.New("task is not recurring")
)

// Submitter принимает id задачи на асинхронную синхронизацию
type Submitter interface {
	Submit(taskID int64)
}

type TaskService struct {
	repo     repo.TaskRepository
	orch     *tasksync.Orchestrator
	expander *recurrence.Expander
	pool     Submitter
	logger   *zap.Logger
}

func NewTaskService(repo repo.TaskRepository, orch *tasksync.Orchestrator, expander *recurrence.Expander, pool Submitter, logger *zap.Logger) *TaskService {
	return &TaskService{
		repo:     repo,
		orch:     orch,
		expander: expander,
		pool:     pool,
		logger:   logger,
	}
}

func (s *TaskService) Create(ctx context.Context, t model.Task) (model.Task, error) {
	applyDefaults(&t)
	if err := validate(t); err != nil {
		return t, err
	}

	created, err := s.repo.Create(ctx, t)
	if err != nil {
		return created, err
	}

	// Синхронизация запускается асинхронно, ответ клиенту не ждет ее
	s.pool.Submit(created.ID)
	return created, nil
}

func (s *TaskService) Get(ctx context.Context, id int64) (model.Task, error) {
	return s.repo.Get(ctx, id)
}

func (s *TaskService) List(ctx context.Context, filter model.TaskFilter) ([]model.Task, error) {
	return s.repo.List(ctx, filter)
}

func (s *TaskService) Update(ctx context.Context, id int64, upd model.TaskUpdate) (model.Task, error) {
	if err := validateUpdate(&upd); err != nil {
		return model.Task{}, err
	}

	task, err := s.repo.Update(ctx, id, upd)
	if err != nil {
		return task, err
	}

	s.pool.Submit(task.ID)
	return task, nil
}

// Delete сначала best-effort чистит события в календарях, затем удаляет
// задачу локально - даже если внешние вызовы провалились.
func (s *TaskService) Delete(ctx context.Context, id int64) error {
	task, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	s.orch.DeleteEvents(ctx, task)
	return s.repo.Delete(ctx, id)
}

// RetrySync - ручной повтор синхронизации: тот же проход, без бэкоффа
// и счетчика попыток.
func (s *TaskService) RetrySync(ctx context.Context, id int64) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	s.pool.Submit(id)
	return nil
}

func (s *TaskService) GenerateInstances(ctx context.Context, id int64) ([]model.Task, error) {
	task, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !task.IsRecurring || task.RecurringPattern == nil {
		return nil, ErrNotRecurring
	}
	return s.expander.GenerateInstances(ctx, task)
}

func (s *TaskService) SyncStatus() map[string]tasksync.ProviderStatus {
	return s.orch.Status()
}

func (s *TaskService) Categories(ctx context.Context) ([]string, error) {
	tasks, err := s.repo.List(ctx, model.TaskFilter{})
	if err != nil {
		return nil, err
	}
	return distinct(tasks, func(t model.Task) []string { return []string{t.Category} }), nil
}

func (s *TaskService) Labels(ctx context.Context) ([]string, error) {
	tasks, err := s.repo.List(ctx, model.TaskFilter{})
	if err != nil {
		return nil, err
	}
	return distinct(tasks, func(t model.Task) []string { return t.Labels }), nil
}

func distinct(tasks []model.Task, pick func(model.Task) []string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, t := range tasks {
		for _, v := range pick(t) {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func applyDefaults(t *model.Task) {
	if t.Priority == "" {
		t.Priority = model.PriorityMedium
	}
	if t.Category == "" {
		t.Category = "general"
	}
	if t.RecurringInterval == 0 {
		t.RecurringInterval = 1
	}
	t.Labels = model.NormalizeLabels(t.Labels)
}

func validate(t model.Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if !model.ValidPriority(t.Priority) {
		return fmt.Errorf("%w: unknown priority %q", ErrValidation, t.Priority)
	}
	if t.ReminderMinutes != nil && *t.ReminderMinutes < 0 {
		return fmt.Errorf("%w: reminderMinutes must be non-negative", ErrValidation)
	}
	if t.RecurringPattern != nil && !model.ValidPattern(*t.RecurringPattern) {
		return fmt.Errorf("%w: unknown recurring pattern %q", ErrValidation, *t.RecurringPattern)
	}
	if t.RecurringInterval < 1 {
		return fmt.Errorf("%w: recurringInterval must be positive", ErrValidation)
	}
	if t.IsRecurring && t.RecurringPattern == nil {
		return fmt.Errorf("%w: recurringPattern is required for recurring tasks", ErrValidation)
	}
	return nil
}

func validateUpdate(upd *model.TaskUpdate) error {
	if upd.Title != nil && strings.TrimSpace(*upd.Title) == "" {
		return fmt.Errorf("%w: title must not be empty", ErrValidation)
	}
	if upd.Priority != nil && !model.ValidPriority(*upd.Priority) {
		return fmt.Errorf("%w: unknown priority %q", ErrValidation, *upd.Priority)
	}
	if upd.ReminderMinutes != nil && *upd.ReminderMinutes < 0 {
		return fmt.Errorf("%w: reminderMinutes must be non-negative", ErrValidation)
	}
	if upd.RecurringPattern != nil && !model.ValidPattern(*upd.RecurringPattern) {
		return fmt.Errorf("%w: unknown recurring pattern %q", ErrValidation, *upd.RecurringPattern)
	}
	if upd.RecurringInterval != nil && *upd.RecurringInterval < 1 {
		return fmt.Errorf("%w: recurringInterval must be positive", ErrValidation)
	}
	if upd.Labels != nil {
		normalized := model.NormalizeLabels(*upd.Labels)
		upd.Labels = &normalized
	}
	return nil
}
