package repo

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/BuzzLyutic/task-sync-api/internal/model"
)

// MemoryRepo - хранилище в памяти с монотонно растущими id.
// Используется в тестах и как дефолт, когда DATABASE_URL не задан.
type MemoryRepo struct {
	mu     sync.Mutex
	tasks  map[int64]model.Task
	nextID int64
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		tasks:  make(map[int64]model.Task),
		nextID: 1,
	}
}

func (r *MemoryRepo) Create(_ context.Context, t model.Task) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	t.ID = r.nextID
	r.nextID++
	t.SyncStatus = model.SyncPending
	t.SyncError = nil
	t.GoogleCalendarID = nil
	t.OutlookCalendarID = nil
	t.CreatedAt = now
	t.UpdatedAt = now

	r.tasks[t.ID] = clone(t)
	return t, nil
}

func (r *MemoryRepo) Get(_ context.Context, id int64) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return model.Task{}, ErrorNotFound
	}
	return clone(t), nil
}

func (r *MemoryRepo) List(_ context.Context, filter model.TaskFilter) ([]model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tasks := make([]model.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		if filter.Category != nil && t.Category != *filter.Category {
			continue
		}
		if filter.Label != nil && !slices.Contains(t.Labels, *filter.Label) {
			continue
		}
		tasks = append(tasks, clone(t))
	}
	// Новые сверху, как в TaskRepo
	slices.SortFunc(tasks, func(a, b model.Task) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return int(b.ID - a.ID)
	})
	return tasks, nil
}

func (r *MemoryRepo) Update(_ context.Context, id int64, upd model.TaskUpdate) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return model.Task{}, ErrorNotFound
	}

	if upd.Title != nil {
		t.Title = *upd.Title
	}
	if upd.Description != nil {
		t.Description = upd.Description
	}
	if upd.Category != nil {
		t.Category = *upd.Category
	}
	if upd.Labels != nil {
		t.Labels = *upd.Labels
	}
	if upd.Priority != nil {
		t.Priority = *upd.Priority
	}
	if upd.DueDate != nil {
		t.DueDate = upd.DueDate
	}
	if upd.Completed != nil {
		t.Completed = *upd.Completed
	}
	if upd.ReminderMinutes != nil {
		t.ReminderMinutes = upd.ReminderMinutes
	}
	if upd.IsRecurring != nil {
		t.IsRecurring = *upd.IsRecurring
	}
	if upd.RecurringPattern != nil {
		t.RecurringPattern = upd.RecurringPattern
	}
	if upd.RecurringInterval != nil {
		t.RecurringInterval = *upd.RecurringInterval
	}
	if upd.RecurringEndDate != nil {
		t.RecurringEndDate = upd.RecurringEndDate
	}
	t.UpdatedAt = time.Now().UTC()

	r.tasks[id] = clone(t)
	return t, nil
}

func (r *MemoryRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return ErrorNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *MemoryRepo) UpdateSyncState(_ context.Context, id int64, state model.SyncState) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return model.Task{}, ErrorNotFound
	}

	t.SyncStatus = state.Status
	t.SyncError = state.Error
	if state.GoogleID != nil {
		t.GoogleCalendarID = state.GoogleID
	}
	if state.OutlookID != nil {
		t.OutlookCalendarID = state.OutlookID
	}
	t.UpdatedAt = time.Now().UTC()

	r.tasks[id] = clone(t)
	return t, nil
}

func (r *MemoryRepo) CreateInstance(_ context.Context, parent model.Task, dueDate time.Time) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	due := dueDate
	parentID := parent.ID

	t := model.Task{
		ID:                r.nextID,
		Title:             parent.Title,
		Description:       parent.Description,
		Category:          parent.Category,
		Labels:            slices.Clone(parent.Labels),
		Priority:          parent.Priority,
		DueDate:           &due,
		Completed:         false,
		ReminderMinutes:   parent.ReminderMinutes,
		IsRecurring:       false,
		RecurringInterval: 1,
		ParentTaskID:      &parentID,
		SyncStatus:        model.SyncPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	r.nextID++

	r.tasks[t.ID] = clone(t)
	return t, nil
}

// clone защищает внутреннюю мапу от алиасинга слайса меток
func clone(t model.Task) model.Task {
	t.Labels = slices.Clone(t.Labels)
	return t
}
