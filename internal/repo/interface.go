package repo

import (
	"context"
	"time"

	"github.com/BuzzLyutic/task-sync-api/internal/model"
)

// TaskRepository определяет интерфейс для работы с задачами
type TaskRepository interface {
	Create(ctx context.Context, t model.Task) (model.Task, error)
	Get(ctx context.Context, id int64) (model.Task, error)
	List(ctx context.Context, filter model.TaskFilter) ([]model.Task, error)
	Update(ctx context.Context, id int64, upd model.TaskUpdate) (model.Task, error)
	Delete(ctx context.Context, id int64) error

	// UpdateSyncState меняет только sync-поля; nil-идентификаторы
	// в state сохраняют уже записанные внешние id.
	UpdateSyncState(ctx context.Context, id int64, state model.SyncState) (model.Task, error)

	// CreateInstance создает экземпляр повторяющейся задачи:
	// контент родителя, своя дата, parent_task_id и чистые sync-поля.
	CreateInstance(ctx context.Context, parent model.Task, dueDate time.Time) (model.Task, error)
}
