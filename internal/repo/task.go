package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/task-sync-api/internal/model"
)

var ErrorNotFound = errors.New("not found")

const taskColumns = `id, title, description, category, labels, priority, due_date,
	completed, reminder_minutes, is_recurring, recurring_pattern, recurring_interval,
	recurring_end_date, parent_task_id, google_calendar_id, outlook_calendar_id,
	sync_status, sync_error, created_at, updated_at`

type TaskRepo struct { // Репозиторий для работы непосредственно с БД
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{
		pool: pool,
	}
}

func (r *TaskRepo) Create(ctx context.Context, t model.Task) (model.Task, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO tasks (title, description, category, labels, priority, due_date,
			completed, reminder_minutes, is_recurring, recurring_pattern,
			recurring_interval, recurring_end_date, parent_task_id, sync_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 'pending')
		RETURNING `+taskColumns+`
	`, t.Title, t.Description, t.Category, t.Labels, t.Priority, t.DueDate,
		t.Completed, t.ReminderMinutes, t.IsRecurring, t.RecurringPattern,
		t.RecurringInterval, t.RecurringEndDate, t.ParentTaskID)
	return scanTask(row)
}

func (r *TaskRepo) Get(ctx context.Context, id int64) (model.Task, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+taskColumns+` FROM tasks WHERE id = $1
	`, id)
	return scanTask(row)
}

func (r *TaskRepo) List(ctx context.Context, filter model.TaskFilter) ([]model.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE ($1::text IS NULL OR category = $1)
		  AND ($2::text IS NULL OR $2 = ANY(labels))
		ORDER BY created_at DESC, id DESC
	`, filter.Category, filter.Label)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepo) Update(ctx context.Context, id int64, upd model.TaskUpdate) (model.Task, error) {
	// Nil-поля не меняются, поэтому COALESCE
	row := r.pool.QueryRow(ctx, `
		UPDATE tasks SET
			title = COALESCE($2, title),
			description = COALESCE($3, description),
			category = COALESCE($4, category),
			labels = COALESCE($5, labels),
			priority = COALESCE($6, priority),
			due_date = COALESCE($7, due_date),
			completed = COALESCE($8, completed),
			reminder_minutes = COALESCE($9, reminder_minutes),
			is_recurring = COALESCE($10, is_recurring),
			recurring_pattern = COALESCE($11, recurring_pattern),
			recurring_interval = COALESCE($12, recurring_interval),
			recurring_end_date = COALESCE($13, recurring_end_date),
			updated_at = now()
		WHERE id = $1
		RETURNING `+taskColumns+`
	`, id, upd.Title, upd.Description, upd.Category, upd.Labels, upd.Priority,
		upd.DueDate, upd.Completed, upd.ReminderMinutes, upd.IsRecurring,
		upd.RecurringPattern, upd.RecurringInterval, upd.RecurringEndDate)
	return scanTask(row)
}

func (r *TaskRepo) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}

func (r *TaskRepo) UpdateSyncState(ctx context.Context, id int64, state model.SyncState) (model.Task, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE tasks SET
			sync_status = $2,
			sync_error = $3,
			google_calendar_id = COALESCE($4, google_calendar_id),
			outlook_calendar_id = COALESCE($5, outlook_calendar_id),
			updated_at = now()
		WHERE id = $1
		RETURNING `+taskColumns+`
	`, id, state.Status, state.Error, state.GoogleID, state.OutlookID)
	return scanTask(row)
}

func (r *TaskRepo) CreateInstance(ctx context.Context, parent model.Task, dueDate time.Time) (model.Task, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO tasks (title, description, category, labels, priority, due_date,
			completed, reminder_minutes, is_recurring, recurring_interval,
			parent_task_id, sync_status)
		VALUES ($1, $2, $3, $4, $5, $6, false, $7, false, 1, $8, 'pending')
		RETURNING `+taskColumns+`
	`, parent.Title, parent.Description, parent.Category, parent.Labels,
		parent.Priority, dueDate, parent.ReminderMinutes, parent.ID)
	return scanTask(row)
}

func scanTask(row pgx.Row) (model.Task, error) {
	var t model.Task
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Category, &t.Labels, &t.Priority,
		&t.DueDate, &t.Completed, &t.ReminderMinutes, &t.IsRecurring,
		&t.RecurringPattern, &t.RecurringInterval, &t.RecurringEndDate,
		&t.ParentTaskID, &t.GoogleCalendarID, &t.OutlookCalendarID,
		&t.SyncStatus, &t.SyncError, &t.CreatedAt, &t.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return t, ErrorNotFound
	}
	return t, err
}
