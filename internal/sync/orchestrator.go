package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-sync-api/internal/calendar"
	"github.com/BuzzLyutic/task-sync-api/internal/model"
	"github.com/BuzzLyutic/task-sync-api/internal/repo"
)

// Orchestrator проталкивает контент задачи во все настроенные календари
// и сводит sync_status/sync_error/внешние id к итогу прохода.
type Orchestrator struct {
	repo    repo.TaskRepository
	google  calendar.Provider
	outlook calendar.Provider
	logger  *zap.Logger
}

func NewOrchestrator(repo repo.TaskRepository, google, outlook calendar.Provider, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		repo:    repo,
		google:  google,
		outlook: outlook,
		logger:  logger,
	}
}

// SyncTask выполняет один проход синхронизации. Вызывается fire-and-forget
// из пула воркеров и никогда не отдает ошибку наверх: любой сбой
// оседает в sync_error задачи.
func (o *Orchestrator) SyncTask(ctx context.Context, taskID int64) {
	task, err := o.repo.Get(ctx, taskID)
	if err != nil {
		if errors.Is(err, repo.ErrorNotFound) {
			return // задача уже удалена, синхронизировать нечего
		}
		o.fail(ctx, taskID, fmt.Sprintf("sync process error: %v", err))
		return
	}

	// Сразу фиксируем in-flight статус, чтобы его видели конкурентные читатели
	if _, err := o.repo.UpdateSyncState(ctx, taskID, model.SyncState{Status: model.SyncSyncing}); err != nil {
		o.fail(ctx, taskID, fmt.Sprintf("sync process error: %v", err))
		return
	}

	// Провайдеры строго по очереди: Google, затем Outlook. Ошибка одного
	// записывается и не мешает попытке второго.
	var errs []string
	var googleID, outlookID *string

	if o.google.IsInitialized() {
		if id, err := o.pushEvent(ctx, o.google, task.GoogleCalendarID, task); err != nil {
			o.logger.Error("Google Calendar sync failed", zap.Int64("task_id", taskID), zap.Error(err))
			errs = append(errs, fmt.Sprintf("%s: %v", o.google.Name(), err))
		} else if id != "" {
			googleID = &id
		}
	}

	if o.outlook.IsInitialized() {
		if id, err := o.pushEvent(ctx, o.outlook, task.OutlookCalendarID, task); err != nil {
			o.logger.Error("Outlook Calendar sync failed", zap.Int64("task_id", taskID), zap.Error(err))
			errs = append(errs, fmt.Sprintf("%s: %v", o.outlook.Name(), err))
		} else if id != "" {
			outlookID = &id
		}
	}

	// Успешно полученные id сохраняются даже при частичном провале
	state := model.SyncState{
		Status:    model.SyncSynced,
		GoogleID:  googleID,
		OutlookID: outlookID,
	}
	if len(errs) > 0 {
		msg := strings.Join(errs, "; ")
		state.Status = model.SyncFailed
		state.Error = &msg
	}

	if _, err := o.repo.UpdateSyncState(ctx, taskID, state); err != nil {
		o.logger.Error("failed to persist sync state", zap.Int64("task_id", taskID), zap.Error(err))
		return
	}

	o.logger.Info("Task sync finished",
		zap.Int64("task_id", taskID),
		zap.String("status", state.Status),
	)
}

// pushEvent обновляет событие по уже известному id, иначе создает новое
func (o *Orchestrator) pushEvent(ctx context.Context, p calendar.Provider, eventID *string, task model.Task) (string, error) {
	if eventID != nil && *eventID != "" {
		return "", p.UpdateEvent(ctx, *eventID, task)
	}
	return p.CreateEvent(ctx, task)
}

func (o *Orchestrator) fail(ctx context.Context, taskID int64, msg string) {
	if _, err := o.repo.UpdateSyncState(ctx, taskID, model.SyncState{
		Status: model.SyncFailed,
		Error:  &msg,
	}); err != nil {
		o.logger.Error("failed to record sync failure", zap.Int64("task_id", taskID), zap.Error(err))
	}
}

// DeleteEvents - best-effort удаление событий задачи из календарей.
// Ошибки только логируются: локальное удаление задачи не должно
// блокироваться доступностью внешних API.
func (o *Orchestrator) DeleteEvents(ctx context.Context, task model.Task) {
	if task.GoogleCalendarID != nil && o.google.IsInitialized() {
		if err := o.google.DeleteEvent(ctx, *task.GoogleCalendarID); err != nil {
			o.logger.Warn("failed to delete calendar event",
				zap.String("provider", o.google.Name()),
				zap.Int64("task_id", task.ID),
				zap.Error(err),
			)
		}
	}
	if task.OutlookCalendarID != nil && o.outlook.IsInitialized() {
		if err := o.outlook.DeleteEvent(ctx, *task.OutlookCalendarID); err != nil {
			o.logger.Warn("failed to delete calendar event",
				zap.String("provider", o.outlook.Name()),
				zap.Int64("task_id", task.ID),
				zap.Error(err),
			)
		}
	}
}

// ProviderStatus - состояние подключения для GET /api/sync/status
type ProviderStatus struct {
	Connected bool   `json:"connected"`
	Service   string `json:"service"`
}

func (o *Orchestrator) Status() map[string]ProviderStatus {
	return map[string]ProviderStatus{
		"google":  {Connected: o.google.IsInitialized(), Service: o.google.Name()},
		"outlook": {Connected: o.outlook.IsInitialized(), Service: o.outlook.Name()},
	}
}
