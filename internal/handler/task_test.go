package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-sync-api/internal/calendar"
	"github.com/BuzzLyutic/task-sync-api/internal/model"
	"github.com/BuzzLyutic/task-sync-api/internal/recurrence"
	"github.com/BuzzLyutic/task-sync-api/internal/repo"
	"github.com/BuzzLyutic/task-sync-api/internal/service"
	tasksync "github.com/BuzzLyutic/task-sync-api/internal/sync"
)

// syncRecorder вместо пула: сабмиты только записываются
type syncRecorder struct {
	submitted []int64
}

func (s *syncRecorder) Submit(taskID int64) {
	s.submitted = append(s.submitted, taskID)
}

func setupHandler(t *testing.T) (*chi.Mux, *repo.MemoryRepo, *syncRecorder) {
	t.Helper()

	store := repo.NewMemoryRepo()
	logger := zap.NewNop()
	google := &calendar.GoogleProvider{} // без кредов - выключены
	outlook := &calendar.OutlookProvider{}
	orch := tasksync.NewOrchestrator(store, google, outlook, logger)
	rec := &syncRecorder{}
	expander := recurrence.NewExpander(store, rec, logger)
	svc := service.NewTaskService(store, orch, expander, rec, logger)
	h := NewTaskHandler(svc, logger)

	r := chi.NewRouter()
	h.Routes(r)
	return r, store, rec
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func seedTask(t *testing.T, store *repo.MemoryRepo, title, category string, labels []string) model.Task {
	t.Helper()
	task, err := store.Create(context.Background(), model.Task{
		Title:             title,
		Category:          category,
		Labels:            labels,
		Priority:          model.PriorityMedium,
		RecurringInterval: 1,
	})
	require.NoError(t, err)
	return task
}

func TestTaskHandler_Create(t *testing.T) {
	tests := []struct {
		name          string
		body          interface{}
		wantCode      int
		checkResponse func(*testing.T, *httptest.ResponseRecorder, *syncRecorder)
	}{
		{
			name:     "successful creation",
			body:     map[string]interface{}{"title": "Test Task"},
			wantCode: http.StatusCreated,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder, rec *syncRecorder) {
				var task model.Task
				require.NoError(t, json.NewDecoder(w.Body).Decode(&task))
				assert.NotZero(t, task.ID)
				assert.Equal(t, "Test Task", task.Title)
				assert.Equal(t, model.PriorityMedium, task.Priority)
				assert.Equal(t, "general", task.Category)
				assert.Equal(t, model.SyncPending, task.SyncStatus)
				assert.Contains(t, w.Header().Get("Location"), "/api/tasks/")
				assert.Equal(t, []int64{task.ID}, rec.submitted, "create must queue a sync")
			},
		},
		{
			name:     "empty body",
			body:     nil,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "validation error",
			body:     map[string]interface{}{"title": ""},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown priority",
			body:     map[string]interface{}{"title": "x", "priority": "critical"},
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, rec := setupHandler(t)
			w := doJSON(t, r, http.MethodPost, "/api/tasks", tt.body)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.checkResponse != nil {
				tt.checkResponse(t, w, rec)
			}
		})
	}
}

func TestTaskHandler_GetAndList(t *testing.T) {
	r, store, _ := setupHandler(t)
	task := seedTask(t, store, "Find me", "work", []string{"x"})

	w := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/tasks/%d", task.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var got model.Task
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, task.ID, got.ID)

	w = doJSON(t, r, http.MethodGet, "/api/tasks/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/tasks", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var list []model.Task
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	assert.Len(t, list, 1)
}

func TestTaskHandler_Update(t *testing.T) {
	r, store, rec := setupHandler(t)
	task := seedTask(t, store, "Before", "general", nil)

	w := doJSON(t, r, http.MethodPatch, fmt.Sprintf("/api/tasks/%d", task.ID),
		map[string]interface{}{"title": "After", "completed": true})
	assert.Equal(t, http.StatusOK, w.Code)

	var got model.Task
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, "After", got.Title)
	assert.True(t, got.Completed)
	assert.Equal(t, []int64{got.ID}, rec.submitted, "update must queue a sync")

	w = doJSON(t, r, http.MethodPatch, "/api/tasks/999", map[string]interface{}{"title": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodPatch, fmt.Sprintf("/api/tasks/%d", task.ID),
		map[string]interface{}{"priority": "critical"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskHandler_Delete(t *testing.T) {
	r, store, _ := setupHandler(t)
	task := seedTask(t, store, "Delete me", "general", nil)

	w := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", task.ID), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	_, err := store.Get(context.Background(), task.ID)
	assert.ErrorIs(t, err, repo.ErrorNotFound)

	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", task.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTaskHandler_RetrySync(t *testing.T) {
	r, store, rec := setupHandler(t)
	task := seedTask(t, store, "Retry", "general", nil)

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/tasks/%d/sync", task.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "sync initiated", resp["message"])
	assert.Equal(t, []int64{task.ID}, rec.submitted)

	w = doJSON(t, r, http.MethodPost, "/api/tasks/999/sync", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTaskHandler_GenerateRecurring(t *testing.T) {
	r, store, _ := setupHandler(t)

	due := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	pattern := model.PatternWeekly
	recurring, err := store.Create(context.Background(), model.Task{
		Title:             "Weekly",
		Category:          "general",
		Priority:          model.PriorityMedium,
		DueDate:           &due,
		IsRecurring:       true,
		RecurringPattern:  &pattern,
		RecurringInterval: 1,
		RecurringEndDate:  &end,
	})
	require.NoError(t, err)
	plain := seedTask(t, store, "Plain", "general", nil)

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/tasks/%d/generate-recurring", recurring.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Message   string       `json:"message"`
		Instances []model.Task `json:"instances"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Generated 4 recurring instances", resp.Message)
	assert.Len(t, resp.Instances, 4)

	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/tasks/%d/generate-recurring", plain.ID), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/tasks/999/generate-recurring", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTaskHandler_SyncStatus(t *testing.T) {
	r, _, _ := setupHandler(t)

	w := doJSON(t, r, http.MethodGet, "/api/sync/status", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Google   tasksync.ProviderStatus `json:"google"`
		Outlook  tasksync.ProviderStatus `json:"outlook"`
		LastSync string                  `json:"lastSync"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.False(t, resp.Google.Connected)
	assert.Equal(t, "Google Calendar", resp.Google.Service)
	assert.False(t, resp.Outlook.Connected)
	assert.Equal(t, "Outlook Calendar", resp.Outlook.Service)
	assert.NotEmpty(t, resp.LastSync)
}

func TestTaskHandler_CategoriesAndLabels(t *testing.T) {
	r, store, _ := setupHandler(t)
	seedTask(t, store, "a", "work", []string{"urgent"})
	seedTask(t, store, "b", "home", []string{"chores", "urgent"})

	w := doJSON(t, r, http.MethodGet, "/api/categories", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var categories []string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&categories))
	assert.Equal(t, []string{"home", "work"}, categories)

	w = doJSON(t, r, http.MethodGet, "/api/labels", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var labels []string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&labels))
	assert.Equal(t, []string{"chores", "urgent"}, labels)

	w = doJSON(t, r, http.MethodGet, "/api/tasks/category/work", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var byCategory []model.Task
	require.NoError(t, json.NewDecoder(w.Body).Decode(&byCategory))
	require.Len(t, byCategory, 1)
	assert.Equal(t, "a", byCategory[0].Title)

	w = doJSON(t, r, http.MethodGet, "/api/tasks/label/urgent", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var byLabel []model.Task
	require.NoError(t, json.NewDecoder(w.Body).Decode(&byLabel))
	assert.Len(t, byLabel, 2)
}
