package model

import "time"

// Приоритеты задач
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Паттерны повторения
const (
	PatternDaily   = "daily"
	PatternWeekly  = "weekly"
	PatternMonthly = "monthly"
	PatternYearly  = "yearly"
)

// Статусы синхронизации с календарями
const (
	SyncPending = "pending"
	SyncSyncing = "syncing"
	SyncSynced  = "synced"
	SyncFailed  = "failed"
)

type Task struct {
	ID                int64      `json:"id"`
	Title             string     `json:"title"`
	Description       *string    `json:"description"`
	Category          string     `json:"category"`
	Labels            []string   `json:"labels"`
	Priority          string     `json:"priority"`
	DueDate           *time.Time `json:"dueDate"`
	Completed         bool       `json:"completed"`
	ReminderMinutes   *int       `json:"reminderMinutes"`
	IsRecurring       bool       `json:"isRecurring"`
	RecurringPattern  *string    `json:"recurringPattern"`
	RecurringInterval int        `json:"recurringInterval"`
	RecurringEndDate  *time.Time `json:"recurringEndDate"`
	ParentTaskID      *int64     `json:"parentTaskId"`
	GoogleCalendarID  *string    `json:"googleCalendarId"`
	OutlookCalendarID *string    `json:"outlookCalendarId"`
	SyncStatus        string     `json:"syncStatus"`
	SyncError         *string    `json:"syncError"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// TaskUpdate - частичное обновление (PATCH), nil-поля не трогаются
type TaskUpdate struct {
	Title             *string    `json:"title"`
	Description       *string    `json:"description"`
	Category          *string    `json:"category"`
	Labels            *[]string  `json:"labels"`
	Priority          *string    `json:"priority"`
	DueDate           *time.Time `json:"dueDate"`
	Completed         *bool      `json:"completed"`
	ReminderMinutes   *int       `json:"reminderMinutes"`
	IsRecurring       *bool      `json:"isRecurring"`
	RecurringPattern  *string    `json:"recurringPattern"`
	RecurringInterval *int       `json:"recurringInterval"`
	RecurringEndDate  *time.Time `json:"recurringEndDate"`
}

// SyncState - итог одного прохода синхронизации.
// Nil-идентификаторы означают "оставить прежний" - внешние id не затираются.
type SyncState struct {
	Status    string
	Error     *string
	GoogleID  *string
	OutlookID *string
}

type TaskFilter struct {
	Category *string
	Label    *string
}

func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

func ValidPattern(p string) bool {
	switch p {
	case PatternDaily, PatternWeekly, PatternMonthly, PatternYearly:
		return true
	}
	return false
}

// NormalizeLabels убирает дубликаты и пустые строки
func NormalizeLabels(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
