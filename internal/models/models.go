// Package models defines the core domain types for the journal assistant.
package models

import "time"

// DateFormat is the calendar-date layout used for scheduled and due dates.
// Dates are kept as plain strings so that lexicographic comparison matches
// chronological comparison.
const DateFormat = "2006-01-02"

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether a task may move from one status to another
// via a generic update. Completed and cancelled are terminal; the only way
// out of them is the quantitative force-complete path, which does not go
// through this check. Same-status transitions are allowed no-ops.
func CanTransition(from, to TaskStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case TaskStatusPending:
		return to == TaskStatusInProgress || to == TaskStatusCompleted || to == TaskStatusCancelled
	case TaskStatusInProgress:
		return to == TaskStatusCompleted || to == TaskStatusCancelled
	default:
		return false
	}
}

// Priority represents task priority.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// RecurrencePattern represents how a task repeats.
type RecurrencePattern string

const (
	RecurrenceNone    RecurrencePattern = "none"
	RecurrenceDaily   RecurrencePattern = "daily"
	RecurrenceWeekly  RecurrencePattern = "weekly"
	RecurrenceMonthly RecurrencePattern = "monthly"
	RecurrenceCustom  RecurrencePattern = "custom"
)

// Interval returns the day offset between occurrences and whether the
// pattern can be expanded. Monthly is a fixed 30-day offset, a documented
// approximation rather than calendar-month arithmetic.
func (r RecurrencePattern) Interval() (days int, ok bool) {
	switch r {
	case RecurrenceDaily:
		return 1, true
	case RecurrenceWeekly:
		return 7, true
	case RecurrenceMonthly:
		return 30, true
	}
	return 0, false
}

// QuantitativeProgress tracks tasks measured by a numeric count
// (e.g. 100 questions, 50 pages).
type QuantitativeProgress struct {
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Unit      string `json:"unit,omitempty"`
}

// Remaining returns the amount left, floored at zero.
func (q QuantitativeProgress) Remaining() int {
	if q.Completed >= q.Total {
		return 0
	}
	return q.Total - q.Completed
}

// Percentage returns completion as a percentage, 0 when total is zero.
func (q QuantitativeProgress) Percentage() float64 {
	if q.Total == 0 {
		return 0
	}
	return float64(q.Completed) / float64(q.Total) * 100
}

// Disambiguation records one round of clarification for an uncertain
// extraction or completion match.
type Disambiguation struct {
	Question   string    `json:"question"`
	Response   string    `json:"response,omitempty"`
	Confidence float64   `json:"confidence_score"`
	Timestamp  time.Time `json:"timestamp"`
}

// Task is the central entity: a single actionable item extracted from
// natural language or created directly.
type Task struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	RawInput    string `json:"raw_input,omitempty"`

	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	ScheduledDate string     `json:"scheduled_date,omitempty"` // YYYY-MM-DD
	ScheduledTime string     `json:"scheduled_time,omitempty"` // HH:MM
	DueDate       string     `json:"due_date,omitempty"`       // YYYY-MM-DD
	CompletedAt   *time.Time `json:"completed_at,omitempty"`

	Status   TaskStatus `json:"status"`
	Priority Priority   `json:"priority"`

	Recurrence         RecurrencePattern `json:"recurrence"`
	RecurrenceRule     string            `json:"recurrence_rule,omitempty"`
	ParentRecurrenceID string            `json:"parent_recurrence_id,omitempty"`

	IsQuantitative bool                  `json:"is_quantitative"`
	Progress       *QuantitativeProgress `json:"quantitative_progress,omitempty"`

	ParentTaskID string   `json:"parent_task_id,omitempty"`
	Subtasks     []string `json:"subtasks,omitempty"`

	NeedsClarification bool             `json:"needs_clarification"`
	Disambiguations    []Disambiguation `json:"disambiguation_history,omitempty"`

	Tags                 []string `json:"tags,omitempty"`
	Notes                string   `json:"notes,omitempty"`
	ExtractionConfidence float64  `json:"extraction_confidence,omitempty"`
	DetectedKeywords     []string `json:"detected_keywords,omitempty"`
}

// HistoryAction tags a task history entry.
type HistoryAction string

const (
	HistoryCreated   HistoryAction = "created"
	HistoryUpdated   HistoryAction = "updated"
	HistoryCompleted HistoryAction = "completed"
	HistoryDeleted   HistoryAction = "deleted"
)

// HistoryEntry is an immutable audit record of a single task mutation.
type HistoryEntry struct {
	ID        string        `json:"id"`
	TaskID    string        `json:"task_id"`
	Action    HistoryAction `json:"action"`
	Data      string        `json:"data,omitempty"` // JSON snapshot or delta
	Timestamp time.Time     `json:"timestamp"`
}

// TaskFilter selects tasks by exact field match. Zero values match anything.
type TaskFilter struct {
	ScheduledDate string
	Status        TaskStatus
	Priority      Priority
}

// TaskUpdate is a validated partial-update payload. Nil fields are left
// untouched.
type TaskUpdate struct {
	Name               *string            `json:"name,omitempty"`
	Description        *string            `json:"description,omitempty"`
	ScheduledDate      *string            `json:"scheduled_date,omitempty"`
	ScheduledTime      *string            `json:"scheduled_time,omitempty"`
	DueDate            *string            `json:"due_date,omitempty"`
	Status             *TaskStatus        `json:"status,omitempty"`
	Priority           *Priority          `json:"priority,omitempty"`
	Recurrence         *RecurrencePattern `json:"recurrence,omitempty"`
	Notes              *string            `json:"notes,omitempty"`
	Tags               []string           `json:"tags,omitempty"`
	NeedsClarification *bool              `json:"needs_clarification,omitempty"`
}

// IsEmpty reports whether the update carries no changes.
func (u TaskUpdate) IsEmpty() bool {
	return u.Name == nil && u.Description == nil && u.ScheduledDate == nil &&
		u.ScheduledTime == nil && u.DueDate == nil && u.Status == nil &&
		u.Priority == nil && u.Recurrence == nil && u.Notes == nil &&
		u.Tags == nil && u.NeedsClarification == nil
}

// Statistics aggregates task outcomes over a date range.
type Statistics struct {
	Total          int            `json:"total"`
	Completed      int            `json:"completed"`
	Pending        int            `json:"pending"`
	CompletionRate float64        `json:"completion_rate"`
	ByPriority     map[string]int `json:"by_priority"`
	Tasks          []Task         `json:"tasks"`
}

// GoalProgress is a dated progress note on a goal.
type GoalProgress struct {
	Date   time.Time `json:"date"`
	Note   string    `json:"note,omitempty"`
	Amount float64   `json:"amount,omitempty"`
}

// Goal is a longer-horizon objective tracked alongside tasks.
type Goal struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	StartDate   *time.Time     `json:"start_date,omitempty"`
	TargetDate  *time.Time     `json:"target_date,omitempty"`
	Progress    []GoalProgress `json:"progress,omitempty"`
	Status      string         `json:"status"` // active, paused, completed
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
