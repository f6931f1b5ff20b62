// Package store provides SQLite-backed persistence for the journal assistant.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/suhass434/journal-assistant/internal/models"
)

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// DefaultListLimit caps task listings when the caller does not specify one.
const DefaultListLimit = 100

// Store provides access to the journal assistant SQLite database.
type Store struct {
	db *sql.DB
}

// New creates a new Store and runs migrations.
func New(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Open with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *Store) Ping() error {
	return s.db.Ping()
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		raw_input TEXT,
		scheduled_date TEXT,
		scheduled_time TEXT,
		due_date TEXT,
		completed_at DATETIME,
		status TEXT NOT NULL DEFAULT 'pending',
		priority TEXT NOT NULL DEFAULT 'medium',
		recurrence TEXT NOT NULL DEFAULT 'none',
		recurrence_rule TEXT,
		parent_recurrence_id TEXT,
		is_quantitative INTEGER NOT NULL DEFAULT 0,
		progress TEXT,
		parent_task_id TEXT,
		subtasks TEXT,
		needs_clarification INTEGER NOT NULL DEFAULT 0,
		disambiguations TEXT,
		tags TEXT,
		notes TEXT,
		extraction_confidence REAL,
		detected_keywords TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS task_history (
		id TEXT PRIMARY KEY,
		task_id TEXT NOT NULL,
		action TEXT NOT NULL,
		data TEXT,
		timestamp DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS goals (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		start_date DATETIME,
		target_date DATETIME,
		progress TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
	CREATE INDEX IF NOT EXISTS idx_tasks_scheduled_date ON tasks(scheduled_date);
	CREATE INDEX IF NOT EXISTS idx_task_history_task_id ON task_history(task_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

const taskColumns = `id, name, description, raw_input, scheduled_date, scheduled_time, due_date,
	completed_at, status, priority, recurrence, recurrence_rule, parent_recurrence_id,
	is_quantitative, progress, parent_task_id, subtasks, needs_clarification, disambiguations,
	tags, notes, extraction_confidence, detected_keywords, created_at, updated_at`

// --- Task Operations ---

// CreateTask inserts a new task, assigning its ID and timestamps.
// The stored form is written back into task.
func (s *Store) CreateTask(task *models.Task) error {
	now := time.Now().UTC()
	task.ID = uuid.New().String()
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.Status == "" {
		task.Status = models.TaskStatusPending
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	if task.Recurrence == "" {
		task.Recurrence = models.RecurrenceNone
	}

	_, err := s.db.Exec(
		`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.Name, task.Description, task.RawInput,
		task.ScheduledDate, task.ScheduledTime, task.DueDate, task.CompletedAt,
		task.Status, task.Priority, task.Recurrence, task.RecurrenceRule, task.ParentRecurrenceID,
		task.IsQuantitative, marshalJSON(task.Progress), task.ParentTaskID, marshalJSON(task.Subtasks),
		task.NeedsClarification, marshalJSON(task.Disambiguations),
		marshalJSON(task.Tags), task.Notes, task.ExtractionConfidence, marshalJSON(task.DetectedKeywords),
		task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// GetTask retrieves a task by ID. Returns ErrNotFound if it does not exist.
func (s *Store) GetTask(id string) (*models.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query task: %w", err)
	}
	return task, nil
}

// ListTasks returns tasks matching the filter, ordered by scheduled date
// ascending, capped at limit (DefaultListLimit when limit <= 0).
func (s *Store) ListTasks(filter models.TaskFilter, limit int) ([]models.Task, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var conds []string
	var args []interface{}
	if filter.ScheduledDate != "" {
		conds = append(conds, "scheduled_date = ?")
		args = append(args, filter.ScheduledDate)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Priority != "" {
		conds = append(conds, "priority = ?")
		args = append(args, filter.Priority)
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY scheduled_date ASC LIMIT ?`
	args = append(args, limit)

	return s.queryTasks(query, args...)
}

// ListOverdue returns tasks scheduled before today that are still open.
func (s *Store) ListOverdue(today string) ([]models.Task, error) {
	return s.queryTasks(
		`SELECT `+taskColumns+` FROM tasks
		 WHERE scheduled_date != '' AND scheduled_date < ? AND status IN (?, ?)
		 ORDER BY scheduled_date ASC LIMIT ?`,
		today, models.TaskStatusPending, models.TaskStatusInProgress, DefaultListLimit,
	)
}

// ListRange returns tasks scheduled within [start, end], optionally filtered
// by status.
func (s *Store) ListRange(start, end string, status models.TaskStatus) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE scheduled_date >= ? AND scheduled_date <= ?`
	args := []interface{}{start, end}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY scheduled_date ASC`
	return s.queryTasks(query, args...)
}

// ListRecurrenceTemplatesBehind returns recurrence template tasks whose latest
// generated instance is scheduled before the horizon date. A template is any
// recurring task that is not itself a generated instance.
func (s *Store) ListRecurrenceTemplatesBehind(horizon string) ([]models.Task, error) {
	return s.queryTasks(
		`SELECT `+taskColumns+` FROM tasks t
		 WHERE t.recurrence IN (?, ?, ?)
		   AND t.parent_recurrence_id = ''
		   AND t.scheduled_date != ''
		   AND COALESCE((SELECT MAX(i.scheduled_date) FROM tasks i WHERE i.parent_recurrence_id = t.id), t.scheduled_date) < ?`,
		models.RecurrenceDaily, models.RecurrenceWeekly, models.RecurrenceMonthly, horizon,
	)
}

// LatestInstanceDate returns the scheduled date of the newest generated
// instance for a template, or the empty string if none exist.
func (s *Store) LatestInstanceDate(templateID string) (string, error) {
	var date sql.NullString
	err := s.db.QueryRow(
		`SELECT MAX(scheduled_date) FROM tasks WHERE parent_recurrence_id = ?`,
		templateID,
	).Scan(&date)
	if err != nil {
		return "", fmt.Errorf("query latest instance: %w", err)
	}
	return date.String, nil
}

// UpdateTask applies a partial update and refreshes updated_at. It reports
// whether the row was modified. Returns ErrNotFound if the task does not
// exist; an empty update returns the stored row unchanged with modified=false.
func (s *Store) UpdateTask(id string, update models.TaskUpdate) (*models.Task, bool, error) {
	if update.IsEmpty() {
		task, err := s.GetTask(id)
		return task, false, err
	}

	var sets []string
	var args []interface{}
	set := func(col string, v interface{}) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if update.Name != nil {
		set("name", *update.Name)
	}
	if update.Description != nil {
		set("description", *update.Description)
	}
	if update.ScheduledDate != nil {
		set("scheduled_date", *update.ScheduledDate)
	}
	if update.ScheduledTime != nil {
		set("scheduled_time", *update.ScheduledTime)
	}
	if update.DueDate != nil {
		set("due_date", *update.DueDate)
	}
	if update.Status != nil {
		set("status", *update.Status)
		if *update.Status == models.TaskStatusCompleted {
			set("completed_at", time.Now().UTC())
		}
	}
	if update.Priority != nil {
		set("priority", *update.Priority)
	}
	if update.Recurrence != nil {
		set("recurrence", *update.Recurrence)
	}
	if update.Notes != nil {
		set("notes", *update.Notes)
	}
	if update.Tags != nil {
		set("tags", marshalJSON(update.Tags))
	}
	if update.NeedsClarification != nil {
		set("needs_clarification", *update.NeedsClarification)
	}
	set("updated_at", time.Now().UTC())

	args = append(args, id)
	result, err := s.db.Exec(`UPDATE tasks SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, false, fmt.Errorf("update task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("check rows affected: %w", err)
	}
	if affected == 0 {
		return nil, false, ErrNotFound
	}

	task, err := s.GetTask(id)
	if err != nil {
		return nil, false, err
	}
	return task, true, nil
}

// CompleteTask marks a task completed with a completion timestamp.
// Returns the previous status so callers can detect repeat completions.
func (s *Store) CompleteTask(id string) (*models.Task, models.TaskStatus, error) {
	task, err := s.GetTask(id)
	if err != nil {
		return nil, "", err
	}
	prev := task.Status
	if prev == models.TaskStatusCompleted {
		return task, prev, nil
	}

	now := time.Now().UTC()
	_, err = s.db.Exec(
		`UPDATE tasks SET status = ?, completed_at = ?, updated_at = ? WHERE id = ?`,
		models.TaskStatusCompleted, now, now, id,
	)
	if err != nil {
		return nil, "", fmt.Errorf("complete task: %w", err)
	}
	task.Status = models.TaskStatusCompleted
	task.CompletedAt = &now
	task.UpdatedAt = now
	return task, prev, nil
}

// ApplyProgress applies a quantitative progress change inside a transaction
// so concurrent updates compose instead of overwriting. The new completed
// value is clamped to [0, total]; reaching the total forces the task to
// completed with a completion timestamp in the same write.
// Returns ErrNotFound for missing tasks and ErrNotQuantitative for tasks
// without numeric tracking.
func (s *Store) ApplyProgress(id string, amount int, isIncrement bool) (*models.Task, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var isQuant bool
	var progressJSON sql.NullString
	var status models.TaskStatus
	err = tx.QueryRow(`SELECT is_quantitative, progress, status FROM tasks WHERE id = ?`, id).
		Scan(&isQuant, &progressJSON, &status)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}
	if !isQuant || !progressJSON.Valid {
		return nil, ErrNotQuantitative
	}

	var progress models.QuantitativeProgress
	if err := json.Unmarshal([]byte(progressJSON.String), &progress); err != nil {
		return nil, fmt.Errorf("decode progress: %w", err)
	}

	completed := amount
	if isIncrement {
		completed = progress.Completed + amount
	}
	if completed < 0 {
		completed = 0
	}
	if completed > progress.Total {
		completed = progress.Total
	}
	progress.Completed = completed

	now := time.Now().UTC()
	if completed >= progress.Total && status != models.TaskStatusCompleted {
		_, err = tx.Exec(
			`UPDATE tasks SET progress = ?, status = ?, completed_at = ?, updated_at = ? WHERE id = ?`,
			marshalJSON(progress), models.TaskStatusCompleted, now, now, id,
		)
	} else {
		_, err = tx.Exec(
			`UPDATE tasks SET progress = ?, updated_at = ? WHERE id = ?`,
			marshalJSON(progress), now, id,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("update progress: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return s.GetTask(id)
}

// ErrNotQuantitative indicates a progress update was attempted on a task
// without numeric tracking.
var ErrNotQuantitative = errors.New("task is not quantitative")

// DeleteTask removes a task. Reports whether a record was actually removed.
func (s *Store) DeleteTask(id string) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check rows affected: %w", err)
	}
	return affected > 0, nil
}

// AddDisambiguation appends a clarification record to a task.
func (s *Store) AddDisambiguation(id string, d models.Disambiguation) (*models.Task, error) {
	task, err := s.GetTask(id)
	if err != nil {
		return nil, err
	}
	task.Disambiguations = append(task.Disambiguations, d)
	now := time.Now().UTC()
	_, err = s.db.Exec(
		`UPDATE tasks SET disambiguations = ?, needs_clarification = ?, updated_at = ? WHERE id = ?`,
		marshalJSON(task.Disambiguations), d.Response == "", now, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update disambiguations: %w", err)
	}
	task.NeedsClarification = d.Response == ""
	task.UpdatedAt = now
	return task, nil
}

// --- History Operations ---

// AppendHistory writes an immutable history entry for a task mutation.
func (s *Store) AppendHistory(entry *models.HistoryEntry) error {
	entry.ID = uuid.New().String()
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO task_history (id, task_id, action, data, timestamp) VALUES (?, ?, ?, ?, ?)`,
		entry.ID, entry.TaskID, entry.Action, entry.Data, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

// ListHistory returns history entries for a task in append order.
func (s *Store) ListHistory(taskID string) ([]models.HistoryEntry, error) {
	rows, err := s.db.Query(
		`SELECT id, task_id, action, data, timestamp FROM task_history WHERE task_id = ? ORDER BY timestamp ASC`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		var data sql.NullString
		if err := rows.Scan(&e.ID, &e.TaskID, &e.Action, &data, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.Data = data.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// --- Goal Operations ---

// CreateGoal inserts a new goal.
func (s *Store) CreateGoal(goal *models.Goal) error {
	now := time.Now().UTC()
	goal.ID = uuid.New().String()
	goal.CreatedAt = now
	goal.UpdatedAt = now
	if goal.Status == "" {
		goal.Status = "active"
	}
	_, err := s.db.Exec(
		`INSERT INTO goals (id, title, description, start_date, target_date, progress, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		goal.ID, goal.Title, goal.Description, goal.StartDate, goal.TargetDate,
		marshalJSON(goal.Progress), goal.Status, goal.CreatedAt, goal.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}
	return nil
}

// GetGoal retrieves a goal by ID.
func (s *Store) GetGoal(id string) (*models.Goal, error) {
	goal := &models.Goal{}
	var description, progressJSON sql.NullString
	var startDate, targetDate sql.NullTime
	err := s.db.QueryRow(
		`SELECT id, title, description, start_date, target_date, progress, status, created_at, updated_at FROM goals WHERE id = ?`,
		id,
	).Scan(&goal.ID, &goal.Title, &description, &startDate, &targetDate, &progressJSON, &goal.Status, &goal.CreatedAt, &goal.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query goal: %w", err)
	}
	goal.Description = description.String
	if startDate.Valid {
		goal.StartDate = &startDate.Time
	}
	if targetDate.Valid {
		goal.TargetDate = &targetDate.Time
	}
	unmarshalJSON(progressJSON, &goal.Progress)
	return goal, nil
}

// ListGoals returns goals newest-first.
func (s *Store) ListGoals() ([]models.Goal, error) {
	rows, err := s.db.Query(
		`SELECT id, title, description, start_date, target_date, progress, status, created_at, updated_at
		 FROM goals ORDER BY created_at DESC LIMIT ?`, DefaultListLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	var goals []models.Goal
	for rows.Next() {
		var goal models.Goal
		var description, progressJSON sql.NullString
		var startDate, targetDate sql.NullTime
		if err := rows.Scan(&goal.ID, &goal.Title, &description, &startDate, &targetDate, &progressJSON, &goal.Status, &goal.CreatedAt, &goal.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goal.Description = description.String
		if startDate.Valid {
			goal.StartDate = &startDate.Time
		}
		if targetDate.Valid {
			goal.TargetDate = &targetDate.Time
		}
		unmarshalJSON(progressJSON, &goal.Progress)
		goals = append(goals, goal)
	}
	return goals, rows.Err()
}

// UpdateGoalStatus updates a goal's status field.
func (s *Store) UpdateGoalStatus(id, status string) (*models.Goal, error) {
	result, err := s.db.Exec(
		`UPDATE goals SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update goal: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return nil, ErrNotFound
	}
	return s.GetGoal(id)
}

// AddGoalProgress appends a progress note to a goal.
func (s *Store) AddGoalProgress(id string, p models.GoalProgress) (*models.Goal, error) {
	goal, err := s.GetGoal(id)
	if err != nil {
		return nil, err
	}
	if p.Date.IsZero() {
		p.Date = time.Now().UTC()
	}
	goal.Progress = append(goal.Progress, p)
	now := time.Now().UTC()
	_, err = s.db.Exec(
		`UPDATE goals SET progress = ?, updated_at = ? WHERE id = ?`,
		marshalJSON(goal.Progress), now, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update goal progress: %w", err)
	}
	goal.UpdatedAt = now
	return goal, nil
}

// DeleteGoal removes a goal. Reports whether a record was removed.
func (s *Store) DeleteGoal(id string) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete goal: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check rows affected: %w", err)
	}
	return affected > 0, nil
}

// --- Scan helpers ---

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	task := &models.Task{}
	var description, rawInput, scheduledDate, scheduledTime, dueDate sql.NullString
	var recurrenceRule, parentRecurrenceID, progressJSON, parentTaskID sql.NullString
	var subtasksJSON, disambiguationsJSON, tagsJSON, notes, keywordsJSON sql.NullString
	var completedAt sql.NullTime
	var confidence sql.NullFloat64

	err := row.Scan(
		&task.ID, &task.Name, &description, &rawInput, &scheduledDate, &scheduledTime, &dueDate,
		&completedAt, &task.Status, &task.Priority, &task.Recurrence, &recurrenceRule, &parentRecurrenceID,
		&task.IsQuantitative, &progressJSON, &parentTaskID, &subtasksJSON, &task.NeedsClarification, &disambiguationsJSON,
		&tagsJSON, &notes, &confidence, &keywordsJSON, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Description = description.String
	task.RawInput = rawInput.String
	task.ScheduledDate = scheduledDate.String
	task.ScheduledTime = scheduledTime.String
	task.DueDate = dueDate.String
	if completedAt.Valid {
		task.CompletedAt = &completedAt.Time
	}
	task.RecurrenceRule = recurrenceRule.String
	task.ParentRecurrenceID = parentRecurrenceID.String
	task.ParentTaskID = parentTaskID.String
	task.Notes = notes.String
	task.ExtractionConfidence = confidence.Float64
	if progressJSON.Valid && progressJSON.String != "" && progressJSON.String != "null" {
		var progress models.QuantitativeProgress
		if err := json.Unmarshal([]byte(progressJSON.String), &progress); err == nil {
			task.Progress = &progress
		}
	}
	unmarshalJSON(subtasksJSON, &task.Subtasks)
	unmarshalJSON(disambiguationsJSON, &task.Disambiguations)
	unmarshalJSON(tagsJSON, &task.Tags)
	unmarshalJSON(keywordsJSON, &task.DetectedKeywords)
	return task, nil
}

func (s *Store) queryTasks(query string, args ...interface{}) ([]models.Task, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

// marshalJSON encodes v for a TEXT column, storing the empty string for nil.
func marshalJSON(v interface{}) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

func unmarshalJSON(col sql.NullString, v interface{}) {
	if col.Valid && col.String != "" && col.String != "null" {
		_ = json.Unmarshal([]byte(col.String), v)
	}
}
