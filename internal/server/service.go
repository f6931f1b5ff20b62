// Package server provides the HTTP API and service layer for the journal
// assistant.
package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/suhass434/journal-assistant/internal/audit"
	"github.com/suhass434/journal-assistant/internal/models"
	"github.com/suhass434/journal-assistant/internal/nlp"
	"github.com/suhass434/journal-assistant/internal/store"
)

// RecurrenceOccurrences is how many future instances are generated when a
// recurring task is created.
const RecurrenceOccurrences = 7

// Service owns the task lifecycle: creation, retrieval, mutation,
// completion, progress, and the natural-language flows on top of them.
type Service struct {
	store   *store.Store
	history *audit.HistoryWriter
	engine  *nlp.Engine
	logger  zerolog.Logger
	now     func() time.Time
}

// NewService creates a new lifecycle service.
func NewService(s *store.Store, history *audit.HistoryWriter, engine *nlp.Engine, logger zerolog.Logger) *Service {
	return &Service{
		store:   s,
		history: history,
		engine:  engine,
		logger:  logger,
		now:     time.Now,
	}
}

// --- Direct lifecycle operations ---

// Create persists a task and writes a created history entry. Persistence
// errors propagate; history failures are logged but do not fail the create.
func (s *Service) Create(task *models.Task) error {
	if strings.TrimSpace(task.Name) == "" {
		return fmt.Errorf("%w: task name", ErrEmptyInput)
	}
	if err := s.store.CreateTask(task); err != nil {
		return err
	}
	s.record(task.ID, models.HistoryCreated, task)
	return nil
}

// Get retrieves a task by ID.
func (s *Service) Get(id string) (*models.Task, error) {
	return s.store.GetTask(id)
}

// List returns tasks matching the filter.
func (s *Service) List(filter models.TaskFilter, limit int) ([]models.Task, error) {
	return s.store.ListTasks(filter, limit)
}

// Update applies a validated partial update. Status changes must be legal
// under the task state machine; illegal transitions are rejected rather than
// silently accepted. A history entry is written only when the store reports
// an actual modification.
func (s *Service) Update(id string, update models.TaskUpdate) (*models.Task, error) {
	if update.Status != nil {
		if !update.Status.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, *update.Status)
		}
		current, err := s.store.GetTask(id)
		if err != nil {
			return nil, err
		}
		if !models.CanTransition(current.Status, *update.Status) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, *update.Status)
		}
	}
	if update.Priority != nil && !update.Priority.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPriority, *update.Priority)
	}

	task, modified, err := s.store.UpdateTask(id, update)
	if err != nil {
		return nil, err
	}
	if modified {
		s.record(id, models.HistoryUpdated, update)
	}
	return task, nil
}

// Complete marks a task completed. Completing an already-completed task is a
// no-op: the task is returned unchanged and no second history entry is
// written.
func (s *Service) Complete(id string) (*models.Task, error) {
	task, prev, err := s.store.CompleteTask(id)
	if err != nil {
		return nil, err
	}
	if prev != models.TaskStatusCompleted {
		s.record(id, models.HistoryCompleted, map[string]interface{}{"completed_at": task.CompletedAt})
	}
	return task, nil
}

// ApplyProgress applies a quantitative progress change. The completed value
// is clamped to [0, total]; reaching the total forces completion in the same
// update.
func (s *Service) ApplyProgress(id string, amount int, isIncrement bool) (*models.Task, error) {
	task, err := s.store.ApplyProgress(id, amount, isIncrement)
	if err != nil {
		return nil, err
	}
	s.record(id, models.HistoryUpdated, map[string]interface{}{
		"progress":     task.Progress,
		"amount":       amount,
		"is_increment": isIncrement,
	})
	return task, nil
}

// Delete logs a deleted history entry, then removes the task. An orphan
// history entry from a failed delete is acceptable; the reverse order would
// lose the audit trail.
func (s *Service) Delete(id string) (bool, error) {
	s.record(id, models.HistoryDeleted, nil)
	return s.store.DeleteTask(id)
}

// History returns the audit log for a task.
func (s *Service) History(id string) ([]models.HistoryEntry, error) {
	return s.history.List(id)
}

// TasksForDay returns tasks scheduled on the given date, optionally filtered
// by status.
func (s *Service) TasksForDay(date string, status models.TaskStatus) ([]models.Task, error) {
	return s.store.ListTasks(models.TaskFilter{ScheduledDate: date, Status: status}, 0)
}

// Overdue returns open tasks scheduled before today.
func (s *Service) Overdue() ([]models.Task, error) {
	return s.store.ListOverdue(s.today())
}

// Statistics aggregates task outcomes over [start, end].
func (s *Service) Statistics(start, end string) (*models.Statistics, error) {
	tasks, err := s.store.ListRange(start, end, "")
	if err != nil {
		return nil, err
	}

	stats := &models.Statistics{
		Total:      len(tasks),
		ByPriority: map[string]int{},
		Tasks:      tasks,
	}
	for _, t := range tasks {
		switch t.Status {
		case models.TaskStatusCompleted:
			stats.Completed++
		case models.TaskStatusPending, models.TaskStatusInProgress:
			stats.Pending++
		}
		stats.ByPriority[string(t.Priority)]++
	}
	if stats.Total > 0 {
		stats.CompletionRate = float64(stats.Completed) / float64(stats.Total) * 100
	}
	return stats, nil
}

// AddClarificationResponse records the user's answer to an open
// clarification question as a new disambiguation round.
func (s *Service) AddClarificationResponse(id, response string) (*models.Task, error) {
	if strings.TrimSpace(response) == "" {
		return nil, fmt.Errorf("%w: response", ErrEmptyInput)
	}
	task, err := s.store.GetTask(id)
	if err != nil {
		return nil, err
	}
	question := ""
	if n := len(task.Disambiguations); n > 0 {
		question = task.Disambiguations[n-1].Question
	}
	updated, err := s.store.AddDisambiguation(id, models.Disambiguation{
		Question:   question,
		Response:   response,
		Confidence: 1.0,
		Timestamp:  s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	s.record(id, models.HistoryUpdated, map[string]string{"clarification_response": response})
	return updated, nil
}

// --- Natural-language flows ---

// ExtractResponse is the outcome of creating tasks from raw text.
type ExtractResponse struct {
	Tasks                 []models.Task `json:"tasks"`
	NeedsClarification    bool          `json:"needs_clarification"`
	ClarificationQuestion string        `json:"clarification_question,omitempty"`
	OverallConfidence     float64       `json:"overall_confidence"`
}

// ExtractAndCreate turns raw text into persisted tasks. One input may yield
// several independent tasks; each is created on its own, and recurring tasks
// are expanded into future instances. Extraction itself never fails, only
// persistence errors propagate.
func (s *Service) ExtractAndCreate(ctx context.Context, text string, ref time.Time) (*ExtractResponse, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	extraction := s.engine.Extract(ctx, text, ref)

	resp := &ExtractResponse{
		NeedsClarification:    extraction.NeedsClarification,
		ClarificationQuestion: extraction.ClarificationQuestion,
		OverallConfidence:     extraction.OverallConfidence,
	}

	for _, draft := range extraction.Tasks {
		task := s.taskFromDraft(draft, text, extraction)
		if err := s.Create(task); err != nil {
			return nil, err
		}
		resp.Tasks = append(resp.Tasks, *task)

		if _, ok := task.Recurrence.Interval(); ok {
			instances, err := s.ExpandRecurrence(task, RecurrenceOccurrences)
			if err != nil {
				// Instances created before the failure stay; no rollback.
				s.logger.Error().Err(err).Str("task_id", task.ID).Msg("recurrence expansion failed")
			}
			resp.Tasks = append(resp.Tasks, instances...)
		}
	}
	return resp, nil
}

func (s *Service) taskFromDraft(draft nlp.TaskDraft, rawInput string, extraction nlp.ExtractionResult) *models.Task {
	task := &models.Task{
		Name:                 draft.Name,
		Description:          draft.Description,
		RawInput:             rawInput,
		ScheduledDate:        draft.ScheduledDate,
		ScheduledTime:        draft.ScheduledTime,
		DueDate:              draft.DueDate,
		Status:               models.TaskStatusPending,
		Priority:             draft.Priority,
		Recurrence:           draft.Recurrence,
		RecurrenceRule:       draft.RecurrenceDetails,
		IsQuantitative:       draft.IsQuantitative,
		NeedsClarification:   extraction.NeedsClarification,
		ExtractionConfidence: draft.Confidence,
		DetectedKeywords:     draft.DetectedKeywords,
	}
	if draft.IsQuantitative {
		task.Progress = &models.QuantitativeProgress{
			Total: draft.QuantitativeTotal,
			Unit:  draft.QuantitativeUnit,
		}
	}
	if extraction.NeedsClarification {
		task.Disambiguations = []models.Disambiguation{{
			Question:   extraction.ClarificationQuestion,
			Confidence: extraction.OverallConfidence,
			Timestamp:  s.now().UTC(),
		}}
	}
	return task
}

// ExpandRecurrence generates future instances of a recurring template task.
// Patterns without a day interval, or templates without a scheduled date,
// yield nothing. Each instance is a clone with a fresh identity, a shifted
// scheduled date, and a back-reference to the template. Instances are
// persisted one by one; a failure partway leaves earlier instances intact.
func (s *Service) ExpandRecurrence(template *models.Task, occurrences int) ([]models.Task, error) {
	interval, ok := template.Recurrence.Interval()
	if !ok || template.ScheduledDate == "" {
		return nil, nil
	}

	base, err := time.Parse(models.DateFormat, template.ScheduledDate)
	if err != nil {
		return nil, fmt.Errorf("parse template date: %w", err)
	}

	var created []models.Task
	for i := 1; i <= occurrences; i++ {
		instance := *template
		instance.ID = ""
		instance.CompletedAt = nil
		instance.Status = models.TaskStatusPending
		instance.ScheduledDate = base.AddDate(0, 0, interval*i).Format(models.DateFormat)
		instance.ParentRecurrenceID = template.ID
		if template.Progress != nil {
			progress := *template.Progress
			progress.Completed = 0
			instance.Progress = &progress
		}

		if err := s.Create(&instance); err != nil {
			return created, fmt.Errorf("create occurrence %d: %w", i, err)
		}
		created = append(created, instance)
	}
	return created, nil
}

// CompletionResponse is the outcome of completing tasks from free text.
type CompletionResponse struct {
	CompletedTasks        []models.Task `json:"completed_tasks"`
	UpdatedTasks          []models.Task `json:"updated_tasks"`
	NeedsClarification    bool          `json:"needs_clarification"`
	ClarificationQuestion string        `json:"clarification_question,omitempty"`
	Confidence            float64       `json:"confidence"`
	Message               string        `json:"message,omitempty"`
}

// CompleteFromText matches a free-text completion statement against the
// day's tasks in two phases. Numeric statements first try quantitative
// progress updates against tasks whose name appears in the text; the intent
// matcher then handles the rest. A successful phase one suppresses the
// clarification request from phase two, since progress was already recorded.
func (s *Service) CompleteFromText(ctx context.Context, text string, date time.Time) (*CompletionResponse, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	dateStr := date.Format(models.DateFormat)
	all, err := s.TasksForDay(dateStr, "")
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return &CompletionResponse{Message: "No tasks found for this date."}, nil
	}

	resp := &CompletionResponse{}

	// Phase 1: quantitative progress.
	if nlp.ContainsNumber(text) {
		for _, task := range all {
			if !task.IsQuantitative || !nlp.NameMentioned(task.Name, text) {
				continue
			}
			parsed := s.engine.ParseProgress(ctx, text, task)
			if parsed.AmountCompleted <= 0 {
				continue
			}
			updated, err := s.ApplyProgress(task.ID, parsed.AmountCompleted, parsed.IsIncrement)
			if err != nil {
				s.logger.Error().Err(err).Str("task_id", task.ID).Msg("progress update failed")
				continue
			}
			resp.UpdatedTasks = append(resp.UpdatedTasks, *updated)
		}
	}

	// Phase 2: intent matching over still-pending tasks.
	pending, err := s.TasksForDay(dateStr, models.TaskStatusPending)
	if err != nil {
		return nil, err
	}
	match := s.engine.MatchCompletion(ctx, text, pending, date)
	for _, id := range match.MatchedTaskIDs {
		completed, err := s.Complete(id)
		if err != nil {
			s.logger.Error().Err(err).Str("task_id", id).Msg("completion failed")
			continue
		}
		resp.CompletedTasks = append(resp.CompletedTasks, *completed)
	}

	resp.Confidence = match.Confidence
	if len(resp.UpdatedTasks) == 0 {
		resp.NeedsClarification = match.NeedsClarification
		resp.ClarificationQuestion = match.ClarificationQuestion
	}
	return resp, nil
}

// SummaryResponse is an AI daily summary with its backing statistics.
type SummaryResponse struct {
	Date       string        `json:"date"`
	Summary    string        `json:"summary"`
	Total      int           `json:"total"`
	Completed  int           `json:"completed"`
	Pending    int           `json:"pending"`
	Rate       float64       `json:"completion_rate"`
	Tasks      []models.Task `json:"tasks"`
}

// Summary generates the end-of-day summary for a date.
func (s *Service) Summary(ctx context.Context, date time.Time) (*SummaryResponse, error) {
	dateStr := date.Format(models.DateFormat)
	tasks, err := s.TasksForDay(dateStr, "")
	if err != nil {
		return nil, err
	}

	resp := &SummaryResponse{
		Date:    dateStr,
		Summary: s.engine.DailySummary(ctx, tasks, date),
		Total:   len(tasks),
		Tasks:   tasks,
	}
	for _, t := range tasks {
		if t.Status == models.TaskStatusCompleted {
			resp.Completed++
		}
	}
	resp.Pending = resp.Total - resp.Completed
	if resp.Total > 0 {
		resp.Rate = float64(resp.Completed) / float64(resp.Total) * 100
	}
	return resp, nil
}

// InsightsResponse pairs productivity insights with the window statistics.
type InsightsResponse struct {
	Start      string             `json:"start"`
	End        string             `json:"end"`
	Days       int                `json:"days"`
	Statistics *models.Statistics `json:"statistics"`
	Insights   nlp.Insights       `json:"insights"`
}

// InsightsReport analyzes the last N days of task history.
func (s *Service) InsightsReport(ctx context.Context, days int) (*InsightsResponse, error) {
	if days <= 0 {
		days = 30
	}
	end := s.now()
	start := end.AddDate(0, 0, -days)

	stats, err := s.Statistics(start.Format(models.DateFormat), end.Format(models.DateFormat))
	if err != nil {
		return nil, err
	}

	return &InsightsResponse{
		Start:      start.Format(models.DateFormat),
		End:        end.Format(models.DateFormat),
		Days:       days,
		Statistics: stats,
		Insights:   s.engine.ProductivityInsights(ctx, stats.Tasks),
	}, nil
}

// BreakdownSuggestion asks for a subtask decomposition of an existing task.
func (s *Service) BreakdownSuggestion(ctx context.Context, id string) (*nlp.Breakdown, error) {
	task, err := s.store.GetTask(id)
	if err != nil {
		return nil, err
	}
	breakdown := s.engine.SuggestBreakdown(ctx, task.Name, task.Description)
	return &breakdown, nil
}

// --- Goal operations ---

// CreateGoal persists a new goal.
func (s *Service) CreateGoal(goal *models.Goal) error {
	if strings.TrimSpace(goal.Title) == "" {
		return fmt.Errorf("%w: goal title", ErrEmptyInput)
	}
	return s.store.CreateGoal(goal)
}

// GetGoal retrieves a goal by ID.
func (s *Service) GetGoal(id string) (*models.Goal, error) {
	return s.store.GetGoal(id)
}

// ListGoals returns goals newest-first.
func (s *Service) ListGoals() ([]models.Goal, error) {
	return s.store.ListGoals()
}

// UpdateGoalStatus changes a goal's status.
func (s *Service) UpdateGoalStatus(id, status string) (*models.Goal, error) {
	switch status {
	case "active", "paused", "completed":
	default:
		return nil, fmt.Errorf("%w: goal status %q", ErrInvalidStatus, status)
	}
	return s.store.UpdateGoalStatus(id, status)
}

// AddGoalProgress appends a progress note to a goal.
func (s *Service) AddGoalProgress(id string, p models.GoalProgress) (*models.Goal, error) {
	return s.store.AddGoalProgress(id, p)
}

// DeleteGoal removes a goal.
func (s *Service) DeleteGoal(id string) (bool, error) {
	return s.store.DeleteGoal(id)
}

// --- helpers ---

func (s *Service) today() string {
	return s.now().Format(models.DateFormat)
}

// record writes a history entry, logging failures instead of propagating
// them: the audit trail is best-effort.
func (s *Service) record(taskID string, action models.HistoryAction, payload interface{}) {
	if err := s.history.Record(taskID, action, payload); err != nil {
		s.logger.Error().Err(err).Str("task_id", taskID).Str("action", string(action)).Msg("history write failed")
	}
}
