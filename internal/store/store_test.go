package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/suhass434/journal-assistant/internal/models"
)

func TestNew(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer s.Close()

	// Verify file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestTaskCRUD(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	// Create
	task := &models.Task{Name: "Teach class", ScheduledDate: "2025-03-01"}
	if err := s.CreateTask(task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if task.ID == "" {
		t.Error("Task ID should not be empty")
	}
	if task.Status != models.TaskStatusPending {
		t.Errorf("Expected status pending, got %s", task.Status)
	}
	if task.Priority != models.PriorityMedium {
		t.Errorf("Expected default priority medium, got %s", task.Priority)
	}

	// Get
	got, err := s.GetTask(task.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if got.Name != "Teach class" {
		t.Errorf("Expected name 'Teach class', got %s", got.Name)
	}
	if got.ScheduledDate != "2025-03-01" {
		t.Errorf("Expected scheduled date 2025-03-01, got %s", got.ScheduledDate)
	}

	// List
	tasks, err := s.ListTasks(models.TaskFilter{}, 0)
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(tasks) != 1 {
		t.Errorf("Expected 1 task, got %d", len(tasks))
	}

	// Delete
	removed, err := s.DeleteTask(task.ID)
	if err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
	if !removed {
		t.Error("Expected delete to report removal")
	}
	if _, err := s.GetTask(task.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestGetTask_NotFound(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	if _, err := s.GetTask("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestListTasks_Filters(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	mustCreate(t, s, &models.Task{Name: "a", ScheduledDate: "2025-03-01", Priority: models.PriorityHigh})
	mustCreate(t, s, &models.Task{Name: "b", ScheduledDate: "2025-03-01", Status: models.TaskStatusCompleted})
	mustCreate(t, s, &models.Task{Name: "c", ScheduledDate: "2025-03-02"})

	tasks, err := s.ListTasks(models.TaskFilter{ScheduledDate: "2025-03-01"}, 0)
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Errorf("Expected 2 tasks for 2025-03-01, got %d", len(tasks))
	}

	tasks, err = s.ListTasks(models.TaskFilter{ScheduledDate: "2025-03-01", Status: models.TaskStatusPending}, 0)
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Name != "a" {
		t.Errorf("Expected only task a, got %d tasks", len(tasks))
	}

	tasks, err = s.ListTasks(models.TaskFilter{Priority: models.PriorityHigh}, 0)
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(tasks) != 1 {
		t.Errorf("Expected 1 high-priority task, got %d", len(tasks))
	}

	// Ordered by scheduled date ascending.
	tasks, _ = s.ListTasks(models.TaskFilter{}, 0)
	if len(tasks) != 3 || tasks[2].Name != "c" {
		t.Errorf("Expected date-ordered listing ending with c")
	}
}

func TestListOverdue(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	mustCreate(t, s, &models.Task{Name: "old pending", ScheduledDate: "2025-02-27"})
	mustCreate(t, s, &models.Task{Name: "old active", ScheduledDate: "2025-02-28", Status: models.TaskStatusInProgress})
	mustCreate(t, s, &models.Task{Name: "old done", ScheduledDate: "2025-02-27", Status: models.TaskStatusCompleted})
	mustCreate(t, s, &models.Task{Name: "today", ScheduledDate: "2025-03-01"})
	mustCreate(t, s, &models.Task{Name: "undated"})

	overdue, err := s.ListOverdue("2025-03-01")
	if err != nil {
		t.Fatalf("ListOverdue failed: %v", err)
	}
	if len(overdue) != 2 {
		t.Fatalf("Expected 2 overdue tasks, got %d", len(overdue))
	}
	if overdue[0].Name != "old pending" || overdue[1].Name != "old active" {
		t.Errorf("Unexpected overdue set: %s, %s", overdue[0].Name, overdue[1].Name)
	}
}

func TestListRange(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	mustCreate(t, s, &models.Task{Name: "before", ScheduledDate: "2025-02-01"})
	mustCreate(t, s, &models.Task{Name: "in", ScheduledDate: "2025-02-15", Status: models.TaskStatusCompleted})
	mustCreate(t, s, &models.Task{Name: "edge", ScheduledDate: "2025-02-28"})
	mustCreate(t, s, &models.Task{Name: "after", ScheduledDate: "2025-03-02"})

	tasks, err := s.ListRange("2025-02-10", "2025-02-28", "")
	if err != nil {
		t.Fatalf("ListRange failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Errorf("Expected 2 tasks in range, got %d", len(tasks))
	}

	tasks, err = s.ListRange("2025-02-10", "2025-02-28", models.TaskStatusCompleted)
	if err != nil {
		t.Fatalf("ListRange failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Name != "in" {
		t.Errorf("Expected only the completed task in range")
	}
}

func TestUpdateTask(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	task := &models.Task{Name: "original"}
	mustCreate(t, s, task)

	name := "renamed"
	priority := models.PriorityUrgent
	updated, modified, err := s.UpdateTask(task.ID, models.TaskUpdate{Name: &name, Priority: &priority})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if !modified {
		t.Error("Expected update to report modification")
	}
	if updated.Name != "renamed" || updated.Priority != models.PriorityUrgent {
		t.Errorf("Update not applied: %s / %s", updated.Name, updated.Priority)
	}

	// Empty update returns the row untouched.
	same, modified, err := s.UpdateTask(task.ID, models.TaskUpdate{})
	if err != nil {
		t.Fatalf("Empty UpdateTask failed: %v", err)
	}
	if modified {
		t.Error("Expected empty update to report no modification")
	}
	if same.Name != "renamed" {
		t.Errorf("Expected unchanged row, got name %s", same.Name)
	}

	// Missing task surfaces ErrNotFound, not a silent no-op.
	if _, _, err := s.UpdateTask("missing", models.TaskUpdate{Name: &name}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestUpdateTask_CompletedSetsTimestamp(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	task := &models.Task{Name: "finish report"}
	mustCreate(t, s, task)

	status := models.TaskStatusCompleted
	updated, _, err := s.UpdateTask(task.ID, models.TaskUpdate{Status: &status})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if updated.Status != models.TaskStatusCompleted {
		t.Errorf("Expected completed status, got %s", updated.Status)
	}
	if updated.CompletedAt == nil {
		t.Error("Expected completed_at to be set")
	}
}

func TestCompleteTask_Idempotent(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	task := &models.Task{Name: "attend meeting"}
	mustCreate(t, s, task)

	first, prev, err := s.CompleteTask(task.ID)
	if err != nil {
		t.Fatalf("CompleteTask failed: %v", err)
	}
	if prev != models.TaskStatusPending {
		t.Errorf("Expected previous status pending, got %s", prev)
	}
	if first.Status != models.TaskStatusCompleted || first.CompletedAt == nil {
		t.Error("Expected completed task with timestamp")
	}

	// Second completion is a no-op reporting the already-completed state.
	second, prev, err := s.CompleteTask(task.ID)
	if err != nil {
		t.Fatalf("Repeat CompleteTask failed: %v", err)
	}
	if prev != models.TaskStatusCompleted {
		t.Errorf("Expected previous status completed, got %s", prev)
	}
	if second.CompletedAt == nil {
		t.Error("Expected completion timestamp to remain set")
	}
}

func TestApplyProgress(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	task := &models.Task{
		Name:           "solve 100 questions",
		IsQuantitative: true,
		Progress:       &models.QuantitativeProgress{Total: 100, Unit: "questions"},
	}
	mustCreate(t, s, task)

	// Increment
	got, err := s.ApplyProgress(task.ID, 40, true)
	if err != nil {
		t.Fatalf("ApplyProgress failed: %v", err)
	}
	if got.Progress.Completed != 40 {
		t.Errorf("Expected 40 completed, got %d", got.Progress.Completed)
	}
	if got.Status != models.TaskStatusPending {
		t.Errorf("Expected still pending, got %s", got.Status)
	}

	// Absolute set
	got, err = s.ApplyProgress(task.ID, 30, false)
	if err != nil {
		t.Fatalf("ApplyProgress failed: %v", err)
	}
	if got.Progress.Completed != 30 {
		t.Errorf("Expected 30 completed, got %d", got.Progress.Completed)
	}

	// Clamp above total forces completion.
	got, err = s.ApplyProgress(task.ID, 500, true)
	if err != nil {
		t.Fatalf("ApplyProgress failed: %v", err)
	}
	if got.Progress.Completed != 100 {
		t.Errorf("Expected clamp to 100, got %d", got.Progress.Completed)
	}
	if got.Status != models.TaskStatusCompleted {
		t.Errorf("Expected forced completion, got %s", got.Status)
	}
	if got.CompletedAt == nil {
		t.Error("Expected completion timestamp")
	}
}

func TestApplyProgress_ClampFloor(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	task := &models.Task{
		Name:           "read 50 pages",
		IsQuantitative: true,
		Progress:       &models.QuantitativeProgress{Total: 50, Completed: 10},
	}
	mustCreate(t, s, task)

	got, err := s.ApplyProgress(task.ID, -30, true)
	if err != nil {
		t.Fatalf("ApplyProgress failed: %v", err)
	}
	if got.Progress.Completed != 0 {
		t.Errorf("Expected floor at 0, got %d", got.Progress.Completed)
	}
}

func TestApplyProgress_Errors(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	if _, err := s.ApplyProgress("missing", 1, true); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	plain := &models.Task{Name: "buy milk"}
	mustCreate(t, s, plain)
	if _, err := s.ApplyProgress(plain.ID, 1, true); !errors.Is(err, ErrNotQuantitative) {
		t.Errorf("Expected ErrNotQuantitative, got %v", err)
	}
}

func TestHistory(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	task := &models.Task{Name: "tracked"}
	mustCreate(t, s, task)

	entries := []models.HistoryEntry{
		{TaskID: task.ID, Action: models.HistoryCreated, Data: `{"name":"tracked"}`},
		{TaskID: task.ID, Action: models.HistoryCompleted},
	}
	for i := range entries {
		if err := s.AppendHistory(&entries[i]); err != nil {
			t.Fatalf("AppendHistory failed: %v", err)
		}
		if entries[i].ID == "" {
			t.Error("Expected history entry ID to be assigned")
		}
	}

	got, err := s.ListHistory(task.ID)
	if err != nil {
		t.Fatalf("ListHistory failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(got))
	}
	if got[0].Action != models.HistoryCreated || got[1].Action != models.HistoryCompleted {
		t.Errorf("Unexpected order: %s, %s", got[0].Action, got[1].Action)
	}
	if got[0].Data != `{"name":"tracked"}` {
		t.Errorf("Unexpected data payload: %s", got[0].Data)
	}
}

func TestDisambiguations(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	task := &models.Task{Name: "vague"}
	mustCreate(t, s, task)

	got, err := s.AddDisambiguation(task.ID, models.Disambiguation{Question: "When?", Confidence: 0.3})
	if err != nil {
		t.Fatalf("AddDisambiguation failed: %v", err)
	}
	if !got.NeedsClarification {
		t.Error("Expected open question to flag clarification")
	}

	got, err = s.AddDisambiguation(task.ID, models.Disambiguation{Question: "When?", Response: "tomorrow", Confidence: 1.0})
	if err != nil {
		t.Fatalf("AddDisambiguation failed: %v", err)
	}
	if got.NeedsClarification {
		t.Error("Expected answered question to clear the flag")
	}
	if len(got.Disambiguations) != 2 {
		t.Errorf("Expected 2 rounds, got %d", len(got.Disambiguations))
	}
}

func TestRecurrenceTemplatesBehind(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	template := &models.Task{Name: "morning run", ScheduledDate: "2025-03-01", Recurrence: models.RecurrenceDaily}
	mustCreate(t, s, template)

	// No instances yet: the template itself is behind any later horizon.
	behind, err := s.ListRecurrenceTemplatesBehind("2025-03-05")
	if err != nil {
		t.Fatalf("ListRecurrenceTemplatesBehind failed: %v", err)
	}
	if len(behind) != 1 || behind[0].ID != template.ID {
		t.Fatalf("Expected the template to be behind, got %d results", len(behind))
	}

	// Instances up to 03-04 still leave the series behind an 03-10 horizon.
	for _, date := range []string{"2025-03-02", "2025-03-03", "2025-03-04"} {
		mustCreate(t, s, &models.Task{
			Name:               "morning run",
			ScheduledDate:      date,
			Recurrence:         models.RecurrenceDaily,
			ParentRecurrenceID: template.ID,
		})
	}

	behind, err = s.ListRecurrenceTemplatesBehind("2025-03-04")
	if err != nil {
		t.Fatalf("ListRecurrenceTemplatesBehind failed: %v", err)
	}
	if len(behind) != 0 {
		t.Errorf("Expected series to be caught up to 2025-03-04, got %d behind", len(behind))
	}

	behind, err = s.ListRecurrenceTemplatesBehind("2025-03-10")
	if err != nil {
		t.Fatalf("ListRecurrenceTemplatesBehind failed: %v", err)
	}
	if len(behind) != 1 {
		t.Errorf("Expected series to be behind 2025-03-10, got %d", len(behind))
	}

	latest, err := s.LatestInstanceDate(template.ID)
	if err != nil {
		t.Fatalf("LatestInstanceDate failed: %v", err)
	}
	if latest != "2025-03-04" {
		t.Errorf("Expected latest instance 2025-03-04, got %s", latest)
	}

	// Instances are never templates themselves.
	if latest, _ := s.LatestInstanceDate("nonexistent"); latest != "" {
		t.Errorf("Expected empty latest date, got %s", latest)
	}
}

func TestTaskJSONColumns(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	task := &models.Task{
		Name:             "complex",
		Tags:             []string{"work", "urgent"},
		Subtasks:         []string{"step one"},
		DetectedKeywords: []string{"asap"},
		Disambiguations:  []models.Disambiguation{{Question: "Which project?"}},
	}
	mustCreate(t, s, task)

	got, err := s.GetTask(task.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "work" {
		t.Errorf("Tags not round-tripped: %v", got.Tags)
	}
	if len(got.Subtasks) != 1 || len(got.DetectedKeywords) != 1 {
		t.Error("Subtasks or keywords not round-tripped")
	}
	if len(got.Disambiguations) != 1 || got.Disambiguations[0].Question != "Which project?" {
		t.Errorf("Disambiguations not round-tripped: %v", got.Disambiguations)
	}
}

func TestGoalCRUD(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	goal := &models.Goal{Title: "Learn Spanish"}
	if err := s.CreateGoal(goal); err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}
	if goal.ID == "" {
		t.Error("Goal ID should not be empty")
	}
	if goal.Status != "active" {
		t.Errorf("Expected default status active, got %s", goal.Status)
	}

	got, err := s.GetGoal(goal.ID)
	if err != nil {
		t.Fatalf("GetGoal failed: %v", err)
	}
	if got.Title != "Learn Spanish" {
		t.Errorf("Expected title 'Learn Spanish', got %s", got.Title)
	}

	goals, err := s.ListGoals()
	if err != nil {
		t.Fatalf("ListGoals failed: %v", err)
	}
	if len(goals) != 1 {
		t.Errorf("Expected 1 goal, got %d", len(goals))
	}

	updated, err := s.UpdateGoalStatus(goal.ID, "paused")
	if err != nil {
		t.Fatalf("UpdateGoalStatus failed: %v", err)
	}
	if updated.Status != "paused" {
		t.Errorf("Expected paused, got %s", updated.Status)
	}

	withProgress, err := s.AddGoalProgress(goal.ID, models.GoalProgress{Note: "finished unit 1"})
	if err != nil {
		t.Fatalf("AddGoalProgress failed: %v", err)
	}
	if len(withProgress.Progress) != 1 {
		t.Errorf("Expected 1 progress note, got %d", len(withProgress.Progress))
	}
	if withProgress.Progress[0].Date.IsZero() {
		t.Error("Expected progress date to be stamped")
	}

	removed, err := s.DeleteGoal(goal.ID)
	if err != nil {
		t.Fatalf("DeleteGoal failed: %v", err)
	}
	if !removed {
		t.Error("Expected delete to report removal")
	}
	if _, err := s.GetGoal(goal.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestUpdateGoalStatus_NotFound(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	if _, err := s.UpdateGoalStatus("missing", "paused"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func newTestStore(t *testing.T) *Store {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return s
}

func mustCreate(t *testing.T, s *Store, task *models.Task) {
	t.Helper()
	if err := s.CreateTask(task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
}
