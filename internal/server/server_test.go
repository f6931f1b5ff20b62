package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/suhass434/journal-assistant/internal/audit"
	"github.com/suhass434/journal-assistant/internal/models"
	"github.com/suhass434/journal-assistant/internal/nlp"
	"github.com/suhass434/journal-assistant/internal/store"
)

func newTestServer(t *testing.T, client *fakeLLM) (*Server, *store.Store) {
	t.Helper()
	tmpDir := t.TempDir()
	st, err := store.New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	history := audit.NewHistoryWriter(st)
	engine := nlp.New(client)
	service := NewService(st, history, engine, zerolog.Nop())
	return NewServer(service, st, "127.0.0.1:0", zerolog.Nop()), st
}

func TestHealthEndpoint_OK(t *testing.T) {
	s, _ := newTestServer(t, &fakeLLM{err: errModelDown})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.handleHealth(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !health.OK {
		t.Error("Expected health.OK to be true")
	}
	if health.DB != "ok" {
		t.Errorf("Expected DB status 'ok', got '%s'", health.DB)
	}
	if health.Version == "" {
		t.Error("Expected version to be set")
	}
}

func TestHealthEndpoint_MethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t, &fakeLLM{err: errModelDown})

	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	w := httptest.NewRecorder()
	s.handleHealth(w, req)

	if w.Result().StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Result().StatusCode)
	}
}

func TestHealthEndpoint_DBError(t *testing.T) {
	s, st := newTestServer(t, &fakeLLM{err: errModelDown})
	st.Close()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.handleHealth(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", resp.StatusCode)
	}

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if health.OK {
		t.Error("Expected health.OK to be false when DB is down")
	}
}

func TestCreateAndGetTask(t *testing.T) {
	s, _ := newTestServer(t, &fakeLLM{err: errModelDown})

	body := bytes.NewBufferString(`{"name": "buy milk", "scheduled_date": "2025-03-01"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/tasks", body)
	w := httptest.NewRecorder()
	s.handleTasks(w, req)

	if w.Result().StatusCode != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", w.Result().StatusCode)
	}

	var created struct {
		Success bool        `json:"success"`
		Task    models.Task `json:"task"`
	}
	if err := json.NewDecoder(w.Result().Body).Decode(&created); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !created.Success || created.Task.ID == "" {
		t.Fatal("Expected successful creation with an ID")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/tasks/"+created.Task.ID, nil)
	w = httptest.NewRecorder()
	s.handleTaskPath(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Result().StatusCode)
	}
}

func TestGetTask_NotFound(t *testing.T) {
	s, _ := newTestServer(t, &fakeLLM{err: errModelDown})

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/nonexistent", nil)
	w := httptest.NewRecorder()
	s.handleTaskPath(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Result().StatusCode)
	}
}

func TestUpdateTask_IllegalTransitionIs400(t *testing.T) {
	s, st := newTestServer(t, &fakeLLM{err: errModelDown})

	task := &models.Task{Name: "done deal", Status: models.TaskStatusCompleted}
	if err := st.CreateTask(task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	body := bytes.NewBufferString(`{"status": "pending"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/tasks/"+task.ID, body)
	w := httptest.NewRecorder()
	s.handleTaskPath(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Result().StatusCode)
	}
}

func TestDeleteTask(t *testing.T) {
	s, st := newTestServer(t, &fakeLLM{err: errModelDown})

	task := &models.Task{Name: "temp"}
	if err := st.CreateTask(task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/tasks/"+task.ID, nil)
	w := httptest.NewRecorder()
	s.handleTaskPath(w, req)
	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Result().StatusCode)
	}

	// Deleting again is a 404.
	req = httptest.NewRequest(http.MethodDelete, "/api/tasks/"+task.ID, nil)
	w = httptest.NewRecorder()
	s.handleTaskPath(w, req)
	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404 on repeat delete, got %d", w.Result().StatusCode)
	}
}

func TestExtractEndpoint(t *testing.T) {
	// Model down: the keyword fallback still creates a task.
	s, _ := newTestServer(t, &fakeLLM{err: errModelDown})

	body := bytes.NewBufferString(`{"text": "finish the quarterly report"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/tasks/extract", body)
	w := httptest.NewRecorder()
	s.handleTaskPath(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Result().StatusCode)
	}

	var resp struct {
		Success bool          `json:"success"`
		Tasks   []models.Task `json:"tasks"`
	}
	if err := json.NewDecoder(w.Result().Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(resp.Tasks) != 1 {
		t.Fatalf("Expected 1 task, got %d", len(resp.Tasks))
	}
	if resp.Tasks[0].Name != "finish the quarterly report" {
		t.Errorf("Unexpected task name: %q", resp.Tasks[0].Name)
	}
}

func TestExtractEndpoint_EmptyText(t *testing.T) {
	s, _ := newTestServer(t, &fakeLLM{err: errModelDown})

	body := bytes.NewBufferString(`{"text": ""}`)
	req := httptest.NewRequest(http.MethodPost, "/api/tasks/extract", body)
	w := httptest.NewRecorder()
	s.handleTaskPath(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Result().StatusCode)
	}
}

func TestCompleteEndpoint_NoTasks(t *testing.T) {
	s, _ := newTestServer(t, &fakeLLM{err: errModelDown})

	body := bytes.NewBufferString(`{"text": "finished the report", "date": "2025-03-01"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/tasks/complete", body)
	w := httptest.NewRecorder()
	s.handleTaskPath(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Result().StatusCode)
	}

	var resp struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(w.Result().Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Message != "No tasks found for this date." {
		t.Errorf("Unexpected message: %q", resp.Message)
	}
}

func TestCompleteEndpoint_BadDate(t *testing.T) {
	s, _ := newTestServer(t, &fakeLLM{err: errModelDown})

	body := bytes.NewBufferString(`{"text": "did it", "date": "01/03/2025"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/tasks/complete", body)
	w := httptest.NewRecorder()
	s.handleTaskPath(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Result().StatusCode)
	}
}

func TestProgressEndpoint(t *testing.T) {
	s, st := newTestServer(t, &fakeLLM{err: errModelDown})

	task := &models.Task{
		Name:           "read pages",
		IsQuantitative: true,
		Progress:       &models.QuantitativeProgress{Total: 50, Unit: "pages"},
	}
	if err := st.CreateTask(task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	body := bytes.NewBufferString(`{"amount": 20, "is_increment": true}`)
	req := httptest.NewRequest(http.MethodPost, "/api/tasks/"+task.ID+"/progress", body)
	w := httptest.NewRecorder()
	s.handleTaskPath(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Result().StatusCode)
	}

	var resp struct {
		Task models.Task `json:"task"`
	}
	if err := json.NewDecoder(w.Result().Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Task.Progress.Completed != 20 {
		t.Errorf("Expected 20 completed, got %d", resp.Task.Progress.Completed)
	}
}

func TestProgressEndpoint_NotQuantitative(t *testing.T) {
	s, st := newTestServer(t, &fakeLLM{err: errModelDown})

	task := &models.Task{Name: "plain task"}
	if err := st.CreateTask(task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	body := bytes.NewBufferString(`{"amount": 5}`)
	req := httptest.NewRequest(http.MethodPost, "/api/tasks/"+task.ID+"/progress", body)
	w := httptest.NewRecorder()
	s.handleTaskPath(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Result().StatusCode)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	s, _ := newTestServer(t, &fakeLLM{err: errModelDown})

	task := &models.Task{Name: "audited"}
	if err := s.service.Create(task); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := s.service.Complete(task.ID); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/"+task.ID+"/history", nil)
	w := httptest.NewRecorder()
	s.handleTaskPath(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Result().StatusCode)
	}

	var resp struct {
		Count   int                   `json:"count"`
		History []models.HistoryEntry `json:"history"`
	}
	if err := json.NewDecoder(w.Result().Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Count != 2 {
		t.Errorf("Expected 2 history entries, got %d", resp.Count)
	}
}

func TestOverdueEndpoint(t *testing.T) {
	s, st := newTestServer(t, &fakeLLM{err: errModelDown})

	// Far in the past, so it is overdue for any test clock.
	if err := st.CreateTask(&models.Task{Name: "ancient", ScheduledDate: "2000-01-01"}); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/overdue", nil)
	w := httptest.NewRecorder()
	s.handleTaskPath(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Result().StatusCode)
	}

	var resp struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(w.Result().Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Count != 1 {
		t.Errorf("Expected 1 overdue task, got %d", resp.Count)
	}
}

func TestGoalEndpoints(t *testing.T) {
	s, _ := newTestServer(t, &fakeLLM{err: errModelDown})

	body := bytes.NewBufferString(`{"title": "run a marathon"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/goals", body)
	w := httptest.NewRecorder()
	s.handleGoals(w, req)
	if w.Result().StatusCode != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", w.Result().StatusCode)
	}

	var created struct {
		Goal models.Goal `json:"goal"`
	}
	if err := json.NewDecoder(w.Result().Body).Decode(&created); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	body = bytes.NewBufferString(`{"note": "ran 5k today"}`)
	req = httptest.NewRequest(http.MethodPost, "/api/goals/"+created.Goal.ID+"/progress", body)
	w = httptest.NewRecorder()
	s.handleGoalPath(w, req)
	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Result().StatusCode)
	}

	var updated struct {
		Goal models.Goal `json:"goal"`
	}
	if err := json.NewDecoder(w.Result().Body).Decode(&updated); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(updated.Goal.Progress) != 1 {
		t.Errorf("Expected 1 progress note, got %d", len(updated.Goal.Progress))
	}

	// Bad status is rejected.
	body = bytes.NewBufferString(`{"status": "abandoned"}`)
	req = httptest.NewRequest(http.MethodPatch, "/api/goals/"+created.Goal.ID, body)
	w = httptest.NewRecorder()
	s.handleGoalPath(w, req)
	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Result().StatusCode)
	}
}
