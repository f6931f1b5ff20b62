package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/suhass434/journal-assistant/internal/models"
	"github.com/suhass434/journal-assistant/internal/store"
)

// Version is the API version reported by the health endpoint.
const Version = "0.3.0"

// Server provides the HTTP API.
type Server struct {
	service *Service
	store   *store.Store
	addr    string
	logger  zerolog.Logger
	server  *http.Server
}

// NewServer creates a new HTTP server.
func NewServer(service *Service, st *store.Store, addr string, logger zerolog.Logger) *Server {
	return &Server{
		service: service,
		store:   st,
		addr:    addr,
		logger:  logger,
	}
}

// Start starts the HTTP server. The API is CORS-open: it serves a personal
// browser frontend on another origin.
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/tasks", s.handleTasks)
	mux.HandleFunc("/api/tasks/", s.handleTaskPath)
	mux.HandleFunc("/api/goals", s.handleGoals)
	mux.HandleFunc("/api/goals/", s.handleGoalPath)
	mux.HandleFunc("/health", s.handleHealth)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      c.Handler(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	s.logger.Info().Str("addr", s.addr).Msg("starting API server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// HealthResponse is the health endpoint payload.
type HealthResponse struct {
	OK      bool   `json:"ok"`
	DB      string `json:"db"`
	Version string `json:"version"`
	Time    string `json:"time"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	health := HealthResponse{
		OK:      true,
		DB:      "ok",
		Version: Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}
	status := http.StatusOK
	if err := s.store.Ping(); err != nil {
		health.OK = false
		health.DB = err.Error()
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}

// handleTasks handles GET /api/tasks and POST /api/tasks.
func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listTasks(w, r)
	case http.MethodPost:
		s.createTask(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleTaskPath dispatches /api/tasks/{verb-or-id}[/{action}].
func (s *Server) handleTaskPath(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/tasks/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "task id required", http.StatusBadRequest)
		return
	}

	// Collection verbs come before ID routes.
	if len(parts) == 1 {
		switch parts[0] {
		case "extract":
			s.requireMethod(w, r, http.MethodPost, s.extractTasks)
			return
		case "complete":
			s.requireMethod(w, r, http.MethodPost, s.completeFromText)
			return
		case "today":
			s.requireMethod(w, r, http.MethodGet, s.todayTasks)
			return
		case "summary":
			s.requireMethod(w, r, http.MethodGet, s.dailySummary)
			return
		case "insights":
			s.requireMethod(w, r, http.MethodGet, s.insights)
			return
		case "overdue":
			s.requireMethod(w, r, http.MethodGet, s.overdueTasks)
			return
		}
	}

	taskID := parts[0]
	action := ""
	if len(parts) > 1 {
		action = parts[1]
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		s.getTask(w, r, taskID)
	case action == "" && r.Method == http.MethodPut:
		s.updateTask(w, r, taskID)
	case action == "" && r.Method == http.MethodDelete:
		s.deleteTask(w, r, taskID)
	case action == "progress" && r.Method == http.MethodPost:
		s.updateProgress(w, r, taskID)
	case action == "breakdown" && r.Method == http.MethodPost:
		s.breakdown(w, r, taskID)
	case action == "clarify" && r.Method == http.MethodPost:
		s.clarify(w, r, taskID)
	case action == "history" && r.Method == http.MethodGet:
		s.taskHistory(w, r, taskID)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// --- Task handlers ---

// ExtractRequest is the natural-language task creation payload.
type ExtractRequest struct {
	Text string `json:"text"`
}

func (s *Server) extractTasks(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	resp, err := s.service.ExtractAndCreate(r.Context(), req.Text, time.Now())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"success":                true,
		"tasks":                  resp.Tasks,
		"needs_clarification":    resp.NeedsClarification,
		"clarification_question": resp.ClarificationQuestion,
		"overall_confidence":     resp.OverallConfidence,
	})
}

// CompleteRequest is the natural-language completion payload.
type CompleteRequest struct {
	Text string `json:"text"`
	Date string `json:"date,omitempty"` // YYYY-MM-DD, defaults to today
}

func (s *Server) completeFromText(w http.ResponseWriter, r *http.Request) {
	var req CompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	date := time.Now()
	if req.Date != "" {
		parsed, err := time.Parse(models.DateFormat, req.Date)
		if err != nil {
			http.Error(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		date = parsed
	}

	resp, err := s.service.CompleteFromText(r.Context(), req.Text, date)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"success":                resp.Message == "",
		"message":                resp.Message,
		"completed_tasks":        resp.CompletedTasks,
		"updated_tasks":          resp.UpdatedTasks,
		"needs_clarification":    resp.NeedsClarification,
		"clarification_question": resp.ClarificationQuestion,
		"confidence":             resp.Confidence,
	})
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.TaskFilter{
		ScheduledDate: q.Get("date"),
		Status:        models.TaskStatus(q.Get("status")),
		Priority:      models.Priority(q.Get("priority")),
	}
	limit, _ := strconv.Atoi(q.Get("limit"))

	tasks, err := s.service.List(filter, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "count": len(tasks), "tasks": tasks})
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var task models.Task
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := s.service.Create(&task); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"success": true, "task": task})
}

func (s *Server) todayTasks(w http.ResponseWriter, r *http.Request) {
	today := time.Now().Format(models.DateFormat)
	tasks, err := s.service.TasksForDay(today, "")
	if err != nil {
		s.writeError(w, err)
		return
	}

	grouped := map[models.TaskStatus][]models.Task{}
	for _, t := range tasks {
		grouped[t.Status] = append(grouped[t.Status], t)
	}
	writeJSON(w, http.StatusOK, envelope{
		"success":     true,
		"date":        today,
		"total":       len(tasks),
		"pending":     grouped[models.TaskStatusPending],
		"in_progress": grouped[models.TaskStatusInProgress],
		"completed":   grouped[models.TaskStatusCompleted],
	})
}

func (s *Server) dailySummary(w http.ResponseWriter, r *http.Request) {
	date := time.Now()
	if d := r.URL.Query().Get("date"); d != "" {
		parsed, err := time.Parse(models.DateFormat, d)
		if err != nil {
			http.Error(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		date = parsed
	}

	resp, err := s.service.Summary(r.Context(), date)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"date":    resp.Date,
		"summary": resp.Summary,
		"statistics": envelope{
			"total":           resp.Total,
			"completed":       resp.Completed,
			"pending":         resp.Pending,
			"completion_rate": resp.Rate,
		},
		"tasks": resp.Tasks,
	})
}

func (s *Server) insights(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	resp, err := s.service.InsightsReport(r.Context(), days)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"period":  envelope{"start": resp.Start, "end": resp.End, "days": resp.Days},
		"statistics": envelope{
			"total_tasks":     resp.Statistics.Total,
			"completed":       resp.Statistics.Completed,
			"completion_rate": resp.Statistics.CompletionRate,
			"by_priority":     resp.Statistics.ByPriority,
		},
		"insights": resp.Insights,
	})
}

func (s *Server) overdueTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.service.Overdue()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "count": len(tasks), "tasks": tasks})
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request, id string) {
	task, err := s.service.Get(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "task": task})
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request, id string) {
	var update models.TaskUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	task, err := s.service.Update(id, update)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "task": task})
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request, id string) {
	removed, err := s.service.Delete(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !removed {
		http.Error(w, "task not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Task deleted successfully"})
}

// ProgressRequest is a direct quantitative progress update.
type ProgressRequest struct {
	Text        string `json:"progress_text,omitempty"`
	Amount      *int   `json:"amount,omitempty"`
	IsIncrement *bool  `json:"is_increment,omitempty"`
}

func (s *Server) updateProgress(w http.ResponseWriter, r *http.Request, id string) {
	var req ProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	task, err := s.service.Get(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !task.IsQuantitative {
		http.Error(w, "task is not quantitative", http.StatusBadRequest)
		return
	}

	amount := 0
	isIncrement := true
	confidence := 1.0
	if req.Amount != nil {
		amount = *req.Amount
		if req.IsIncrement != nil {
			isIncrement = *req.IsIncrement
		}
	} else {
		parsed := s.service.engine.ParseProgress(r.Context(), req.Text, *task)
		amount = parsed.AmountCompleted
		isIncrement = parsed.IsIncrement
		confidence = parsed.Confidence
	}

	updated, err := s.service.ApplyProgress(id, amount, isIncrement)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "task": updated, "confidence": confidence})
}

func (s *Server) breakdown(w http.ResponseWriter, r *http.Request, id string) {
	result, err := s.service.BreakdownSuggestion(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"success":            true,
		"task_id":            id,
		"should_break_down":  result.ShouldBreakDown,
		"reason":             result.Reason,
		"suggested_subtasks": result.SuggestedSubtasks,
	})
}

// ClarifyRequest answers an open clarification question.
type ClarifyRequest struct {
	Response string `json:"response"`
}

func (s *Server) clarify(w http.ResponseWriter, r *http.Request, id string) {
	var req ClarifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	task, err := s.service.AddClarificationResponse(id, req.Response)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "task": task})
}

func (s *Server) taskHistory(w http.ResponseWriter, r *http.Request, id string) {
	entries, err := s.service.History(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "count": len(entries), "history": entries})
}

// --- Goal handlers ---

func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		goals, err := s.service.ListGoals()
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, envelope{"success": true, "goals": goals})
	case http.MethodPost:
		var goal models.Goal
		if err := json.NewDecoder(r.Body).Decode(&goal); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := s.service.CreateGoal(&goal); err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, envelope{"success": true, "goal": goal})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleGoalPath(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/goals/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "goal id required", http.StatusBadRequest)
		return
	}
	goalID := parts[0]
	action := ""
	if len(parts) > 1 {
		action = parts[1]
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		goal, err := s.service.GetGoal(goalID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, envelope{"success": true, "goal": goal})
	case action == "" && r.Method == http.MethodPatch:
		var req struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		goal, err := s.service.UpdateGoalStatus(goalID, req.Status)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, envelope{"success": true, "goal": goal})
	case action == "" && r.Method == http.MethodDelete:
		removed, err := s.service.DeleteGoal(goalID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		if !removed {
			http.Error(w, "goal not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, envelope{"success": true, "deleted": true})
	case action == "progress" && r.Method == http.MethodPost:
		var p models.GoalProgress
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		goal, err := s.service.AddGoalProgress(goalID, p)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, envelope{"success": true, "goal": goal})
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// --- response helpers ---

type envelope map[string]interface{}

func (s *Server) requireMethod(w http.ResponseWriter, r *http.Request, method string, handler http.HandlerFunc) {
	if r.Method != method {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	handler(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service errors onto HTTP statuses: missing records are
// 404, validation failures are 400, everything else is a 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, store.ErrNotQuantitative),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrInvalidPriority),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrEmptyInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		s.logger.Error().Err(err).Msg("request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
