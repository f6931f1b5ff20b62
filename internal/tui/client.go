package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/suhass434/journal-assistant/internal/models"
)

// DefaultClientTimeout is the default timeout for API requests.
// Extraction and completion go through the language model, so this is
// generous compared to plain CRUD calls.
const DefaultClientTimeout = 60 * time.Second

// Client wraps HTTP calls to the journal API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client with timeout.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultClientTimeout,
		},
	}
}

// ListTasks fetches tasks, optionally filtered by status.
func (c *Client) ListTasks(status string) ([]models.Task, error) {
	url := c.baseURL + "/api/tasks"
	if status != "" {
		url += "?status=" + status
	}

	body, err := c.get(url)
	if err != nil {
		return nil, err
	}

	var result struct {
		Tasks []models.Task `json:"tasks"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}
	return result.Tasks, nil
}

// GetTask fetches a single task.
func (c *Client) GetTask(id string) (*models.Task, error) {
	body, err := c.get(c.baseURL + "/api/tasks/" + id)
	if err != nil {
		return nil, err
	}

	var result struct {
		Task models.Task `json:"task"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}
	return &result.Task, nil
}

// GetHistory fetches the audit trail for a task.
func (c *Client) GetHistory(taskID string) ([]models.HistoryEntry, error) {
	body, err := c.get(c.baseURL + "/api/tasks/" + taskID + "/history")
	if err != nil {
		return nil, err
	}

	var result struct {
		History []models.HistoryEntry `json:"history"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}
	return result.History, nil
}

// ExtractResult is the outcome of a natural-language capture.
type ExtractResult struct {
	Tasks                 []models.Task `json:"tasks"`
	NeedsClarification    bool          `json:"needs_clarification"`
	ClarificationQuestion string        `json:"clarification_question"`
}

// Extract sends free text to the API to be turned into tasks.
func (c *Client) Extract(text string) (*ExtractResult, error) {
	body, err := c.post("/api/tasks/extract", map[string]string{"text": text})
	if err != nil {
		return nil, err
	}

	var result ExtractResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CompleteResult is the outcome of a natural-language completion.
type CompleteResult struct {
	Message               string        `json:"message"`
	CompletedTasks        []models.Task `json:"completed_tasks"`
	UpdatedTasks          []models.Task `json:"updated_tasks"`
	NeedsClarification    bool          `json:"needs_clarification"`
	ClarificationQuestion string        `json:"clarification_question"`
}

// CompleteText reports work done in free text and lets the API match it
// against today's tasks.
func (c *Client) CompleteText(text string) (*CompleteResult, error) {
	body, err := c.post("/api/tasks/complete", map[string]string{"text": text})
	if err != nil {
		return nil, err
	}

	var result CompleteResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(id string) error {
	req, err := http.NewRequest(http.MethodDelete, c.baseURL+"/api/tasks/"+id, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: %s", string(body))
	}
	return nil
}

// SummaryResult is the daily summary payload.
type SummaryResult struct {
	Date       string `json:"date"`
	Summary    string `json:"summary"`
	Statistics struct {
		Total          int     `json:"total"`
		Completed      int     `json:"completed"`
		Pending        int     `json:"pending"`
		CompletionRate float64 `json:"completion_rate"`
	} `json:"statistics"`
}

// Summary fetches today's narrative summary.
func (c *Client) Summary() (*SummaryResult, error) {
	body, err := c.get(c.baseURL + "/api/tasks/summary")
	if err != nil {
		return nil, err
	}

	var result SummaryResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CheckHealth checks if the server is healthy.
func (c *Client) CheckHealth() (bool, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/health")
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, nil
	}

	var health struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return false, err
	}
	return health.OK, nil
}

func (c *Client) get(url string) ([]byte, error) {
	resp, err := c.httpClient.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("API error: %s", string(body))
	}
	return body, nil
}

func (c *Client) post(path string, data interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", bytes.NewReader(jsonData))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("API error: %s", string(body))
	}
	return body, nil
}
