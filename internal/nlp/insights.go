package nlp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/suhass434/journal-assistant/internal/llm"
	"github.com/suhass434/journal-assistant/internal/models"
)

// Insights summarizes productivity patterns over a historical window.
type Insights struct {
	MostProductiveDay string   `json:"most_productive_day"`
	CompletionRate    float64  `json:"completion_rate"`
	Insights          []string `json:"insights"`
	Suggestions       []string `json:"suggestions"`
}

// Breakdown is a suggested decomposition of a complex task.
type Breakdown struct {
	ShouldBreakDown   bool      `json:"should_break_down"`
	Reason            string    `json:"reason"`
	SuggestedSubtasks []Subtask `json:"suggested_subtasks"`
}

// Subtask is one suggested step of a breakdown.
type Subtask struct {
	Name          string `json:"name"`
	EstimatedTime string `json:"estimated_time,omitempty"`
}

// DailySummary generates an encouraging end-of-day summary over the day's
// tasks. The fallback produces a fixed message from the completion counts.
func (e *Engine) DailySummary(ctx context.Context, tasks []models.Task, date time.Time) string {
	var completed, pending []string
	for _, t := range tasks {
		switch t.Status {
		case models.TaskStatusCompleted:
			completed = append(completed, t.Name)
		case models.TaskStatusPending, models.TaskStatusInProgress:
			pending = append(pending, t.Name)
		}
	}

	prompt := fmt.Sprintf(`Generate a warm, encouraging daily summary for %s.

Tasks completed: %d out of %d

Completed tasks:
%s

Remaining tasks:
%s

Write a friendly summary that celebrates completed tasks, acknowledges
remaining work without being negative, is concise (2-3 sentences max), and
sounds like a supportive productivity coach.

Return plain text, not JSON.`,
		date.Format("Monday, January 2, 2006"),
		len(completed), len(tasks),
		bulletList(completed), bulletList(pending))

	text, err := e.client.GenerateText(ctx, prompt)
	if err == nil && strings.TrimSpace(text) != "" {
		return strings.TrimSpace(text)
	}
	e.logger.Warn().Err(err).Msg("summary call failed, using fallback")

	switch {
	case len(tasks) > 0 && len(completed) == len(tasks):
		return fmt.Sprintf("Amazing work! You completed all %d tasks today!", len(tasks))
	case len(completed) > 0:
		return fmt.Sprintf("Great progress! You completed %d out of %d tasks.", len(completed), len(tasks))
	default:
		return "Let's make tomorrow count!"
	}
}

// ProductivityInsights analyzes historical tasks for patterns. The fallback
// returns a neutral result rather than an error.
func (e *Engine) ProductivityInsights(ctx context.Context, history []models.Task) Insights {
	total := len(history)
	completed := 0
	dayCounts := map[string]int{}
	for _, t := range history {
		if t.Status == models.TaskStatusCompleted {
			completed++
		}
		if t.CompletedAt != nil {
			dayCounts[t.CompletedAt.Format("Monday")]++
		}
	}
	rate := 0.0
	if total > 0 {
		rate = float64(completed) / float64(total) * 100
	}

	var days strings.Builder
	for day, count := range dayCounts {
		fmt.Fprintf(&days, "%s: %d\n", day, count)
	}

	prompt := fmt.Sprintf(`Analyze productivity patterns from this user's task history.

Total tasks: %d
Completed: %d
Completion rate: %.1f%%

Tasks completed by day of week:
%s

Provide insights in JSON format:
{
  "most_productive_day": "day name",
  "completion_rate": 0.0,
  "insights": ["insight 1", "insight 2"],
  "suggestions": ["suggestion 1", "suggestion 2"]
}`, total, completed, rate, days.String())

	raw, err := e.client.GenerateText(ctx, prompt)
	if err == nil {
		var result Insights
		if err := llm.DecodeJSON(raw, &result); err == nil {
			return result
		}
	}
	e.logger.Warn().Err(err).Msg("insights call failed, using fallback")

	return Insights{
		MostProductiveDay: "Unknown",
		CompletionRate:    rate,
		Insights:          []string{"Not enough data to analyze patterns yet."},
		Suggestions:       []string{"Keep tracking your tasks to unlock insights!"},
	}
}

// SuggestBreakdown asks whether a task is worth splitting into subtasks.
// Simple tasks should not be broken down; the fallback declines.
func (e *Engine) SuggestBreakdown(ctx context.Context, name, description string) Breakdown {
	full := name
	if description != "" {
		full = name + ". " + description
	}

	prompt := fmt.Sprintf(`The user has a task: "%s"

This might be a large or complex task. Suggest breaking it into smaller, actionable steps.

Return JSON:
{
  "should_break_down": false,
  "reason": "why this should/shouldn't be broken down",
  "suggested_subtasks": [
    {"name": "subtask name", "estimated_time": "time estimate like '30 mins'"}
  ]
}

Only suggest breakdown if the task is genuinely complex (e.g., "project",
"assignment", multi-step processes). Simple tasks like "buy milk" should not
be broken down.`, full)

	raw, err := e.client.GenerateText(ctx, prompt)
	if err == nil {
		var result Breakdown
		if err := llm.DecodeJSON(raw, &result); err == nil {
			return result
		}
	}
	e.logger.Warn().Err(err).Msg("breakdown call failed, using fallback")

	return Breakdown{
		ShouldBreakDown: false,
		Reason:          "Unable to analyze task complexity",
	}
}

func bulletList(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for _, item := range items {
		b.WriteString("- ")
		b.WriteString(item)
		b.WriteString("\n")
	}
	return b.String()
}
