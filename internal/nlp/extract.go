package nlp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/suhass434/journal-assistant/internal/llm"
	"github.com/suhass434/journal-assistant/internal/models"
)

// TaskDraft is an unpersisted candidate task produced by extraction,
// prior to validation and storage.
type TaskDraft struct {
	Name              string                   `json:"name"`
	Description       string                   `json:"description,omitempty"`
	ScheduledDate     string                   `json:"scheduled_date,omitempty"`
	ScheduledTime     string                   `json:"scheduled_time,omitempty"`
	DueDate           string                   `json:"due_date,omitempty"`
	Priority          models.Priority          `json:"priority"`
	Recurrence        models.RecurrencePattern `json:"recurrence"`
	RecurrenceDetails string                   `json:"recurrence_details,omitempty"`
	IsQuantitative    bool                     `json:"is_quantitative"`
	QuantitativeTotal int                      `json:"quantitative_total,omitempty"`
	QuantitativeUnit  string                   `json:"quantitative_unit,omitempty"`
	Confidence        float64                  `json:"confidence"`
	DetectedKeywords  []string                 `json:"detected_keywords,omitempty"`
}

// ExtractionResult is the outcome of extracting tasks from raw input.
type ExtractionResult struct {
	Tasks                 []TaskDraft `json:"tasks"`
	NeedsClarification    bool        `json:"needs_clarification"`
	ClarificationQuestion string      `json:"clarification_question,omitempty"`
	OverallConfidence     float64     `json:"overall_confidence"`
}

// fallbackNameLimit is the cutoff when the raw input becomes the task name;
// overflow is kept as the description.
const fallbackNameLimit = 100

// taskKeywords are the indicators the deterministic fallback scans for.
var taskKeywords = []string{"do", "complete", "finish", "attend", "teach", "project", "meeting", "class"}

// Extract turns raw text into zero or more task drafts. Relative date
// expressions are resolved against ref. It is total: any LLM failure or
// unparseable response routes to the keyword fallback, so a well-formed
// result is always returned.
func (e *Engine) Extract(ctx context.Context, text string, ref time.Time) ExtractionResult {
	prompt := buildExtractionPrompt(text, ref)

	raw, err := e.client.GenerateText(ctx, prompt)
	if err != nil {
		e.logger.Warn().Err(err).Msg("extraction call failed, using fallback")
		return fallbackExtraction(text, ref)
	}

	var result ExtractionResult
	if err := llm.DecodeJSON(raw, &result); err != nil {
		e.logger.Warn().Err(err).Msg("extraction response malformed, using fallback")
		return fallbackExtraction(text, ref)
	}

	for i := range result.Tasks {
		if result.Tasks[i].Priority == "" || !result.Tasks[i].Priority.Valid() {
			result.Tasks[i].Priority = models.PriorityMedium
		}
		if result.Tasks[i].Recurrence == "" {
			result.Tasks[i].Recurrence = models.RecurrenceNone
		}
	}
	return result
}

func buildExtractionPrompt(text string, ref time.Time) string {
	dateStr := ref.Format("2006-01-02 Monday")
	timeStr := ref.Format("15:04")

	return fmt.Sprintf(`You are an intelligent task extraction assistant. Today's date is %s and current time is %s.

Analyze the following user input and extract ALL SEPARATE TASKS mentioned:
"%s"

CRITICAL INSTRUCTIONS:
- Extract EACH distinct action/task as a SEPARATE task object
- Look for conjunctions like "and", "also", "then" that indicate multiple tasks
- Each task should be ONE specific action (e.g., "eat dinner", "buy shirts", "submit project")
- DO NOT combine multiple actions into one task
- Be VERY generous in separating tasks - when in doubt, create separate tasks

For EACH task, extract the name (ONE specific action), scheduled date (convert
relative terms like "today", "tomorrow", "next week" to actual dates),
scheduled time (24-hour HH:MM if mentioned), due date, priority
(low|medium|high|urgent, detected from keywords), recurrence pattern
(none|daily|weekly|monthly|custom), whether the task is quantitative
(e.g. "100 questions", "50 pages") with its total and unit, a confidence
score, and any keywords indicating urgency.

Return a JSON object with this structure:
{
  "tasks": [
    {
      "name": "task name",
      "description": "optional longer description",
      "scheduled_date": "YYYY-MM-DD",
      "scheduled_time": "HH:MM or null",
      "due_date": "YYYY-MM-DD or null",
      "priority": "low|medium|high|urgent",
      "recurrence": "none|daily|weekly|monthly|custom",
      "recurrence_details": "description if custom",
      "is_quantitative": true,
      "quantitative_total": 0,
      "quantitative_unit": "unit name or null",
      "confidence": 0.0,
      "detected_keywords": ["keyword1"]
    }
  ],
  "needs_clarification": false,
  "clarification_question": "question to ask user if unclear",
  "overall_confidence": 0.0
}

IMPORTANT RULES:
- For "today", use %s
- For "tomorrow", add 1 day
- If timing is vague (e.g., "soon", "later"), set needs_clarification to true
- If no time specified, keep scheduled_time as null
- Default priority is "medium" unless keywords suggest otherwise`,
		dateStr, timeStr, text, dateStr)
}

// fallbackExtraction is the deterministic path taken when the LLM is
// unavailable or returns garbage. It scans for task-indicating keywords:
// none found means an empty result asking for clarification, otherwise the
// full input becomes a single medium-priority draft scheduled at ref.
func fallbackExtraction(text string, ref time.Time) ExtractionResult {
	lower := strings.ToLower(text)
	hasTask := false
	for _, word := range taskKeywords {
		if strings.Contains(lower, word) {
			hasTask = true
			break
		}
	}

	if !hasTask {
		return ExtractionResult{
			Tasks:                 nil,
			NeedsClarification:    true,
			ClarificationQuestion: "I'm not sure I understood that. Are you trying to create a task?",
			OverallConfidence:     0.3,
		}
	}

	name := text
	description := ""
	if len(text) > fallbackNameLimit {
		name = text[:fallbackNameLimit]
		description = text
	}

	return ExtractionResult{
		Tasks: []TaskDraft{{
			Name:          name,
			Description:   description,
			ScheduledDate: ref.Format(models.DateFormat),
			Priority:      models.PriorityMedium,
			Recurrence:    models.RecurrenceNone,
			Confidence:    0.5,
		}},
		OverallConfidence: 0.5,
	}
}
