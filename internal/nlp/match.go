package nlp

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/suhass434/journal-assistant/internal/llm"
	"github.com/suhass434/journal-assistant/internal/models"
)

// MatchResult is the outcome of matching a completion statement against
// candidate tasks.
type MatchResult struct {
	MatchedTaskIDs        []string `json:"matched_task_ids"`
	Confidence            float64  `json:"confidence"`
	NeedsClarification    bool     `json:"needs_clarification"`
	ClarificationQuestion string   `json:"clarification_question,omitempty"`
}

// ProgressUpdate is a parsed quantitative progress statement.
type ProgressUpdate struct {
	AmountCompleted int     `json:"amount_completed"`
	IsIncrement     bool    `json:"is_increment"`
	Confidence      float64 `json:"confidence"`
}

var numberPattern = regexp.MustCompile(`\d+`)

// ContainsNumber reports whether the text carries a numeric token, the
// trigger for the quantitative completion phase.
func ContainsNumber(text string) bool {
	return numberPattern.MatchString(text)
}

// NameMentioned reports whether any word of the task name longer than three
// characters appears in the statement. This gates which quantitative tasks
// are considered for a progress update.
func NameMentioned(taskName, text string) bool {
	lower := strings.ToLower(text)
	for _, word := range strings.Fields(strings.ToLower(taskName)) {
		if len(word) > 3 && strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// MatchCompletion determines which candidate tasks a free-text completion
// statement refers to. Only tasks scheduled on or before ref are eligible;
// future-dated tasks are never matched, including anything the model returns
// despite the instruction. On any failure the result asks for clarification
// with confidence 0.
func (e *Engine) MatchCompletion(ctx context.Context, text string, candidates []models.Task, ref time.Time) MatchResult {
	refDate := ref.Format(models.DateFormat)

	eligible := make(map[string]bool, len(candidates))
	var summary strings.Builder
	for _, task := range candidates {
		if task.ScheduledDate != "" && task.ScheduledDate > refDate {
			continue
		}
		eligible[task.ID] = true
		fmt.Fprintf(&summary, "ID: %s, Name: %s, Date: %s, Status: %s\n",
			task.ID, task.Name, task.ScheduledDate, task.Status)
	}

	if len(eligible) == 0 {
		return clarificationResult()
	}

	prompt := fmt.Sprintf(`The user said: "%s"

This appears to be a completion statement (they finished something).

Here are the existing tasks for %s:
%s
Determine which task(s) they completed. Match based on:
- Similar keywords in task name
- Context and meaning (not just exact match)
- Consider ONLY tasks scheduled for %s or earlier
- DO NOT match future tasks

Return JSON:
{
  "matched_task_ids": ["id1", "id2"],
  "confidence": 0.0,
  "needs_clarification": false,
  "clarification_question": "question if unclear which task"
}

If nothing matches well, return empty matched_task_ids and set needs_clarification to true.`,
		text, refDate, summary.String(), refDate)

	raw, err := e.client.GenerateText(ctx, prompt)
	if err != nil {
		e.logger.Warn().Err(err).Msg("completion match call failed")
		return clarificationResult()
	}

	var result MatchResult
	if err := llm.DecodeJSON(raw, &result); err != nil {
		e.logger.Warn().Err(err).Msg("completion match response malformed")
		return clarificationResult()
	}

	// Drop any ID the model invented or matched against a future task.
	filtered := result.MatchedTaskIDs[:0]
	for _, id := range result.MatchedTaskIDs {
		if eligible[id] {
			filtered = append(filtered, id)
		}
	}
	result.MatchedTaskIDs = filtered
	return result
}

func clarificationResult() MatchResult {
	return MatchResult{
		NeedsClarification:    true,
		ClarificationQuestion: "I'm not sure which task you completed. Can you be more specific?",
	}
}

// ParseProgress extracts how much of a quantitative task the user completed
// and whether the number is an increment ("finished 40 more") or an absolute
// value ("I'm at 40 now"). The fallback takes the first number in the text
// as an increment with confidence 0.6.
func (e *Engine) ParseProgress(ctx context.Context, text string, task models.Task) ProgressUpdate {
	total, completed := 0, 0
	if task.Progress != nil {
		total = task.Progress.Total
		completed = task.Progress.Completed
	}

	prompt := fmt.Sprintf(`The user is updating progress for task: "%s"

Current progress: %d out of %d

User said: "%s"

Extract how much they completed. Return JSON:
{
  "amount_completed": 0,
  "is_increment": true,
  "confidence": 0.0
}

is_increment is true for statements like "finished 40 more" and false for
absolute statements like "finished 40 total" or "I'm at 40 now".`,
		task.Name, completed, total, text)

	raw, err := e.client.GenerateText(ctx, prompt)
	if err == nil {
		var result ProgressUpdate
		if err := llm.DecodeJSON(raw, &result); err == nil {
			return result
		}
		e.logger.Warn().Msg("progress response malformed, using fallback")
	} else {
		e.logger.Warn().Err(err).Msg("progress call failed, using fallback")
	}

	if match := numberPattern.FindString(text); match != "" {
		amount, _ := strconv.Atoi(match)
		return ProgressUpdate{AmountCompleted: amount, IsIncrement: true, Confidence: 0.6}
	}
	return ProgressUpdate{IsIncrement: true}
}
