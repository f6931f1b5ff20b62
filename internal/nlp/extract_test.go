package nlp

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/suhass434/journal-assistant/internal/models"
)

var ref = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func TestExtract(t *testing.T) {
	client := &fakeClient{response: `{
		"tasks": [
			{"name": "eat dinner", "scheduled_date": "2025-03-01", "priority": "low", "recurrence": "none", "confidence": 0.9},
			{"name": "solve questions", "scheduled_date": "2025-03-02", "is_quantitative": true, "quantitative_total": 100, "quantitative_unit": "questions", "confidence": 0.85}
		],
		"needs_clarification": false,
		"overall_confidence": 0.87
	}`}
	e := New(client)

	result := e.Extract(context.Background(), "eat dinner and solve 100 questions tomorrow", ref)
	if len(result.Tasks) != 2 {
		t.Fatalf("Expected 2 drafts, got %d", len(result.Tasks))
	}
	if result.Tasks[0].Name != "eat dinner" || result.Tasks[0].Priority != models.PriorityLow {
		t.Errorf("First draft wrong: %+v", result.Tasks[0])
	}
	if !result.Tasks[1].IsQuantitative || result.Tasks[1].QuantitativeTotal != 100 {
		t.Errorf("Quantitative draft wrong: %+v", result.Tasks[1])
	}

	// The prompt carries the reference date so relative terms resolve.
	if !strings.Contains(client.prompts[0], "2025-03-01") {
		t.Error("Expected prompt to carry the reference date")
	}
}

func TestExtract_NormalizesDraftDefaults(t *testing.T) {
	// Missing or invalid priority and recurrence come back normalized.
	client := &fakeClient{response: `{
		"tasks": [{"name": "vague task", "priority": "whenever", "confidence": 0.7}],
		"overall_confidence": 0.7
	}`}
	e := New(client)

	result := e.Extract(context.Background(), "do the vague task", ref)
	if len(result.Tasks) != 1 {
		t.Fatalf("Expected 1 draft, got %d", len(result.Tasks))
	}
	if result.Tasks[0].Priority != models.PriorityMedium {
		t.Errorf("Expected priority normalized to medium, got %s", result.Tasks[0].Priority)
	}
	if result.Tasks[0].Recurrence != models.RecurrenceNone {
		t.Errorf("Expected recurrence normalized to none, got %s", result.Tasks[0].Recurrence)
	}
}

func TestExtract_FallbackWithKeyword(t *testing.T) {
	e := New(&fakeClient{err: errDown})

	result := e.Extract(context.Background(), "finish the report", ref)
	if result.NeedsClarification {
		t.Error("Keyword input should not need clarification")
	}
	if len(result.Tasks) != 1 {
		t.Fatalf("Expected 1 fallback draft, got %d", len(result.Tasks))
	}
	draft := result.Tasks[0]
	if draft.Name != "finish the report" {
		t.Errorf("Expected raw input as name, got %q", draft.Name)
	}
	if draft.ScheduledDate != "2025-03-01" {
		t.Errorf("Expected fallback scheduled at ref date, got %s", draft.ScheduledDate)
	}
	if draft.Priority != models.PriorityMedium || draft.Confidence != 0.5 {
		t.Errorf("Expected medium priority at 0.5 confidence, got %s / %f", draft.Priority, draft.Confidence)
	}
	if result.OverallConfidence != 0.5 {
		t.Errorf("Expected overall confidence 0.5, got %f", result.OverallConfidence)
	}
}

func TestExtract_FallbackWithoutKeyword(t *testing.T) {
	e := New(&fakeClient{err: errDown})

	result := e.Extract(context.Background(), "the weather is nice", ref)
	if len(result.Tasks) != 0 {
		t.Errorf("Expected no drafts, got %d", len(result.Tasks))
	}
	if !result.NeedsClarification {
		t.Error("Expected clarification request")
	}
	if result.ClarificationQuestion == "" {
		t.Error("Expected a clarification question")
	}
	if result.OverallConfidence != 0.3 {
		t.Errorf("Expected confidence 0.3, got %f", result.OverallConfidence)
	}
}

func TestExtract_FallbackTruncatesLongInput(t *testing.T) {
	e := New(&fakeClient{err: errDown})

	long := "complete " + strings.Repeat("x", 200)
	result := e.Extract(context.Background(), long, ref)
	if len(result.Tasks) != 1 {
		t.Fatalf("Expected 1 draft, got %d", len(result.Tasks))
	}
	if len(result.Tasks[0].Name) != fallbackNameLimit {
		t.Errorf("Expected name truncated to %d chars, got %d", fallbackNameLimit, len(result.Tasks[0].Name))
	}
	if result.Tasks[0].Description != long {
		t.Error("Expected full input preserved in description")
	}
}

func TestExtract_MalformedResponseFallsBack(t *testing.T) {
	e := New(&fakeClient{response: "I could not parse that, sorry!"})

	result := e.Extract(context.Background(), "do the laundry", ref)
	if len(result.Tasks) != 1 {
		t.Fatalf("Expected fallback draft on malformed response, got %d drafts", len(result.Tasks))
	}
	if result.Tasks[0].Confidence != 0.5 {
		t.Errorf("Expected fallback confidence 0.5, got %f", result.Tasks[0].Confidence)
	}
}
