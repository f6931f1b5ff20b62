package audit

import (
	"path/filepath"
	"testing"

	"github.com/suhass434/journal-assistant/internal/models"
	"github.com/suhass434/journal-assistant/internal/store"
)

func TestRecordAndList(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer st.Close()

	w := NewHistoryWriter(st)

	if err := w.Record("task-1", models.HistoryCreated, map[string]string{"name": "x"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := w.Record("task-1", models.HistoryDeleted, nil); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	entries, err := w.List("task-1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Action != models.HistoryCreated {
		t.Errorf("Expected created first, got %s", entries[0].Action)
	}
	if entries[0].Data != `{"name":"x"}` {
		t.Errorf("Unexpected payload: %s", entries[0].Data)
	}
	// Nil payloads store an empty delta, not the literal "null".
	if entries[1].Data != "" {
		t.Errorf("Expected empty data for nil payload, got %s", entries[1].Data)
	}
}
