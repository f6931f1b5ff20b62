// Package audit provides append-only task history logging.
package audit

import (
	"encoding/json"

	"github.com/suhass434/journal-assistant/internal/models"
	"github.com/suhass434/journal-assistant/internal/store"
)

// HistoryWriter writes task history entries for lifecycle mutations.
// Entries are best-effort and never mutated or deleted.
type HistoryWriter struct {
	store *store.Store
}

// NewHistoryWriter creates a new history writer.
func NewHistoryWriter(s *store.Store) *HistoryWriter {
	return &HistoryWriter{store: s}
}

// Record writes a history entry for a state-mutating action. The payload is
// serialized as a JSON snapshot or delta.
func (w *HistoryWriter) Record(taskID string, action models.HistoryAction, payload interface{}) error {
	entry := &models.HistoryEntry{
		TaskID: taskID,
		Action: action,
		Data:   encodePayload(payload),
	}
	return w.store.AppendHistory(entry)
}

// List returns the history for a task in append order.
func (w *HistoryWriter) List(taskID string) ([]models.HistoryEntry, error) {
	return w.store.ListHistory(taskID)
}

func encodePayload(payload interface{}) string {
	if payload == nil {
		return ""
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return string(data)
}
