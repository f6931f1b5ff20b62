// Package nlp turns free-form natural language into structured task
// operations using the LLM collaborator, with deterministic fallbacks for
// every call so no request ever aborts on an external failure.
package nlp

import (
	"github.com/rs/zerolog"

	"github.com/suhass434/journal-assistant/internal/llm"
)

// Engine runs the natural-language task flows: extraction, completion
// matching, progress parsing, and summary generation.
type Engine struct {
	client llm.Client
	logger zerolog.Logger
}

// New creates an Engine backed by the given LLM client.
func New(client llm.Client) *Engine {
	return &Engine{client: client, logger: zerolog.Nop()}
}

// NewWithLogger creates an Engine with logging support.
func NewWithLogger(client llm.Client, logger zerolog.Logger) *Engine {
	return &Engine{client: client, logger: logger}
}
