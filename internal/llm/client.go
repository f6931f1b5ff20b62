// Package llm wraps the external text-generation capability behind a narrow
// interface so callers can key their fallback logic off typed errors.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// Typed errors for external-call outcomes. Every call site treats both the
// same way: recover locally with a deterministic fallback.
var (
	// ErrUnavailable indicates a transport, timeout, or quota failure.
	ErrUnavailable = errors.New("llm unavailable")
	// ErrMalformed indicates the model returned text that does not parse
	// as the expected structure.
	ErrMalformed = errors.New("llm response malformed")
)

// Client is the single capability the core requires from the LLM
// collaborator: stateless, single-turn text generation.
type Client interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

const (
	defaultTimeout     = 30 * time.Second
	defaultConcurrency = 4
	maxAttempts        = 3
	initialBackoff     = 500 * time.Millisecond
)

// Gemini calls the Gemini generateContent REST endpoint.
type Gemini struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	sem     *semaphore.Weighted
	logger  zerolog.Logger
}

// Option configures a Gemini client.
type Option func(*Gemini)

// WithBaseURL overrides the API base URL (used by tests).
func WithBaseURL(url string) Option {
	return func(g *Gemini) { g.baseURL = url }
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(g *Gemini) { g.client.Timeout = d }
}

// WithConcurrency bounds in-flight calls toward the endpoint.
func WithConcurrency(n int64) Option {
	return func(g *Gemini) {
		if n > 0 {
			g.sem = semaphore.NewWeighted(n)
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(g *Gemini) { g.logger = logger }
}

// NewGemini creates a Gemini client.
func NewGemini(apiKey, model string, opts ...Option) *Gemini {
	g := &Gemini{
		apiKey:  apiKey,
		model:   model,
		baseURL: "https://generativelanguage.googleapis.com/v1beta",
		client:  &http.Client{Timeout: defaultTimeout},
		sem:     semaphore.NewWeighted(defaultConcurrency),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// generateContent wire types, reduced to the fields the core reads.
type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// GenerateText sends a single-turn prompt and returns the model's text.
// Transient failures are retried with exponential backoff; exhaustion and
// non-retryable failures surface as ErrUnavailable.
func (g *Gemini) GenerateText(ctx context.Context, prompt string) (string, error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer g.sem.Release(1)

	var lastErr error
	backoff := initialBackoff
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		text, retryable, err := g.call(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		g.logger.Warn().Err(err).Int("attempt", attempt).Msg("llm call failed")
		if !retryable || attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
		case <-time.After(backoff):
			backoff *= 2
		}
	}
	return "", fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

// call performs one request. The second return reports whether the failure
// is worth retrying.
func (g *Gemini) call(ctx context.Context, prompt string) (string, bool, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", false, err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", true, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, err
	}

	if resp.StatusCode != http.StatusOK {
		// Rate limits and server errors are transient; everything else is not.
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return "", retryable, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var parsed generateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", false, err
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", false, errors.New("empty candidates")
	}
	return parsed.Candidates[0].Content.Parts[0].Text, false, nil
}

// DecodeJSON strips markdown code fences the model tends to wrap JSON in,
// then unmarshals into v. Failures surface as ErrMalformed.
func DecodeJSON(text string, v interface{}) error {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
