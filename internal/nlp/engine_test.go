package nlp

import (
	"context"
	"errors"
)

// fakeClient is a canned LLM for tests. With err set every call fails,
// exercising the deterministic fallbacks.
type fakeClient struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

var errDown = errors.New("model down")
