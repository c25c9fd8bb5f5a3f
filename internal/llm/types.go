package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrModelCallFailed marks every failure to get a response from the backend
var ErrModelCallFailed = errors.New("model call failed")

// LLM sends one system prompt and one user prompt and waits for the whole
// reply. An empty model selects the provider's configured default.
type LLM interface {
	Complete(ctx context.Context, systemPrompt, userPrompt, model string) (string, error)
	Ping(ctx context.Context) error
}

type Config struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

// CallError describes a failed backend request. It matches
// ErrModelCallFailed with errors.Is.
type CallError struct {
	Provider string
	Status   int
	Body     string
	Err      error
}

func (e *CallError) Error() string {
	switch {
	case e.Status != 0 && e.Body != "":
		return fmt.Sprintf("%s api error (status %d): %s", e.Provider, e.Status, e.Body)
	case e.Status != 0:
		return fmt.Sprintf("%s api error (status %d)", e.Provider, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
	default:
		return fmt.Sprintf("%s request failed", e.Provider)
	}
}

func (e *CallError) Unwrap() error {
	return e.Err
}

func (e *CallError) Is(target error) bool {
	return target == ErrModelCallFailed
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}
