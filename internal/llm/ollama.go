package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bowerhall/codegene/internal/logger"
)

// maxErrorBody bounds how much of a failed response ends up in an error
const maxErrorBody = 512

// Ollama talks to the native /api/chat endpoint without streaming
type Ollama struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewOllama(baseURL, model string, timeout time.Duration) *Ollama {
	return &Ollama{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

func (o *Ollama) Complete(ctx context.Context, systemPrompt, userPrompt, model string) (string, error) {
	if model == "" {
		model = o.model
	}

	reqBody := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Stream: false,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", &CallError{Provider: "ollama", Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(jsonBody))
	if err != nil {
		return "", &CallError{Provider: "ollama", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := o.client.Do(req)
	if err != nil {
		return "", &CallError{Provider: "ollama", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &CallError{Provider: "ollama", Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &CallError{Provider: "ollama", Status: resp.StatusCode, Body: errorBody(body)}
	}

	content := ExtractContent(body)
	logger.Debug("ollama reply", "model", model, "duration", time.Since(start), "chars", len(content))

	return content, nil
}

// Ping checks that the server answers and lists models
func (o *Ollama) Ping(ctx context.Context) error {
	_, err := o.Models(ctx)
	return err
}

// Models lists the models installed on the server
func (o *Ollama) Models(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, &CallError{Provider: "ollama", Err: err}
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, &CallError{Provider: "ollama", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &CallError{Provider: "ollama", Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &CallError{Provider: "ollama", Status: resp.StatusCode, Body: errorBody(body)}
	}

	var tags tagsResponse
	if err := json.Unmarshal(body, &tags); err != nil {
		return nil, &CallError{Provider: "ollama", Status: resp.StatusCode, Err: fmt.Errorf("decode tags: %w", err)}
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}

	return names, nil
}

func errorBody(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "..."
	}
	return s
}
