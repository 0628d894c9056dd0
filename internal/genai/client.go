package genai

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
)

// ErrEmptyCompletion is returned when the endpoint answered but produced no
// usable completion text. Callers must treat this differently from a
// transport or status failure.
var ErrEmptyCompletion = errors.New("completion endpoint returned no text")

// ServiceError captures a transport, status, or decode failure from the
// completion endpoint with enough detail to reproduce it without a second
// live call.
type ServiceError struct {
	Status int
	Body   string
	Err    error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("completion service error: %v", e.Err)
	}
	return fmt.Sprintf("completion service error: status=%d body=%s", e.Status, e.Body)
}

func (e *ServiceError) Unwrap() error { return e.Err }

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client is the process-wide handle to an OpenAI-compatible chat completion
// endpoint. It is built once at startup, never mutated, and safe for
// concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("model is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:  strings.TrimSpace(cfg.APIKey),
		model:   strings.TrimSpace(cfg.Model),
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) Model() string { return c.model }

// Request is one chat completion call: a system turn, a user turn, and the
// generation constraints the caller enforces.
type Request struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
	Stop        []string
}

// Complete issues a single synchronous chat completion request and returns
// the first choice's text. It performs exactly one attempt; retry policy
// belongs to the caller.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	payload := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": req.System},
			{"role": "user", "content": req.User},
		},
		"temperature": req.Temperature,
	}
	if req.MaxTokens > 0 {
		payload["max_tokens"] = req.MaxTokens
	}
	if len(req.Stop) > 0 {
		payload["stop"] = req.Stop
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", &ServiceError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	rawRespBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ServiceError{Status: resp.StatusCode, Err: fmt.Errorf("read chat response body: %w", err)}
	}
	if resp.StatusCode >= 400 {
		return "", &ServiceError{Status: resp.StatusCode, Body: excerpt(rawRespBody)}
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(rawRespBody, &parsed); err != nil {
		return "", &ServiceError{Status: resp.StatusCode, Body: excerpt(rawRespBody), Err: fmt.Errorf("decode chat completion response: %w", err)}
	}
	if len(parsed.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

const maxBodyExcerpt = 512

func excerpt(body []byte) string {
	if len(body) > maxBodyExcerpt {
		return string(body[:maxBodyExcerpt])
	}
	return string(body)
}
