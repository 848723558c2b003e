package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// ConfigError marks a failure that no retry or model fallthrough can fix:
// bad API key, malformed request shape, unknown endpoint.
type ConfigError struct {
	StatusCode int
	Body       string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("ai provider configuration error: status %d", e.StatusCode)
}

// RequestError marks a per-request failure. Retryable instances are retried
// with backoff; non-retryable ones let the caller fall through to the next
// candidate model.
type RequestError struct {
	StatusCode int
	Body       string
	Retryable  bool
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("ai completion request failed: status %d", e.StatusCode)
}

var retryableStatuses = map[int]bool{
	http.StatusRequestTimeout:      true,
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

type ChatMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

type ToolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Tools       []Tool        `json:"tools,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

// CompletionParams is one call to the chat-completion endpoint.
type CompletionParams struct {
	Model       string
	Messages    []ChatMessage
	Tools       []Tool
	Temperature *float64
	MaxTokens   *int
}

// CompletionClient talks to an OpenAI-compatible chat-completion endpoint
// with classified retries: retryable statuses and timeouts are retried with
// exponential backoff, bounded by both an attempt count and a wall-clock cap.
type CompletionClient struct {
	baseURL    string
	apiKey     string
	referer    string
	maxRetries int
	retryCap   time.Duration
	httpClient *http.Client
}

type CompletionClientOptions struct {
	BaseURL    string
	APIKey     string
	Referer    string
	MaxRetries int
	RetryCap   time.Duration
	Timeout    time.Duration
}

func NewCompletionClient(opts CompletionClientOptions) *CompletionClient {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 3
	}
	if opts.RetryCap == 0 {
		opts.RetryCap = 90 * time.Second
	}
	if opts.Timeout == 0 {
		opts.Timeout = 120 * time.Second
	}
	return &CompletionClient{
		baseURL:    opts.BaseURL,
		apiKey:     opts.APIKey,
		referer:    opts.Referer,
		maxRetries: opts.MaxRetries,
		retryCap:   opts.RetryCap,
		httpClient: &http.Client{Timeout: opts.Timeout},
	}
}

// Complete runs one chat completion, retrying retryable failures. The retry
// budget is both attempt-counted and wall-clock-capped so a slow provider
// cannot stretch a job indefinitely.
func (c *CompletionClient) Complete(ctx context.Context, params CompletionParams) (*ChatMessage, error) {
	if c.apiKey == "" {
		return nil, &ConfigError{Body: "api key not configured"}
	}

	deadline := time.Now().Add(c.retryCap)
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			if time.Now().Add(backoff).After(deadline) {
				break
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		msg, err := c.doComplete(ctx, params)
		if err == nil {
			return msg, nil
		}
		lastErr = err

		var reqErr *RequestError
		if errors.As(err, &reqErr) && reqErr.Retryable {
			log.Warn().Int("status", reqErr.StatusCode).Int("attempt", attempt+1).
				Str("model", params.Model).Msg("Retrying AI completion")
			continue
		}
		if isTimeout(err) {
			log.Warn().Int("attempt", attempt+1).Str("model", params.Model).
				Msg("AI completion timed out, retrying")
			continue
		}
		return nil, err
	}

	return nil, lastErr
}

func (c *CompletionClient) doComplete(ctx context.Context, params CompletionParams) (*ChatMessage, error) {
	body, err := json.Marshal(completionRequest{
		Model:       params.Model,
		Messages:    params.Messages,
		Tools:       params.Tools,
		Temperature: params.Temperature,
		MaxTokens:   params.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create completion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read completion response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &ConfigError{StatusCode: resp.StatusCode, Body: string(respBody)}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &RequestError{
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
			Retryable:  retryableStatuses[resp.StatusCode],
		}
	}

	var parsed completionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("parse completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, &RequestError{StatusCode: resp.StatusCode, Body: "response has no choices"}
	}

	return &parsed.Choices[0].Message, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
