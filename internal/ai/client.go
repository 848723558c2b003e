package ai

import (
	"context"
	"encoding/json"
	"strings"
)

// Generator is the one interface the job engine sees. Which strategy backs it
// is an external policy decision, never decided in here.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}

type Request struct {
	BasePrompt      string
	SystemPrompt    string
	ModelIDs        []string
	Temperature     *float64
	MaxOutputTokens *int
	TraceID         string
}

// Result normalizes both strategies to the same shape. Data is nil and
// ParseErr set when the model produced text that is not valid JSON; the
// caller decides whether that fails the job.
type Result struct {
	RawText  string
	Data     json.RawMessage
	ParseErr error
	ModelID  string
}

func parseResult(rawText, modelID string) *Result {
	result := &Result{RawText: rawText, ModelID: modelID}

	cleaned := stripCodeFence(rawText)
	var data json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		result.ParseErr = err
		return result
	}

	result.Data = data
	return result
}

// stripCodeFence unwraps ```json ... ``` (or bare ```) fenced output. Models
// are not perfectly cooperative about raw-JSON-only responses.
func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	// drop the language tag ("json", "JSON") whether or not the model put
	// the payload on the same line as the opening fence
	i := 0
	for i < len(trimmed) && (trimmed[i] >= 'a' && trimmed[i] <= 'z' || trimmed[i] >= 'A' && trimmed[i] <= 'Z') {
		i++
	}
	trimmed = trimmed[i:]
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
