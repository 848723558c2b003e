package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/stridelab/garmin-bridge/internal/garmin"
)

// maxToolRounds bounds the tool-call loop: a model that keeps asking for
// lookups instead of producing output gets cut off.
const maxToolRounds = 4

var lookupToolSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"query": {"type": "string", "description": "Exercise name to search for, e.g. 'goblet squat'"},
		"sport": {"type": "string", "description": "Optional sport filter, e.g. STRENGTH_TRAINING"},
		"limit": {"type": "integer", "description": "Maximum number of matches, default 5"}
	},
	"required": ["query"]
}`)

// ToolGenerator augments generation with the exercise lookup tool so the
// model resolves exact vendor exercise identifiers instead of guessing.
type ToolGenerator struct {
	client *CompletionClient
}

func NewToolGenerator(client *CompletionClient) *ToolGenerator {
	return &ToolGenerator{client: client}
}

func (g *ToolGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	if len(req.ModelIDs) == 0 {
		return nil, fmt.Errorf("no candidate models configured")
	}

	tools := []Tool{{
		Type: "function",
		Function: ToolFunction{
			Name:        "lookup_exercise",
			Description: "Search the exercise catalog for exact exercise identifiers. Returns matching (sport, category, name) triples ranked by relevance. Always use returned identifiers verbatim.",
			Parameters:  lookupToolSchema,
		},
	}}

	var lastErr error
	for _, modelID := range req.ModelIDs {
		result, err := g.runConversation(ctx, req, modelID, tools)
		if err != nil {
			var cfgErr *ConfigError
			if errors.As(err, &cfgErr) {
				return nil, err
			}
			log.Warn().Err(err).Str("model", modelID).Str("trace_id", req.TraceID).
				Msg("Model failed, trying next candidate")
			lastErr = err
			continue
		}
		return result, nil
	}

	return nil, fmt.Errorf("all candidate models failed: %w", lastErr)
}

func (g *ToolGenerator) runConversation(ctx context.Context, req Request, modelID string, tools []Tool) (*Result, error) {
	messages := []ChatMessage{
		{Role: "system", Content: req.SystemPrompt},
		{Role: "user", Content: req.BasePrompt},
	}

	for round := 0; round <= maxToolRounds; round++ {
		params := CompletionParams{
			Model:       modelID,
			Messages:    messages,
			Tools:       tools,
			Temperature: req.Temperature,
			MaxTokens:   req.MaxOutputTokens,
		}
		if round == maxToolRounds {
			// final round: force a text answer
			params.Tools = nil
		}

		msg, err := g.client.Complete(ctx, params)
		if err != nil {
			return nil, err
		}

		if len(msg.ToolCalls) == 0 {
			return parseResult(msg.Content, modelID), nil
		}

		messages = append(messages, *msg)
		for _, call := range msg.ToolCalls {
			messages = append(messages, ChatMessage{
				Role:       "tool",
				ToolCallID: call.ID,
				Content:    executeToolCall(call, req.TraceID),
			})
		}
	}

	return nil, fmt.Errorf("model %s exceeded tool-call budget", modelID)
}

func executeToolCall(call ToolCall, traceID string) string {
	if call.Function.Name != "lookup_exercise" {
		return fmt.Sprintf(`{"error": "unknown tool %q"}`, call.Function.Name)
	}

	var args struct {
		Query string `json:"query"`
		Sport string `json:"sport"`
		Limit int    `json:"limit"`
	}
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
		return `{"error": "malformed tool arguments"}`
	}

	matches := garmin.LookupExercises(args.Query, garmin.Sport(args.Sport), args.Limit)
	log.Debug().Str("query", args.Query).Str("sport", args.Sport).
		Int("matches", len(matches)).Str("trace_id", traceID).
		Msg("Exercise lookup tool invoked")

	payload, err := json.Marshal(map[string]any{"matches": matches})
	if err != nil {
		return `{"error": "failed to encode matches"}`
	}
	return string(payload)
}
