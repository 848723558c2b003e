package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// ClassicGenerator iterates the candidate model list, calling each until one
// returns text. Configuration errors abort the whole list; request errors
// fall through to the next model.
type ClassicGenerator struct {
	client *CompletionClient
}

func NewClassicGenerator(client *CompletionClient) *ClassicGenerator {
	return &ClassicGenerator{client: client}
}

func (g *ClassicGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	if len(req.ModelIDs) == 0 {
		return nil, fmt.Errorf("no candidate models configured")
	}

	var lastErr error
	for _, modelID := range req.ModelIDs {
		msg, err := g.client.Complete(ctx, CompletionParams{
			Model: modelID,
			Messages: []ChatMessage{
				{Role: "system", Content: req.SystemPrompt},
				{Role: "user", Content: req.BasePrompt},
			},
			Temperature: req.Temperature,
			MaxTokens:   req.MaxOutputTokens,
		})
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

		log.Debug().Str("model", modelID).Str("trace_id", req.TraceID).
			Msg("AI completion succeeded")
		return parseResult(msg.Content, modelID), nil
	}

	return nil, fmt.Errorf("all candidate models failed: %w", lastErr)
}
