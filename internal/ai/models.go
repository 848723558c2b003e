package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/stridelab/garmin-bridge/internal/redis"
)

// Model is one entry in the provider's model catalog.
type Model struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ContextLength int    `json:"context_length"`
}

// ModelCatalog lists the provider's available models, cached in redis with an
// explicit TTL so stale lists expire on read rather than lingering in process
// memory.
type ModelCatalog struct {
	baseURL    string
	apiKey     string
	redis      *redis.Client
	ttl        time.Duration
	httpClient *http.Client
}

func NewModelCatalog(baseURL, apiKey string, redisClient *redis.Client, ttl time.Duration) *ModelCatalog {
	return &ModelCatalog{
		baseURL:    baseURL,
		apiKey:     apiKey,
		redis:      redisClient,
		ttl:        ttl,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// List returns the model catalog, served from cache when fresh. A cache
// failure is logged and falls through to the provider; the catalog is
// advisory, not load-bearing.
func (c *ModelCatalog) List(ctx context.Context) ([]Model, error) {
	key := redis.ModelListKey("openrouter")

	cached, err := c.redis.Get(ctx, key).Result()
	if err == nil {
		var models []Model
		if err := json.Unmarshal([]byte(cached), &models); err == nil {
			return models, nil
		}
		log.Warn().Msg("Corrupt model list cache entry, refetching")
	} else if err != goredis.Nil {
		log.Warn().Err(err).Msg("Model list cache read failed")
	}

	models, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(models); err == nil {
		if err := c.redis.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			log.Warn().Err(err).Msg("Model list cache write failed")
		}
	}

	return models, nil
}

func (c *ModelCatalog) fetch(ctx context.Context) ([]Model, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("create model list request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("model list request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read model list response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model list request failed: status %d", resp.StatusCode)
	}

	var parsed struct {
		Data []Model `json:"data"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse model list response: %w", err)
	}

	return parsed.Data, nil
}
