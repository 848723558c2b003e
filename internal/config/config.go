package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

type Config struct {
	Port        int    `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	RedisURL    string `env:"REDIS_URL,required"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Token encryption at rest (64 hex chars = 32 bytes)
	EncryptionKey string `env:"ENCRYPTION_KEY"`

	// Garmin OAuth2/PKCE
	GarminClientID     string `env:"GARMIN_CLIENT_ID"`
	GarminClientSecret string `env:"GARMIN_CLIENT_SECRET"`
	GarminAuthorizeURL string `env:"GARMIN_AUTHORIZE_URL" envDefault:"https://connect.garmin.com/oauth2Confirm"`
	GarminTokenURL     string `env:"GARMIN_TOKEN_URL" envDefault:"https://diauth.garmin.com/di-oauth2-service/oauth/token"`
	GarminAPIBaseURL   string `env:"GARMIN_API_BASE_URL" envDefault:"https://apis.garmin.com"`
	GarminRedirectURI  string `env:"GARMIN_REDIRECT_URI"`
	GarminScope        string `env:"GARMIN_SCOPE" envDefault:"WORKOUT_IMPORT HEALTH_EXPORT"`

	// Garmin webhook push
	GarminWebhookSecret   string `env:"GARMIN_WEBHOOK_SECRET"`
	GarminStrictSignature bool   `env:"GARMIN_STRICT_SIGNATURE" envDefault:"false"`

	// Page the OAuth callback redirects to with status/reason query params
	IntegrationStatusURL string `env:"INTEGRATION_STATUS_URL" envDefault:"/integrations/garmin"`

	// AI completion provider
	AIAPIKey            string   `env:"AI_API_KEY"`
	AIBaseURL           string   `env:"AI_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	AIReferer           string   `env:"AI_REFERER" envDefault:""`
	AIModelIDs          []string `env:"AI_MODEL_IDS" envSeparator:"," envDefault:"anthropic/claude-sonnet-4,openai/gpt-4o"`
	AIToolSports        []string `env:"AI_TOOL_SPORTS" envSeparator:"," envDefault:"STRENGTH_TRAINING,CARDIO_TRAINING"`
	AITimeoutSeconds    int      `env:"AI_TIMEOUT_SECONDS" envDefault:"120"`
	AIMaxRetries        int      `env:"AI_MAX_RETRIES" envDefault:"3"`
	AIModelCacheSeconds int      `env:"AI_MODEL_CACHE_SECONDS" envDefault:"600"`

	// Cron batch endpoint (bcrypt hash, see scripts/hash-secret.go)
	CronSecretHash string `env:"CRON_SECRET_HASH"`

	TrainerETAMinutes int `env:"TRAINER_ETA_MINUTES" envDefault:"2"`
	TrainerBatchSize  int `env:"TRAINER_BATCH_SIZE" envDefault:"5"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AITimeoutSeconds) * time.Second
}

func (c *Config) AIModelCacheTTL() time.Duration {
	return time.Duration(c.AIModelCacheSeconds) * time.Second
}

func (c *Config) Validate(isProduction bool) error {
	if c.CronSecretHash != "" {
		if !strings.HasPrefix(c.CronSecretHash, "$2a$") &&
			!strings.HasPrefix(c.CronSecretHash, "$2b$") &&
			!strings.HasPrefix(c.CronSecretHash, "$2y$") {
			return fmt.Errorf("CRON_SECRET_HASH must be a bcrypt hash (generate with: go run scripts/hash-secret.go <secret>)")
		}
	}

	if c.GarminStrictSignature && c.GarminWebhookSecret == "" {
		return fmt.Errorf("GARMIN_STRICT_SIGNATURE requires GARMIN_WEBHOOK_SECRET to be set")
	}

	if isProduction {
		if err := validateSecret("ENCRYPTION_KEY", c.EncryptionKey); err != nil {
			return err
		}
		if c.GarminWebhookSecret == "" {
			log.Warn().Msg("GARMIN_WEBHOOK_SECRET is empty in production: webhook signature verification disabled")
		}
		if c.AIAPIKey == "" {
			log.Warn().Msg("AI_API_KEY is empty in production: trainer job processing will fail")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -hex 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
