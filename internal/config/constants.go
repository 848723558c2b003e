package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Background job intervals
const CleanupJobInterval = 5 * time.Minute

// Default rate limiting
const DefaultRateLimitPerMin = 60

// OAuth session lifetime: an authorization attempt must complete within this window
const OAuthSessionTTL = 10 * time.Minute

// Access tokens are refreshed when expiry is unknown or this close to now
const TokenRefreshLeeway = 60 * time.Second

// Stored token expiry is shortened by this margin so a token is never used in
// its final seconds of validity
const TokenExpiryMargin = 600 * time.Second

// AI retry bounds: attempt count is capped by AIMaxRetries, total retry time by this
const AIRetryWallClockCap = 90 * time.Second

// Request body cap. Garmin webhook batches and plan markdown both stay well
// under 1MB; anything larger is not a payload this service accepts.
const MaxRequestBodySize = 1 << 20

// Processing jobs older than this are treated as abandoned and failed by cleanup
const JobStaleDeadline = 30 * time.Minute
