package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/stridelab/garmin-bridge/internal/audit"
	"github.com/stridelab/garmin-bridge/internal/util"
)

// CronAuthMiddleware protects the internal batch endpoints. The shared secret
// is configured as a bcrypt hash so the plaintext only exists in the
// scheduler's environment.
type CronAuthMiddleware struct {
	secretHash string
}

func NewCronAuthMiddleware(secretHash string) *CronAuthMiddleware {
	return &CronAuthMiddleware{secretHash: secretHash}
}

func (m *CronAuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.secretHash == "" {
			log.Warn().Msg("cron endpoint called but CRON_SECRET_HASH is not configured")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"error": "Cron endpoint disabled",
			})
			return
		}

		secret := extractCronSecret(r)
		if secret == "" || !util.CheckSecretHash(secret, m.secretHash) {
			audit.LogFromRequest(r, audit.Event{Type: audit.EventCronAuthFailure})
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Invalid cron secret",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func extractCronSecret(r *http.Request) string {
	if secret := r.Header.Get("X-Cron-Secret"); secret != "" {
		return secret
	}
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}
