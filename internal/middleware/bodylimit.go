package middleware

import (
	"net/http"

	"github.com/stridelab/garmin-bridge/internal/config"
)

// BodyLimitMiddleware caps request bodies before handlers read them. The
// webhook endpoint takes whole Garmin summary batches and the trainer
// endpoint takes raw plan markdown, so the cap is the only thing standing
// between a hostile payload and io.ReadAll.
type BodyLimitMiddleware struct {
	maxSize int64
}

func NewBodyLimitMiddleware(maxSize int64) *BodyLimitMiddleware {
	if maxSize <= 0 {
		maxSize = config.MaxRequestBodySize
	}
	return &BodyLimitMiddleware{maxSize: maxSize}
}

func (m *BodyLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// declared length is rejected up front; chunked bodies are cut off
		// by the reader below when they exceed the cap
		if r.ContentLength > m.maxSize {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
				"error": "Request body too large",
			})
			return
		}
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, m.maxSize)
		}
		next.ServeHTTP(w, r)
	})
}
