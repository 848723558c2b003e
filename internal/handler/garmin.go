package handler

import (
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/stridelab/garmin-bridge/internal/config"
	"github.com/stridelab/garmin-bridge/internal/middleware"
	"github.com/stridelab/garmin-bridge/internal/repository"
	"github.com/stridelab/garmin-bridge/internal/service"
)

type GarminHandler struct {
	cfg       *config.Config
	connSvc   *service.ConnectionService
	eventRepo repository.WebhookEventRepository
}

func NewGarminHandler(cfg *config.Config, connSvc *service.ConnectionService, eventRepo repository.WebhookEventRepository) *GarminHandler {
	return &GarminHandler{cfg: cfg, connSvc: connSvc, eventRepo: eventRepo}
}

// Connect starts the OAuth flow. API clients get the authorize URL as JSON;
// ?redirect=1 sends the browser straight there.
func (h *GarminHandler) Connect(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	authURL, err := h.connSvc.BeginLink(r.Context(), user.ID)
	if err != nil {
		log.Error().Err(err).Int64("userId", user.ID).Msg("begin garmin link failed")
		writeError(w, err)
		return
	}

	if r.URL.Query().Get("redirect") == "1" {
		http.Redirect(w, r, authURL, http.StatusFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"authorizationUrl": authURL})
}

// Callback is the vendor redirect target. Whatever happens, the browser ends
// up on the integration status page with status/reason query params; errors
// never surface as raw HTTP failures here.
func (h *GarminHandler) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	result := h.connSvc.HandleCallback(r.Context(), service.CallbackParams{
		Code:       query.Get("code"),
		State:      query.Get("state"),
		ErrorParam: query.Get("error"),
	})

	params := url.Values{}
	params.Set("status", result.Status)
	params.Set("reason", result.Reason)
	http.Redirect(w, r, h.cfg.IntegrationStatusURL+"?"+params.Encode(), http.StatusFound)
}

// Connection reports whether the user has a linked Garmin account.
func (h *GarminHandler) Connection(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	conn, err := h.connSvc.Connection(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if conn == nil {
		writeJSON(w, http.StatusOK, map[string]any{"connected": false})
		return
	}

	eventCount, err := h.eventRepo.CountByUserID(r.Context(), user.ID)
	if err != nil {
		log.Warn().Err(err).Int64("userId", user.ID).Msg("webhook event count failed")
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"connected":     true,
		"garminUserId":  conn.GarminUserID,
		"linkedAt":      conn.CreatedAt,
		"scope":         conn.Scope,
		"webhookEvents": eventCount,
	})
}

// Disconnect removes the user's Garmin link.
func (h *GarminHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	if err := h.connSvc.Disconnect(r.Context(), user.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "disconnected"})
}
