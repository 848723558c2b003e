package handler

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/stridelab/garmin-bridge/internal/audit"
	"github.com/stridelab/garmin-bridge/internal/service"
)

type WebhookHandler struct {
	webhookSvc *service.WebhookService
}

func NewWebhookHandler(webhookSvc *service.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookSvc: webhookSvc}
}

// Receive handles POST /garmin/push/{summaryType}. Unsupported summary types
// 404 before any signature work so probes learn nothing about the secret.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	summaryType, ok := service.NormalizeSummaryType(chi.URLParam(r, "summaryType"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Unknown summary type"})
		return
	}

	rawBody, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Unreadable body"})
		return
	}

	if err := h.webhookSvc.VerifySignature(r.Header.Get("X-Garmin-Signature"), rawBody); err != nil {
		audit.LogFromRequest(r, audit.Event{
			Type: audit.EventWebhookRejected,
			Details: map[string]interface{}{
				"summaryType": summaryType,
			},
		})
		writeError(w, err)
		return
	}

	result, err := h.webhookSvc.Process(r.Context(), summaryType, rawBody)
	if err != nil {
		log.Error().Err(err).Str("summaryType", summaryType).Msg("webhook processing failed")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
