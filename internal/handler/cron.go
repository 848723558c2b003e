package handler

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/stridelab/garmin-bridge/internal/service"
)

type CronHandler struct {
	trainerSvc *service.TrainerService
}

func NewCronHandler(trainerSvc *service.TrainerService) *CronHandler {
	return &CronHandler{trainerSvc: trainerSvc}
}

// ProcessJobs drains pending jobs and fails stale ones. Called by the
// external scheduler behind the cron auth middleware.
func (h *CronHandler) ProcessJobs(w http.ResponseWriter, r *http.Request) {
	processed, err := h.trainerSvc.ProcessPendingBatch(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("cron batch processing failed")
		writeError(w, err)
		return
	}

	failed, err := h.trainerSvc.FailStaleJobs(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("cron stale job sweep failed")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{
		"processed":   processed,
		"failedStale": failed,
	})
}
