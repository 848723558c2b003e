package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stridelab/garmin-bridge/internal/ai"
	"github.com/stridelab/garmin-bridge/internal/config"
	apperrors "github.com/stridelab/garmin-bridge/internal/errors"
	"github.com/stridelab/garmin-bridge/internal/middleware"
	"github.com/stridelab/garmin-bridge/internal/service"
)

type TrainerHandler struct {
	cfg        *config.Config
	trainerSvc *service.TrainerService
	catalog    *ai.ModelCatalog
}

func NewTrainerHandler(cfg *config.Config, trainerSvc *service.TrainerService, catalog *ai.ModelCatalog) *TrainerHandler {
	return &TrainerHandler{cfg: cfg, trainerSvc: trainerSvc, catalog: catalog}
}

type createJobRequest struct {
	PlanMarkdown string  `json:"planMarkdown"`
	Sport        *string `json:"sport,omitempty"`
}

// CreateJob accepts a markdown training plan and queues a conversion job. The
// response is immediate; the client polls the job for the result.
func (h *TrainerHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("body", "must be valid JSON"))
		return
	}

	job, err := h.trainerSvc.CreateJob(r.Context(), user.ID, req.PlanMarkdown, req.Sport)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"jobId":      job.ID,
		"status":     job.Status,
		"etaMinutes": h.cfg.TrainerETAMinutes,
		"message":    "Your workout is being generated",
	})
}

// GetJob returns the job's current state. Jobs owned by other users read as
// not found.
func (h *TrainerHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	jobID, err := strconv.ParseInt(chi.URLParam(r, "jobID"), 10, 64)
	if err != nil {
		writeError(w, apperrors.InvalidInput("jobID", "must be numeric"))
		return
	}

	job, err := h.trainerSvc.GetJob(r.Context(), user.ID, jobID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, formatJob(job))
}

// PushJob uploads a completed job's workout to the user's Garmin account.
func (h *TrainerHandler) PushJob(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	jobID, err := strconv.ParseInt(chi.URLParam(r, "jobID"), 10, 64)
	if err != nil {
		writeError(w, apperrors.InvalidInput("jobID", "must be numeric"))
		return
	}

	if err := h.trainerSvc.PushJobWorkout(r.Context(), user.ID, jobID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "pushed"})
}

// ListModels exposes the provider's model catalog alongside the configured
// generation order.
func (h *TrainerHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	models, err := h.catalog.List(r.Context())
	if err != nil {
		writeError(w, apperrors.External("ai provider", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"configured": h.cfg.AIModelIDs,
		"available":  models,
	})
}
