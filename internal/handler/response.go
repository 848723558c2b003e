package handler

import (
	"net/http"
	"time"

	"github.com/stridelab/garmin-bridge/internal/httputil"
	"github.com/stridelab/garmin-bridge/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

func formatJob(job *model.TrainerJob) map[string]any {
	out := map[string]any{
		"jobId":       job.ID,
		"status":      job.Status,
		"createdAt":   job.CreatedAt.Format(time.RFC3339),
		"updatedAt":   job.UpdatedAt.Format(time.RFC3339),
		"completedAt": formatTime(job.CompletedAt),
	}
	if job.Phase != nil {
		out["phase"] = *job.Phase
	}
	if job.Sport != nil {
		out["sport"] = *job.Sport
	}
	if job.ModelID != "" {
		out["model"] = job.ModelID
	}
	if job.FailureReason != nil {
		out["failureReason"] = *job.FailureReason
	}
	if len(job.WorkoutJSON) > 0 {
		out["workout"] = job.WorkoutJSON
	}
	return out
}
