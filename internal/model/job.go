package model

import (
	"encoding/json"
	"time"
)

// TrainerJob is one markdown-to-workout conversion request. Rows are never
// deleted; failed and completed jobs stay around as an audit trail.
type TrainerJob struct {
	ID             int64            `db:"id" json:"id"`
	UserID         int64            `db:"user_id" json:"userId"`
	Status         TrainerJobStatus `db:"status" json:"status"`
	Phase          *string          `db:"phase" json:"phase,omitempty"`
	PlanMarkdown   string           `db:"plan_markdown" json:"planMarkdown"`
	Sport          *string          `db:"sport" json:"sport,omitempty"`
	WorkoutJSON    json.RawMessage  `db:"workout_json" json:"workoutJson,omitempty"`
	ModelID        string           `db:"model_id" json:"modelId"`
	TraceID        string           `db:"trace_id" json:"traceId"`
	CreditReserved bool             `db:"credit_reserved" json:"-"`
	FailureReason  *string          `db:"failure_reason" json:"failureReason,omitempty"`
	CreatedAt      time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time        `db:"updated_at" json:"updatedAt"`
	CompletedAt    *time.Time       `db:"completed_at" json:"completedAt,omitempty"`
}

type CreateTrainerJobParams struct {
	UserID         int64
	PlanMarkdown   string
	Sport          *string
	ModelID        string
	TraceID        string
	CreditReserved bool
}
