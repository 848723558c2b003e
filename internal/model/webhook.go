package model

import (
	"encoding/json"
	"time"
)

// WebhookEvent is one entry extracted from a Garmin push payload. The table is
// append-only; duplicate entity ids are the consumer's problem, not ours.
type WebhookEvent struct {
	ID           int64           `db:"id" json:"id"`
	UserID       int64           `db:"user_id" json:"userId"`
	GarminUserID string          `db:"garmin_user_id" json:"garminUserId"`
	SummaryType  string          `db:"summary_type" json:"summaryType"`
	EntityID     *string         `db:"entity_id" json:"entityId,omitempty"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
}

type CreateWebhookEventParams struct {
	UserID       int64
	GarminUserID string
	SummaryType  string
	EntityID     *string
	Payload      json.RawMessage
}
