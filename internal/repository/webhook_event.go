package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/stridelab/garmin-bridge/internal/model"
)

// WebhookEventRepository is insert-only: inbound summaries are an append-only
// log and duplicates are handled downstream.
type WebhookEventRepository interface {
	Create(ctx context.Context, params model.CreateWebhookEventParams) (*model.WebhookEvent, error)
	CountByUserID(ctx context.Context, userID int64) (int, error)
}

type webhookEventRepo struct {
	db sqlxDB
}

func NewWebhookEventRepository(db *sqlx.DB) WebhookEventRepository {
	return &webhookEventRepo{db: db}
}

func (r *webhookEventRepo) Create(ctx context.Context, params model.CreateWebhookEventParams) (*model.WebhookEvent, error) {
	var event model.WebhookEvent
	err := r.db.GetContext(ctx, &event, `
		INSERT INTO webhook_events (user_id, garmin_user_id, summary_type, entity_id, payload)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`, params.UserID, params.GarminUserID, params.SummaryType, params.EntityID, []byte(params.Payload))
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *webhookEventRepo) CountByUserID(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM webhook_events WHERE user_id = $1
	`, userID)
	return count, err
}
