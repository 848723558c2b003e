package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/stridelab/garmin-bridge/internal/model"
)

type GarminConnectionRepository interface {
	FindByUserID(ctx context.Context, userID int64) (*model.GarminConnection, error)
	FindByGarminUserID(ctx context.Context, garminUserID string) (*model.GarminConnection, error)
	Create(ctx context.Context, params model.CreateGarminConnectionParams) (*model.GarminConnection, error)
	// UpdateTokens writes every refreshed field together. Concurrent refreshes
	// race last-write-wins, which is safe because both are derived from the
	// same refresh token; partial writes are not.
	UpdateTokens(ctx context.Context, id int64, params model.UpdateGarminTokensParams) (*model.GarminConnection, error)
	Delete(ctx context.Context, id int64) error
	DeleteByUserID(ctx context.Context, userID int64) error
	DeleteByGarminUserID(ctx context.Context, garminUserID string) error
	WithTx(tx *sqlx.Tx) GarminConnectionRepository
}

type garminConnectionRepo struct {
	db sqlxDB
}

func NewGarminConnectionRepository(db *sqlx.DB) GarminConnectionRepository {
	return &garminConnectionRepo{db: db}
}

func (r *garminConnectionRepo) WithTx(tx *sqlx.Tx) GarminConnectionRepository {
	return &garminConnectionRepo{db: tx}
}

func (r *garminConnectionRepo) FindByUserID(ctx context.Context, userID int64) (*model.GarminConnection, error) {
	var conn model.GarminConnection
	err := r.db.GetContext(ctx, &conn, `
		SELECT * FROM garmin_connections WHERE user_id = $1
	`, userID)
	return HandleNotFound(&conn, err)
}

func (r *garminConnectionRepo) FindByGarminUserID(ctx context.Context, garminUserID string) (*model.GarminConnection, error) {
	var conn model.GarminConnection
	err := r.db.GetContext(ctx, &conn, `
		SELECT * FROM garmin_connections WHERE garmin_user_id = $1
	`, garminUserID)
	return HandleNotFound(&conn, err)
}

func (r *garminConnectionRepo) Create(ctx context.Context, params model.CreateGarminConnectionParams) (*model.GarminConnection, error) {
	var conn model.GarminConnection
	err := r.db.GetContext(ctx, &conn, `
		INSERT INTO garmin_connections
			(user_id, garmin_user_id, access_token_enc, refresh_token_enc, token_type, scope, access_token_expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING *
	`, params.UserID, params.GarminUserID, params.AccessTokenEnc, params.RefreshTokenEnc,
		params.TokenType, params.Scope, params.AccessTokenExpiresAt)
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

func (r *garminConnectionRepo) UpdateTokens(ctx context.Context, id int64, params model.UpdateGarminTokensParams) (*model.GarminConnection, error) {
	var conn model.GarminConnection
	err := r.db.GetContext(ctx, &conn, `
		UPDATE garmin_connections SET
			access_token_enc = $2,
			refresh_token_enc = $3,
			token_type = $4,
			scope = $5,
			access_token_expires_at = $6,
			updated_at = $7
		WHERE id = $1
		RETURNING *
	`, id, params.AccessTokenEnc, params.RefreshTokenEnc, params.TokenType,
		params.Scope, params.AccessTokenExpiresAt, time.Now())
	return HandleNotFound(&conn, err)
}

func (r *garminConnectionRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM garmin_connections WHERE id = $1`, id)
	return err
}

func (r *garminConnectionRepo) DeleteByUserID(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM garmin_connections WHERE user_id = $1`, userID)
	return err
}

func (r *garminConnectionRepo) DeleteByGarminUserID(ctx context.Context, garminUserID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM garmin_connections WHERE garmin_user_id = $1`, garminUserID)
	return err
}
