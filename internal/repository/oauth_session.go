package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/stridelab/garmin-bridge/internal/model"
)

type OAuthSessionRepository interface {
	FindByState(ctx context.Context, state string) (*model.OAuthSession, error)
	Create(ctx context.Context, params model.CreateOAuthSessionParams) (*model.OAuthSession, error)
	Delete(ctx context.Context, id int64) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type oauthSessionRepo struct {
	db sqlxDB
}

func NewOAuthSessionRepository(db *sqlx.DB) OAuthSessionRepository {
	return &oauthSessionRepo{db: db}
}

func (r *oauthSessionRepo) FindByState(ctx context.Context, state string) (*model.OAuthSession, error) {
	var session model.OAuthSession
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM oauth_sessions
		WHERE state = $1 AND expires_at > NOW()
	`, state)
	return HandleNotFound(&session, err)
}

func (r *oauthSessionRepo) Create(ctx context.Context, params model.CreateOAuthSessionParams) (*model.OAuthSession, error) {
	var session model.OAuthSession
	err := r.db.GetContext(ctx, &session, `
		INSERT INTO oauth_sessions (state, code_verifier, user_id, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, params.State, params.CodeVerifier, params.UserID, params.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *oauthSessionRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM oauth_sessions WHERE id = $1`, id)
	return err
}

func (r *oauthSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM oauth_sessions WHERE expires_at < NOW()`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
