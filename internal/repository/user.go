package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/stridelab/garmin-bridge/internal/model"
)

type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*model.User, error)
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.User, error)
	Create(ctx context.Context, params model.CreateUserParams) (*model.User, error)
	// ReserveTrainerCredit atomically decrements the user's remaining credits.
	// Returns the remaining balance after the decrement, or nil when the user
	// had no credits left. Never read-then-write: the WHERE clause is the
	// entire concurrency story.
	ReserveTrainerCredit(ctx context.Context, userID int64) (*int, error)
	// RefundTrainerCredit is the symmetric atomic increment. The increment is
	// not idempotent; callers guard it with the job's refund lock.
	RefundTrainerCredit(ctx context.Context, userID int64) error
	WithTx(tx *sqlx.Tx) UserRepository
}

type userRepo struct {
	db sqlxDB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) WithTx(tx *sqlx.Tx) UserRepository {
	return &userRepo{db: tx}
}

func (r *userRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		SELECT * FROM users WHERE id = $1
	`, id)
	return HandleNotFound(&user, err)
}

func (r *userRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		SELECT * FROM users
		WHERE api_token_hash = $1 AND disabled_at IS NULL
	`, tokenHash)
	return HandleNotFound(&user, err)
}

func (r *userRepo) Create(ctx context.Context, params model.CreateUserParams) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		INSERT INTO users (email, plan_label, trainer_quota, trainer_credits, api_token_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`, params.Email, params.PlanLabel, params.TrainerQuota, params.TrainerCredits, params.APITokenHash)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) ReserveTrainerCredit(ctx context.Context, userID int64) (*int, error) {
	var remaining int
	err := r.db.GetContext(ctx, &remaining, `
		UPDATE users SET
			trainer_credits = trainer_credits - 1,
			updated_at = $2
		WHERE id = $1 AND trainer_credits > 0
		RETURNING trainer_credits
	`, userID, time.Now())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &remaining, nil
}

func (r *userRepo) RefundTrainerCredit(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET
			trainer_credits = trainer_credits + 1,
			updated_at = $2
		WHERE id = $1
	`, userID, time.Now())
	return err
}
