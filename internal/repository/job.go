package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/stridelab/garmin-bridge/internal/model"
)

type TrainerJobRepository interface {
	Create(ctx context.Context, params model.CreateTrainerJobParams) (*model.TrainerJob, error)
	FindByID(ctx context.Context, id int64) (*model.TrainerJob, error)
	FindByIDAndUserID(ctx context.Context, id, userID int64) (*model.TrainerJob, error)
	FindPending(ctx context.Context, limit int) ([]model.TrainerJob, error)
	FindStaleProcessing(ctx context.Context, olderThan time.Time) ([]model.TrainerJob, error)
	// MarkProcessing atomically claims a pending job. Returns true only for
	// the caller that flipped pending to processing; everyone else racing on
	// the same row loses and must not process it.
	MarkProcessing(ctx context.Context, id int64) (bool, error)
	SetPhase(ctx context.Context, id int64, phase string) error
	Complete(ctx context.Context, id int64, workoutJSON json.RawMessage, modelID string) error
	Fail(ctx context.Context, id int64, reason string) error
	// ReleaseCreditLock flips credit_reserved to false exactly once. Returns
	// true only for the caller that performed the flip; every other caller
	// sees false and must not refund.
	ReleaseCreditLock(ctx context.Context, id int64) (bool, error)
}

type trainerJobRepo struct {
	db sqlxDB
}

func NewTrainerJobRepository(db *sqlx.DB) TrainerJobRepository {
	return &trainerJobRepo{db: db}
}

func (r *trainerJobRepo) Create(ctx context.Context, params model.CreateTrainerJobParams) (*model.TrainerJob, error) {
	var job model.TrainerJob
	err := r.db.GetContext(ctx, &job, `
		INSERT INTO trainer_jobs (user_id, status, plan_markdown, sport, model_id, trace_id, credit_reserved)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING *
	`, params.UserID, model.TrainerJobPending, params.PlanMarkdown, params.Sport,
		params.ModelID, params.TraceID, params.CreditReserved)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *trainerJobRepo) FindByID(ctx context.Context, id int64) (*model.TrainerJob, error) {
	var job model.TrainerJob
	err := r.db.GetContext(ctx, &job, `
		SELECT * FROM trainer_jobs WHERE id = $1
	`, id)
	return HandleNotFound(&job, err)
}

func (r *trainerJobRepo) FindByIDAndUserID(ctx context.Context, id, userID int64) (*model.TrainerJob, error) {
	var job model.TrainerJob
	err := r.db.GetContext(ctx, &job, `
		SELECT * FROM trainer_jobs WHERE id = $1 AND user_id = $2
	`, id, userID)
	return HandleNotFound(&job, err)
}

func (r *trainerJobRepo) FindPending(ctx context.Context, limit int) ([]model.TrainerJob, error) {
	var jobs []model.TrainerJob
	err := r.db.SelectContext(ctx, &jobs, `
		SELECT * FROM trainer_jobs
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`, model.TrainerJobPending, limit)
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *trainerJobRepo) FindStaleProcessing(ctx context.Context, olderThan time.Time) ([]model.TrainerJob, error) {
	var jobs []model.TrainerJob
	err := r.db.SelectContext(ctx, &jobs, `
		SELECT * FROM trainer_jobs
		WHERE status = $1 AND updated_at < $2
		ORDER BY created_at ASC
	`, model.TrainerJobProcessing, olderThan)
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *trainerJobRepo) MarkProcessing(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE trainer_jobs SET status = $2, updated_at = $3
		WHERE id = $1 AND status = $4
	`, id, model.TrainerJobProcessing, time.Now(), model.TrainerJobPending)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *trainerJobRepo) SetPhase(ctx context.Context, id int64, phase string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE trainer_jobs SET phase = $2, updated_at = $3
		WHERE id = $1
	`, id, phase, time.Now())
	return err
}

func (r *trainerJobRepo) Complete(ctx context.Context, id int64, workoutJSON json.RawMessage, modelID string) error {
	now := time.Now()
	_, err := r.db.ExecContext(ctx, `
		UPDATE trainer_jobs SET
			status = $2,
			workout_json = $3,
			model_id = $4,
			phase = NULL,
			completed_at = $5,
			updated_at = $5
		WHERE id = $1
	`, id, model.TrainerJobCompleted, []byte(workoutJSON), modelID, now)
	return err
}

func (r *trainerJobRepo) Fail(ctx context.Context, id int64, reason string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE trainer_jobs SET
			status = $2,
			failure_reason = $3,
			phase = NULL,
			updated_at = $4
		WHERE id = $1
	`, id, model.TrainerJobFailed, reason, time.Now())
	return err
}

func (r *trainerJobRepo) ReleaseCreditLock(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE trainer_jobs SET credit_reserved = FALSE, updated_at = $2
		WHERE id = $1 AND credit_reserved = TRUE
	`, id, time.Now())
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}
