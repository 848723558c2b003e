package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/stridelab/garmin-bridge/internal/ai"
	"github.com/stridelab/garmin-bridge/internal/audit"
	"github.com/stridelab/garmin-bridge/internal/config"
	apperrors "github.com/stridelab/garmin-bridge/internal/errors"
	"github.com/stridelab/garmin-bridge/internal/garmin"
	"github.com/stridelab/garmin-bridge/internal/model"
	"github.com/stridelab/garmin-bridge/internal/repository"
)

const trainerSystemPrompt = `You convert training plans written in markdown into Garmin workout JSON.
Respond with a single JSON object and nothing else: either a Garmin workout document
(workoutName, sport, segments) or a structured plan (sections of WARMUP/MAIN/COOLDOWN
blocks). Use exact exercise identifiers from the exercise catalog; never invent
exerciseCategory or exerciseName values. Durations are seconds, distances are meters.`

// batchConcurrency bounds parallel AI calls when the cron endpoint drains
// pending jobs.
const batchConcurrency = 3

// Phase labels stored on the job row while processing.
const (
	phaseGenerating = "generating"
	phaseValidating = "validating"
)

type workoutPusher interface {
	PushWorkout(ctx context.Context, accessToken string, workout *garmin.Workout) error
}

type TrainerService struct {
	cfg        *config.Config
	userRepo   repository.UserRepository
	connRepo   repository.GarminConnectionRepository
	jobRepo    repository.TrainerJobRepository
	connSvc    *ConnectionService
	classic    ai.Generator
	tooled     ai.Generator
	pusher     workoutPusher
	toolSports map[string]bool
}

func NewTrainerService(
	cfg *config.Config,
	userRepo repository.UserRepository,
	connRepo repository.GarminConnectionRepository,
	jobRepo repository.TrainerJobRepository,
	connSvc *ConnectionService,
	classic ai.Generator,
	tooled ai.Generator,
	pusher workoutPusher,
) *TrainerService {
	toolSports := make(map[string]bool, len(cfg.AIToolSports))
	for _, sport := range cfg.AIToolSports {
		toolSports[strings.ToUpper(strings.TrimSpace(sport))] = true
	}
	return &TrainerService{
		cfg:        cfg,
		userRepo:   userRepo,
		connRepo:   connRepo,
		jobRepo:    jobRepo,
		connSvc:    connSvc,
		classic:    classic,
		tooled:     tooled,
		pusher:     pusher,
		toolSports: toolSports,
	}
}

// CreateJob validates the request, reserves one conversion credit atomically,
// creates the job row and schedules processing. The caller gets the job back
// immediately; processing is not awaited.
func (s *TrainerService) CreateJob(ctx context.Context, userID int64, planMarkdown string, sport *string) (*model.TrainerJob, error) {
	planMarkdown = strings.TrimSpace(planMarkdown)
	if planMarkdown == "" {
		return nil, apperrors.MissingRequired("planMarkdown")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NotFound("User")
	}

	conn, err := s.connRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, apperrors.NotConnected()
	}

	remaining, err := s.userRepo.ReserveTrainerCredit(ctx, userID)
	if err != nil {
		return nil, err
	}
	if remaining == nil {
		return nil, apperrors.QuotaExhausted(user.PlanLabel, user.TrainerQuota)
	}
	audit.Log(ctx, audit.Event{
		Type:   audit.EventCreditReserve,
		UserID: strconv.FormatInt(userID, 10),
		Details: map[string]interface{}{
			"remaining": *remaining,
		},
	})

	job, err := s.jobRepo.Create(ctx, model.CreateTrainerJobParams{
		UserID:         userID,
		PlanMarkdown:   planMarkdown,
		Sport:          sport,
		TraceID:        uuid.NewString(),
		CreditReserved: true,
	})
	if err != nil {
		// no job row exists to carry the refund lock, so refund directly
		if refundErr := s.userRepo.RefundTrainerCredit(ctx, userID); refundErr != nil {
			log.Error().Err(refundErr).Int64("userId", userID).Msg("Credit refund after job create failure failed")
		}
		return nil, err
	}

	log.Info().Int64("jobId", job.ID).Int64("userId", userID).
		Str("traceId", job.TraceID).Int("creditsRemaining", *remaining).
		Msg("Trainer job created")

	go s.ProcessJob(context.WithoutCancel(ctx), job.ID)

	return job, nil
}

// ProcessJob drives one pending job to completed or failed. Any failure path
// runs through failAndRefund so the refund-once invariant holds no matter
// where processing broke.
func (s *TrainerService) ProcessJob(ctx context.Context, jobID int64) {
	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		log.Error().Err(err).Int64("jobId", jobID).Msg("Job lookup failed")
		return
	}
	if job == nil || job.Status != model.TrainerJobPending {
		return
	}

	// the create-time goroutine and the cron batch can race to the same
	// pending row; the conditional update picks exactly one winner
	claimed, err := s.jobRepo.MarkProcessing(ctx, job.ID)
	if err != nil {
		log.Error().Err(err).Int64("jobId", job.ID).Msg("Job status update failed")
		return
	}
	if !claimed {
		log.Debug().Int64("jobId", job.ID).Msg("Job already claimed by another worker")
		return
	}
	if err := s.jobRepo.SetPhase(ctx, job.ID, phaseGenerating); err != nil {
		log.Warn().Err(err).Int64("jobId", job.ID).Msg("Job phase update failed")
	}

	// the timeout bounds the AI call only; the failure path below must still
	// be able to write the refund after the deadline fires
	aiCtx, cancel := context.WithTimeout(ctx, s.cfg.AITimeout())
	defer cancel()

	result, err := s.generatorFor(job).Generate(aiCtx, ai.Request{
		BasePrompt:   buildTrainerPrompt(job),
		SystemPrompt: trainerSystemPrompt,
		ModelIDs:     s.cfg.AIModelIDs,
		TraceID:      job.TraceID,
	})
	if err != nil {
		s.failAndRefund(ctx, job, fmt.Sprintf("AI generation failed: %v", err))
		return
	}
	if result.ParseErr != nil {
		s.failAndRefund(ctx, job, "AI response was not valid JSON")
		return
	}

	if err := s.jobRepo.SetPhase(ctx, job.ID, phaseValidating); err != nil {
		log.Warn().Err(err).Int64("jobId", job.ID).Msg("Job phase update failed")
	}

	workout, err := s.decodeWorkout(result.Data, job)
	if err != nil {
		s.failAndRefund(ctx, job, fmt.Sprintf("AI output did not match the workout shape: %v", err))
		return
	}

	if issues := garmin.Validate(workout); len(issues) > 0 {
		s.failAndRefund(ctx, job, formatIssues(issues))
		return
	}

	workoutJSON, err := json.Marshal(workout)
	if err != nil {
		s.failAndRefund(ctx, job, fmt.Sprintf("workout serialization failed: %v", err))
		return
	}

	if err := s.jobRepo.Complete(ctx, job.ID, workoutJSON, result.ModelID); err != nil {
		log.Error().Err(err).Int64("jobId", job.ID).Msg("Job completion write failed")
		s.failAndRefund(ctx, job, "internal error while storing the workout")
		return
	}

	log.Info().Int64("jobId", job.ID).Str("model", result.ModelID).
		Str("traceId", job.TraceID).Msg("Trainer job completed")
}

func (s *TrainerService) generatorFor(job *model.TrainerJob) ai.Generator {
	if job.Sport != nil && s.toolSports[strings.ToUpper(*job.Sport)] {
		return s.tooled
	}
	return s.classic
}

func buildTrainerPrompt(job *model.TrainerJob) string {
	var b strings.Builder
	if job.Sport != nil && *job.Sport != "" {
		fmt.Fprintf(&b, "Sport: %s\n\n", *job.Sport)
	}
	b.WriteString("Training plan:\n\n")
	b.WriteString(job.PlanMarkdown)
	return b.String()
}

// decodeWorkout accepts either a finished Garmin workout document or the
// structured-plan intermediate, converting the latter.
func (s *TrainerService) decodeWorkout(data json.RawMessage, job *model.TrainerJob) (*garmin.Workout, error) {
	var probe struct {
		Sections []json.RawMessage `json:"sections"`
	}
	if err := json.Unmarshal(data, &probe); err == nil && len(probe.Sections) > 0 {
		var plan garmin.StructuredPlan
		if err := json.Unmarshal(data, &plan); err != nil {
			return nil, fmt.Errorf("parse structured plan: %w", err)
		}
		sportFallback := garmin.SportGeneric
		if job.Sport != nil && *job.Sport != "" {
			sportFallback = garmin.Sport(strings.ToUpper(*job.Sport))
		}
		workout := garmin.ConvertStructuredPlan(&plan, garmin.ConvertOptions{
			OwnerID:          strconv.FormatInt(job.UserID, 10),
			HumanDescription: job.PlanMarkdown,
			SportFallback:    sportFallback,
		})
		return workout, nil
	}

	var workout garmin.Workout
	if err := json.Unmarshal(data, &workout); err != nil {
		return nil, fmt.Errorf("parse workout: %w", err)
	}
	return &workout, nil
}

func formatIssues(issues []garmin.Issue) string {
	parts := make([]string, 0, len(issues))
	for i, issue := range issues {
		if i == 5 {
			parts = append(parts, fmt.Sprintf("and %d more", len(issues)-i))
			break
		}
		parts = append(parts, issue.String())
	}
	return "workout validation failed: " + strings.Join(parts, "; ")
}

// failAndRefund marks the job failed and refunds the reserved credit at most
// once. The credit_reserved flag on the job row is the refund lock: only the
// caller that flips it performs the increment.
func (s *TrainerService) failAndRefund(ctx context.Context, job *model.TrainerJob, reason string) {
	if err := s.jobRepo.Fail(ctx, job.ID, reason); err != nil {
		log.Error().Err(err).Int64("jobId", job.ID).Msg("Job failure write failed")
	}
	log.Warn().Int64("jobId", job.ID).Str("traceId", job.TraceID).
		Str("reason", reason).Msg("Trainer job failed")

	released, err := s.jobRepo.ReleaseCreditLock(ctx, job.ID)
	if err != nil {
		log.Error().Err(err).Int64("jobId", job.ID).Msg("Credit lock release failed")
		return
	}
	if !released {
		return
	}

	if err := s.userRepo.RefundTrainerCredit(ctx, job.UserID); err != nil {
		log.Error().Err(err).Int64("jobId", job.ID).Int64("userId", job.UserID).
			Msg("Credit refund failed")
		return
	}
	audit.Log(ctx, audit.Event{
		Type:   audit.EventCreditRefund,
		UserID: strconv.FormatInt(job.UserID, 10),
		Details: map[string]interface{}{
			"jobId":  job.ID,
			"reason": reason,
		},
	})
}

// GetJob enforces ownership: a job the user does not own reads as not found.
func (s *TrainerService) GetJob(ctx context.Context, userID, jobID int64) (*model.TrainerJob, error) {
	job, err := s.jobRepo.FindByIDAndUserID(ctx, jobID, userID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, apperrors.NotFound("Job")
	}
	return job, nil
}

// PushJobWorkout uploads a completed job's workout to Garmin. A rejected push
// refunds the credit through the same lock path as processing failures; a
// successful push consumes the lock so no later path can refund.
func (s *TrainerService) PushJobWorkout(ctx context.Context, userID, jobID int64) error {
	job, err := s.GetJob(ctx, userID, jobID)
	if err != nil {
		return err
	}
	if job.Status != model.TrainerJobCompleted || len(job.WorkoutJSON) == 0 {
		return apperrors.ValidationError("Job has no completed workout to push")
	}

	conn, err := s.connRepo.FindByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if conn == nil {
		return apperrors.NotConnected()
	}

	accessToken, _, err := s.connSvc.EnsureAccessToken(ctx, conn)
	if err != nil {
		return apperrors.External("garmin", err)
	}

	var workout garmin.Workout
	if err := json.Unmarshal(job.WorkoutJSON, &workout); err != nil {
		return apperrors.Internal("Stored workout is unreadable").WithCause(err)
	}

	if err := s.pusher.PushWorkout(ctx, accessToken, &workout); err != nil {
		audit.Log(ctx, audit.Event{
			Type:   audit.EventWorkoutPushFailed,
			UserID: strconv.FormatInt(userID, 10),
			Details: map[string]interface{}{
				"jobId": job.ID,
			},
		})
		s.refundAfterPushFailure(ctx, job)
		return apperrors.External("garmin", err)
	}

	// consume the refund lock without refunding
	if _, err := s.jobRepo.ReleaseCreditLock(ctx, job.ID); err != nil {
		log.Warn().Err(err).Int64("jobId", job.ID).Msg("Credit lock release after push failed")
	}
	audit.Log(ctx, audit.Event{
		Type:   audit.EventWorkoutPushed,
		UserID: strconv.FormatInt(userID, 10),
		Details: map[string]interface{}{
			"jobId": job.ID,
		},
	})
	log.Info().Int64("jobId", job.ID).Int64("userId", userID).Msg("Workout pushed to Garmin")
	return nil
}

func (s *TrainerService) refundAfterPushFailure(ctx context.Context, job *model.TrainerJob) {
	released, err := s.jobRepo.ReleaseCreditLock(ctx, job.ID)
	if err != nil {
		log.Error().Err(err).Int64("jobId", job.ID).Msg("Credit lock release failed")
		return
	}
	if !released {
		return
	}
	if err := s.userRepo.RefundTrainerCredit(ctx, job.UserID); err != nil {
		log.Error().Err(err).Int64("jobId", job.ID).Msg("Credit refund failed")
		return
	}
	audit.Log(ctx, audit.Event{
		Type:   audit.EventCreditRefund,
		UserID: strconv.FormatInt(job.UserID, 10),
		Details: map[string]interface{}{
			"jobId":  job.ID,
			"reason": "push_failed",
		},
	})
}

// ProcessPendingBatch drains up to the configured batch of pending jobs with
// bounded concurrency. Used by the cron endpoint to pick up jobs whose
// fire-and-forget processing was lost to a restart.
func (s *TrainerService) ProcessPendingBatch(ctx context.Context) (int, error) {
	jobs, err := s.jobRepo.FindPending(ctx, s.cfg.TrainerBatchSize)
	if err != nil {
		return 0, err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for _, job := range jobs {
		jobID := job.ID
		g.Go(func() error {
			s.ProcessJob(ctx, jobID)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return len(jobs), err
	}
	return len(jobs), nil
}

// FailStaleJobs fails and refunds jobs stuck in processing past the
// deadline, typically after a crash mid-generation.
func (s *TrainerService) FailStaleJobs(ctx context.Context) (int, error) {
	jobs, err := s.jobRepo.FindStaleProcessing(ctx, time.Now().Add(-config.JobStaleDeadline))
	if err != nil {
		return 0, err
	}
	for i := range jobs {
		s.failAndRefund(ctx, &jobs[i], "processing timed out")
	}
	return len(jobs), nil
}
