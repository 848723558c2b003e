package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/stridelab/garmin-bridge/internal/repository"
)

// staleJobSweeper is the slice of the trainer service the cleanup loop needs.
type staleJobSweeper interface {
	FailStaleJobs(ctx context.Context) (int, error)
}

// CleanupJob periodically removes expired OAuth sessions and fails trainer
// jobs stuck in processing. It backs up the cron endpoint for deployments
// without an external scheduler.
type CleanupJob struct {
	sessionRepo repository.OAuthSessionRepository
	sweeper     staleJobSweeper
	interval    time.Duration
	done        chan struct{}
}

func NewCleanupJob(
	sessionRepo repository.OAuthSessionRepository,
	sweeper staleJobSweeper,
	interval time.Duration,
) *CleanupJob {
	return &CleanupJob{
		sessionRepo: sessionRepo,
		sweeper:     sweeper,
		interval:    interval,
		done:        make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("cleanup job started")
}

func (j *CleanupJob) Stop() {
	close(j.done)
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := j.sessionRepo.DeleteExpired(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to cleanup oauth sessions")
	} else if count > 0 {
		log.Info().Int64("count", count).Msg("cleaned up oauth sessions")
	}

	failed, err := j.sweeper.FailStaleJobs(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to sweep stale trainer jobs")
	} else if failed > 0 {
		log.Info().Int("count", failed).Msg("failed stale trainer jobs")
	}
}
