package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/stridelab/garmin-bridge/internal/model"
)

type mockSessionRepo struct {
	deleteExpiredCalls atomic.Int32
}

func (m *mockSessionRepo) FindByState(ctx context.Context, state string) (*model.OAuthSession, error) {
	return nil, nil
}

func (m *mockSessionRepo) Create(ctx context.Context, params model.CreateOAuthSessionParams) (*model.OAuthSession, error) {
	return nil, nil
}

func (m *mockSessionRepo) Delete(ctx context.Context, id int64) error {
	return nil
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	m.deleteExpiredCalls.Add(1)
	return 2, nil
}

type mockSweeper struct {
	calls atomic.Int32
}

func (m *mockSweeper) FailStaleJobs(ctx context.Context) (int, error) {
	m.calls.Add(1)
	return 1, nil
}

func TestCleanupJob(t *testing.T) {
	t.Run("creates job with correct interval", func(t *testing.T) {
		job := NewCleanupJob(&mockSessionRepo{}, &mockSweeper{}, 5*time.Minute)

		assert.NotNil(t, job)
		assert.Equal(t, 5*time.Minute, job.interval)
	})

	t.Run("runs cleanup on start and stops cleanly", func(t *testing.T) {
		sessionRepo := &mockSessionRepo{}
		sweeper := &mockSweeper{}

		job := NewCleanupJob(sessionRepo, sweeper, 1*time.Hour)
		job.Start()

		assert.Eventually(t, func() bool {
			return sessionRepo.deleteExpiredCalls.Load() >= 1 && sweeper.calls.Load() >= 1
		}, time.Second, 10*time.Millisecond)

		job.Stop()
	})
}
