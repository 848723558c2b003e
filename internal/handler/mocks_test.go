package handler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/stridelab/garmin-bridge/internal/model"
	"github.com/stridelab/garmin-bridge/internal/repository"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.User, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) Create(ctx context.Context, params model.CreateUserParams) (*model.User, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) ReserveTrainerCredit(ctx context.Context, userID int64) (*int, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*int), args.Error(1)
}

func (m *mockUserRepo) RefundTrainerCredit(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockUserRepo) WithTx(tx *sqlx.Tx) repository.UserRepository {
	return m
}

type mockConnRepo struct {
	mock.Mock
}

func (m *mockConnRepo) FindByUserID(ctx context.Context, userID int64) (*model.GarminConnection, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GarminConnection), args.Error(1)
}

func (m *mockConnRepo) FindByGarminUserID(ctx context.Context, garminUserID string) (*model.GarminConnection, error) {
	args := m.Called(ctx, garminUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GarminConnection), args.Error(1)
}

func (m *mockConnRepo) Create(ctx context.Context, params model.CreateGarminConnectionParams) (*model.GarminConnection, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GarminConnection), args.Error(1)
}

func (m *mockConnRepo) UpdateTokens(ctx context.Context, id int64, params model.UpdateGarminTokensParams) (*model.GarminConnection, error) {
	args := m.Called(ctx, id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GarminConnection), args.Error(1)
}

func (m *mockConnRepo) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockConnRepo) DeleteByUserID(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockConnRepo) DeleteByGarminUserID(ctx context.Context, garminUserID string) error {
	args := m.Called(ctx, garminUserID)
	return args.Error(0)
}

func (m *mockConnRepo) WithTx(tx *sqlx.Tx) repository.GarminConnectionRepository {
	return m
}

type mockEventRepo struct {
	mock.Mock
}

func (m *mockEventRepo) Create(ctx context.Context, params model.CreateWebhookEventParams) (*model.WebhookEvent, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WebhookEvent), args.Error(1)
}

func (m *mockEventRepo) CountByUserID(ctx context.Context, userID int64) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type mockSessionRepo struct {
	mock.Mock
}

func (m *mockSessionRepo) FindByState(ctx context.Context, state string) (*model.OAuthSession, error) {
	args := m.Called(ctx, state)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OAuthSession), args.Error(1)
}

func (m *mockSessionRepo) Create(ctx context.Context, params model.CreateOAuthSessionParams) (*model.OAuthSession, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OAuthSession), args.Error(1)
}

func (m *mockSessionRepo) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockJobRepo struct {
	mock.Mock
}

func (m *mockJobRepo) Create(ctx context.Context, params model.CreateTrainerJobParams) (*model.TrainerJob, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TrainerJob), args.Error(1)
}

func (m *mockJobRepo) FindByID(ctx context.Context, id int64) (*model.TrainerJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TrainerJob), args.Error(1)
}

func (m *mockJobRepo) FindByIDAndUserID(ctx context.Context, id, userID int64) (*model.TrainerJob, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TrainerJob), args.Error(1)
}

func (m *mockJobRepo) FindPending(ctx context.Context, limit int) ([]model.TrainerJob, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.TrainerJob), args.Error(1)
}

func (m *mockJobRepo) FindStaleProcessing(ctx context.Context, olderThan time.Time) ([]model.TrainerJob, error) {
	args := m.Called(ctx, olderThan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.TrainerJob), args.Error(1)
}

func (m *mockJobRepo) MarkProcessing(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockJobRepo) SetPhase(ctx context.Context, id int64, phase string) error {
	args := m.Called(ctx, id, phase)
	return args.Error(0)
}

func (m *mockJobRepo) Complete(ctx context.Context, id int64, workoutJSON json.RawMessage, modelID string) error {
	args := m.Called(ctx, id, workoutJSON, modelID)
	return args.Error(0)
}

func (m *mockJobRepo) Fail(ctx context.Context, id int64, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

func (m *mockJobRepo) ReleaseCreditLock(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}
