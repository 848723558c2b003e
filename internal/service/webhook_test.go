package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stridelab/garmin-bridge/internal/config"
	apperrors "github.com/stridelab/garmin-bridge/internal/errors"
	"github.com/stridelab/garmin-bridge/internal/model"
	"github.com/stridelab/garmin-bridge/internal/util"
)

func TestNormalizeSummaryType(t *testing.T) {
	tests := []struct {
		raw       string
		want      string
		supported bool
	}{
		{"activities", "activities", true},
		{"sleeps", "sleeps", true},
		{"sleep", "sleeps", true},
		{"activity", "activities", true},
		{"hrv", "hrv", true},
		{"womenHealth", "womenHealth", true},
		{"pushups", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := NormalizeSummaryType(tt.raw)
			assert.Equal(t, tt.supported, ok)
			if tt.supported {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"activities": []}`)

	t.Run("valid signature passes", func(t *testing.T) {
		svc := NewWebhookService(&config.Config{GarminWebhookSecret: "shh"}, nil, nil)
		sig := util.HmacSHA256Base64("shh", body)

		assert.NoError(t, svc.VerifySignature(sig, body))
	})

	t.Run("wrong signature is rejected", func(t *testing.T) {
		svc := NewWebhookService(&config.Config{GarminWebhookSecret: "shh"}, nil, nil)
		sig := util.HmacSHA256Base64("other-secret", body)

		err := svc.VerifySignature(sig, body)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeInvalidSignature, apperrors.GetCode(err))
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		svc := NewWebhookService(&config.Config{GarminWebhookSecret: "shh"}, nil, nil)

		err := svc.VerifySignature("", body)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeInvalidSignature, apperrors.GetCode(err))
	})

	t.Run("unconfigured secret passes in degraded mode", func(t *testing.T) {
		svc := NewWebhookService(&config.Config{}, nil, nil)

		assert.NoError(t, svc.VerifySignature("anything", body))
	})

	t.Run("unconfigured secret in strict mode is a configuration fault", func(t *testing.T) {
		svc := NewWebhookService(&config.Config{GarminStrictSignature: true}, nil, nil)

		err := svc.VerifySignature("anything", body)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeConfiguration, apperrors.GetCode(err))
	})
}

func TestExtractEntries(t *testing.T) {
	t.Run("primary alias", func(t *testing.T) {
		payload := []byte(`{"activities": [{"a": 1}, {"a": 2}]}`)
		assert.Len(t, ExtractEntries(payload, "activities"), 2)
	})

	t.Run("secondary alias", func(t *testing.T) {
		payload := []byte(`{"hrvSummaries": [{"a": 1}]}`)
		assert.Len(t, ExtractEntries(payload, "hrv"), 1)
	})

	t.Run("first array fallback for unknown key", func(t *testing.T) {
		payload := []byte(`{"somethingNew": [{"a": 1}, {"a": 2}, {"a": 3}]}`)
		assert.Len(t, ExtractEntries(payload, "activities"), 3)
	})

	t.Run("fallback picks the first array in document order", func(t *testing.T) {
		// two unknown array keys: the earlier one must win on every request
		payload := []byte(`{"zzzFirst": [{"a": 1}], "aaaSecond": [{"b": 1}, {"b": 2}]}`)
		entries := ExtractEntries(payload, "activities")
		require.Len(t, entries, 1)
		assert.JSONEq(t, `{"a": 1}`, string(entries[0]))
	})

	t.Run("fallback skips non-array values before the array", func(t *testing.T) {
		payload := []byte(`{"status": "ok", "count": 2, "items": [{"a": 1}, {"a": 2}]}`)
		assert.Len(t, ExtractEntries(payload, "activities"), 2)
	})

	t.Run("no array anywhere yields nothing", func(t *testing.T) {
		payload := []byte(`{"status": "ok"}`)
		assert.Empty(t, ExtractEntries(payload, "activities"))
	})

	t.Run("malformed payload yields nothing", func(t *testing.T) {
		assert.Empty(t, ExtractEntries([]byte(`not json`), "activities"))
	})
}

func TestResolveIDs(t *testing.T) {
	t.Run("string user id", func(t *testing.T) {
		entry := json.RawMessage(`{"userId": "abc-123"}`)
		assert.Equal(t, "abc-123", ResolveGarminUserID(entry))
	})

	t.Run("numeric user id is coerced to string", func(t *testing.T) {
		entry := json.RawMessage(`{"userId": 42}`)
		assert.Equal(t, "42", ResolveGarminUserID(entry))
	})

	t.Run("candidate keys are tried in order", func(t *testing.T) {
		entry := json.RawMessage(`{"userAccessToken": "token-id"}`)
		assert.Equal(t, "token-id", ResolveGarminUserID(entry))
	})

	t.Run("no candidate present", func(t *testing.T) {
		entry := json.RawMessage(`{"other": "x"}`)
		assert.Empty(t, ResolveGarminUserID(entry))
	})

	t.Run("entity id falls back through summaryId and activityId", func(t *testing.T) {
		entry := json.RawMessage(`{"activityId": 99}`)
		id := ResolveEntityID(entry)
		require.NotNil(t, id)
		assert.Equal(t, "99", *id)
	})

	t.Run("missing entity id is nil", func(t *testing.T) {
		assert.Nil(t, ResolveEntityID(json.RawMessage(`{}`)))
	})
}

func TestWebhookProcess(t *testing.T) {
	ctx := context.Background()

	t.Run("persists entries for linked users and caches lookups", func(t *testing.T) {
		connRepo := new(mockConnRepo)
		eventRepo := new(mockEventRepo)
		svc := NewWebhookService(&config.Config{}, connRepo, eventRepo)

		conn := &model.GarminConnection{ID: 1, UserID: 7, GarminUserID: "g-1"}
		// two entries for the same vendor user: one lookup, two inserts
		connRepo.On("FindByGarminUserID", mock.Anything, "g-1").Return(conn, nil).Once()
		eventRepo.On("Create", mock.Anything, mock.MatchedBy(func(p model.CreateWebhookEventParams) bool {
			return p.UserID == 7 && p.SummaryType == "activities"
		})).Return(&model.WebhookEvent{}, nil).Twice()

		payload := []byte(`{"activities": [{"userId": "g-1", "summaryId": "s1"}, {"userId": "g-1", "summaryId": "s2"}]}`)
		result, err := svc.Process(ctx, "activities", payload)

		require.NoError(t, err)
		assert.Equal(t, ProcessResult{Received: 2, Processed: 2}, result)
		connRepo.AssertExpectations(t)
		eventRepo.AssertExpectations(t)
	})

	t.Run("entries for unlinked users are skipped silently", func(t *testing.T) {
		connRepo := new(mockConnRepo)
		eventRepo := new(mockEventRepo)
		svc := NewWebhookService(&config.Config{}, connRepo, eventRepo)

		connRepo.On("FindByGarminUserID", mock.Anything, "stranger").Return(nil, nil).Once()

		payload := []byte(`{"activities": [{"userId": "stranger"}, {"userId": "stranger"}]}`)
		result, err := svc.Process(ctx, "activities", payload)

		require.NoError(t, err)
		assert.Equal(t, ProcessResult{Received: 2, Processed: 0}, result)
		connRepo.AssertExpectations(t)
		eventRepo.AssertNotCalled(t, "Create")
	})

	t.Run("one bad entry does not stop the batch", func(t *testing.T) {
		connRepo := new(mockConnRepo)
		eventRepo := new(mockEventRepo)
		svc := NewWebhookService(&config.Config{}, connRepo, eventRepo)

		conn := &model.GarminConnection{ID: 1, UserID: 7, GarminUserID: "g-1"}
		connRepo.On("FindByGarminUserID", mock.Anything, "g-1").Return(conn, nil)
		eventRepo.On("Create", mock.Anything, mock.Anything).Return(&model.WebhookEvent{}, nil).Once()

		// middle entry has no resolvable user id
		payload := []byte(`{"sleeps": [{"noUser": true}, {"userId": "g-1", "sleepId": "sl-1"}]}`)
		result, err := svc.Process(ctx, "sleeps", payload)

		require.NoError(t, err)
		assert.Equal(t, ProcessResult{Received: 2, Processed: 1}, result)
	})
}
