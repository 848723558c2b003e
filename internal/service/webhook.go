package service

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/stridelab/garmin-bridge/internal/config"
	apperrors "github.com/stridelab/garmin-bridge/internal/errors"
	"github.com/stridelab/garmin-bridge/internal/model"
	"github.com/stridelab/garmin-bridge/internal/repository"
	"github.com/stridelab/garmin-bridge/internal/util"
)

// summaryAliases maps each supported summary type to the top-level JSON keys
// Garmin has been observed using for it across payload versions. Order
// matters: earlier aliases are tried first.
var summaryAliases = map[string][]string{
	"activities":      {"activities", "activitySummaries"},
	"activityDetails": {"activityDetails", "activityDetailsSummaries"},
	"sleeps":          {"sleeps", "sleepSummaries"},
	"hrv":             {"hrv", "hrvSummaries"},
	"womenHealth":     {"womenHealth", "womenHealthSummaries", "mctSummaries"},
	"dailies":         {"dailies", "dailySummaries"},
	"epochs":          {"epochs", "epochSummaries"},
	"bodyComps":       {"bodyComps", "bodyCompositionSummaries"},
	"stressDetails":   {"stressDetails", "stressDetailSummaries"},
	"userMetrics":     {"userMetrics", "userMetricSummaries"},
}

// singular forms Garmin sometimes uses in the URL path
var summaryTypeNormalizations = map[string]string{
	"sleep":    "sleeps",
	"activity": "activities",
}

// garminUserIDKeys and entityIDKeys are the candidate field names tried in
// order when resolving ids from an entry. Garmin is not consistent across
// summary types.
var garminUserIDKeys = []string{"userId", "userAccessToken", "garminUserId"}

var entityIDKeys = []string{"summaryId", "activityId", "sleepId", "id"}

type WebhookService struct {
	cfg       *config.Config
	connRepo  repository.GarminConnectionRepository
	eventRepo repository.WebhookEventRepository
}

func NewWebhookService(
	cfg *config.Config,
	connRepo repository.GarminConnectionRepository,
	eventRepo repository.WebhookEventRepository,
) *WebhookService {
	return &WebhookService{
		cfg:       cfg,
		connRepo:  connRepo,
		eventRepo: eventRepo,
	}
}

// NormalizeSummaryType maps the URL path segment onto a supported summary
// type. Returns false for types outside the supported set.
func NormalizeSummaryType(raw string) (string, bool) {
	if normalized, ok := summaryTypeNormalizations[raw]; ok {
		raw = normalized
	}
	_, ok := summaryAliases[raw]
	return raw, ok
}

// VerifySignature checks the X-Garmin-Signature header against an
// HMAC-SHA256 over the exact raw body. With no secret configured the check
// passes in a logged degraded mode, unless strict mode makes that a
// deployment fault.
func (s *WebhookService) VerifySignature(signatureHeader string, rawBody []byte) error {
	if s.cfg.GarminWebhookSecret == "" {
		if s.cfg.GarminStrictSignature {
			return apperrors.Configuration("GARMIN_WEBHOOK_SECRET")
		}
		log.Warn().Msg("Webhook signature check skipped: no shared secret configured")
		return nil
	}

	if signatureHeader == "" {
		return apperrors.InvalidSignature("Missing X-Garmin-Signature header")
	}

	expected := util.HmacSHA256Base64(s.cfg.GarminWebhookSecret, rawBody)
	if !util.ConstantTimeEqual(signatureHeader, expected) {
		return apperrors.InvalidSignature("Signature mismatch")
	}
	return nil
}

// ExtractEntries pulls the entry array for a summary type out of the payload.
// Known aliases are tried first; as a last resort the first array-valued
// top-level property in document order wins, tolerating vendor payload drift.
func ExtractEntries(payload []byte, summaryType string) []json.RawMessage {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(payload, &root); err != nil {
		return nil
	}

	for _, alias := range summaryAliases[summaryType] {
		if raw, ok := root[alias]; ok {
			var entries []json.RawMessage
			if err := json.Unmarshal(raw, &entries); err == nil {
				return entries
			}
		}
	}

	return firstArrayValue(payload)
}

// firstArrayValue scans the top-level properties in the order they appear in
// the document and returns the first array value. A map walk would pick a
// different key per request when the payload carries several arrays.
func firstArrayValue(payload []byte) []json.RawMessage {
	dec := json.NewDecoder(bytes.NewReader(payload))
	tok, err := dec.Token()
	if err != nil || tok != json.Delim('{') {
		return nil
	}
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return nil
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil
		}
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 || trimmed[0] != '[' {
			continue
		}
		var entries []json.RawMessage
		if err := json.Unmarshal(trimmed, &entries); err == nil {
			return entries
		}
	}
	return nil
}

// ResolveGarminUserID tries the candidate user id fields in order, coercing
// numeric ids to strings. Empty result means the entry is unattributable.
func ResolveGarminUserID(entry json.RawMessage) string {
	return resolveStringField(entry, garminUserIDKeys)
}

// ResolveEntityID is best-effort: nil is acceptable and stored as such.
func ResolveEntityID(entry json.RawMessage) *string {
	if id := resolveStringField(entry, entityIDKeys); id != "" {
		return &id
	}
	return nil
}

func resolveStringField(entry json.RawMessage, keys []string) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(entry, &fields); err != nil {
		return ""
	}
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var asString string
		if err := json.Unmarshal(raw, &asString); err == nil && asString != "" {
			return asString
		}
		var asNumber int64
		if err := json.Unmarshal(raw, &asNumber); err == nil {
			return strconv.FormatInt(asNumber, 10)
		}
	}
	return ""
}

type ProcessResult struct {
	Received  int `json:"received"`
	Processed int `json:"processed"`
}

// Process persists every attributable entry in the payload. A malformed or
// unattributable entry is skipped, never fatal: the received/processed gap is
// the diagnostic signal. The connection cache is scoped to this one call;
// nil entries cache the negative result so unlinked users cost one lookup.
func (s *WebhookService) Process(ctx context.Context, summaryType string, rawBody []byte) (ProcessResult, error) {
	entries := ExtractEntries(rawBody, summaryType)
	result := ProcessResult{Received: len(entries)}

	connCache := make(map[string]*model.GarminConnection)

	for _, entry := range entries {
		garminUserID := ResolveGarminUserID(entry)
		if garminUserID == "" {
			log.Debug().Str("summaryType", summaryType).Msg("Webhook entry has no resolvable user id, skipping")
			continue
		}

		conn, cached := connCache[garminUserID]
		if !cached {
			var err error
			conn, err = s.connRepo.FindByGarminUserID(ctx, garminUserID)
			if err != nil {
				log.Error().Err(err).Str("garminUserId", garminUserID).Msg("Webhook connection lookup failed")
				continue
			}
			connCache[garminUserID] = conn
		}
		if conn == nil {
			// a webhook for an unlinked user is normal, not an error
			continue
		}

		_, err := s.eventRepo.Create(ctx, model.CreateWebhookEventParams{
			UserID:       conn.UserID,
			GarminUserID: garminUserID,
			SummaryType:  summaryType,
			EntityID:     ResolveEntityID(entry),
			Payload:      entry,
		})
		if err != nil {
			log.Error().Err(err).Str("garminUserId", garminUserID).Msg("Webhook event insert failed")
			continue
		}
		result.Processed++
	}

	log.Info().Str("summaryType", summaryType).
		Int("received", result.Received).Int("processed", result.Processed).
		Msg("Webhook payload processed")

	return result, nil
}
