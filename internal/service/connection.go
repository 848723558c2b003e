package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/stridelab/garmin-bridge/internal/audit"
	"github.com/stridelab/garmin-bridge/internal/config"
	apperrors "github.com/stridelab/garmin-bridge/internal/errors"
	"github.com/stridelab/garmin-bridge/internal/garmin"
	"github.com/stridelab/garmin-bridge/internal/model"
	"github.com/stridelab/garmin-bridge/internal/repository"
	"github.com/stridelab/garmin-bridge/internal/util"
)

// Callback terminal reasons, surfaced to the integration status page as
// ?status=...&reason=...
const (
	ReasonConnected         = "connected"
	ReasonAlreadyLinked     = "already_linked"
	ReasonAuthDeclined      = "authorization_declined"
	ReasonMissingParameters = "missing_parameters"
	ReasonInvalidSession    = "invalid_session"
	ReasonUnauthorized      = "unauthorized"
	ReasonUserNotFound      = "user_not_found"
	ReasonOAuthFailed       = "oauth_failed"
	ReasonUnexpectedError   = "unexpected_error"
)

// garminOAuth is the slice of the OAuth client the connection service needs.
type garminOAuth interface {
	BuildAuthorizationURL(state, codeChallenge string) string
	ExchangeAuthorizationCode(ctx context.Context, code, codeVerifier string) (*garmin.TokenResponse, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*garmin.TokenResponse, error)
	FetchUserID(ctx context.Context, accessToken string) (string, error)
}

type ConnectionService struct {
	cfg         *config.Config
	oauth       garminOAuth
	connRepo    repository.GarminConnectionRepository
	sessionRepo repository.OAuthSessionRepository
	userRepo    repository.UserRepository
}

func NewConnectionService(
	cfg *config.Config,
	oauth garminOAuth,
	connRepo repository.GarminConnectionRepository,
	sessionRepo repository.OAuthSessionRepository,
	userRepo repository.UserRepository,
) *ConnectionService {
	return &ConnectionService{
		cfg:         cfg,
		oauth:       oauth,
		connRepo:    connRepo,
		sessionRepo: sessionRepo,
		userRepo:    userRepo,
	}
}

// BeginLink starts an authorization attempt: a single-use state/verifier pair
// is persisted and the vendor authorize URL returned for redirect.
func (s *ConnectionService) BeginLink(ctx context.Context, userID int64) (string, error) {
	state, err := garmin.GenerateState()
	if err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	verifier, challenge, err := garmin.GeneratePKCEPair()
	if err != nil {
		return "", fmt.Errorf("generate pkce pair: %w", err)
	}

	_, err = s.sessionRepo.Create(ctx, model.CreateOAuthSessionParams{
		State:        state,
		CodeVerifier: verifier,
		UserID:       userID,
		ExpiresAt:    time.Now().Add(config.OAuthSessionTTL),
	})
	if err != nil {
		return "", fmt.Errorf("create oauth session: %w", err)
	}

	return s.oauth.BuildAuthorizationURL(state, challenge), nil
}

type CallbackParams struct {
	Code       string
	State      string
	ErrorParam string
}

type CallbackResult struct {
	Status string // "success" or "error"
	Reason string
}

func errorResult(reason string) CallbackResult {
	return CallbackResult{Status: "error", Reason: reason}
}

// HandleCallback walks the callback state machine to one of the enumerated
// terminal reasons. It never returns an error: every failure branch maps to a
// redirect the status page can render.
func (s *ConnectionService) HandleCallback(ctx context.Context, params CallbackParams) CallbackResult {
	// Sweep expired attempts opportunistically; failures only cost storage.
	if removed, err := s.sessionRepo.DeleteExpired(ctx); err != nil {
		log.Warn().Err(err).Msg("Expired oauth session sweep failed")
	} else if removed > 0 {
		log.Debug().Int64("removed", removed).Msg("Swept expired oauth sessions")
	}

	if params.ErrorParam != "" {
		log.Info().Str("error", params.ErrorParam).Msg("Garmin authorization declined")
		return errorResult(ReasonAuthDeclined)
	}
	if params.Code == "" || params.State == "" {
		return errorResult(ReasonMissingParameters)
	}

	session, err := s.sessionRepo.FindByState(ctx, params.State)
	if err != nil {
		log.Error().Err(err).Msg("OAuth session lookup failed")
		return errorResult(ReasonUnexpectedError)
	}
	if session == nil {
		return errorResult(ReasonInvalidSession)
	}
	// Single-use: the row is gone before any network call, so a replayed
	// callback with the same state cannot race the exchange.
	if err := s.sessionRepo.Delete(ctx, session.ID); err != nil {
		log.Error().Err(err).Int64("sessionId", session.ID).Msg("OAuth session delete failed")
		return errorResult(ReasonUnexpectedError)
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		log.Error().Err(err).Msg("Callback user lookup failed")
		return errorResult(ReasonUnexpectedError)
	}
	if user == nil {
		return errorResult(ReasonUserNotFound)
	}
	if user.DisabledAt != nil {
		return errorResult(ReasonUnauthorized)
	}

	tokens, err := s.oauth.ExchangeAuthorizationCode(ctx, params.Code, session.CodeVerifier)
	if err != nil {
		logOAuthFailure("token exchange", err, user.ID)
		return errorResult(ReasonOAuthFailed)
	}

	garminUserID, err := s.oauth.FetchUserID(ctx, tokens.AccessToken)
	if err != nil {
		logOAuthFailure("user id fetch", err, user.ID)
		return errorResult(ReasonOAuthFailed)
	}

	reason := ReasonConnected
	existing, err := s.connRepo.FindByGarminUserID(ctx, garminUserID)
	if err != nil {
		log.Error().Err(err).Msg("Connection lookup failed")
		return errorResult(ReasonUnexpectedError)
	}
	if existing != nil && existing.UserID != user.ID {
		// Last authenticator wins: the Garmin account moves to whoever just
		// proved ownership of it.
		if err := s.connRepo.Delete(ctx, existing.ID); err != nil {
			log.Error().Err(err).Int64("connectionId", existing.ID).Msg("Stale connection delete failed")
			return errorResult(ReasonUnexpectedError)
		}
		reason = ReasonAlreadyLinked
		audit.Log(ctx, audit.Event{
			Type:   audit.EventGarminRelink,
			UserID: strconv.FormatInt(user.ID, 10),
			Details: map[string]interface{}{
				"previousUserId": existing.UserID,
				"garminUserId":   garminUserID,
			},
		})
	}

	// Relinking replaces this user's previous connection row outright.
	if err := s.connRepo.DeleteByUserID(ctx, user.ID); err != nil {
		log.Error().Err(err).Msg("Previous connection delete failed")
		return errorResult(ReasonUnexpectedError)
	}

	conn, err := s.writeConnection(ctx, user.ID, garminUserID, tokens)
	if err != nil {
		log.Error().Err(err).Msg("Connection write failed")
		return errorResult(ReasonUnexpectedError)
	}

	audit.Log(ctx, audit.Event{
		Type:   audit.EventGarminLink,
		UserID: strconv.FormatInt(user.ID, 10),
		Details: map[string]interface{}{
			"garminUserId": garminUserID,
			"connectionId": conn.ID,
		},
	})
	log.Info().Int64("userId", user.ID).Str("garminUserId", garminUserID).
		Msg("Garmin account linked")

	return CallbackResult{Status: "success", Reason: reason}
}

func (s *ConnectionService) writeConnection(ctx context.Context, userID int64, garminUserID string, tokens *garmin.TokenResponse) (*model.GarminConnection, error) {
	accessEnc, err := util.EncryptSecret(s.cfg.EncryptionKey, tokens.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("encrypt access token: %w", err)
	}
	refreshEnc, err := util.EncryptSecret(s.cfg.EncryptionKey, tokens.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("encrypt refresh token: %w", err)
	}

	expiresAt := tokens.AccessTokenExpiresAt
	return s.connRepo.Create(ctx, model.CreateGarminConnectionParams{
		UserID:               userID,
		GarminUserID:         garminUserID,
		AccessTokenEnc:       accessEnc,
		RefreshTokenEnc:      refreshEnc,
		TokenType:            tokens.TokenType,
		Scope:                tokens.Scope,
		AccessTokenExpiresAt: &expiresAt,
	})
}

// EnsureAccessToken returns a usable plaintext access token, refreshing first
// when the stored expiry is unknown or within the leeway window. Every reader
// of a connection gets an implicit token health check this way.
func (s *ConnectionService) EnsureAccessToken(ctx context.Context, conn *model.GarminConnection) (string, *model.GarminConnection, error) {
	needsRefresh := conn.AccessTokenExpiresAt == nil ||
		time.Until(*conn.AccessTokenExpiresAt) < config.TokenRefreshLeeway

	if !needsRefresh {
		accessToken, err := util.DecryptSecret(s.cfg.EncryptionKey, conn.AccessTokenEnc)
		if err != nil {
			return "", nil, fmt.Errorf("decrypt access token: %w", err)
		}
		return accessToken, conn, nil
	}

	refreshToken, err := util.DecryptSecret(s.cfg.EncryptionKey, conn.RefreshTokenEnc)
	if err != nil {
		return "", nil, fmt.Errorf("decrypt refresh token: %w", err)
	}

	tokens, err := s.oauth.RefreshTokens(ctx, refreshToken)
	if err != nil {
		return "", nil, fmt.Errorf("refresh tokens: %w", err)
	}

	accessEnc, err := util.EncryptSecret(s.cfg.EncryptionKey, tokens.AccessToken)
	if err != nil {
		return "", nil, fmt.Errorf("encrypt access token: %w", err)
	}
	newRefresh := tokens.RefreshToken
	if newRefresh == "" {
		// some providers omit the refresh token on refresh; keep the old one
		newRefresh = refreshToken
	}
	refreshEnc, err := util.EncryptSecret(s.cfg.EncryptionKey, newRefresh)
	if err != nil {
		return "", nil, fmt.Errorf("encrypt refresh token: %w", err)
	}

	expiresAt := tokens.AccessTokenExpiresAt
	updated, err := s.connRepo.UpdateTokens(ctx, conn.ID, model.UpdateGarminTokensParams{
		AccessTokenEnc:       accessEnc,
		RefreshTokenEnc:      refreshEnc,
		TokenType:            tokens.TokenType,
		Scope:                tokens.Scope,
		AccessTokenExpiresAt: &expiresAt,
	})
	if err != nil {
		return "", nil, fmt.Errorf("persist refreshed tokens: %w", err)
	}
	if updated == nil {
		return "", nil, fmt.Errorf("connection %d vanished during refresh", conn.ID)
	}

	log.Debug().Int64("connectionId", conn.ID).Time("expiresAt", expiresAt).
		Msg("Garmin tokens refreshed")

	return tokens.AccessToken, updated, nil
}

// Connection returns the user's linked connection, or nil when none exists.
// Absence is a normal state, not a fault.
func (s *ConnectionService) Connection(ctx context.Context, userID int64) (*model.GarminConnection, error) {
	return s.connRepo.FindByUserID(ctx, userID)
}

// Disconnect removes the user's Garmin link.
func (s *ConnectionService) Disconnect(ctx context.Context, userID int64) error {
	conn, err := s.connRepo.FindByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if conn == nil {
		return apperrors.NotConnected()
	}

	if err := s.connRepo.DeleteByUserID(ctx, userID); err != nil {
		return err
	}

	audit.Log(ctx, audit.Event{
		Type:   audit.EventGarminUnlink,
		UserID: strconv.FormatInt(userID, 10),
		Details: map[string]interface{}{
			"garminUserId": conn.GarminUserID,
		},
	})
	log.Info().Int64("userId", userID).Msg("Garmin account unlinked")
	return nil
}

func logOAuthFailure(operation string, err error, userID int64) {
	event := log.Error().Err(err).Str("operation", operation).Int64("userId", userID)
	var oauthErr *garmin.OAuthError
	if errors.As(err, &oauthErr) {
		// raw vendor body stays in server logs only
		event = event.Int("status", oauthErr.StatusCode).Str("vendorBody", oauthErr.Body)
	}
	event.Msg("Garmin OAuth failure")
	audit.Log(context.Background(), audit.Event{
		Type:   audit.EventOAuthFailure,
		UserID: strconv.FormatInt(userID, 10),
		Details: map[string]interface{}{
			"operation": operation,
		},
	})
}
