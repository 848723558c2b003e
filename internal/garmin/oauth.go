package garmin

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// OAuthError carries the vendor's raw response for server-side diagnostics.
// The body is never surfaced to end users verbatim.
type OAuthError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *OAuthError) Error() string {
	return fmt.Sprintf("garmin oauth %s failed: status %d", e.Operation, e.StatusCode)
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
	ExpiresIn    int    `json:"expires_in"`

	// AccessTokenExpiresAt is computed with the early-refresh margin applied,
	// so a stored token is never used in its final seconds of validity.
	AccessTokenExpiresAt time.Time `json:"-"`
}

// ClientConfig holds the vendor endpoints and credentials. Endpoints are
// injectable so tests can point at an httptest server.
type ClientConfig struct {
	ClientID     string
	ClientSecret string
	AuthorizeURL string
	TokenURL     string
	APIBaseURL   string
	RedirectURI  string
	Scope        string

	// ExpiryMargin defaults to 10 minutes when zero.
	ExpiryMargin time.Duration
}

type OAuthClient struct {
	cfg        ClientConfig
	httpClient *http.Client
}

const defaultExpiryMargin = 600 * time.Second

func NewOAuthClient(cfg ClientConfig) *OAuthClient {
	if cfg.ExpiryMargin == 0 {
		cfg.ExpiryMargin = defaultExpiryMargin
	}
	return &OAuthClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// GenerateState returns a random opaque token binding the authorize redirect
// to its callback.
func GenerateState() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// GeneratePKCEPair returns a base64url code verifier (64 chars, within the
// RFC 7636 43-128 char window) and its S256 challenge.
func GeneratePKCEPair() (verifier, challenge string, err error) {
	bytes := make([]byte, 48)
	if _, err := rand.Read(bytes); err != nil {
		return "", "", err
	}
	verifier = base64.RawURLEncoding.EncodeToString(bytes)
	hash := sha256.Sum256([]byte(verifier))
	challenge = base64.RawURLEncoding.EncodeToString(hash[:])
	return verifier, challenge, nil
}

func (c *OAuthClient) BuildAuthorizationURL(state, codeChallenge string) string {
	params := url.Values{
		"client_id":             {c.cfg.ClientID},
		"response_type":         {"code"},
		"state":                 {state},
		"redirect_uri":          {c.cfg.RedirectURI},
		"code_challenge":        {codeChallenge},
		"code_challenge_method": {"S256"},
	}
	if c.cfg.Scope != "" {
		params.Set("scope", c.cfg.Scope)
	}
	return c.cfg.AuthorizeURL + "?" + params.Encode()
}

// ExchangeAuthorizationCode trades the callback code plus the PKCE verifier
// for tokens.
func (c *OAuthClient) ExchangeAuthorizationCode(ctx context.Context, code, codeVerifier string) (*TokenResponse, error) {
	data := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"code_verifier": {codeVerifier},
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
		"redirect_uri":  {c.cfg.RedirectURI},
	}
	return c.requestTokens(ctx, "exchange", data)
}

// RefreshTokens trades a refresh token for a fresh token pair.
func (c *OAuthClient) RefreshTokens(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	data := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
	}
	return c.requestTokens(ctx, "refresh", data)
}

func (c *OAuthClient) requestTokens(ctx context.Context, operation string, data url.Values) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &OAuthError{Operation: operation, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tokens TokenResponse
	if err := json.Unmarshal(body, &tokens); err != nil {
		return nil, fmt.Errorf("parse token response: %w", err)
	}
	if tokens.AccessToken == "" {
		return nil, &OAuthError{Operation: operation, StatusCode: resp.StatusCode, Body: string(body)}
	}

	margin := int(c.cfg.ExpiryMargin.Seconds())
	effective := tokens.ExpiresIn - margin
	if effective < 0 {
		effective = 0
	}
	tokens.AccessTokenExpiresAt = time.Now().Add(time.Duration(effective) * time.Second)

	return &tokens, nil
}

// FetchUserID resolves the Garmin user id for an access token.
func (c *OAuthClient) FetchUserID(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIBaseURL+"/wellness-api/rest/user/id", nil)
	if err != nil {
		return "", fmt.Errorf("create user id request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("user id request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read user id response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &OAuthError{Operation: "user id fetch", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var payload struct {
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("parse user id response: %w", err)
	}
	if payload.UserID == "" {
		return "", fmt.Errorf("user id response missing userId field")
	}

	return payload.UserID, nil
}
