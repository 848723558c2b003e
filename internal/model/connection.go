package model

import (
	"time"
)

// GarminConnection links a local user to a Garmin account. Tokens are stored
// AES-256-GCM encrypted; the plaintext never touches the database.
type GarminConnection struct {
	ID                   int64      `db:"id" json:"id"`
	UserID               int64      `db:"user_id" json:"userId"`
	GarminUserID         string     `db:"garmin_user_id" json:"garminUserId"`
	AccessTokenEnc       string     `db:"access_token_enc" json:"-"`
	RefreshTokenEnc      string     `db:"refresh_token_enc" json:"-"`
	TokenType            string     `db:"token_type" json:"-"`
	Scope                string     `db:"scope" json:"scope"`
	AccessTokenExpiresAt *time.Time `db:"access_token_expires_at" json:"-"`
	CreatedAt            time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updatedAt"`
}

type CreateGarminConnectionParams struct {
	UserID               int64
	GarminUserID         string
	AccessTokenEnc       string
	RefreshTokenEnc      string
	TokenType            string
	Scope                string
	AccessTokenExpiresAt *time.Time
}

// UpdateGarminTokensParams carries every field a token refresh produces.
// All fields are written together; partial token updates are not allowed.
type UpdateGarminTokensParams struct {
	AccessTokenEnc       string
	RefreshTokenEnc      string
	TokenType            string
	Scope                string
	AccessTokenExpiresAt *time.Time
}

// OAuthSession is one in-flight authorization attempt. Rows are single-use:
// the callback deletes its row immediately after reading it.
type OAuthSession struct {
	ID           int64     `db:"id" json:"id"`
	State        string    `db:"state" json:"-"`
	CodeVerifier string    `db:"code_verifier" json:"-"`
	UserID       int64     `db:"user_id" json:"userId"`
	ExpiresAt    time.Time `db:"expires_at" json:"expiresAt"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

type CreateOAuthSessionParams struct {
	State        string
	CodeVerifier string
	UserID       int64
	ExpiresAt    time.Time
}
