package domain

import "time"

// TokenPair is what the token endpoint returns: the signed access token and,
// depending on grant type policy, an opaque refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"` // "Bearer"
	ExpiresIn    int64  `json:"expires_in"`           // seconds until expiry
	Scope        string `json:"scope,omitempty"`      // space-delimited
}

// AccessTokenRecord is the ledger row persisted for every issued access
// token, keyed by the token's jti. The record is written before the token is
// handed to the caller and is immutable afterwards except for revocation.
type AccessTokenRecord struct {
	ID        string // jti
	SubjectID string // principal the token was issued to
	ClientID  string // client the grant went through
	Scopes    []string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Revoked   bool
}

// RefreshToken is the stored refresh token record. The opaque value never
// touches the database; rows are looked up by SHA-256 fingerprint. Refresh
// tokens are single-use: redemption revokes the row and mints a replacement.
type RefreshToken struct {
	ID        string
	TokenHash string
	SubjectID string
	ClientID  string
	Scopes    []string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
