// Package jwtx signs and verifies the RS256 access tokens minted by the
// authorization server. Claim ordering rules (expiry, revocation) live with
// the token validator; this package only guarantees structure and signature.
package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token lifetimes. Overridable per service via configuration.
const (
	DefaultAccessTokenTTL  = time.Hour
	DefaultRefreshTokenTTL = 30 * 24 * time.Hour
)

// Claims are the access-token claims. The jti claim doubles as the ledger
// row id used for revocation lookups.
type Claims struct {
	jwt.RegisteredClaims

	// ClientID is the client the token was issued through. For
	// client-credentials tokens it matches the subject.
	ClientID string `json:"cid,omitempty"`

	// Scopes granted at issuance time. Entitlement changes after issuance
	// never shrink this set.
	Scopes []string `json:"scopes,omitempty"`
}

// NewAccessClaims builds claims for a freshly issued access token.
// The caller supplies the jti so it can persist the matching ledger row.
func NewAccessClaims(
	jti, subject, clientID string,
	scopes []string,
	ttl time.Duration,
	issuer string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{clientID},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        jti,
		},
		ClientID: clientID,
		Scopes:   scopes,
	}
}

// ValidateExpiry checks exp/nbf against the supplied instant. A token is
// rejected at exactly its expiry instant and accepted one instant before.
func (c *Claims) ValidateExpiry(now time.Time) error {
	if c.ExpiresAt == nil {
		return ErrMalformed
	}
	if !now.Before(c.ExpiresAt.Time) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}
	return nil
}

// ValidateIssuer checks the iss claim when an expected value is configured.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}
