package service

import (
	"context"
	"errors"
	"time"

	"github.com/advancedlearning/oauthd/internal/oauth/store"
	"github.com/advancedlearning/oauthd/pkg/jwtx"
)

// TokenClaims is what a successfully validated access token asserts.
type TokenClaims struct {
	TokenID     string
	PrincipalID string
	ClientID    string
	Scopes      []string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// TokenValidator checks a presented access token. The checks run in a fixed
// order and the first failure wins: structure and signature, then expiry,
// then revocation. A token is rejected at exactly its expiry instant.
// Validation never writes, so re-presenting the same token yields the same
// verdict.
type TokenValidator struct {
	Verifier *jwtx.Verifier
	Tokens   store.Tokens
}

func (v *TokenValidator) Validate(ctx context.Context, tokenStr string) (TokenClaims, error) {
	claims, err := v.Verifier.Verify(tokenStr)
	if err != nil {
		switch {
		case errors.Is(err, jwtx.ErrMalformed), errors.Is(err, jwtx.ErrUnknownKID):
			return TokenClaims{}, ErrMalformedToken
		default:
			return TokenClaims{}, ErrInvalidSignature
		}
	}

	if err := claims.ValidateExpiry(time.Now()); err != nil {
		if errors.Is(err, jwtx.ErrExpired) {
			return TokenClaims{}, ErrTokenExpired
		}
		return TokenClaims{}, ErrMalformedToken
	}

	revoked, err := v.Tokens.IsRevoked(ctx, claims.ID)
	if err != nil {
		return TokenClaims{}, err
	}
	if revoked {
		return TokenClaims{}, ErrTokenRevoked
	}

	out := TokenClaims{
		TokenID:     claims.ID,
		PrincipalID: claims.Subject,
		ClientID:    claims.ClientID,
		Scopes:      claims.Scopes,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
