package service

import (
	"context"
	"strings"
	"time"

	"github.com/advancedlearning/oauthd/internal/oauth/domain"
	"github.com/advancedlearning/oauthd/internal/oauth/store"
	"github.com/advancedlearning/oauthd/pkg/cryptox"
	"github.com/advancedlearning/oauthd/pkg/idx"
	"github.com/advancedlearning/oauthd/pkg/jwtx"
)

// TokenIssuer mints signed access tokens and, when asked, an opaque refresh
// token. The ledger row for the access token is committed before the token
// string leaves this function, so a token the caller holds is always
// revocable.
type TokenIssuer struct {
	Signer     *jwtx.Signer
	Store      store.Store
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Issue signs a token for subject via client, persists the ledger row (and a
// refresh row when withRefresh is set) atomically, and returns the pair.
func (i *TokenIssuer) Issue(
	ctx context.Context,
	subjectID, clientID string,
	scopes []string,
	withRefresh bool,
	now time.Time,
) (domain.TokenPair, error) {
	jti := idx.New().String()

	claims := jwtx.NewAccessClaims(jti, subjectID, clientID, scopes, i.AccessTTL, i.Issuer, now)

	accessToken, err := i.Signer.Sign(claims)
	if err != nil {
		return domain.TokenPair{}, err
	}

	var refreshOpaque string
	if withRefresh {
		refreshOpaque, err = cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return domain.TokenPair{}, err
		}
	}

	err = i.Store.WithTx(ctx, func(tx store.Tx) error {
		record := domain.AccessTokenRecord{
			ID:        jti,
			SubjectID: subjectID,
			ClientID:  clientID,
			Scopes:    scopes,
			IssuedAt:  now,
			ExpiresAt: now.Add(i.AccessTTL),
		}
		if err := tx.Tokens().RecordToken(ctx, record); err != nil {
			return err
		}

		if !withRefresh {
			return nil
		}

		rt := domain.RefreshToken{
			ID:        idx.New().String(),
			TokenHash: cryptox.FingerprintToken(refreshOpaque),
			SubjectID: subjectID,
			ClientID:  clientID,
			Scopes:    scopes,
			ExpiresAt: now.Add(i.RefreshTTL),
			CreatedAt: now,
			UpdatedAt: now,
		}
		return tx.RefreshTokens().CreateRefreshToken(ctx, rt)
	})
	if err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshOpaque,
		TokenType:    "Bearer",
		ExpiresIn:    int64(i.AccessTTL / time.Second),
		Scope:        strings.Join(scopes, " "),
	}, nil
}
