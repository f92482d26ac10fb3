package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/advancedlearning/oauthd/internal/oauth/domain"
	"github.com/advancedlearning/oauthd/internal/oauth/store"
	"github.com/advancedlearning/oauthd/pkg/cryptox"
	"github.com/advancedlearning/oauthd/pkg/slogx"
)

// Grant type classifiers. Opaque strings checked against the client's
// registered grant list.
const (
	GrantClientCredentials = "client_credentials"
	GrantPassword          = "password"
	GrantRefreshToken      = "refresh_token"
)

// TokenService orchestrates the token endpoint grants: authenticate the
// parties, resolve scopes, and hand off to the issuer.
type TokenService struct {
	Store    store.Store
	Issuer   *TokenIssuer
	Resolver *ScopeResolver
	Clients  *ClientAuthenticator
	Users    *UserAuthenticator

	// HonourClientScopes is the server-wide switch deciding whether the
	// client-scope relation is consulted. Off means client principals are
	// entitled to no scopes at all.
	HonourClientScopes bool

	// IssueRefresh decides per grant type whether a refresh token accompanies
	// the access token. Nil falls back to defaultIssueRefresh.
	IssueRefresh func(grantType string) bool
}

// defaultIssueRefresh issues refresh tokens for every grant except
// client_credentials; a machine client can always re-authenticate.
func defaultIssueRefresh(grantType string) bool {
	return grantType != GrantClientCredentials
}

func (s *TokenService) issueRefresh(grantType string) bool {
	if s.IssueRefresh != nil {
		return s.IssueRefresh(grantType)
	}
	return defaultIssueRefresh(grantType)
}

// ExchangeClientCredentials implements the client_credentials grant. The
// client is the subject; scopes resolve against the client alone.
func (s *TokenService) ExchangeClientCredentials(
	ctx context.Context,
	clientID, clientSecret string,
	requestedScopes []string,
) (domain.TokenPair, error) {
	now := time.Now()
	l := slogx.FromContext(ctx)

	client, err := s.Clients.Authenticate(ctx, clientID, clientSecret)
	if err != nil {
		return domain.TokenPair{}, err
	}

	// Machine grants require a confidential client.
	if client.SecretHash == "" {
		l.Warn("client_credentials grant attempted with public client", slog.String("client_id", clientID))
		return domain.TokenPair{}, ErrInvalidClient
	}

	if !client.AllowsGrant(GrantClientCredentials) {
		return domain.TokenPair{}, ErrInvalidGrant
	}

	cp := &ClientPrincipal{
		Client:       client,
		Clients:      s.Store.Clients(),
		HonourScopes: s.HonourClientScopes,
	}

	scopes, err := s.Resolver.Resolve(ctx, requestedScopes, cp, nil)
	if err != nil {
		return domain.TokenPair{}, err
	}

	return s.Issuer.Issue(ctx, client.Identifier, client.Identifier, scopes,
		s.issueRefresh(GrantClientCredentials), now)
}

// ExchangePassword implements the resource owner password grant. The client
// filter is advisory here: the user's group entitlement alone decides the
// final scope set.
func (s *TokenService) ExchangePassword(
	ctx context.Context,
	clientID, clientSecret string,
	username, password string,
	requestedScopes []string,
) (domain.TokenPair, error) {
	now := time.Now()

	client, err := s.Clients.Authenticate(ctx, clientID, clientSecret)
	if err != nil {
		return domain.TokenPair{}, err
	}

	if !client.AllowsGrant(GrantPassword) {
		return domain.TokenPair{}, ErrInvalidGrant
	}

	user, err := s.Users.Authenticate(ctx, username, password)
	if err != nil {
		return domain.TokenPair{}, err
	}

	up, err := NewUserPrincipal(ctx, s.Store.Users(), user)
	if err != nil {
		return domain.TokenPair{}, err
	}

	cp := &ClientPrincipal{
		Client:       client,
		Clients:      s.Store.Clients(),
		HonourScopes: s.HonourClientScopes,
	}

	scopes, err := s.Resolver.Resolve(ctx, requestedScopes, cp, up)
	if err != nil {
		return domain.TokenPair{}, err
	}

	return s.Issuer.Issue(ctx, user.ID, client.Identifier, scopes,
		s.issueRefresh(GrantPassword), now)
}

// ExchangeRefreshToken implements the refresh_token grant. Refresh tokens are
// single-use: redemption revokes the row before the replacement is minted, so
// a raced duplicate redemption fails closed. Requested scopes may narrow but
// never widen the set the original grant carried.
func (s *TokenService) ExchangeRefreshToken(
	ctx context.Context,
	clientID, clientSecret string,
	refreshOpaque string,
	requestedScopes []string,
) (domain.TokenPair, error) {
	now := time.Now()

	client, err := s.Clients.Authenticate(ctx, clientID, clientSecret)
	if err != nil {
		return domain.TokenPair{}, err
	}

	if !client.AllowsGrant(GrantRefreshToken) {
		return domain.TokenPair{}, ErrInvalidGrant
	}

	fp := cryptox.FingerprintToken(refreshOpaque)
	rt, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, fp)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrInvalidRefresh
		}
		return domain.TokenPair{}, err
	}

	if rt.Revoked || !now.Before(rt.ExpiresAt) {
		return domain.TokenPair{}, ErrInvalidRefresh
	}
	if rt.ClientID != client.Identifier {
		return domain.TokenPair{}, ErrInvalidClient
	}

	scopes := rt.Scopes
	if len(requestedScopes) > 0 {
		// The original grant is the entitlement boundary.
		tp := newTokenPrincipal(rt.SubjectID, rt.Scopes)
		scopes, err = s.Resolver.Resolve(ctx, requestedScopes, tp, nil)
		if err != nil {
			return domain.TokenPair{}, err
		}
	}

	// Burn the old token first. RevokeRefreshToken only matches un-revoked
	// rows, so the loser of a concurrent redemption sees ErrNotFound here.
	if err := s.Store.RefreshTokens().RevokeRefreshToken(ctx, fp); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrInvalidRefresh
		}
		return domain.TokenPair{}, err
	}

	return s.Issuer.Issue(ctx, rt.SubjectID, client.Identifier, scopes,
		s.issueRefresh(GrantRefreshToken), now)
}

// RevokeAccessToken flips the ledger row for a token id. Unknown ids are a
// no-op: revocation of a token the server never issued reveals nothing.
func (s *TokenService) RevokeAccessToken(ctx context.Context, tokenID string) error {
	err := s.Store.Tokens().RevokeToken(ctx, tokenID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

// RevokeRefreshToken revokes a refresh token by its opaque value. Unknown or
// already-revoked values are a no-op.
func (s *TokenService) RevokeRefreshToken(ctx context.Context, refreshOpaque string) error {
	err := s.Store.RefreshTokens().RevokeRefreshToken(ctx, cryptox.FingerprintToken(refreshOpaque))
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}
