package service

import (
	"context"

	"github.com/advancedlearning/oauthd/internal/oauth/domain"
	"github.com/advancedlearning/oauthd/internal/oauth/store"
)

// Principal is the party a token is resolved against: the client application
// itself, or the resource owner a user-facing grant authenticated.
type Principal interface {
	// Identifier is the stable id placed in the token's sub claim.
	Identifier() string

	// HasScope reports whether the principal is entitled to the named scope.
	HasScope(ctx context.Context, name string) (bool, error)
}

// ClientPrincipal is the client application acting as a principal. Scope
// entitlement is looked up against the client-scope relation; with the
// server-wide HonourScopes switch off the relation is ignored and a client
// principal is entitled to nothing, so machine grants resolve to an empty
// scope set.
type ClientPrincipal struct {
	Client       domain.Client
	Clients      store.Clients
	HonourScopes bool
}

func (p *ClientPrincipal) Identifier() string { return p.Client.Identifier }

func (p *ClientPrincipal) HasScope(ctx context.Context, name string) (bool, error) {
	if !p.HonourScopes {
		return false, nil
	}
	return p.Clients.ClientHasScope(ctx, p.Client.Identifier, name)
}

// UserPrincipal is a resource owner with a preloaded effective scope set (the
// union over group memberships, computed once per grant).
type UserPrincipal struct {
	User   domain.User
	scopes map[string]struct{}
}

// NewUserPrincipal loads the user's effective scopes up front so per-scope
// checks are map lookups.
func NewUserPrincipal(ctx context.Context, users store.Users, u domain.User) (*UserPrincipal, error) {
	names, err := users.EffectiveScopes(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return &UserPrincipal{User: u, scopes: set}, nil
}

func (p *UserPrincipal) Identifier() string { return p.User.ID }

func (p *UserPrincipal) HasScope(ctx context.Context, name string) (bool, error) {
	_, ok := p.scopes[name]
	return ok, nil
}

// tokenPrincipal reconstructs a principal from stored refresh token metadata.
// Its entitlement is exactly the scope set captured at original issuance, so
// a refresh can narrow but never widen the grant.
type tokenPrincipal struct {
	subjectID string
	scopes    map[string]struct{}
}

func newTokenPrincipal(subjectID string, scopes []string) *tokenPrincipal {
	set := make(map[string]struct{}, len(scopes))
	for _, n := range scopes {
		set[n] = struct{}{}
	}
	return &tokenPrincipal{subjectID: subjectID, scopes: set}
}

func (p *tokenPrincipal) Identifier() string { return p.subjectID }

func (p *tokenPrincipal) HasScope(ctx context.Context, name string) (bool, error) {
	_, ok := p.scopes[name]
	return ok, nil
}
