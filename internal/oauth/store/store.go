package store

import (
	"context"
	"errors"

	"github.com/advancedlearning/oauthd/internal/oauth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface: the credential store (clients,
// scopes, users, groups) plus the token revocation ledger. Concrete drivers
// implement it; the core services only ever see these interfaces.
type Store interface {
	Clients() Clients
	Scopes() Scopes
	Users() Users
	Groups() Groups
	Tokens() Tokens
	RefreshTokens() RefreshTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, committing when fn returns
	// nil and rolling back otherwise. Use it for multi-step operations that
	// must be atomic (refresh rotation, token issuance).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It exposes the same repositories but adds
// Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Clients interface {
	// GetClientByIdentifier fetches a client for authentication.
	GetClientByIdentifier(ctx context.Context, identifier string) (domain.Client, error)

	// ListClients returns all clients, newest first.
	ListClients(ctx context.Context) ([]domain.Client, error)

	// CreateClient inserts a new client. The identifier is immutable once
	// persisted.
	CreateClient(ctx context.Context, c domain.Client) error

	DeleteClient(ctx context.Context, identifier string) error

	// ClientHasScope consults the client-scope relation. The relation always
	// exists; whether it is honoured is a server-wide policy decision made
	// above this layer.
	ClientHasScope(ctx context.Context, identifier, scopeName string) (bool, error)

	// SetClientScopes replaces the client-scope relation rows for a client.
	SetClientScopes(ctx context.Context, identifier string, scopeNames []string) error

	// IsEmpty reports whether any client exists (bootstrap gate).
	IsEmpty(ctx context.Context) (bool, error)
}

type Scopes interface {
	// GetScopeByName returns the scope record, or ErrNotFound. Unknown
	// scope names are how the resolver drops unrecognised requests.
	GetScopeByName(ctx context.Context, name string) (domain.Scope, error)

	ListScopes(ctx context.Context) ([]domain.Scope, error)

	CreateScope(ctx context.Context, s domain.Scope) error

	DeleteScope(ctx context.Context, name string) error
}

type Users interface {
	// GetUserByIdentifier is used during the password grant.
	GetUserByIdentifier(ctx context.Context, identifier string) (domain.User, error)

	CreateUser(ctx context.Context, u domain.User) error

	// EffectiveScopes returns the union of scopes over the user's groups.
	EffectiveScopes(ctx context.Context, userID string) ([]string, error)
}

type Groups interface {
	CreateGroup(ctx context.Context, g domain.Group) error

	// AddMember places a user in a group. Membership drives user scope
	// entitlement; the core reads it, never writes it per-request.
	AddMember(ctx context.Context, userID, groupID string) error

	UpdateGroupScopes(ctx context.Context, groupID string, scopes []string) error
}

// Tokens is the access-token revocation ledger.
type Tokens interface {
	// RecordToken persists the ledger row for a freshly minted token. The
	// issuer writes this before the token string is ever returned.
	RecordToken(ctx context.Context, t domain.AccessTokenRecord) error

	// IsRevoked reports the revocation state for a token id. Unknown ids
	// are not revoked: signature verification already proves issuance, and
	// expired rows may have been garbage collected.
	IsRevoked(ctx context.Context, tokenID string) (bool, error)

	// RevokeToken flips the revoked flag for a token id.
	RevokeToken(ctx context.Context, tokenID string) error

	// DeleteExpiredTokens is housekeeping; expiry itself is enforced by
	// wall-clock comparison at validation time.
	DeleteExpiredTokens(ctx context.Context) error
}

type RefreshTokens interface {
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash looks a row up by the opaque value's fingerprint.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// RevokeRefreshToken flips revoked for the row with the given hash.
	// Only un-revoked rows match; an already-revoked row yields ErrNotFound,
	// which is how refresh rotation claims single use.
	RevokeRefreshToken(ctx context.Context, hash string) error

	DeleteExpiredRefreshTokens(ctx context.Context) error
}
