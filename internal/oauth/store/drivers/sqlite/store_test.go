package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/advancedlearning/oauthd/internal/oauth/domain"
	"github.com/advancedlearning/oauthd/internal/oauth/store"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestClientsRepo(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	empty, err := s.Clients().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)

	c := domain.Client{
		Identifier:   "client-1",
		Name:         "First Client",
		SecretHash:   "$argon2id$fake",
		Grants:       []string{"client_credentials", "refresh_token"},
		RedirectURIs: []string{"https://a.example/cb", " https://b.example/cb", ""},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.Clients().CreateClient(ctx, c))

	empty, err = s.Clients().IsEmpty(ctx)
	require.NoError(t, err)
	require.False(t, empty)

	t.Run("round trips list columns verbatim", func(t *testing.T) {
		got, err := s.Clients().GetClientByIdentifier(ctx, "client-1")
		require.NoError(t, err)
		require.Equal(t, c.Grants, got.Grants)
		// Comma decomposition keeps whitespace and empty segments.
		require.Equal(t, c.RedirectURIs, got.RedirectURIs)
		require.Equal(t, c.SecretHash, got.SecretHash)
	})

	t.Run("unknown identifier", func(t *testing.T) {
		_, err := s.Clients().GetClientByIdentifier(ctx, "nope")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("duplicate identifier", func(t *testing.T) {
		err := s.Clients().CreateClient(ctx, c)
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("scope relation", func(t *testing.T) {
		require.NoError(t, s.Scopes().CreateScope(ctx, domain.Scope{Name: "read", CreatedAt: now}))
		require.NoError(t, s.Scopes().CreateScope(ctx, domain.Scope{Name: "write", CreatedAt: now}))

		require.NoError(t, s.Clients().SetClientScopes(ctx, "client-1", []string{"read"}))

		ok, err := s.Clients().ClientHasScope(ctx, "client-1", "read")
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = s.Clients().ClientHasScope(ctx, "client-1", "write")
		require.NoError(t, err)
		require.False(t, ok)

		// Replacement drops previous rows.
		require.NoError(t, s.Clients().SetClientScopes(ctx, "client-1", []string{"write"}))
		ok, err = s.Clients().ClientHasScope(ctx, "client-1", "read")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Clients().DeleteClient(ctx, "client-1"))
		require.ErrorIs(t, s.Clients().DeleteClient(ctx, "client-1"), store.ErrNotFound)
	})
}

func TestScopesRepo(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.Scopes().CreateScope(ctx, domain.Scope{Name: "members", CreatedAt: now}))
	require.ErrorIs(t, s.Scopes().CreateScope(ctx, domain.Scope{Name: "members", CreatedAt: now}), store.ErrAlreadyExists)

	got, err := s.Scopes().GetScopeByName(ctx, "members")
	require.NoError(t, err)
	require.Equal(t, "members", got.Name)

	_, err = s.Scopes().GetScopeByName(ctx, "unknown")
	require.ErrorIs(t, err, store.ErrNotFound)

	list, err := s.Scopes().ListScopes(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, s.Scopes().DeleteScope(ctx, "members"))
	require.ErrorIs(t, s.Scopes().DeleteScope(ctx, "members"), store.ErrNotFound)
}

func TestUsersAndGroups(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	u := domain.User{
		ID:           "user-1",
		Identifier:   "alice",
		PasswordHash: "$argon2id$fake",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.Users().CreateUser(ctx, u))
	require.ErrorIs(t, s.Users().CreateUser(ctx, u), store.ErrAlreadyExists)

	got, err := s.Users().GetUserByIdentifier(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "user-1", got.ID)

	t.Run("effective scopes union over groups", func(t *testing.T) {
		require.NoError(t, s.Groups().CreateGroup(ctx, domain.Group{
			ID: "g1", Title: "Readers", Scopes: []string{"read", "members"}, CreatedAt: now,
		}))
		require.NoError(t, s.Groups().CreateGroup(ctx, domain.Group{
			ID: "g2", Title: "Writers", Scopes: []string{"write", "members"}, CreatedAt: now,
		}))

		scopes, err := s.Users().EffectiveScopes(ctx, "user-1")
		require.NoError(t, err)
		require.Empty(t, scopes)

		require.NoError(t, s.Groups().AddMember(ctx, "user-1", "g1"))
		require.NoError(t, s.Groups().AddMember(ctx, "user-1", "g2"))
		// Adding twice is idempotent.
		require.NoError(t, s.Groups().AddMember(ctx, "user-1", "g1"))

		scopes, err = s.Users().EffectiveScopes(ctx, "user-1")
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"read", "write", "members"}, scopes)
	})

	t.Run("group scope update", func(t *testing.T) {
		require.NoError(t, s.Groups().UpdateGroupScopes(ctx, "g1", []string{"read"}))
		require.ErrorIs(t, s.Groups().UpdateGroupScopes(ctx, "missing", nil), store.ErrNotFound)

		scopes, err := s.Users().EffectiveScopes(ctx, "user-1")
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"read", "write", "members"}, scopes)
	})
}

func TestTokensLedger(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	rec := domain.AccessTokenRecord{
		ID:        "jti-1",
		SubjectID: "user-1",
		ClientID:  "client-1",
		Scopes:    []string{"read"},
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, s.Tokens().RecordToken(ctx, rec))

	t.Run("fresh token is not revoked", func(t *testing.T) {
		revoked, err := s.Tokens().IsRevoked(ctx, "jti-1")
		require.NoError(t, err)
		require.False(t, revoked)
	})

	t.Run("unknown id is not revoked", func(t *testing.T) {
		revoked, err := s.Tokens().IsRevoked(ctx, "never-issued")
		require.NoError(t, err)
		require.False(t, revoked)
	})

	t.Run("revocation flips the flag", func(t *testing.T) {
		require.NoError(t, s.Tokens().RevokeToken(ctx, "jti-1"))
		revoked, err := s.Tokens().IsRevoked(ctx, "jti-1")
		require.NoError(t, err)
		require.True(t, revoked)

		require.ErrorIs(t, s.Tokens().RevokeToken(ctx, "never-issued"), store.ErrNotFound)
	})

	t.Run("expired rows are swept", func(t *testing.T) {
		expired := domain.AccessTokenRecord{
			ID:        "jti-old",
			SubjectID: "user-1",
			ClientID:  "client-1",
			IssuedAt:  now.Add(-2 * time.Hour),
			ExpiresAt: now.Add(-time.Hour),
		}
		require.NoError(t, s.Tokens().RecordToken(ctx, expired))
		require.NoError(t, s.Tokens().DeleteExpiredTokens(ctx))

		revoked, err := s.Tokens().IsRevoked(ctx, "jti-old")
		require.NoError(t, err)
		require.False(t, revoked) // row gone, unknown ids are not revoked
	})
}

func TestRefreshTokensRepo(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	rt := domain.RefreshToken{
		ID:        "rt-1",
		TokenHash: "hash-1",
		SubjectID: "user-1",
		ClientID:  "client-1",
		Scopes:    []string{"read", "write"},
		ExpiresAt: now.Add(24 * time.Hour),
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, rt))

	got, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, "hash-1")
	require.NoError(t, err)
	require.Equal(t, []string{"read", "write"}, got.Scopes)
	require.False(t, got.Revoked)

	_, err = s.RefreshTokens().GetRefreshTokenByHash(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	t.Run("revocation is single-shot", func(t *testing.T) {
		require.NoError(t, s.RefreshTokens().RevokeRefreshToken(ctx, "hash-1"))

		got, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, "hash-1")
		require.NoError(t, err)
		require.True(t, got.Revoked)

		// Second revocation finds no live row: the concurrent-redemption
		// loser gets ErrNotFound.
		require.ErrorIs(t, s.RefreshTokens().RevokeRefreshToken(ctx, "hash-1"), store.ErrNotFound)
	})

	t.Run("expired rows are swept", func(t *testing.T) {
		old := rt
		old.ID = "rt-old"
		old.TokenHash = "hash-old"
		old.ExpiresAt = now.Add(-time.Minute)
		require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, old))

		require.NoError(t, s.RefreshTokens().DeleteExpiredRefreshTokens(ctx))
		_, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, "hash-old")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestWithTx(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("commit on nil", func(t *testing.T) {
		err := s.WithTx(ctx, func(tx store.Tx) error {
			return tx.Scopes().CreateScope(ctx, domain.Scope{Name: "committed", CreatedAt: now})
		})
		require.NoError(t, err)

		_, err = s.Scopes().GetScopeByName(ctx, "committed")
		require.NoError(t, err)
	})

	t.Run("rollback on error", func(t *testing.T) {
		sentinel := store.ErrAlreadyExists
		err := s.WithTx(ctx, func(tx store.Tx) error {
			if err := tx.Scopes().CreateScope(ctx, domain.Scope{Name: "rolled-back", CreatedAt: now}); err != nil {
				return err
			}
			return sentinel
		})
		require.ErrorIs(t, err, sentinel)

		_, err = s.Scopes().GetScopeByName(ctx, "rolled-back")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}
