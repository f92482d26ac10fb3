package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/advancedlearning/oauthd/internal/oauth/domain"
	"github.com/advancedlearning/oauthd/internal/oauth/service"
	"github.com/stretchr/testify/require"
)

func (f *handlerFixture) clientToken(t *testing.T, scopes []string) (service.RegisteredClient, domain.TokenPair) {
	t.Helper()
	reg := f.seedClientWithScopes(t, []string{service.GrantClientCredentials}, scopes)
	pair, err := f.service.ExchangeClientCredentials(
		context.Background(), reg.Client.Identifier, reg.PlainSecret, scopes)
	require.NoError(t, err)
	return reg, pair
}

func protectedProbe(captured **http.Request) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = r
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthnMiddlewareStripsAndInjects(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t)
	reg, pair := f.clientToken(t, []string{"read"})

	var seen *http.Request
	h := AuthnMiddleware(f.validator)(protectedProbe(&seen))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	// Forged trust attributes, in assorted casings. All of these must be
	// gone before the handler runs.
	req.Header.Set("Oauth_user_id", "forged-admin")
	req.Header.Set("OAUTH_SCOPES", "admin:write")
	req.Header.Set("X-Oauth-Proxy-Secret", "forged")
	req.Header.Set("X-Forwarded-For", "10.0.0.1")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)

	require.Equal(t, reg.Client.Identifier, seen.Header.Get(HeaderClientID))
	require.Equal(t, "read", seen.Header.Get(HeaderScopes))
	require.NotEmpty(t, seen.Header.Get(HeaderAccessTokenID))
	// A client-only token has no user behind it.
	require.Empty(t, seen.Header.Get(HeaderUserID))
	// Unrelated headers survive; forged oauth ones do not.
	require.Equal(t, "10.0.0.1", seen.Header.Get("X-Forwarded-For"))
	require.Empty(t, seen.Header.Get("X-Oauth-Proxy-Secret"))

	claims, ok := TokenClaimsFromContext(seen.Context())
	require.True(t, ok)
	require.Equal(t, reg.Client.Identifier, claims.ClientID)
	require.Equal(t, []string{"read"}, claims.Scopes)
}

func TestAuthnMiddlewareUserHeader(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t)
	ctx := context.Background()

	reg := f.seedClientWithScopes(t, []string{service.GrantPassword}, nil)
	_, err := f.scopes.Create(ctx, "members")
	require.NoError(t, err)
	u, err := f.users.CreateUser(ctx, "carol", "a-long-enough-password")
	require.NoError(t, err)
	g, err := f.users.CreateGroup(ctx, "Members", []string{"members"})
	require.NoError(t, err)
	require.NoError(t, f.users.AddToGroup(ctx, u.ID, g.ID))

	pair, err := f.service.ExchangePassword(ctx,
		reg.Client.Identifier, reg.PlainSecret, "carol", "a-long-enough-password", []string{"members"})
	require.NoError(t, err)

	var seen *http.Request
	h := AuthnMiddleware(f.validator)(protectedProbe(&seen))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, u.ID, seen.Header.Get(HeaderUserID))
	require.Equal(t, reg.Client.Identifier, seen.Header.Get(HeaderClientID))
}

func TestAuthnMiddlewareRejections(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t)
	_, pair := f.clientToken(t, []string{"read"})

	h := AuthnMiddleware(f.validator)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	expectUnauthorized := func(t *testing.T, rec *httptest.ResponseRecorder) {
		t.Helper()
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		var body struct {
			Error string `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "auth_error", body.Error)
	}

	t.Run("missing authorization", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))
		expectUnauthorized(t, rec)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		expectUnauthorized(t, rec)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer not.a.jwt")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		expectUnauthorized(t, rec)
	})

	t.Run("revoked token", func(t *testing.T) {
		claims, err := f.validator.Validate(context.Background(), pair.AccessToken)
		require.NoError(t, err)
		require.NoError(t, f.service.RevokeAccessToken(context.Background(), claims.TokenID))

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		expectUnauthorized(t, rec)
	})
}

func TestRequireScope(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t)
	_, pair := f.clientToken(t, []string{"read"})

	newChain := func(scope string) http.Handler {
		inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		return AuthnMiddleware(f.validator)(RequireScope(scope)(inner))
	}

	t.Run("scope present", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		rec := httptest.NewRecorder()
		newChain("read").ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("scope missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		rec := httptest.NewRecorder()
		newChain("admin:write").ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("no claims in context", func(t *testing.T) {
		rec := httptest.NewRecorder()
		bare := RequireScope("read")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		bare.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
