package http

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/advancedlearning/oauthd/internal/oauth/service"
	"github.com/advancedlearning/oauthd/pkg/httpx"
	"github.com/advancedlearning/oauthd/pkg/slogx"
)

type contextKey string

const tokenClaimsKey contextKey = "token_claims"

// Trust attribute headers injected for downstream handlers. Anything a
// caller sends under these (or any other header naming oauth) is stripped
// first, so their presence always means the middleware vouched for them.
const (
	HeaderAccessTokenID = "Oauth_access_token_id"
	HeaderClientID      = "Oauth_client_id"
	HeaderUserID        = "Oauth_user_id"
	HeaderScopes        = "Oauth_scopes"
)

// TokenClaimsFromContext returns the validated claims the authentication
// middleware attached.
func TokenClaimsFromContext(ctx context.Context) (service.TokenClaims, bool) {
	claims, ok := ctx.Value(tokenClaimsKey).(service.TokenClaims)
	return claims, ok
}

// AuthnMiddleware authenticates bearer tokens for resource endpoints.
//
// Inbound headers whose name contains "oauth" (any casing) are removed
// before validation so a caller can never smuggle trust attributes past the
// middleware. On success the validated attributes are injected as request
// headers and as context values.
func AuthnMiddleware(validator *service.TokenValidator) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := slogx.FromContext(r.Context())

			stripOAuthHeaders(r)

			token, ok := bearerToken(r)
			if !ok {
				errUnauthorized.Write(w)
				return
			}

			claims, err := validator.Validate(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, service.ErrMalformedToken),
					errors.Is(err, service.ErrInvalidSignature),
					errors.Is(err, service.ErrTokenExpired),
					errors.Is(err, service.ErrTokenRevoked):
					errUnauthorized.Write(w)
				default:
					log.Error("token validation failed", "err", err)
					errServerError.Write(w)
				}
				return
			}

			r.Header.Set(HeaderAccessTokenID, claims.TokenID)
			r.Header.Set(HeaderClientID, claims.ClientID)
			r.Header.Set(HeaderScopes, strings.Join(claims.Scopes, " "))
			if claims.PrincipalID != claims.ClientID {
				r.Header.Set(HeaderUserID, claims.PrincipalID)
			}

			ctx := context.WithValue(r.Context(), tokenClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireScope gates a handler on the token carrying the named scope.
func RequireScope(scope string) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := TokenClaimsFromContext(r.Context())
			if !ok {
				errUnauthorized.Write(w)
				return
			}
			if !slices.Contains(claims.Scopes, scope) {
				errInsufficientScope.Write(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// stripOAuthHeaders deletes every inbound header whose name contains
// "oauth", case-insensitively.
func stripOAuthHeaders(r *http.Request) {
	for name := range r.Header {
		if strings.Contains(strings.ToLower(name), "oauth") {
			r.Header.Del(name)
		}
	}
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(auth, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}
