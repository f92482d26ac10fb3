package http

import (
	"net/http"

	"github.com/advancedlearning/oauthd/internal/oauth/service"
	"github.com/advancedlearning/oauthd/pkg/jwtx"
	"github.com/advancedlearning/oauthd/pkg/slogx"
)

// RevokeHandler serves the revocation endpoint (RFC 7009 shape). The caller
// authenticates as a client and submits the token to revoke; unknown or
// already-dead tokens still yield 200 so the endpoint leaks nothing.
type RevokeHandler struct {
	TokenService *service.TokenService
	Clients      *service.ClientAuthenticator
	Verifier     *jwtx.Verifier
}

func (h *RevokeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if r.Method != http.MethodPost {
		errMethodNotAllowed.Write(w)
		return
	}

	if err := r.ParseForm(); err != nil {
		errEmptyBody.Write(w)
		return
	}

	token := r.PostForm.Get("token")
	if token == "" {
		errInvalidRequest.Write(w)
		return
	}

	clientID, clientSecret := r.PostForm.Get("client_id"), r.PostForm.Get("client_secret")
	if clientID == "" {
		if basicID, basicSecret, ok := r.BasicAuth(); ok {
			clientID, clientSecret = basicID, basicSecret
		}
	}

	if _, err := h.Clients.Authenticate(ctx, clientID, clientSecret); err != nil {
		errInvalidClient.Write(w)
		return
	}

	var err error
	switch r.PostForm.Get("token_type_hint") {
	case "refresh_token":
		err = h.TokenService.RevokeRefreshToken(ctx, token)
	default:
		// A signed JWT revokes by its jti; anything else is treated as an
		// opaque refresh value. Signature check only: an expired token can
		// still be revoked.
		if claims, verr := h.Verifier.Verify(token); verr == nil {
			err = h.TokenService.RevokeAccessToken(ctx, claims.ID)
		} else {
			err = h.TokenService.RevokeRefreshToken(ctx, token)
		}
	}
	if err != nil {
		log.Error("revocation failed", "err", err)
		errServerError.Write(w)
		return
	}

	w.WriteHeader(http.StatusOK)
}
