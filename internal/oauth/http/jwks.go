package http

import (
	"net/http"

	"github.com/advancedlearning/oauthd/pkg/httpx"
	"github.com/advancedlearning/oauthd/pkg/jwtx"
)

// JWKSHandler exposes the JSON Web Key Set so external resource servers can
// verify access tokens without sharing state.
func JWKSHandler(keys *jwtx.KeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, keys.PublicJWKS())
	}
}
