package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/advancedlearning/oauthd/internal/oauth/service"
	"github.com/advancedlearning/oauthd/pkg/httpx"
	"github.com/advancedlearning/oauthd/pkg/slogx"
)

// TokenHandler serves the token endpoint. Grant parameters arrive either as
// application/x-www-form-urlencoded or as a flat JSON object; client
// credentials may instead travel in a Basic Authorization header.
type TokenHandler struct {
	TokenService *service.TokenService
	CORS         CORSConfig
}

func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		h.handlePreflight(w, r)
	case http.MethodPost:
		h.handleGrant(w, r)
	default:
		h.writeError(w, r, errMethodNotAllowed)
	}
}

// handlePreflight answers the CORS preflight. With CORS disabled the verb is
// simply not allowed; with it enabled an unrecognised origin is refused
// outright.
func (h *TokenHandler) handlePreflight(w http.ResponseWriter, r *http.Request) {
	if !h.CORS.Enabled {
		errMethodNotAllowed.Write(w)
		return
	}

	origin := requestOrigin(r)
	if !h.CORS.originAllowed(origin) {
		errUnauthorisedOrigin.Write(w)
		return
	}

	h.CORS.applyHeaders(w, origin)
	w.WriteHeader(http.StatusOK)
}

func (h *TokenHandler) handleGrant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if h.CORS.Enabled {
		origin := requestOrigin(r)
		if origin != "" {
			if !h.CORS.originAllowed(origin) {
				errUnauthorisedOrigin.Write(w)
				return
			}
			// Every terminal response carries the CORS headers, error
			// responses included, or the browser hides the body.
			h.CORS.applyHeaders(w, origin)
		}
	}

	params, err := parseGrantBody(r)
	if err != nil {
		h.writeError(w, r, errEmptyBody)
		return
	}
	if len(params) == 0 {
		// A request with no readable parameters has always produced this
		// particular 500; integrators test against the message.
		h.writeError(w, r, errEmptyBody)
		return
	}

	clientID, clientSecret := clientCredentials(r, params)
	requested := httpx.ParseSpaceDelimitedFields(params["scope"])

	var pair any
	var exchangeErr error

	switch params["grant_type"] {
	case service.GrantClientCredentials:
		pair, exchangeErr = h.TokenService.ExchangeClientCredentials(ctx, clientID, clientSecret, requested)

	case service.GrantPassword:
		username := params["username"]
		password := params["password"]
		if username == "" || password == "" {
			h.writeError(w, r, errInvalidRequest)
			return
		}
		pair, exchangeErr = h.TokenService.ExchangePassword(ctx, clientID, clientSecret, username, password, requested)

	case service.GrantRefreshToken:
		refresh := params["refresh_token"]
		if refresh == "" {
			h.writeError(w, r, errInvalidRequest)
			return
		}
		pair, exchangeErr = h.TokenService.ExchangeRefreshToken(ctx, clientID, clientSecret, refresh, requested)

	default:
		h.writeError(w, r, errUnsupportedGrant)
		return
	}

	if exchangeErr != nil {
		switch {
		case errors.Is(exchangeErr, service.ErrInvalidClient):
			h.writeError(w, r, errInvalidClient)
		case errors.Is(exchangeErr, service.ErrInvalidCredentials):
			h.writeError(w, r, errInvalidCredentials)
		case errors.Is(exchangeErr, service.ErrInvalidGrant):
			h.writeError(w, r, errInvalidGrant)
		case errors.Is(exchangeErr, service.ErrInvalidRefresh):
			h.writeError(w, r, errInvalidGrant)
		case errors.Is(exchangeErr, service.ErrInvalidScope):
			h.writeError(w, r, errInvalidScope)
		default:
			log.Error("token grant failed", "grant_type", params["grant_type"], "err", exchangeErr)
			h.writeError(w, r, errServerError)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, pair)
}

// writeError emits the error body. CORS headers were applied up front when
// applicable, so nothing extra happens here; the indirection keeps the call
// sites uniform.
func (h *TokenHandler) writeError(w http.ResponseWriter, _ *http.Request, e apiError) {
	e.Write(w)
}

// parseGrantBody flattens the request body into string params. JSON bodies
// take a flat object; anything else goes through form parsing.
func parseGrantBody(r *http.Request) (map[string]string, error) {
	params := make(map[string]string)

	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			return nil, err
		}
		if len(strings.TrimSpace(string(body))) == 0 {
			return params, nil
		}
		var decoded map[string]any
		if err := json.Unmarshal(body, &decoded); err != nil {
			return nil, err
		}
		for k, v := range decoded {
			params[k] = fmt.Sprint(v)
		}
		return params, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	for k := range r.PostForm {
		params[k] = r.PostForm.Get(k)
	}
	return params, nil
}

// clientCredentials reads client_id/client_secret from the body, falling back
// to HTTP Basic authentication.
func clientCredentials(r *http.Request, params map[string]string) (string, string) {
	id, secret := params["client_id"], params["client_secret"]
	if id != "" {
		return id, secret
	}
	if basicID, basicSecret, ok := r.BasicAuth(); ok {
		return basicID, basicSecret
	}
	return id, secret
}
