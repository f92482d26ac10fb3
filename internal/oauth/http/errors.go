package http

import (
	"net/http"

	"github.com/advancedlearning/oauthd/pkg/httpx"
)

// apiError is the wire shape every error response takes: a stable machine
// tag plus a human message.
type apiError struct {
	Status  int    `json:"-"`
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (e apiError) Write(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.Status, e)
}

func newAPIError(status int, code, message string) apiError {
	return apiError{Status: status, Code: code, Message: message}
}

var (
	errInvalidRequest = newAPIError(http.StatusBadRequest,
		"invalid_request", "The request is missing a required parameter")
	errInvalidClient = newAPIError(http.StatusUnauthorized,
		"invalid_client", "Client authentication failed")
	errInvalidCredentials = newAPIError(http.StatusBadRequest,
		"invalid_grant", "The user credentials were incorrect")
	errInvalidGrant = newAPIError(http.StatusBadRequest,
		"invalid_grant", "The provided authorization grant is invalid")
	errInvalidScope = newAPIError(http.StatusBadRequest,
		"invalid_scope", "The requested scope is invalid or unknown")
	errUnsupportedGrant = newAPIError(http.StatusBadRequest,
		"unsupported_grant_type", "The authorization grant type is not supported")
	errMethodNotAllowed = newAPIError(http.StatusMethodNotAllowed,
		"auth_error", "Method Not Allowed")
	errUnauthorisedOrigin = newAPIError(http.StatusForbidden,
		"auth_error", "Unauthorised origin")
	errUnauthorized = newAPIError(http.StatusUnauthorized,
		"auth_error", "The resource owner or authorization server denied the request")
	errInsufficientScope = newAPIError(http.StatusForbidden,
		"auth_error", "The request requires higher privileges than provided by the access token")
	errServerError = newAPIError(http.StatusInternalServerError,
		"server_error", "The authorization server encountered an unexpected condition")

	// errEmptyBody reproduces the long-standing behaviour for a bodyless
	// grant request: a 500 whose message points at the Content-Type header.
	// Clients in the wild match on this message, so it stays.
	errEmptyBody = newAPIError(http.StatusInternalServerError,
		"server_error", "No parameters could be found in request body. Did you correctly set the Content-Type header?")
)
