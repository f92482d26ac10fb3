package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/advancedlearning/oauthd/internal/oauth/service"
	"github.com/advancedlearning/oauthd/pkg/httpx"
	"github.com/advancedlearning/oauthd/pkg/slogx"
)

// BootstrapHandler creates the first client on an empty system, gated by the
// pre-shared bootstrap token.
type BootstrapHandler struct {
	BootstrapService *service.BootstrapService
}

type bootstrapRequest struct {
	Token  string   `json:"token"`
	Name   string   `json:"name"`
	Grants []string `json:"grants"`
	Scopes []string `json:"scopes"`
}

func (h *BootstrapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req bootstrapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errInvalidRequest.Write(w)
		return
	}

	reg, err := h.BootstrapService.Bootstrap(ctx, req.Token, req.Name, req.Grants, req.Scopes)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBootstrapAlready):
			newAPIError(http.StatusConflict, "conflict", "System already bootstrapped").Write(w)
		case errors.Is(err, service.ErrBootstrapUnauthorized):
			errUnauthorized.Write(w)
		case errors.Is(err, service.ErrClientNameRequired):
			errInvalidRequest.Write(w)
		default:
			log.Error("bootstrap failed", "err", err)
			errServerError.Write(w)
		}
		return
	}

	resp := toClientResponse(reg.Client)
	resp.Secret = reg.PlainSecret
	httpx.WriteJSON(w, http.StatusCreated, resp)
}
