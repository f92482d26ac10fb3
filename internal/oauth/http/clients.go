package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/advancedlearning/oauthd/internal/oauth/domain"
	"github.com/advancedlearning/oauthd/internal/oauth/service"
	"github.com/advancedlearning/oauthd/pkg/httpx"
	"github.com/advancedlearning/oauthd/pkg/slogx"
)

// ClientsHandler administers client registrations.
type ClientsHandler struct {
	ClientService *service.ClientService
}

type createClientRequest struct {
	Name         string   `json:"name"`
	Grants       []string `json:"grants"`
	RedirectURIs []string `json:"redirect_uris"`
	Scopes       []string `json:"scopes"`
}

type clientResponse struct {
	Identifier   string    `json:"identifier"`
	Name         string    `json:"name"`
	Grants       []string  `json:"grants"`
	RedirectURIs []string  `json:"redirect_uris"`
	CreatedAt    time.Time `json:"created_at"`

	// Secret is only present on the creation response.
	Secret string `json:"secret,omitempty"`
}

func toClientResponse(c domain.Client) clientResponse {
	return clientResponse{
		Identifier:   c.Identifier,
		Name:         c.Name,
		Grants:       c.Grants,
		RedirectURIs: c.RedirectURIs,
		CreatedAt:    c.CreatedAt,
	}
}

func (h *ClientsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req createClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errInvalidRequest.Write(w)
		return
	}

	reg, err := h.ClientService.Register(ctx, req.Name, req.Grants, req.RedirectURIs, req.Scopes)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrClientNameRequired):
			errInvalidRequest.Write(w)
		case errors.Is(err, service.ErrInvalidScope):
			errInvalidScope.Write(w)
		default:
			log.Error("client registration failed", "err", err)
			errServerError.Write(w)
		}
		return
	}

	resp := toClientResponse(reg.Client)
	resp.Secret = reg.PlainSecret
	httpx.WriteJSON(w, http.StatusCreated, resp)
}

func (h *ClientsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	clients, err := h.ClientService.List(ctx)
	if err != nil {
		log.Error("client list failed", "err", err)
		errServerError.Write(w)
		return
	}

	out := make([]clientResponse, 0, len(clients))
	for _, c := range clients {
		out = append(out, toClientResponse(c))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"clients": out})
}

func (h *ClientsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	identifier := r.PathValue("id")
	if identifier == "" {
		errInvalidRequest.Write(w)
		return
	}

	if err := h.ClientService.Delete(ctx, identifier); err != nil {
		if errors.Is(err, service.ErrClientNotFound) {
			newAPIError(http.StatusNotFound, "not_found", "Client not found").Write(w)
			return
		}
		log.Error("client delete failed", "err", err)
		errServerError.Write(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type setClientScopesRequest struct {
	Scopes []string `json:"scopes"`
}

func (h *ClientsHandler) HandleSetScopes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	identifier := r.PathValue("id")
	if identifier == "" {
		errInvalidRequest.Write(w)
		return
	}

	var req setClientScopesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errInvalidRequest.Write(w)
		return
	}

	if err := h.ClientService.SetScopes(ctx, identifier, req.Scopes); err != nil {
		switch {
		case errors.Is(err, service.ErrClientNotFound):
			newAPIError(http.StatusNotFound, "not_found", "Client not found").Write(w)
		case errors.Is(err, service.ErrInvalidScope):
			errInvalidScope.Write(w)
		default:
			log.Error("client scope update failed", "err", err)
			errServerError.Write(w)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
