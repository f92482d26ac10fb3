package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/advancedlearning/oauthd/internal/oauth/service"
	"github.com/advancedlearning/oauthd/pkg/httpx"
	"github.com/advancedlearning/oauthd/pkg/slogx"
)

// ScopesHandler administers the scope catalogue.
type ScopesHandler struct {
	ScopeService *service.ScopeService
}

type createScopeRequest struct {
	Name string `json:"name"`
}

func (h *ScopesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req createScopeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errInvalidRequest.Write(w)
		return
	}

	sc, err := h.ScopeService.Create(ctx, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrScopeNameRequired):
			errInvalidRequest.Write(w)
		case errors.Is(err, service.ErrScopeExists):
			newAPIError(http.StatusConflict, "conflict", "Scope already exists").Write(w)
		default:
			log.Error("scope create failed", "err", err)
			errServerError.Write(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"name":       sc.Name,
		"created_at": sc.CreatedAt,
	})
}

func (h *ScopesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	scopes, err := h.ScopeService.List(ctx)
	if err != nil {
		log.Error("scope list failed", "err", err)
		errServerError.Write(w)
		return
	}

	names := make([]string, 0, len(scopes))
	for _, s := range scopes {
		names = append(names, s.Name)
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"scopes": names})
}

func (h *ScopesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	name := r.PathValue("name")
	if name == "" {
		errInvalidRequest.Write(w)
		return
	}

	if err := h.ScopeService.Delete(ctx, name); err != nil {
		if errors.Is(err, service.ErrScopeNotFound) {
			newAPIError(http.StatusNotFound, "not_found", "Scope not found").Write(w)
			return
		}
		log.Error("scope delete failed", "err", err)
		errServerError.Write(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
