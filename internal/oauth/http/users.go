package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/advancedlearning/oauthd/internal/oauth/service"
	"github.com/advancedlearning/oauthd/pkg/httpx"
	"github.com/advancedlearning/oauthd/pkg/slogx"
)

// UsersHandler administers resource owners and groups.
type UsersHandler struct {
	UserService *service.UserService
}

type createUserRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

func (h *UsersHandler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errInvalidRequest.Write(w)
		return
	}

	u, err := h.UserService.CreateUser(ctx, req.Identifier, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserRequired):
			errInvalidRequest.Write(w)
		case errors.Is(err, service.ErrUserExists):
			newAPIError(http.StatusConflict, "conflict", "User already exists").Write(w)
		default:
			log.Error("user create failed", "err", err)
			errServerError.Write(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"id":         u.ID,
		"identifier": u.Identifier,
	})
}

type createGroupRequest struct {
	Title  string   `json:"title"`
	Scopes []string `json:"scopes"`
}

func (h *UsersHandler) HandleCreateGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
		errInvalidRequest.Write(w)
		return
	}

	g, err := h.UserService.CreateGroup(ctx, req.Title, req.Scopes)
	if err != nil {
		log.Error("group create failed", "err", err)
		errServerError.Write(w)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"id":     g.ID,
		"title":  g.Title,
		"scopes": g.Scopes,
	})
}

type addMemberRequest struct {
	UserID string `json:"user_id"`
}

func (h *UsersHandler) HandleAddMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	groupID := r.PathValue("id")

	var req addMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" || groupID == "" {
		errInvalidRequest.Write(w)
		return
	}

	if err := h.UserService.AddToGroup(ctx, req.UserID, groupID); err != nil {
		log.Error("group membership update failed", "err", err)
		errServerError.Write(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type setGroupScopesRequest struct {
	Scopes []string `json:"scopes"`
}

func (h *UsersHandler) HandleSetGroupScopes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	groupID := r.PathValue("id")
	if groupID == "" {
		errInvalidRequest.Write(w)
		return
	}

	var req setGroupScopesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errInvalidRequest.Write(w)
		return
	}

	if err := h.UserService.SetGroupScopes(ctx, groupID, req.Scopes); err != nil {
		if errors.Is(err, service.ErrScopeNotFound) {
			newAPIError(http.StatusNotFound, "not_found", "Group not found").Write(w)
			return
		}
		log.Error("group scope update failed", "err", err)
		errServerError.Write(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
