package service

import (
	"context"
	"errors"

	"github.com/advancedlearning/oauthd/internal/oauth/store"
)

// ScopeResolver turns the scope list a client asked for into the scope list
// a token actually carries.
//
// Resolution happens in two stages. Requested names that the server does not
// know are dropped silently, then the surviving names are filtered by the
// client's entitlement. When a resource owner is part of the grant the client
// filter's output is discarded and the final set is recomputed from the known
// names against the user alone: group membership is the sole authority on
// what a user-facing token may carry.
type ScopeResolver struct {
	Scopes store.Scopes
}

// Resolve computes the final scope set. user may be nil for machine grants.
// An empty request resolves to an empty grant, never a default set.
func (r *ScopeResolver) Resolve(
	ctx context.Context,
	requested []string,
	client Principal,
	user Principal,
) ([]string, error) {
	if len(requested) == 0 {
		return nil, nil
	}

	known := make([]string, 0, len(requested))
	seen := make(map[string]struct{}, len(requested))
	for _, name := range requested {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		if _, err := r.Scopes.GetScopeByName(ctx, name); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		known = append(known, name)
	}

	granted, err := filterByPrincipal(ctx, known, client)
	if err != nil {
		return nil, err
	}

	if user != nil {
		// Start over from the known names; the client filter does not
		// pre-narrow a user grant.
		granted, err = filterByPrincipal(ctx, known, user)
		if err != nil {
			return nil, err
		}
	}

	return granted, nil
}

func filterByPrincipal(ctx context.Context, names []string, p Principal) ([]string, error) {
	out := make([]string, 0, len(names))
	for _, name := range names {
		ok, err := p.HasScope(ctx, name)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, name)
		}
	}
	return out, nil
}
