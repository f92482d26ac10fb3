package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/advancedlearning/oauthd/internal/oauth/domain"
	"github.com/advancedlearning/oauthd/internal/oauth/store"
)

var (
	ErrScopeNameRequired = errors.New("scope name required")
	ErrScopeExists       = errors.New("scope already exists")
	ErrScopeNotFound     = errors.New("scope not found")
)

// ScopeService administers the scope catalogue.
type ScopeService struct {
	Store store.Store
}

// Create registers a scope name. Names are opaque identifiers; the only rule
// is non-empty and free of whitespace, since scope lists travel
// space-delimited on the wire.
func (s *ScopeService) Create(ctx context.Context, name string) (domain.Scope, error) {
	if name == "" || strings.ContainsAny(name, " \t\n") {
		return domain.Scope{}, ErrScopeNameRequired
	}

	sc := domain.Scope{Name: name, CreatedAt: time.Now().UTC()}
	if err := s.Store.Scopes().CreateScope(ctx, sc); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Scope{}, ErrScopeExists
		}
		return domain.Scope{}, err
	}
	return sc, nil
}

func (s *ScopeService) List(ctx context.Context) ([]domain.Scope, error) {
	return s.Store.Scopes().ListScopes(ctx)
}

func (s *ScopeService) Delete(ctx context.Context, name string) error {
	err := s.Store.Scopes().DeleteScope(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return ErrScopeNotFound
	}
	return err
}
