package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/advancedlearning/oauthd/internal/oauth/domain"
	"github.com/advancedlearning/oauthd/internal/oauth/store"
	"github.com/advancedlearning/oauthd/pkg/cryptox"
	"github.com/advancedlearning/oauthd/pkg/idx"
	"github.com/advancedlearning/oauthd/pkg/slogx"
)

var (
	ErrClientNameRequired = errors.New("client name required")
	ErrClientNotFound     = errors.New("client not found")
)

// RegisteredClient is the one-time registration result. PlainSecret is shown
// here and never again; only its hash is persisted.
type RegisteredClient struct {
	Client      domain.Client
	PlainSecret string
}

// ClientService administers client registrations.
type ClientService struct {
	Store store.Store
}

// Register creates a client with a generated identifier and secret. Grants
// and redirect URIs are stored as given; redirect URI segments are never
// trimmed or normalised.
func (s *ClientService) Register(
	ctx context.Context,
	name string,
	grants, redirectURIs []string,
	scopeNames []string,
) (RegisteredClient, error) {
	l := slogx.FromContext(ctx)
	now := time.Now().UTC()

	if strings.TrimSpace(name) == "" {
		return RegisteredClient{}, ErrClientNameRequired
	}

	secret, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return RegisteredClient{}, err
	}
	secretHash, err := cryptox.HashSecret(secret)
	if err != nil {
		return RegisteredClient{}, err
	}

	c := domain.Client{
		Identifier:   idx.New().String(),
		Name:         name,
		SecretHash:   secretHash,
		Grants:       grants,
		RedirectURIs: redirectURIs,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Clients().CreateClient(ctx, c); err != nil {
			return err
		}
		if len(scopeNames) > 0 {
			return tx.Clients().SetClientScopes(ctx, c.Identifier, scopeNames)
		}
		return nil
	})
	if err != nil {
		return RegisteredClient{}, err
	}

	l.Info("client registered",
		slog.String("client_id", c.Identifier),
		slog.String("name", c.Name),
	)

	return RegisteredClient{Client: c, PlainSecret: secret}, nil
}

func (s *ClientService) List(ctx context.Context) ([]domain.Client, error) {
	return s.Store.Clients().ListClients(ctx)
}

func (s *ClientService) Delete(ctx context.Context, identifier string) error {
	err := s.Store.Clients().DeleteClient(ctx, identifier)
	if errors.Is(err, store.ErrNotFound) {
		return ErrClientNotFound
	}
	return err
}

// SetScopes replaces the client-scope relation. Unknown scope names are
// rejected rather than silently dropped; administration is explicit where
// grant-time resolution is forgiving.
func (s *ClientService) SetScopes(ctx context.Context, identifier string, scopeNames []string) error {
	if _, err := s.Store.Clients().GetClientByIdentifier(ctx, identifier); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrClientNotFound
		}
		return err
	}

	for _, name := range scopeNames {
		if _, err := s.Store.Scopes().GetScopeByName(ctx, name); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidScope
			}
			return err
		}
	}

	return s.Store.Clients().SetClientScopes(ctx, identifier, scopeNames)
}
