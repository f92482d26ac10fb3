package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/advancedlearning/oauthd/internal/oauth/domain"
	"github.com/advancedlearning/oauthd/internal/oauth/store"
	"github.com/advancedlearning/oauthd/pkg/cryptox"
	"github.com/advancedlearning/oauthd/pkg/slogx"
)

// ClientAuthenticator verifies client credentials. Every failure mode maps to
// ErrInvalidClient so callers cannot distinguish an unknown identifier from a
// wrong secret.
type ClientAuthenticator struct {
	Clients store.Clients
}

// Authenticate loads the client and checks the secret. Clients without a
// stored secret hash are public and authenticate by identifier alone.
func (a *ClientAuthenticator) Authenticate(ctx context.Context, identifier, secret string) (domain.Client, error) {
	l := slogx.FromContext(ctx)

	c, err := a.Clients.GetClientByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Client{}, ErrInvalidClient
		}
		return domain.Client{}, err
	}

	if c.SecretHash == "" {
		return c, nil
	}

	if err := cryptox.VerifySecret(secret, c.SecretHash); err != nil {
		l.Info("client secret verification failed", slog.String("client_id", identifier))
		return domain.Client{}, ErrInvalidClient
	}

	return c, nil
}

// UserAuthenticator verifies resource owner credentials for the password
// grant.
type UserAuthenticator struct {
	Users store.Users
}

func (a *UserAuthenticator) Authenticate(ctx context.Context, identifier, password string) (domain.User, error) {
	l := slogx.FromContext(ctx)

	u, err := a.Users.GetUserByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}

	if err := cryptox.VerifySecret(password, u.PasswordHash); err != nil {
		l.Info("user password verification failed", slog.String("user", identifier))
		return domain.User{}, ErrInvalidCredentials
	}

	return u, nil
}
