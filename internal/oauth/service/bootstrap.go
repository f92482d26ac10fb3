package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"

	"github.com/advancedlearning/oauthd/pkg/slogx"
)

var (
	ErrBootstrapAlready      = errors.New("system already bootstrapped")
	ErrBootstrapUnauthorized = errors.New("unauthorized bootstrap attempt")
)

// BootstrapService creates the first client. Registration normally requires
// an admin-scoped token, and admin-scoped tokens require a client: this
// breaks the cycle, gated by a pre-configured shared token and only while
// the client table is empty.
type BootstrapService struct {
	Clients *ClientService
	Token   string
}

func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	empty, err := s.Clients.Store.Clients().IsEmpty(ctx)
	if err != nil {
		return false, err
	}
	return !empty, nil
}

// Bootstrap registers the first client. The returned secret is shown once.
func (s *BootstrapService) Bootstrap(
	ctx context.Context,
	token, name string,
	grants, scopeNames []string,
) (RegisteredClient, error) {
	l := slogx.FromContext(ctx)

	bootstrapped, err := s.IsBootstrapped(ctx)
	if err != nil {
		return RegisteredClient{}, err
	}
	if bootstrapped {
		l.Warn("bootstrap attempted on populated system")
		return RegisteredClient{}, ErrBootstrapAlready
	}

	if s.Token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(s.Token)) != 1 {
		l.Warn("unauthorized bootstrap attempt")
		return RegisteredClient{}, ErrBootstrapUnauthorized
	}

	reg, err := s.Clients.Register(ctx, name, grants, nil, scopeNames)
	if err != nil {
		return RegisteredClient{}, err
	}

	l.Info("system bootstrapped", slog.String("client_id", reg.Client.Identifier))
	return reg, nil
}
