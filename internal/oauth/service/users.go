package service

import (
	"context"
	"errors"
	"time"

	"github.com/advancedlearning/oauthd/internal/oauth/domain"
	"github.com/advancedlearning/oauthd/internal/oauth/store"
	"github.com/advancedlearning/oauthd/pkg/cryptox"
	"github.com/advancedlearning/oauthd/pkg/idx"
)

var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserRequired = errors.New("user identifier and password required")
)

// UserService administers resource owners and the groups that carry their
// scope entitlements.
type UserService struct {
	Store store.Store
}

func (s *UserService) CreateUser(ctx context.Context, identifier, password string) (domain.User, error) {
	if identifier == "" || password == "" {
		return domain.User{}, ErrUserRequired
	}

	hash, err := cryptox.HashSecret(password)
	if err != nil {
		return domain.User{}, err
	}

	now := time.Now().UTC()
	u := domain.User{
		ID:           idx.New().String(),
		Identifier:   identifier,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrUserExists
		}
		return domain.User{}, err
	}
	return u, nil
}

func (s *UserService) CreateGroup(ctx context.Context, title string, scopes []string) (domain.Group, error) {
	g := domain.Group{
		ID:        idx.New().String(),
		Title:     title,
		Scopes:    scopes,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Store.Groups().CreateGroup(ctx, g); err != nil {
		return domain.Group{}, err
	}
	return g, nil
}

func (s *UserService) AddToGroup(ctx context.Context, userID, groupID string) error {
	return s.Store.Groups().AddMember(ctx, userID, groupID)
}

func (s *UserService) SetGroupScopes(ctx context.Context, groupID string, scopes []string) error {
	return s.Store.Groups().UpdateGroupScopes(ctx, groupID, scopes)
}
