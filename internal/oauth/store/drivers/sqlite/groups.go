package sqlite

import (
	"context"
	"strings"

	"github.com/advancedlearning/oauthd/internal/oauth/domain"
	"github.com/advancedlearning/oauthd/internal/oauth/store"
)

type groupsRepo struct {
	db dbtx
}

func (r *groupsRepo) CreateGroup(ctx context.Context, g domain.Group) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_groups (id, title, scopes, created_at) VALUES (?, ?, ?, ?)`,
		g.ID, g.Title, strings.Join(g.Scopes, " "), g.CreatedAt)
	if err != nil && isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *groupsRepo) AddMember(ctx context.Context, userID, groupID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO group_members (user_id, group_id) VALUES (?, ?)`,
		userID, groupID)
	return err
}

func (r *groupsRepo) UpdateGroupScopes(ctx context.Context, groupID string, scopes []string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE user_groups SET scopes = ? WHERE id = ?`,
		strings.Join(scopes, " "), groupID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
