package sqlite

import (
	"context"

	"github.com/advancedlearning/oauthd/internal/oauth/domain"
	"github.com/advancedlearning/oauthd/internal/oauth/store"
)

type scopesRepo struct {
	db dbtx
}

func (r *scopesRepo) GetScopeByName(ctx context.Context, name string) (domain.Scope, error) {
	var s domain.Scope
	err := r.db.QueryRowContext(ctx,
		`SELECT name, created_at FROM scopes WHERE name = ?`, name).
		Scan(&s.Name, &s.CreatedAt)
	if err != nil {
		return domain.Scope{}, mapNotFound(err)
	}
	return s, nil
}

func (r *scopesRepo) ListScopes(ctx context.Context) ([]domain.Scope, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, created_at FROM scopes ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Scope
	for rows.Next() {
		var s domain.Scope
		if err := rows.Scan(&s.Name, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *scopesRepo) CreateScope(ctx context.Context, s domain.Scope) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO scopes (name, created_at) VALUES (?, ?)`, s.Name, s.CreatedAt)
	if err != nil && isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *scopesRepo) DeleteScope(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM scopes WHERE name = ?`, name)
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
