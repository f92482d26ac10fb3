package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/advancedlearning/oauthd/internal/oauth/domain"
	"github.com/advancedlearning/oauthd/internal/oauth/store"
)

type clientsRepo struct {
	db dbtx
}

const clientColumns = `identifier, name, secret_hash, grants, redirect_uris, created_at, updated_at`

func scanClient(row interface{ Scan(...any) error }) (domain.Client, error) {
	var (
		c          domain.Client
		secretHash sql.NullString
		grants     string
		redirects  string
	)
	err := row.Scan(&c.Identifier, &c.Name, &secretHash, &grants, &redirects, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return domain.Client{}, err
	}
	c.SecretHash = mapNullString(secretHash)
	c.Grants = domain.SplitList(grants)
	c.RedirectURIs = domain.SplitList(redirects)
	return c, nil
}

func (r *clientsRepo) GetClientByIdentifier(ctx context.Context, identifier string) (domain.Client, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE identifier = ?`, identifier)

	c, err := scanClient(row)
	if err != nil {
		return domain.Client{}, mapNotFound(err)
	}
	return c, nil
}

func (r *clientsRepo) ListClients(ctx context.Context) ([]domain.Client, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+clientColumns+` FROM clients ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *clientsRepo) CreateClient(ctx context.Context, c domain.Client) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO clients (identifier, name, secret_hash, grants, redirect_uris, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.Identifier, c.Name, mapStringNull(c.SecretHash),
		domain.JoinList(c.Grants), domain.JoinList(c.RedirectURIs),
		c.CreatedAt, c.UpdatedAt)
	if err != nil && isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *clientsRepo) DeleteClient(ctx context.Context, identifier string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM clients WHERE identifier = ?`, identifier)
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

func (r *clientsRepo) ClientHasScope(ctx context.Context, identifier, scopeName string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM client_scopes WHERE client_identifier = ? AND scope_name = ?`,
		identifier, scopeName).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *clientsRepo) SetClientScopes(ctx context.Context, identifier string, scopeNames []string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM client_scopes WHERE client_identifier = ?`, identifier); err != nil {
		return err
	}
	for _, name := range scopeNames {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO client_scopes (client_identifier, scope_name) VALUES (?, ?)`,
			identifier, name); err != nil {
			return err
		}
	}
	return nil
}

func (r *clientsRepo) IsEmpty(ctx context.Context) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM clients`).Scan(&n); err != nil {
		return false, err
	}
	return n == 0, nil
}

// isUniqueViolation sniffs the driver error text; modernc.org/sqlite does not
// export typed constraint errors at a stable API surface.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
