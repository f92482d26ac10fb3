package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/advancedlearning/oauthd/internal/oauth/domain"
	"github.com/advancedlearning/oauthd/internal/oauth/store"
)

type tokensRepo struct {
	db dbtx
}

func (r *tokensRepo) RecordToken(ctx context.Context, t domain.AccessTokenRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO access_tokens (id, subject_id, client_id, scopes, issued_at, expires_at, revoked)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.SubjectID, t.ClientID, strings.Join(t.Scopes, " "),
		t.IssuedAt, t.ExpiresAt, boolToInt(t.Revoked))
	if err != nil && isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// IsRevoked treats unknown ids as not revoked: signature verification already
// proves the server issued the token, and expired rows get garbage collected.
func (r *tokensRepo) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	var revoked int
	err := r.db.QueryRowContext(ctx,
		`SELECT revoked FROM access_tokens WHERE id = ?`, tokenID).Scan(&revoked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return revoked != 0, nil
}

func (r *tokensRepo) RevokeToken(ctx context.Context, tokenID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE access_tokens SET revoked = 1 WHERE id = ?`, tokenID)
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

func (r *tokensRepo) DeleteExpiredTokens(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM access_tokens WHERE expires_at <= ?`, time.Now().UTC())
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
