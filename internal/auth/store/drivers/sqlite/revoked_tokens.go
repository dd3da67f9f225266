package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/synapse/internal/auth/domain"
)

type revokedTokensRepo struct {
	db dbtx
}

func (r *revokedTokensRepo) RevokeToken(ctx context.Context, t domain.RevokedToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO revoked_tokens (jti_hash, user_id, expires_at, revoked_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (jti_hash) DO NOTHING`,
		t.JTIHash,
		t.UserID,
		unixTime(t.ExpiresAt),
		unixTime(t.RevokedAt),
	)
	return err
}

func (r *revokedTokensRepo) IsTokenRevoked(ctx context.Context, jtiHash string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti_hash = ?)`,
		jtiHash,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *revokedTokensRepo) DeleteExpiredRevokedTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM revoked_tokens WHERE expires_at < ?`,
		unixTime(now),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
