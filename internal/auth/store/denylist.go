package store

import (
	"context"
	"time"

	"github.com/aussiebroadwan/synapse/internal/auth/domain"
	"github.com/aussiebroadwan/synapse/pkg/cryptox"
)

// Denylist records revoked session token ids until the tokens expire.
type Denylist interface {
	Revoke(ctx context.Context, jti, userID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// SQLDenylist adapts the RevokedTokens repo to the Denylist interface. Token
// ids are stored by fingerprint.
type SQLDenylist struct {
	store Store
	now   func() time.Time
}

func NewSQLDenylist(s Store) *SQLDenylist {
	return &SQLDenylist{store: s, now: time.Now}
}

func (d *SQLDenylist) Revoke(ctx context.Context, jti, userID string, expiresAt time.Time) error {
	return d.store.RevokedTokens().RevokeToken(ctx, domain.RevokedToken{
		JTIHash:   cryptox.FingerprintToken(jti),
		UserID:    userID,
		ExpiresAt: expiresAt,
		RevokedAt: d.now(),
	})
}

func (d *SQLDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return d.store.RevokedTokens().IsTokenRevoked(ctx, cryptox.FingerprintToken(jti))
}
