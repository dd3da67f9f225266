package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/synapse/internal/auth/store"
	"github.com/aussiebroadwan/synapse/pkg/httpx"
	"github.com/aussiebroadwan/synapse/pkg/jwtx"
	"github.com/aussiebroadwan/synapse/pkg/slogx"
)

// TokenService issues and checks session tokens. Tokens are self-contained;
// when a Denylist is configured, revoked token ids are rejected until the
// token would have expired anyway.
type TokenService struct {
	Signer   jwtx.Signer
	Verifier jwtx.Verifier
	Denylist store.Denylist // nil means tokens cannot be revoked
	Issuer   string
	TTL      time.Duration
}

// Issue signs a session token for userID. methods are the amr entries of
// the second factor that was used, if any.
func (s *TokenService) Issue(userID string, mfaVerified bool, now time.Time, methods ...string) (string, jwtx.Claims, error) {
	claims := jwtx.NewSessionClaims(userID, mfaVerified, s.TTL, s.Issuer, now, methods...)
	token, err := s.Signer.Sign(claims)
	if err != nil {
		return "", jwtx.Claims{}, fmt.Errorf("sign session token: %w", err)
	}
	return token, claims, nil
}

// VerifyToken validates signature, issuer, expiry and revocation. Every
// rejection wraps ErrInvalidToken and httpx.ErrTokenRejected; other errors
// mean the denylist failed.
func (s *TokenService) VerifyToken(ctx context.Context, raw string) (jwtx.Claims, error) {
	claims, err := s.Verifier.Verify(raw)
	if err != nil {
		return jwtx.Claims{}, rejectToken(err)
	}

	if s.Denylist != nil && claims.ID != "" {
		revoked, err := s.Denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			return jwtx.Claims{}, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return jwtx.Claims{}, rejectToken(errors.New("revoked"))
		}
	}
	return claims, nil
}

// Revoke denylists the token until it expires. Without a denylist it does
// nothing and the token stays valid until exp.
func (s *TokenService) Revoke(ctx context.Context, claims jwtx.Claims) error {
	if s.Denylist == nil {
		return nil
	}
	if claims.ID == "" {
		return errors.New("revoke: token has no jti")
	}
	if err := s.Denylist.Revoke(ctx, claims.ID, claims.Subject, claims.Expiry()); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	slogx.FromContext(ctx).Info("session token revoked", slog.String("user_id", claims.Subject))
	return nil
}

func rejectToken(reason error) error {
	return fmt.Errorf("%w: %w: %w", ErrInvalidToken, httpx.ErrTokenRejected, reason)
}

// Revocable reports whether Revoke has any effect.
func (s *TokenService) Revocable() bool { return s.Denylist != nil }
