package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/synapse/internal/auth/domain"
	"github.com/aussiebroadwan/synapse/internal/auth/lockout"
	"github.com/aussiebroadwan/synapse/internal/auth/store"
	"github.com/aussiebroadwan/synapse/pkg/cryptox"
	"github.com/aussiebroadwan/synapse/pkg/jwtx"
	"github.com/aussiebroadwan/synapse/pkg/slogx"
)

// maxLockoutSwaps bounds the compare-and-swap loop on the failure counter.
const maxLockoutSwaps = 16

// AuthService runs the login state machine and the session-token lifecycle.
type AuthService struct {
	Store  store.Store
	Tokens *TokenService
	MFA    *MFAService
	Config Config
	Now    func() time.Time
}

// Login checks email and password, the lockout state and, when the account
// has MFA enabled, the second factor. mfaCode may be a TOTP code or a backup
// code.
//
// Omitting mfaCode on an MFA account returns ErrMFARequired and leaves the
// failure counter alone. A wrong password or a wrong code both count as a
// failed attempt.
func (s *AuthService) Login(ctx context.Context, email, password, mfaCode string) (domain.Session, error) {
	now := clock(s.Now)
	l := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			cryptox.EqualizeTiming(password)
			l.Info("login failed", slog.String("reason", "unknown_email"))
			return domain.Session{}, ErrInvalidCredentials
		}
		return domain.Session{}, fmt.Errorf("load user: %w", err)
	}

	if lockout.IsLocked(lockoutState(user), now) {
		l.Info("login rejected", slog.String("user_id", user.ID), slog.String("reason", "locked"))
		return domain.Session{}, ErrAccountLocked
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			return domain.Session{}, fmt.Errorf("verify password for %s: %w", user.ID, err)
		}
		if err := s.recordFailure(ctx, user, now); err != nil {
			return domain.Session{}, err
		}
		l.Info("login failed", slog.String("user_id", user.ID), slog.String("reason", "bad_password"))
		return domain.Session{}, ErrInvalidCredentials
	}

	mfaVerified := false
	var methods []string
	if user.MFAEnabled() {
		if strings.TrimSpace(mfaCode) == "" {
			return domain.Session{}, ErrMFARequired
		}
		factor, err := s.MFA.VerifyLoginFactor(ctx, user, mfaCode, now)
		if err != nil {
			return domain.Session{}, err
		}
		if factor == domain.MFAFactorNone {
			if err := s.recordFailure(ctx, user, now); err != nil {
				return domain.Session{}, err
			}
			l.Info("login failed", slog.String("user_id", user.ID), slog.String("reason", "bad_mfa_code"))
			return domain.Session{}, ErrInvalidMFACode
		}
		mfaVerified = true
		if factor == domain.MFAFactorTOTP {
			methods = append(methods, jwtx.AMROTP)
		}
	}

	ok, err := s.Store.Users().ResetLockout(ctx, user.ID, now)
	if err != nil {
		return domain.Session{}, fmt.Errorf("reset lockout: %w", err)
	}
	if !ok {
		// A concurrent attempt locked the account after our check.
		return domain.Session{}, ErrAccountLocked
	}
	user.FailedLoginAttempts = 0
	user.LockUntil = nil

	s.upgradeLegacyHash(ctx, user, password, now)

	session, err := s.issue(user, mfaVerified, now, methods...)
	if err != nil {
		return domain.Session{}, err
	}
	l.Info("login succeeded", slog.String("user_id", user.ID), slog.Bool("mfa_verified", mfaVerified))
	return session, nil
}

// Refresh reissues the session carried by claims without re-checking the
// password. The MFA flag carries over only while the account still has MFA
// enabled. The old token is revoked when revocation is available.
func (s *AuthService) Refresh(ctx context.Context, claims jwtx.Claims) (domain.Session, error) {
	now := clock(s.Now)

	user, err := s.sessionUser(ctx, claims)
	if err != nil {
		return domain.Session{}, err
	}

	mfaVerified := claims.MFAVerified && user.MFAEnabled()
	var methods []string
	if mfaVerified {
		methods = claims.FactorMethods()
	}

	session, err := s.issue(user, mfaVerified, now, methods...)
	if err != nil {
		return domain.Session{}, err
	}

	if err := s.Tokens.Revoke(ctx, claims); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// Verify returns the user behind a validated session.
func (s *AuthService) Verify(ctx context.Context, claims jwtx.Claims) (domain.User, error) {
	return s.sessionUser(ctx, claims)
}

// Logout revokes the session token. Without a denylist the client simply
// discards it.
func (s *AuthService) Logout(ctx context.Context, claims jwtx.Claims) error {
	return s.Tokens.Revoke(ctx, claims)
}

func (s *AuthService) sessionUser(ctx context.Context, claims jwtx.Claims) (domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrInvalidToken
		}
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func (s *AuthService) issue(user domain.User, mfaVerified bool, now time.Time, methods ...string) (domain.Session, error) {
	token, claims, err := s.Tokens.Issue(user.ID, mfaVerified, now, methods...)
	if err != nil {
		return domain.Session{}, err
	}
	return domain.Session{
		Token:       token,
		TokenType:   "Bearer",
		ExpiresAt:   claims.Expiry(),
		ExpiresIn:   s.Tokens.TTL,
		MFAVerified: mfaVerified,
		User:        user,
	}, nil
}

// recordFailure applies one failed attempt to the stored counter with a
// compare-and-swap, reloading on conflict. Once a concurrent request has
// locked the account nothing more is written.
func (s *AuthService) recordFailure(ctx context.Context, user domain.User, now time.Time) error {
	l := slogx.FromContext(ctx)
	current := lockoutState(user)

	for range maxLockoutSwaps {
		if lockout.IsLocked(current, now) {
			return nil
		}

		next := s.Config.Lockout.RecordFailure(current, now)
		ok, err := s.Store.Users().SwapLockoutState(ctx, user.ID, current, next, now)
		if err != nil {
			return fmt.Errorf("record failed attempt: %w", err)
		}
		if ok {
			if lockout.IsLocked(next, now) {
				l.Warn("account locked",
					slog.String("user_id", user.ID),
					slog.Int("failed_attempts", next.FailedAttempts),
				)
			}
			return nil
		}

		fresh, err := s.Store.Users().GetUserByID(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("reload lockout state: %w", err)
		}
		current = lockoutState(fresh)
	}
	return fmt.Errorf("record failed attempt for %s: too much contention", user.ID)
}

// upgradeLegacyHash rehashes an imported bcrypt password with argon2id.
// Failures are logged and never fail the login.
func (s *AuthService) upgradeLegacyHash(ctx context.Context, user domain.User, password string, now time.Time) {
	if !cryptox.IsBcryptHash(user.PasswordHash) {
		return
	}
	l := slogx.FromContext(ctx)

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		l.Warn("failed to rehash legacy password", slog.String("user_id", user.ID), slog.Any("error", err))
		return
	}
	if _, err := s.Store.Users().UpgradePasswordHash(ctx, user.ID, user.PasswordHash, hash, now); err != nil {
		l.Warn("failed to store upgraded password hash", slog.String("user_id", user.ID), slog.Any("error", err))
		return
	}
	l.Info("upgraded legacy password hash", slog.String("user_id", user.ID))
}

func lockoutState(u domain.User) lockout.State {
	return lockout.State{FailedAttempts: u.FailedLoginAttempts, LockUntil: u.LockUntil}
}
