package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/synapse/internal/auth/domain"
	"github.com/aussiebroadwan/synapse/internal/auth/service"
	"github.com/aussiebroadwan/synapse/pkg/cryptox"
	"github.com/aussiebroadwan/synapse/pkg/idx"
	"github.com/aussiebroadwan/synapse/pkg/jwtx"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestLogin_WithoutMFA(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.createUser(t, "alice@example.com")

	session, err := env.Auth.Login(ctx, "Alice@Example.com", testPassword, "")
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)
	require.Equal(t, "Bearer", session.TokenType)
	require.False(t, session.MFAVerified)
	require.Equal(t, u.ID, session.User.ID)
	require.True(t, env.Clock.Now().Add(env.Config.TokenTTL).Equal(session.ExpiresAt))

	claims, err := env.Tokens.VerifyToken(ctx, session.Token)
	require.NoError(t, err)
	require.Equal(t, u.ID, claims.Subject)
	require.False(t, claims.MFAVerified)
}

func TestLogin_UnknownEmailLooksLikeBadPassword(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createUser(t, "alice@example.com")

	_, err := env.Auth.Login(ctx, "nobody@example.com", testPassword, "")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = env.Auth.Login(ctx, "alice@example.com", "wrong", "")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestLogin_WrongPasswordCountsFailure(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.createUser(t, "alice@example.com")

	_, err := env.Auth.Login(ctx, "alice@example.com", "wrong", "")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)

	got := env.reload(t, u.ID)
	require.Equal(t, 1, got.FailedLoginAttempts)
	require.Nil(t, got.LockUntil)
}

func TestLogin_LocksAfterThreshold(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.createUser(t, "alice@example.com")
	threshold := env.Config.Lockout.Threshold

	for i := range threshold {
		_, err := env.Auth.Login(ctx, "alice@example.com", "wrong", "")
		require.ErrorIs(t, err, service.ErrInvalidCredentials, "attempt %d", i+1)
	}

	got := env.reload(t, u.ID)
	require.Equal(t, threshold, got.FailedLoginAttempts)
	require.NotNil(t, got.LockUntil)
	require.True(t, got.LockUntil.Equal(env.Clock.Now().Add(env.Config.Lockout.Duration)))

	// The correct password is refused while locked, and the counters stay put.
	_, err := env.Auth.Login(ctx, "alice@example.com", testPassword, "")
	require.ErrorIs(t, err, service.ErrAccountLocked)
	_, err = env.Auth.Login(ctx, "alice@example.com", "wrong", "")
	require.ErrorIs(t, err, service.ErrAccountLocked)
	require.Equal(t, threshold, env.reload(t, u.ID).FailedLoginAttempts)

	env.Clock.Advance(env.Config.Lockout.Duration)

	_, err = env.Auth.Login(ctx, "alice@example.com", testPassword, "")
	require.NoError(t, err)

	got = env.reload(t, u.ID)
	require.Zero(t, got.FailedLoginAttempts)
	require.Nil(t, got.LockUntil)
}

func TestLogin_ExpiredLockRestartsCount(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.createUser(t, "alice@example.com")

	for range env.Config.Lockout.Threshold {
		_, _ = env.Auth.Login(ctx, "alice@example.com", "wrong", "")
	}
	env.Clock.Advance(env.Config.Lockout.Duration + time.Minute)

	_, err := env.Auth.Login(ctx, "alice@example.com", "wrong", "")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)

	got := env.reload(t, u.ID)
	require.Equal(t, 1, got.FailedLoginAttempts)
	require.Nil(t, got.LockUntil)
}

func TestLogin_SuccessResetsCounter(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.createUser(t, "alice@example.com")

	for range env.Config.Lockout.Threshold - 1 {
		_, _ = env.Auth.Login(ctx, "alice@example.com", "wrong", "")
	}
	require.Equal(t, env.Config.Lockout.Threshold-1, env.reload(t, u.ID).FailedLoginAttempts)

	_, err := env.Auth.Login(ctx, "alice@example.com", testPassword, "")
	require.NoError(t, err)
	require.Zero(t, env.reload(t, u.ID).FailedLoginAttempts)
}

func TestLogin_MFARequiredLeavesCounter(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.createUser(t, "alice@example.com")
	env.enableMFA(t, u.ID)

	_, err := env.Auth.Login(ctx, "alice@example.com", "wrong", "")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)

	for range 3 {
		_, err = env.Auth.Login(ctx, "alice@example.com", testPassword, "  ")
		require.ErrorIs(t, err, service.ErrMFARequired)
	}
	require.Equal(t, 1, env.reload(t, u.ID).FailedLoginAttempts)
}

func TestLogin_ValidTOTP(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.createUser(t, "alice@example.com")
	setup := env.enableMFA(t, u.ID)

	_, err := env.Auth.Login(ctx, "alice@example.com", "wrong", "")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)

	session, err := env.Auth.Login(ctx, "alice@example.com", testPassword, env.totp(t, setup.Secret))
	require.NoError(t, err)
	require.True(t, session.MFAVerified)

	claims, err := env.Tokens.VerifyToken(ctx, session.Token)
	require.NoError(t, err)
	require.True(t, claims.MFAVerified)
	require.Equal(t, []string{jwtx.AMRPassword, jwtx.AMROTP, jwtx.AMRMFA}, claims.AMR)

	got := env.reload(t, u.ID)
	require.Zero(t, got.FailedLoginAttempts)
	require.Nil(t, got.LockUntil)
}

func TestLogin_InvalidMFACodeCountsFailure(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.createUser(t, "alice@example.com")
	env.enableMFA(t, u.ID)

	_, err := env.Auth.Login(ctx, "alice@example.com", testPassword, "000000")
	require.ErrorIs(t, err, service.ErrInvalidMFACode)
	require.Equal(t, 1, env.reload(t, u.ID).FailedLoginAttempts)

	// Enough bad codes lock the account like bad passwords do.
	for range env.Config.Lockout.Threshold - 1 {
		_, err = env.Auth.Login(ctx, "alice@example.com", testPassword, "000000")
		require.ErrorIs(t, err, service.ErrInvalidMFACode)
	}
	_, err = env.Auth.Login(ctx, "alice@example.com", testPassword, "000000")
	require.ErrorIs(t, err, service.ErrAccountLocked)
}

func TestLogin_BackupCodeIsSingleUse(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.createUser(t, "alice@example.com")
	setup := env.enableMFA(t, u.ID)
	code := setup.BackupCodes[0]

	session, err := env.Auth.Login(ctx, "alice@example.com", testPassword, code)
	require.NoError(t, err)
	require.True(t, session.MFAVerified)

	claims, err := env.Tokens.VerifyToken(ctx, session.Token)
	require.NoError(t, err)
	require.Equal(t, []string{jwtx.AMRPassword, jwtx.AMRMFA}, claims.AMR, "a backup code is not an otp")

	_, err = env.Auth.Login(ctx, "alice@example.com", testPassword, code)
	require.ErrorIs(t, err, service.ErrInvalidMFACode)

	n, err := env.Store.BackupCodes().CountUnusedBackupCodes(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, len(setup.BackupCodes)-1, n)
}

func TestLogin_BackupCodeIsNormalized(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.createUser(t, "alice@example.com")
	setup := env.enableMFA(t, u.ID)

	code := strings.ToLower(setup.BackupCodes[1][:5] + "-" + setup.BackupCodes[1][5:])
	_, err := env.Auth.Login(ctx, "alice@example.com", testPassword, code)
	require.NoError(t, err)
}

func TestLogin_ConcurrentBackupCodeSpendsOnce(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.createUser(t, "alice@example.com")
	setup := env.enableMFA(t, u.ID)

	const workers = 4
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.Auth.Login(ctx, "alice@example.com", testPassword, setup.BackupCodes[0])
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, successes)
}

func TestLogin_ConcurrentFailuresLockOnce(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.createUser(t, "alice@example.com")
	threshold := env.Config.Lockout.Threshold

	var wg sync.WaitGroup
	errs := make([]error, threshold+3)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = env.Auth.Login(ctx, "alice@example.com", "wrong", "")
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.Condition(t, func() bool {
			return errors.Is(err, service.ErrInvalidCredentials) || errors.Is(err, service.ErrAccountLocked)
		}, "unexpected error %v", err)
	}

	got := env.reload(t, u.ID)
	require.Equal(t, threshold, got.FailedLoginAttempts, "no failure is lost and none lands after the lock")
	require.NotNil(t, got.LockUntil)
}

func TestLogin_UpgradesLegacyBcryptHash(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	legacy, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	u := domain.User{
		ID:           idx.New().String(),
		Email:        "legacy@example.com",
		Username:     "legacy",
		PasswordHash: string(legacy),
		Preferences:  domain.DefaultPreferences(),
	}
	require.NoError(t, env.Store.Users().CreateUser(ctx, u))

	_, err = env.Auth.Login(ctx, "legacy@example.com", testPassword, "")
	require.NoError(t, err)

	got := env.reload(t, u.ID)
	require.False(t, cryptox.IsBcryptHash(got.PasswordHash))
	require.NoError(t, cryptox.VerifyPassword(testPassword, got.PasswordHash))

	_, err = env.Auth.Login(ctx, "legacy@example.com", testPassword, "")
	require.NoError(t, err)
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, withDenylist())
	u := env.createUser(t, "alice@example.com")
	setup := env.enableMFA(t, u.ID)

	session, err := env.Auth.Login(ctx, "alice@example.com", testPassword, env.totp(t, setup.Secret))
	require.NoError(t, err)
	claims, err := env.Tokens.VerifyToken(ctx, session.Token)
	require.NoError(t, err)

	env.Clock.Advance(time.Hour)
	refreshed, err := env.Auth.Refresh(ctx, claims)
	require.NoError(t, err)
	require.True(t, refreshed.MFAVerified)
	require.True(t, refreshed.ExpiresAt.After(session.ExpiresAt))

	_, err = env.Tokens.VerifyToken(ctx, session.Token)
	require.ErrorIs(t, err, service.ErrInvalidToken, "old token is revoked")

	_, err = env.Tokens.VerifyToken(ctx, refreshed.Token)
	require.NoError(t, err)
}

func TestRefresh_DropsMFAAfterDisable(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.createUser(t, "alice@example.com")
	setup := env.enableMFA(t, u.ID)

	session, err := env.Auth.Login(ctx, "alice@example.com", testPassword, env.totp(t, setup.Secret))
	require.NoError(t, err)
	claims, err := env.Tokens.VerifyToken(ctx, session.Token)
	require.NoError(t, err)
	require.True(t, claims.MFAVerified)

	refreshed, err := env.Auth.Refresh(ctx, claims)
	require.NoError(t, err)
	require.True(t, refreshed.MFAVerified)
	kept, err := env.Tokens.VerifyToken(ctx, refreshed.Token)
	require.NoError(t, err)
	require.Equal(t, []string{jwtx.AMRPassword, jwtx.AMROTP, jwtx.AMRMFA}, kept.AMR)

	require.NoError(t, env.MFA.Disable(ctx, u.ID, env.totp(t, setup.Secret)))

	refreshed, err = env.Auth.Refresh(ctx, kept)
	require.NoError(t, err)
	require.False(t, refreshed.MFAVerified)

	dropped, err := env.Tokens.VerifyToken(ctx, refreshed.Token)
	require.NoError(t, err)
	require.False(t, dropped.MFAVerified)
	require.Equal(t, []string{jwtx.AMRPassword}, dropped.AMR)
}

func TestVerify_DeletedUser(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, claims, err := env.Tokens.Issue("ghost", false, env.Clock.Now())
	require.NoError(t, err)

	_, err = env.Auth.Verify(ctx, claims)
	require.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()

	t.Run("stateless tokens survive logout", func(t *testing.T) {
		env := newTestEnv(t)
		env.createUser(t, "alice@example.com")

		session, err := env.Auth.Login(ctx, "alice@example.com", testPassword, "")
		require.NoError(t, err)
		claims, err := env.Tokens.VerifyToken(ctx, session.Token)
		require.NoError(t, err)

		require.NoError(t, env.Auth.Logout(ctx, claims))
		_, err = env.Tokens.VerifyToken(ctx, session.Token)
		require.NoError(t, err)
	})

	t.Run("denylist revokes", func(t *testing.T) {
		env := newTestEnv(t, withDenylist())
		env.createUser(t, "alice@example.com")

		session, err := env.Auth.Login(ctx, "alice@example.com", testPassword, "")
		require.NoError(t, err)
		claims, err := env.Tokens.VerifyToken(ctx, session.Token)
		require.NoError(t, err)

		require.NoError(t, env.Auth.Logout(ctx, claims))
		_, err = env.Tokens.VerifyToken(ctx, session.Token)
		require.ErrorIs(t, err, service.ErrInvalidToken)
	})
}
