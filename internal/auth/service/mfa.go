package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/synapse/internal/auth/domain"
	"github.com/aussiebroadwan/synapse/internal/auth/store"
	"github.com/aussiebroadwan/synapse/pkg/cryptox"
	"github.com/aussiebroadwan/synapse/pkg/otpx"
	"github.com/aussiebroadwan/synapse/pkg/slogx"
)

type MFAService struct {
	Store  store.Store
	Config Config
	Now    func() time.Time
}

// Setup generates a new pending secret and backup code set for the user,
// replacing any earlier pending setup. The plaintext codes are only ever
// returned here.
func (s *MFAService) Setup(ctx context.Context, userID string) (domain.MFASetup, error) {
	now := clock(s.Now)

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return domain.MFASetup{}, err
	}
	if user.MFAEnabled() {
		return domain.MFASetup{}, ErrMFAAlreadyEnabled
	}

	secret, err := otpx.GenerateSecret()
	if err != nil {
		return domain.MFASetup{}, err
	}
	uri, err := otpx.ProvisioningURI(secret, user.Email, s.Config.MFAIssuer)
	if err != nil {
		return domain.MFASetup{}, err
	}
	qr, err := otpx.QRCodeDataURL(uri, otpx.DefaultQRSize)
	if err != nil {
		return domain.MFASetup{}, err
	}
	codes, err := otpx.GenerateBackupCodes(s.Config.BackupCodeCount)
	if err != nil {
		return domain.MFASetup{}, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		ok, err := tx.Users().SetPendingMFASecret(ctx, userID, secret, now)
		if err != nil {
			return fmt.Errorf("store pending secret: %w", err)
		}
		if !ok {
			return ErrMFAAlreadyEnabled
		}
		if err := tx.BackupCodes().ReplaceBackupCodes(ctx, userID, hashBackupCodes(codes), now); err != nil {
			return fmt.Errorf("store backup codes: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.MFASetup{}, err
	}

	slogx.FromContext(ctx).Info("mfa setup started", slog.String("user_id", userID))

	return domain.MFASetup{
		Secret:          secret,
		ProvisioningURI: uri,
		QRCode:          qr,
		BackupCodes:     codes,
	}, nil
}

// Enable confirms the pending secret with a TOTP code.
func (s *MFAService) Enable(ctx context.Context, userID, code string) error {
	now := clock(s.Now)

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.MFAEnabled() {
		return ErrMFAAlreadyEnabled
	}
	if user.MFASecret == nil {
		return ErrMFANotPending
	}
	if !otpx.ValidateTOTP(code, *user.MFASecret, now, s.Config.TOTPSkew) {
		return ErrInvalidMFACode
	}

	ok, err := s.Store.Users().EnableMFA(ctx, userID, *user.MFASecret, now)
	if err != nil {
		return fmt.Errorf("enable mfa: %w", err)
	}
	if !ok {
		// Lost a race with another setup or enable.
		current, err := s.getUser(ctx, userID)
		if err != nil {
			return err
		}
		if current.MFAEnabled() {
			return ErrMFAAlreadyEnabled
		}
		return ErrMFANotPending
	}

	slogx.FromContext(ctx).Info("mfa enabled", slog.String("user_id", userID))
	return nil
}

// Disable turns MFA off after checking a TOTP code. The secret and every
// backup code are removed in the same transaction.
func (s *MFAService) Disable(ctx context.Context, userID, code string) error {
	now := clock(s.Now)

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if !user.MFAEnabled() {
		return ErrMFANotEnabled
	}
	if !otpx.ValidateTOTP(code, *user.MFASecret, now, s.Config.TOTPSkew) {
		return ErrInvalidMFACode
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		ok, err := tx.Users().DisableMFA(ctx, userID, now)
		if err != nil {
			return fmt.Errorf("disable mfa: %w", err)
		}
		if !ok {
			return ErrMFANotEnabled
		}
		if err := tx.BackupCodes().DeleteAllBackupCodes(ctx, userID); err != nil {
			return fmt.Errorf("delete backup codes: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("mfa disabled", slog.String("user_id", userID))
	return nil
}

// RegenerateBackupCodes replaces the backup codes of an MFA-enabled user
// after checking a TOTP code.
func (s *MFAService) RegenerateBackupCodes(ctx context.Context, userID, code string) ([]string, error) {
	now := clock(s.Now)

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.MFAEnabled() {
		return nil, ErrMFANotEnabled
	}
	if !otpx.ValidateTOTP(code, *user.MFASecret, now, s.Config.TOTPSkew) {
		return nil, ErrInvalidMFACode
	}

	codes, err := otpx.GenerateBackupCodes(s.Config.BackupCodeCount)
	if err != nil {
		return nil, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		current, err := tx.Users().GetUserByID(ctx, userID)
		if err != nil {
			return mapUserErr(err)
		}
		if !current.MFAEnabled() {
			return ErrMFANotEnabled
		}
		return tx.BackupCodes().ReplaceBackupCodes(ctx, userID, hashBackupCodes(codes), now)
	})
	if err != nil {
		return nil, err
	}

	slogx.FromContext(ctx).Info("backup codes regenerated", slog.String("user_id", userID))
	return codes, nil
}

// VerifyLoginFactor checks a second factor for user at now. TOTP is tried
// first; a backup code is only consumed when TOTP does not match. A used or
// unknown backup code is reported as MFAFactorNone like any other mismatch.
func (s *MFAService) VerifyLoginFactor(ctx context.Context, user domain.User, code string, now time.Time) (domain.MFAFactor, error) {
	if user.MFASecret == nil {
		return domain.MFAFactorNone, nil
	}
	if otpx.ValidateTOTP(code, *user.MFASecret, now, s.Config.TOTPSkew) {
		return domain.MFAFactorTOTP, nil
	}

	normalized := otpx.NormalizeBackupCode(code)
	if len(normalized) != otpx.BackupCodeLength {
		return domain.MFAFactorNone, nil
	}

	ok, err := s.Store.BackupCodes().ConsumeBackupCode(ctx, user.ID, cryptox.FingerprintToken(normalized), now)
	if err != nil {
		return domain.MFAFactorNone, fmt.Errorf("consume backup code: %w", err)
	}
	if !ok {
		return domain.MFAFactorNone, nil
	}

	l := slogx.FromContext(ctx)
	remaining, err := s.Store.BackupCodes().CountUnusedBackupCodes(ctx, user.ID)
	if err != nil {
		l.Warn("failed to count backup codes", slog.String("user_id", user.ID), slog.Any("error", err))
	}
	l.Info("backup code consumed", slog.String("user_id", user.ID), slog.Int("remaining", remaining))
	return domain.MFAFactorBackup, nil
}

func (s *MFAService) getUser(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.User{}, mapUserErr(err)
	}
	return user, nil
}

func hashBackupCodes(codes []string) []string {
	hashes := make([]string, len(codes))
	for i, c := range codes {
		hashes[i] = cryptox.FingerprintToken(otpx.NormalizeBackupCode(c))
	}
	return hashes
}

func mapUserErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	return fmt.Errorf("load user: %w", err)
}
