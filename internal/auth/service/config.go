package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/synapse/internal/auth/lockout"
	"github.com/aussiebroadwan/synapse/pkg/jwtx"
	"github.com/aussiebroadwan/synapse/pkg/otpx"
)

// Config holds every tunable of the account-security core. It is built once
// at startup and shared read-only by the services.
type Config struct {
	Issuer          string // iss claim of session tokens
	TokenTTL        time.Duration
	Lockout         lockout.Policy
	TOTPSkew        uint // accepted time steps either side of now
	MFAIssuer       string
	BackupCodeCount int
}

func DefaultConfig() Config {
	return Config{
		Issuer:          "synapse-auth",
		TokenTTL:        jwtx.DefaultSessionTTL,
		Lockout:         lockout.DefaultPolicy(),
		TOTPSkew:        otpx.DefaultSkew,
		MFAIssuer:       "Synapse",
		BackupCodeCount: otpx.DefaultBackupCodeCount,
	}
}

func (c Config) Validate() error {
	if c.Issuer == "" {
		return errors.New("service: issuer is required")
	}
	if c.TokenTTL <= 0 {
		return errors.New("service: token ttl must be positive")
	}
	if err := c.Lockout.Validate(); err != nil {
		return fmt.Errorf("service: %w", err)
	}
	if c.TOTPSkew > 10 {
		return errors.New("service: totp skew must be at most 10 steps")
	}
	if c.MFAIssuer == "" {
		return errors.New("service: mfa issuer is required")
	}
	if c.BackupCodeCount < 1 || c.BackupCodeCount > 50 {
		return errors.New("service: backup code count must be between 1 and 50")
	}
	return nil
}

// clock returns now() or the wall clock when now is nil.
func clock(now func() time.Time) time.Time {
	if now != nil {
		return now()
	}
	return time.Now()
}
