// Package otpx generates and checks the shared secrets behind TOTP two-factor
// authentication and the single-use backup codes issued alongside them.
package otpx

import (
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// SecretSize is the raw secret length in bytes (160 bits).
	SecretSize = 20
	// Period is the TOTP time step.
	Period = 30
	// DefaultSkew is the number of steps accepted either side of the current one.
	DefaultSkew = 2
)

var ErrInvalidSecret = errors.New("otpx: invalid secret")

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// GenerateSecret returns a fresh base32 (unpadded) TOTP secret.
func GenerateSecret() (string, error) {
	buf := make([]byte, SecretSize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("otpx: failed to read random secret: %w", err)
	}
	return b32.EncodeToString(buf), nil
}

// ProvisioningURI builds the otpauth:// URI authenticator apps enroll from.
func ProvisioningURI(secret, accountName, issuer string) (string, error) {
	raw, err := b32.DecodeString(strings.ToUpper(secret))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidSecret, err)
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: accountName,
		Period:      Period,
		Secret:      raw,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("otpx: failed to build provisioning uri: %w", err)
	}
	return key.URL(), nil
}

func validateOpts(skew uint) totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    Period,
		Skew:      skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// ValidateTOTP reports whether code matches secret at any step within skew of t.
// Malformed codes and secrets are treated as a mismatch.
func ValidateTOTP(code, secret string, t time.Time, skew uint) bool {
	code = strings.TrimSpace(code)
	if len(code) != int(otp.DigitsSix) {
		return false
	}
	ok, err := totp.ValidateCustom(code, secret, t.UTC(), validateOpts(skew))
	return err == nil && ok
}

// GenerateCode returns the code for secret at t. Used by tooling and tests.
func GenerateCode(secret string, t time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, t.UTC(), validateOpts(0))
}
