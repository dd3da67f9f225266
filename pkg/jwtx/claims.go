package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultSessionTTL is the default lifetime of a session token.
const DefaultSessionTTL = 7 * 24 * time.Hour

// Authentication method references carried in the "amr" claim.
const (
	AMRPassword = "pwd"
	AMROTP      = "otp"
	AMRMFA      = "mfa"
)

// Claims are the session-token claims shared by every service that accepts
// Synapse tokens.
type Claims struct {
	jwt.RegisteredClaims

	// MFAVerified is true iff the session satisfied a second factor.
	MFAVerified bool `json:"mfa_verified"`

	// Authentication Methods Reference ["pwd","otp","mfa"]
	AMR []string `json:"amr,omitempty"`
}

// NewSessionClaims builds the claims for a freshly authenticated session.
// methods names the second-factor methods used, e.g. AMROTP for a TOTP code;
// a backup code adds none. AMRMFA is added whenever mfaVerified is set.
func NewSessionClaims(subject string, mfaVerified bool, ttl time.Duration, issuer string, now time.Time, methods ...string) Claims {
	amr := append([]string{AMRPassword}, methods...)
	if mfaVerified {
		amr = append(amr, AMRMFA)
	}
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		MFAVerified: mfaVerified,
		AMR:         amr,
	}
}

// NewJTI returns a random identifier for the "jti" claim.
func NewJTI() string {
	return uuid.NewString()
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't before nbf.
func (c *Claims) ValidateExpiry() error {
	return c.ValidateExpiryAt(time.Now())
}

// ValidateExpiryAt is ValidateExpiry against an explicit clock reading.
func (c *Claims) ValidateExpiryAt(now time.Time) error {
	now = now.UTC()
	if c.ExpiresAt != nil && !now.Before(c.ExpiresAt.Time) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}
	return nil
}

// FactorMethods returns the amr entries other than AMRPassword and AMRMFA.
func (c *Claims) FactorMethods() []string {
	var out []string
	for _, m := range c.AMR {
		if m != AMRPassword && m != AMRMFA {
			out = append(out, m)
		}
	}
	return out
}

// Expiry returns the exp claim, or the zero time if absent.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
