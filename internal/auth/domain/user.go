package domain

import "time"

type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string // argon2id PHC string, or bcrypt for imported accounts

	// Lockout state. LockUntil is only ever written by the lockout transitions.
	FailedLoginAttempts int
	LockUntil           *time.Time

	MFAEnabledAt *time.Time // set when MFA was enabled, nil when disabled
	MFASecret    *string    // base32 TOTP secret, present once setup has run

	Preferences Preferences
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MFAEnabled reports whether login requires a second factor.
func (u User) MFAEnabled() bool { return u.MFAEnabledAt != nil }

// MFAPending reports whether setup has run but the secret is not yet confirmed.
func (u User) MFAPending() bool { return u.MFAEnabledAt == nil && u.MFASecret != nil }
