package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/synapse/internal/auth/domain"
	"github.com/aussiebroadwan/synapse/internal/auth/lockout"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement it and
// expose sub-repositories so a Tx-scoped store can hand out the same repos.
type Store interface {
	Users() Users
	BackupCodes() BackupCodes
	RevokedTokens() RevokedTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing iff fn returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// Users mutates the account-security columns of user records. Every
// conditional method reports whether its guard matched; false means a
// concurrent request changed the row first.
type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail matches case-insensitively.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the caller as a ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// SwapLockoutState writes to iff the row still holds from.
	SwapLockoutState(ctx context.Context, userID string, from, to lockout.State, now time.Time) (bool, error)

	// ResetLockout clears the counter and lock unless a lock is active at now.
	ResetLockout(ctx context.Context, userID string, now time.Time) (bool, error)

	// ForceResetLockout clears the counter and any lock. Operator use only.
	ForceResetLockout(ctx context.Context, userID string, now time.Time) error

	// SetPendingMFASecret stores a new secret iff MFA is not enabled.
	SetPendingMFASecret(ctx context.Context, userID, secret string, now time.Time) (bool, error)

	// EnableMFA confirms secret iff it is still the pending secret.
	EnableMFA(ctx context.Context, userID, secret string, now time.Time) (bool, error)

	// DisableMFA clears the enabled mark and secret iff MFA is enabled.
	DisableMFA(ctx context.Context, userID string, now time.Time) (bool, error)

	// UpgradePasswordHash replaces oldHash with newHash iff it is unchanged.
	UpgradePasswordHash(ctx context.Context, userID, oldHash, newHash string, now time.Time) (bool, error)

	UpdatePreferences(ctx context.Context, userID string, prefs domain.Preferences, now time.Time) error
}

type BackupCodes interface {
	// ReplaceBackupCodes drops every code for the user and stores codeHashes.
	ReplaceBackupCodes(ctx context.Context, userID string, codeHashes []string, now time.Time) error

	// ConsumeBackupCode marks an unused code used. It returns false when the
	// code is unknown or already used.
	ConsumeBackupCode(ctx context.Context, userID, codeHash string, now time.Time) (bool, error)

	DeleteAllBackupCodes(ctx context.Context, userID string) error

	CountUnusedBackupCodes(ctx context.Context, userID string) (int, error)
}

type RevokedTokens interface {
	// RevokeToken is idempotent.
	RevokeToken(ctx context.Context, t domain.RevokedToken) error

	IsTokenRevoked(ctx context.Context, jtiHash string) (bool, error)

	// DeleteExpiredRevokedTokens removes entries whose token expired before now.
	DeleteExpiredRevokedTokens(ctx context.Context, now time.Time) (int64, error)
}
