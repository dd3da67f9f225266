package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/aussiebroadwan/synapse/internal/auth/domain"
	"github.com/aussiebroadwan/synapse/internal/auth/lockout"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, email, username, password_hash, failed_login_attempts, lock_until,
	mfa_enabled_at, mfa_secret, preferences, created_at, updated_at`

func scanUser(row *sql.Row) (domain.User, error) {
	var (
		u          domain.User
		lockUntil  sql.NullInt64
		mfaEnabled sql.NullInt64
		mfaSecret  sql.NullString
		prefs      string
		createdAt  int64
		updatedAt  int64
	)
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.PasswordHash,
		&u.FailedLoginAttempts,
		&lockUntil,
		&mfaEnabled,
		&mfaSecret,
		&prefs,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.Preferences, err = decodePreferences(prefs)
	if err != nil {
		return domain.User{}, err
	}
	u.LockUntil = mapNullTimePtr(lockUntil)
	u.MFAEnabledAt = mapNullTimePtr(mfaEnabled)
	u.MFASecret = mapNullStringPtr(mfaSecret)
	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	u.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, strings.TrimSpace(email)))
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	prefs, err := encodePreferences(u.Preferences)
	if err != nil {
		return err
	}

	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}

	var secret sql.NullString
	if u.MFASecret != nil {
		secret = sql.NullString{String: *u.MFASecret, Valid: true}
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID,
		strings.ToLower(strings.TrimSpace(u.Email)),
		u.Username,
		u.PasswordHash,
		u.FailedLoginAttempts,
		mapOptionalTime(u.LockUntil),
		mapOptionalTime(u.MFAEnabledAt),
		secret,
		prefs,
		unixTime(u.CreatedAt),
		unixTime(u.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *usersRepo) SwapLockoutState(
	ctx context.Context,
	userID string,
	from, to lockout.State,
	now time.Time,
) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET failed_login_attempts = ?, lock_until = ?, updated_at = ?
		WHERE id = ? AND failed_login_attempts = ? AND lock_until IS ?`,
		to.FailedAttempts,
		mapOptionalTime(to.LockUntil),
		unixTime(now),
		userID,
		from.FailedAttempts,
		mapOptionalTime(from.LockUntil),
	)
	if err != nil {
		return false, err
	}
	return rowsAffectedOne(res)
}

func (r *usersRepo) ResetLockout(ctx context.Context, userID string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET failed_login_attempts = 0, lock_until = NULL, updated_at = ?
		WHERE id = ? AND (lock_until IS NULL OR lock_until <= ?)`,
		unixTime(now),
		userID,
		unixTime(now),
	)
	if err != nil {
		return false, err
	}
	return rowsAffectedOne(res)
}

func (r *usersRepo) ForceResetLockout(ctx context.Context, userID string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET failed_login_attempts = 0, lock_until = NULL, updated_at = ?
		WHERE id = ?`,
		unixTime(now),
		userID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) SetPendingMFASecret(ctx context.Context, userID, secret string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET mfa_secret = ?, updated_at = ?
		WHERE id = ? AND mfa_enabled_at IS NULL`,
		secret,
		unixTime(now),
		userID,
	)
	if err != nil {
		return false, err
	}
	return rowsAffectedOne(res)
}

func (r *usersRepo) EnableMFA(ctx context.Context, userID, secret string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET mfa_enabled_at = ?, updated_at = ?
		WHERE id = ? AND mfa_secret = ? AND mfa_enabled_at IS NULL`,
		unixTime(now),
		unixTime(now),
		userID,
		secret,
	)
	if err != nil {
		return false, err
	}
	return rowsAffectedOne(res)
}

func (r *usersRepo) DisableMFA(ctx context.Context, userID string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET mfa_enabled_at = NULL, mfa_secret = NULL, updated_at = ?
		WHERE id = ? AND mfa_enabled_at IS NOT NULL`,
		unixTime(now),
		userID,
	)
	if err != nil {
		return false, err
	}
	return rowsAffectedOne(res)
}

func (r *usersRepo) UpgradePasswordHash(ctx context.Context, userID, oldHash, newHash string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET password_hash = ?, updated_at = ?
		WHERE id = ? AND password_hash = ?`,
		newHash,
		unixTime(now),
		userID,
		oldHash,
	)
	if err != nil {
		return false, err
	}
	return rowsAffectedOne(res)
}

func (r *usersRepo) UpdatePreferences(ctx context.Context, userID string, prefs domain.Preferences, now time.Time) error {
	raw, err := encodePreferences(prefs)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET preferences = ?, updated_at = ? WHERE id = ?`,
		raw,
		unixTime(now),
		userID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// requireRow maps an unconditional update that touched nothing to ErrNotFound.
func requireRow(res sql.Result) error {
	ok, err := rowsAffectedOne(res)
	if err != nil {
		return err
	}
	if !ok {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}
