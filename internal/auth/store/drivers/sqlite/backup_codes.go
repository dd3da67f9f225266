package sqlite

import (
	"context"
	"time"
)

type backupCodesRepo struct {
	db dbtx
}

func (r *backupCodesRepo) ReplaceBackupCodes(ctx context.Context, userID string, codeHashes []string, now time.Time) error {
	if err := r.DeleteAllBackupCodes(ctx, userID); err != nil {
		return err
	}
	for _, h := range codeHashes {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO backup_codes (user_id, code_hash, used_at, created_at)
			VALUES (?, ?, NULL, ?)`,
			userID,
			h,
			unixTime(now),
		)
		if err != nil {
			return mapConstraint(err)
		}
	}
	return nil
}

// ConsumeBackupCode relies on the used_at guard so that two concurrent
// requests presenting the same code cannot both succeed.
func (r *backupCodesRepo) ConsumeBackupCode(ctx context.Context, userID, codeHash string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE backup_codes
		SET used_at = ?
		WHERE user_id = ? AND code_hash = ? AND used_at IS NULL`,
		unixTime(now),
		userID,
		codeHash,
	)
	if err != nil {
		return false, err
	}
	return rowsAffectedOne(res)
}

func (r *backupCodesRepo) DeleteAllBackupCodes(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM backup_codes WHERE user_id = ?`, userID)
	return err
}

func (r *backupCodesRepo) CountUnusedBackupCodes(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM backup_codes WHERE user_id = ? AND used_at IS NULL`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
