package otpx

import (
	"crypto/rand"
	"fmt"
	"strings"
)

const (
	// BackupCodeLength is the number of characters in a backup code.
	BackupCodeLength = 10
	// DefaultBackupCodeCount is how many codes a setup hands out.
	DefaultBackupCodeCount = 10
)

// No 0/O or 1/I. 32 symbols, so byte%32 is unbiased.
const backupAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateBackupCodes returns n distinct human-typable codes.
func GenerateBackupCodes(n int) ([]string, error) {
	if n <= 0 {
		return nil, fmt.Errorf("otpx: backup code count must be positive, got %d", n)
	}

	codes := make([]string, 0, n)
	seen := make(map[string]struct{}, n)
	buf := make([]byte, BackupCodeLength)
	for len(codes) < n {
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("otpx: failed to read random code: %w", err)
		}
		var sb strings.Builder
		sb.Grow(BackupCodeLength)
		for _, b := range buf {
			sb.WriteByte(backupAlphabet[int(b)%len(backupAlphabet)])
		}
		code := sb.String()
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes, nil
}

// NormalizeBackupCode upper-cases a submitted code and strips the separators
// users tend to type.
func NormalizeBackupCode(code string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', ' ', '\t':
			return -1
		}
		if r >= 'a' && r <= 'z' {
			return r - 'a' + 'A'
		}
		return r
	}, code)
}
