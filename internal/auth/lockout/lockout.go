// Package lockout holds the brute-force lockout transitions for an account.
// Everything here is pure: callers load a State, compute the next one and
// persist it with a conditional write.
package lockout

import (
	"errors"
	"time"
)

const (
	DefaultThreshold = 5
	DefaultDuration  = 2 * time.Hour
)

// Policy configures when an account locks and for how long.
type Policy struct {
	Threshold int
	Duration  time.Duration
}

// DefaultPolicy locks after 5 consecutive failures for 2 hours.
func DefaultPolicy() Policy {
	return Policy{Threshold: DefaultThreshold, Duration: DefaultDuration}
}

func (p Policy) Validate() error {
	if p.Threshold < 1 {
		return errors.New("lockout: threshold must be at least 1")
	}
	if p.Duration <= 0 {
		return errors.New("lockout: duration must be positive")
	}
	return nil
}

// State is the lockout-relevant slice of a user record.
type State struct {
	FailedAttempts int
	LockUntil      *time.Time
}

// IsLocked reports whether the account is locked at now. A lock whose expiry
// has passed no longer counts.
func IsLocked(s State, now time.Time) bool {
	return s.LockUntil != nil && s.LockUntil.After(now)
}

// RecordFailure returns the state after one more failed attempt at now.
//
// An expired lock restarts the count, so the first failure after a lock
// elapses counts as attempt 1. Reaching the threshold sets LockUntil and
// keeps the counter.
func (p Policy) RecordFailure(s State, now time.Time) State {
	if s.LockUntil != nil && !s.LockUntil.After(now) {
		return State{FailedAttempts: 1}
	}

	next := State{FailedAttempts: s.FailedAttempts + 1, LockUntil: s.LockUntil}
	if next.LockUntil == nil && next.FailedAttempts >= p.Threshold {
		until := now.Add(p.Duration)
		next.LockUntil = &until
	}
	return next
}

// Reset is the state after a fully successful authentication.
func Reset() State {
	return State{}
}
