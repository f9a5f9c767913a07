package service

import (
	"time"

	"github.com/gatehouselabs/gatehouse/internal/gatehouse/domain"
	"github.com/gatehouselabs/gatehouse/internal/gatehouse/store"
)

// Lockout defaults: five consecutive failures lock the account for fifteen
// minutes. The policy is flat; repeat offenses do not escalate the duration.
const (
	DefaultLockoutThreshold = 5
	DefaultLockoutDuration  = 15 * time.Minute
)

// LockoutPolicy is pure decision logic over a record's failed-attempt count
// and lock expiry. It holds no state of its own; the store owns the counters.
type LockoutPolicy struct {
	Threshold int
	Duration  time.Duration
}

func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{
		Threshold: DefaultLockoutThreshold,
		Duration:  DefaultLockoutDuration,
	}
}

// Spec is the lock instruction handed to store drivers alongside an
// increment, so the lock decision applies atomically with the counter.
func (p LockoutPolicy) Spec() store.LockSpec {
	return store.LockSpec{Threshold: p.Threshold, Duration: p.Duration}
}

// Remaining reports how many more failures the account can absorb before
// locking, never below zero.
func (p LockoutPolicy) Remaining(failedAttempts int) int {
	return max(0, p.Threshold-failedAttempts)
}

// Locked reports whether a record is locked at the given instant. A stale
// expiry in the past does not count; clearing it is the store's lazy-expiry
// job, not the policy's.
func (p LockoutPolicy) Locked(u domain.User, now time.Time) bool {
	return u.Locked(now)
}

// ShouldLock reports whether a post-increment count triggers a lock.
func (p LockoutPolicy) ShouldLock(failedAttempts int) bool {
	return failedAttempts >= p.Threshold
}
