package domain

import "time"

// User is a registered account. FailedAttempts and LockedUntil hold the
// brute-force lockout state; both are owned by the credential store and only
// change through its mutation operations.
type User struct {
	ID             string
	Email          string // unique, case-sensitive as stored
	Name           string
	PasswordHash   string // argon2id, PHC encoded
	FailedAttempts int
	LockedUntil    *time.Time // nil when not locked; a past value is stale until lazily cleared
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Locked reports whether the user is locked at the given instant. A stale
// LockedUntil in the past does not count as locked; clearing it is the
// store's job.
func (u User) Locked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// Identity is the success payload of an authentication attempt: the subset of
// the record handed to the surrounding system (session issuer, transport).
type Identity struct {
	ID    string
	Email string
	Name  string
}
