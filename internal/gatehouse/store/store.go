package store

import (
	"context"
	"errors"
	"time"

	"github.com/gatehouselabs/gatehouse/internal/gatehouse/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// LockSpec tells a driver when an increment must create a lock. Drivers apply
// it inside the same atomic update as the increment, so two concurrent
// failures can never both observe the pre-increment count and undercount.
type LockSpec struct {
	// Threshold is the failed-attempt count at which the account locks.
	Threshold int
	// Duration is how long the lock lasts from the moment it is created.
	Duration time.Duration
}

// Store is the root data access interface. Concrete drivers (memory, sqlite,
// postgres) implement this. The counter operations on Users are the only
// place login-attempt state is allowed to change; callers never hold a record
// and write it back.
type Store interface {
	Users() Users

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the backing store is still reachable.
	Ping(ctx context.Context) error
}

type Users interface {
	// GetUserByEmail returns the record for an email. ErrNotFound if absent.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	// Returns ErrAlreadyExists when the email is already registered; the
	// existing record is left untouched.
	CreateUser(ctx context.Context, u domain.User) error

	// IncrementFailedAttempts adds one failed attempt and, when the post-
	// increment count reaches lock.Threshold, sets the lock expiry to
	// now+lock.Duration. This is the only operation that creates locks.
	// It returns the post-mutation record so callers never need a second
	// read to learn the new count. ErrNotFound when the email is absent,
	// in which case nothing was written.
	IncrementFailedAttempts(ctx context.Context, email string, lock LockSpec) (domain.User, error)

	// ResetFailedAttempts zeroes the counter and clears any lock. Called on
	// successful authentication. No-op (nil error) when the email is absent.
	ResetFailedAttempts(ctx context.Context, email string) error

	// IsLocked reports whether the account is currently locked. This is a
	// side-effecting read: a lock whose expiry has passed is cleared here
	// (counter reset to zero, expiry removed) before reporting false.
	// Absent emails report false.
	IsLocked(ctx context.Context, email string) (bool, error)
}
