package memory

import (
	"context"
	"time"

	"github.com/gatehouselabs/gatehouse/internal/gatehouse/domain"
	"github.com/gatehouselabs/gatehouse/internal/gatehouse/store"
)

type usersRepo struct {
	s *Store
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[email]
	if !ok {
		return domain.User{}, store.ErrNotFound
	}
	return clone(u), nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[u.Email]; ok {
		return store.ErrAlreadyExists
	}

	stored := clone(&u)
	r.s.users[u.Email] = &stored
	return nil
}

func (r *usersRepo) IncrementFailedAttempts(
	ctx context.Context,
	email string,
	lock store.LockSpec,
) (domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[email]
	if !ok {
		return domain.User{}, store.ErrNotFound
	}

	now := time.Now().UTC()
	u.FailedAttempts++
	if u.FailedAttempts >= lock.Threshold {
		expiry := now.Add(lock.Duration)
		u.LockedUntil = &expiry
	}
	u.UpdatedAt = now

	return clone(u), nil
}

func (r *usersRepo) ResetFailedAttempts(ctx context.Context, email string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[email]
	if !ok {
		return nil
	}

	u.FailedAttempts = 0
	u.LockedUntil = nil
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *usersRepo) IsLocked(ctx context.Context, email string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[email]
	if !ok || u.LockedUntil == nil {
		return false, nil
	}

	now := time.Now().UTC()
	if now.Before(*u.LockedUntil) {
		return true, nil
	}

	// Stale lock: lazy expiry clears it right here.
	u.FailedAttempts = 0
	u.LockedUntil = nil
	u.UpdatedAt = now
	return false, nil
}

// clone deep-copies a record so callers never share the stored pointer.
func clone(u *domain.User) domain.User {
	out := *u
	if u.LockedUntil != nil {
		expiry := *u.LockedUntil
		out.LockedUntil = &expiry
	}
	return out
}
