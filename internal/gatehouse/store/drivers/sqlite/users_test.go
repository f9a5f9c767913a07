package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/gatehouselabs/gatehouse/internal/gatehouse/domain"
	"github.com/gatehouselabs/gatehouse/internal/gatehouse/store"
	"github.com/gatehouselabs/gatehouse/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())
	return s
}

func seedUser(t *testing.T, s *Store, email string) domain.User {
	t.Helper()

	now := time.Now().UTC()
	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		Name:         "Test User",
		PasswordHash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func TestClearLockIfExpired_RemovesStaleLock(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "alice@example.com")

	// A lock that expired a minute ago.
	shortLock := store.LockSpec{Threshold: 1, Duration: -time.Minute}
	_, err := s.Users().IncrementFailedAttempts(ctx, "alice@example.com", shortLock)
	require.NoError(t, err)

	repo := s.Users().(*usersRepo)
	require.NoError(t, repo.clearLockIfExpired(ctx, "alice@example.com", time.Now().UTC()))

	u, err := s.Users().GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Nil(t, u.LockedUntil)
	require.Equal(t, 0, u.FailedAttempts)
}

func TestClearLockIfExpired_NeverWipesLiveLock(t *testing.T) {
	// A clear decided against a lock observed as expired can be delayed
	// while fresh failed attempts cross the threshold again and create a
	// live lock. Replaying that clear with its old observation time must
	// leave the new lock and counter untouched.
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "alice@example.com")

	staleObservation := time.Now().UTC()

	spec := store.LockSpec{Threshold: 5, Duration: 15 * time.Minute}
	for range 5 {
		_, err := s.Users().IncrementFailedAttempts(ctx, "alice@example.com", spec)
		require.NoError(t, err)
	}

	repo := s.Users().(*usersRepo)
	require.NoError(t, repo.clearLockIfExpired(ctx, "alice@example.com", staleObservation))

	u, err := s.Users().GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, u.LockedUntil, "a clear with an old observation time must not remove a live lock")
	require.Equal(t, 5, u.FailedAttempts)

	locked, err := s.Users().IsLocked(ctx, "alice@example.com")
	require.NoError(t, err)
	require.True(t, locked)
}

func TestIsLocked_LiveLockSurvivesRepeatedChecks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "alice@example.com")

	spec := store.LockSpec{Threshold: 1, Duration: 15 * time.Minute}
	_, err := s.Users().IncrementFailedAttempts(ctx, "alice@example.com", spec)
	require.NoError(t, err)

	for range 3 {
		locked, err := s.Users().IsLocked(ctx, "alice@example.com")
		require.NoError(t, err)
		require.True(t, locked)
	}

	u, err := s.Users().GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, 1, u.FailedAttempts)
	require.NotNil(t, u.LockedUntil)
}
