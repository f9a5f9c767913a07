package postgres

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gatehouselabs/gatehouse/internal/gatehouse/domain"
	"github.com/gatehouselabs/gatehouse/internal/gatehouse/store"
	"github.com/gatehouselabs/gatehouse/pkg/idx"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupStore starts a throwaway PostgreSQL container and returns a migrated
// store against it. Tests are skipped when Docker is unavailable, e.g. in CI
// stages that only run unit tests.
func setupStore(t *testing.T) *Store {
	t.Helper()

	if os.Getenv("GATEHOUSE_SKIP_DOCKER_TESTS") != "" {
		t.Skip("GATEHOUSE_SKIP_DOCKER_TESTS set")
	}

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("gatehouse_test"),
		tcpostgres.WithUsername("gatehouse"),
		tcpostgres.WithPassword("gatehouse"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("could not start postgres container (is Docker running?): %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := NewStore(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func seedUser(t *testing.T, s *Store, email string) domain.User {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
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

func TestPostgresStore(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	spec := store.LockSpec{Threshold: 5, Duration: 15 * time.Minute}

	t.Run("create and fetch round trip", func(t *testing.T) {
		created := seedUser(t, s, "alice@example.com")

		got, err := s.Users().GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.Equal(t, created.ID, got.ID)
		require.Equal(t, created.Email, got.Email)
		require.Equal(t, created.PasswordHash, got.PasswordHash)
		require.Equal(t, 0, got.FailedAttempts)
		require.Nil(t, got.LockedUntil)
	})

	t.Run("unknown email maps to ErrNotFound", func(t *testing.T) {
		_, err := s.Users().GetUserByEmail(ctx, "ghost@example.com")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("duplicate email maps to ErrAlreadyExists", func(t *testing.T) {
		u := seedUser(t, s, "dupe@example.com")
		u.ID = "01JE000000TESTUSERDUPE02"
		err := s.Users().CreateUser(ctx, u)
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("increment returns post value and locks at threshold", func(t *testing.T) {
		seedUser(t, s, "incr@example.com")

		for want := 1; want <= 4; want++ {
			u, err := s.Users().IncrementFailedAttempts(ctx, "incr@example.com", spec)
			require.NoError(t, err)
			require.Equal(t, want, u.FailedAttempts)
			require.Nil(t, u.LockedUntil)
		}

		u, err := s.Users().IncrementFailedAttempts(ctx, "incr@example.com", spec)
		require.NoError(t, err)
		require.Equal(t, 5, u.FailedAttempts)
		require.NotNil(t, u.LockedUntil)

		locked, err := s.Users().IsLocked(ctx, "incr@example.com")
		require.NoError(t, err)
		require.True(t, locked)
	})

	t.Run("increment against missing record", func(t *testing.T) {
		_, err := s.Users().IncrementFailedAttempts(ctx, "ghost@example.com", spec)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("reset clears counter and lock", func(t *testing.T) {
		seedUser(t, s, "reset@example.com")

		for range 5 {
			_, err := s.Users().IncrementFailedAttempts(ctx, "reset@example.com", spec)
			require.NoError(t, err)
		}

		require.NoError(t, s.Users().ResetFailedAttempts(ctx, "reset@example.com"))

		u, err := s.Users().GetUserByEmail(ctx, "reset@example.com")
		require.NoError(t, err)
		require.Equal(t, 0, u.FailedAttempts)
		require.Nil(t, u.LockedUntil)
	})

	t.Run("lazy expiry clears a stale lock", func(t *testing.T) {
		seedUser(t, s, "stale@example.com")

		shortLock := store.LockSpec{Threshold: 1, Duration: time.Second}
		_, err := s.Users().IncrementFailedAttempts(ctx, "stale@example.com", shortLock)
		require.NoError(t, err)

		locked, err := s.Users().IsLocked(ctx, "stale@example.com")
		require.NoError(t, err)
		require.True(t, locked)

		time.Sleep(1500 * time.Millisecond)

		for range 2 {
			locked, err = s.Users().IsLocked(ctx, "stale@example.com")
			require.NoError(t, err)
			require.False(t, locked)
		}

		u, err := s.Users().GetUserByEmail(ctx, "stale@example.com")
		require.NoError(t, err)
		require.Equal(t, 0, u.FailedAttempts)
		require.Nil(t, u.LockedUntil)
	})

	t.Run("concurrent increments never lose updates", func(t *testing.T) {
		seedUser(t, s, "race@example.com")

		highThreshold := store.LockSpec{Threshold: 100, Duration: 15 * time.Minute}
		const workers = 10

		counts := make([]int, workers)
		var wg sync.WaitGroup
		for i := range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				u, err := s.Users().IncrementFailedAttempts(ctx, "race@example.com", highThreshold)
				require.NoError(t, err)
				counts[i] = u.FailedAttempts
			}()
		}
		wg.Wait()

		// Every worker observed a distinct post-increment value.
		seen := make(map[int]bool, workers)
		for _, c := range counts {
			require.False(t, seen[c], "duplicate post-increment count %d; an update was lost", c)
			seen[c] = true
		}

		u, err := s.Users().GetUserByEmail(ctx, "race@example.com")
		require.NoError(t, err)
		require.Equal(t, workers, u.FailedAttempts)
	})
}
