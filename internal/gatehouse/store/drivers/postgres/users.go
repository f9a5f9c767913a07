package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/gatehouselabs/gatehouse/internal/gatehouse/domain"
	"github.com/gatehouselabs/gatehouse/internal/gatehouse/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the PostgreSQL error code for a unique constraint hit.
const uniqueViolation = "23505"

const userColumns = `id, email, name, password_hash, failed_attempts, locked_until, created_at, updated_at`

type usersRepo struct {
	pool *pgxpool.Pool
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Email, u.Name, u.PasswordHash,
		u.FailedAttempts, u.LockedUntil, u.CreatedAt, u.UpdatedAt,
	)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *usersRepo) IncrementFailedAttempts(
	ctx context.Context,
	email string,
	lock store.LockSpec,
) (domain.User, error) {
	expiry := time.Now().UTC().Add(lock.Duration)

	// Single-statement increment: the row lock serializes concurrent
	// failures, and the CASE sees the pre-increment count of this very
	// update, so the lock is created exactly when the threshold is crossed.
	row := r.pool.QueryRow(ctx, `
		UPDATE users
		   SET failed_attempts = failed_attempts + 1,
		       locked_until = CASE
		           WHEN failed_attempts + 1 >= $1 THEN $2::timestamptz
		           ELSE locked_until
		       END,
		       updated_at = now()
		 WHERE email = $3
		RETURNING `+userColumns,
		lock.Threshold, expiry, email,
	)
	return scanUser(row)
}

func (r *usersRepo) ResetFailedAttempts(ctx context.Context, email string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users
		   SET failed_attempts = 0, locked_until = NULL, updated_at = now()
		 WHERE email = $1`,
		email,
	)
	return err
}

func (r *usersRepo) IsLocked(ctx context.Context, email string) (bool, error) {
	// Lazy expiry first: one atomic statement clears a stale lock, and the
	// locked_until <= now() guard means concurrent checks cannot clear a
	// lock that is still live or clear twice.
	_, err := r.pool.Exec(ctx, `
		UPDATE users
		   SET failed_attempts = 0, locked_until = NULL, updated_at = now()
		 WHERE email = $1 AND locked_until IS NOT NULL AND locked_until <= now()`,
		email,
	)
	if err != nil {
		return false, err
	}

	var lockedUntil *time.Time
	err = r.pool.QueryRow(ctx,
		`SELECT locked_until FROM users WHERE email = $1`, email).Scan(&lockedUntil)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return lockedUntil != nil && time.Now().Before(*lockedUntil), nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		u           domain.User
		lockedUntil *time.Time
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash,
		&u.FailedAttempts, &lockedUntil, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, store.ErrNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	u.LockedUntil = lockedUntil
	return u, nil
}
