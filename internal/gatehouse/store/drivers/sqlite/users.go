package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gatehouselabs/gatehouse/internal/gatehouse/domain"
	"github.com/gatehouselabs/gatehouse/internal/gatehouse/store"

	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const userColumns = `id, email, name, password_hash, failed_attempts, locked_until, created_at, updated_at`

type usersRepo struct {
	db *sql.DB
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.PasswordHash,
		u.FailedAttempts, mapOptionalTime(u.LockedUntil), u.CreatedAt, u.UpdatedAt,
	)
	return mapUniqueViolation(err)
}

func (r *usersRepo) IncrementFailedAttempts(
	ctx context.Context,
	email string,
	lock store.LockSpec,
) (domain.User, error) {
	now := time.Now().UTC()
	expiry := now.Add(lock.Duration)

	// One statement increments and, when the post-increment count reaches
	// the threshold, sets the lock. SQLite serializes writers, so two
	// concurrent failures cannot both read the pre-increment count.
	row := r.db.QueryRowContext(ctx, `
		UPDATE users
		   SET failed_attempts = failed_attempts + 1,
		       locked_until = CASE
		           WHEN failed_attempts + 1 >= ? THEN ?
		           ELSE locked_until
		       END,
		       updated_at = ?
		 WHERE email = ?
		RETURNING `+userColumns,
		lock.Threshold, expiry, now, email,
	)
	return scanUser(row)
}

func (r *usersRepo) ResetFailedAttempts(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		   SET failed_attempts = 0, locked_until = NULL, updated_at = ?
		 WHERE email = ?`,
		time.Now().UTC(), email,
	)
	return err
}

func (r *usersRepo) IsLocked(ctx context.Context, email string) (bool, error) {
	var lockedUntil sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT locked_until FROM users WHERE email = ?`, email).Scan(&lockedUntil)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if !lockedUntil.Valid {
		return false, nil
	}

	now := time.Now().UTC()
	if now.Before(lockedUntil.Time) {
		return true, nil
	}

	// Stale lock: lazy expiry.
	return false, r.clearLockIfExpired(ctx, email, now)
}

// clearLockIfExpired removes a lock only when its expiry is at or before the
// given instant. The expiry bound in the WHERE clause means a clear decided
// against a stale lock can never wipe a live lock that concurrent failed
// attempts created in the meantime.
func (r *usersRepo) clearLockIfExpired(ctx context.Context, email string, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		   SET failed_attempts = 0, locked_until = NULL, updated_at = ?
		 WHERE email = ? AND locked_until IS NOT NULL AND locked_until <= ?`,
		now, email, now,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		id, email, name, passwordHash string
		failedAttempts                int64
		lockedUntil                   sql.NullTime
		createdAt, updatedAt          time.Time
	)
	err := row.Scan(
		&id, &email, &name, &passwordHash,
		&failedAttempts, &lockedUntil, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, store.ErrNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	return mapUser(id, email, name, passwordHash, failedAttempts, lockedUntil, createdAt, updatedAt), nil
}

func mapUniqueViolation(err error) error {
	if err == nil {
		return nil
	}
	var se *sqlitedrv.Error
	if errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return store.ErrAlreadyExists
	}
	return err
}
