// Package sqlite is the default persistent credential store driver, backed by
// an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/gatehouselabs/gatehouse/internal/gatehouse/domain"
	"github.com/gatehouselabs/gatehouse/internal/gatehouse/store"

	_ "modernc.org/sqlite"
)

type Store struct {
	db  *sql.DB
	dsn string
}

func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// A single connection keeps every statement on one SQLite handle, so
	// concurrent counter updates queue instead of failing with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, dsn: dsn}, nil
}

func (s *Store) Users() store.Users { return &usersRepo{db: s.db} }

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func mapUser(
	id, email, name, passwordHash string,
	failedAttempts int64,
	lockedUntil sql.NullTime,
	createdAt, updatedAt time.Time,
) domain.User {
	var lock *time.Time
	if lockedUntil.Valid {
		expiry := lockedUntil.Time
		lock = &expiry
	}

	return domain.User{
		ID:             id,
		Email:          email,
		Name:           name,
		PasswordHash:   passwordHash,
		FailedAttempts: int(failedAttempts),
		LockedUntil:    lock,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}
}

func mapOptionalTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
