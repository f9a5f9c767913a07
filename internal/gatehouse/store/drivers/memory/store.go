// Package memory is the in-memory credential store driver. It is the default
// for tests and for running without any backing service; state lives for the
// life of the process.
package memory

import (
	"context"
	"sync"

	"github.com/gatehouselabs/gatehouse/internal/gatehouse/domain"
	"github.com/gatehouselabs/gatehouse/internal/gatehouse/store"
)

// Store keeps one record per email in a map guarded by a single mutex. Every
// Users operation runs start-to-finish under the lock, which provides the
// per-email serialization of the counter read-modify-write that the
// authenticator depends on.
type Store struct {
	mu    sync.Mutex
	users map[string]*domain.User // keyed by email
}

func NewStore() *Store {
	return &Store{users: make(map[string]*domain.User)}
}

func (s *Store) Users() store.Users { return &usersRepo{s: s} }

func (s *Store) ApplyMigrations() error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) Ping(ctx context.Context) error { return nil }
