// Package service implements the credential verification core: the login
// state machine, the lockout policy and account registration.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gatehouselabs/gatehouse/internal/gatehouse/domain"
	"github.com/gatehouselabs/gatehouse/internal/gatehouse/store"
	"github.com/gatehouselabs/gatehouse/pkg/cryptox"
	"github.com/gatehouselabs/gatehouse/pkg/slogx"
)

// AuthService orchestrates the credential store, password hasher and lockout
// policy into the end-to-end login verdict. It performs no mutation itself;
// every state change goes through a store operation, and the store serializes
// those per email.
type AuthService struct {
	Store  store.Store
	Policy LockoutPolicy
}

// Authenticate verifies an email/password pair and returns the account
// identity on success. Failures are one of ErrMissingCredentials,
// ErrAccountLocked, an InvalidCredentialsError or ErrUserNotFound.
//
// Unknown emails deliberately travel the same failure path as a wrong
// password, with a full attempts allowance, so the response does not reveal
// whether the account exists.
func (s *AuthService) Authenticate(
	ctx context.Context,
	email, password string,
) (domain.Identity, error) {
	log := slogx.FromContext(ctx)

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return domain.Identity{}, ErrMissingCredentials
	}

	// 1. Locked accounts are rejected before any password work. IsLocked
	// also performs lazy expiry, so a lock past its window ends here.
	locked, err := s.Store.Users().IsLocked(ctx, email)
	if err != nil {
		return domain.Identity{}, err
	}
	if locked {
		log.Info("login rejected: account locked", slog.String("email", email))
		return domain.Identity{}, ErrAccountLocked
	}

	// 2. Verify the password against the stored hash. A missing record
	// verifies as false rather than short-circuiting.
	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	verified := false
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return domain.Identity{}, err
	default:
		verified = cryptox.VerifyPassword(password, u.PasswordHash) == nil
	}

	if !verified {
		return domain.Identity{}, s.recordFailure(ctx, email)
	}

	// 3. Success: zero the counter and clear any stale lock, then re-read
	// the record for the identity payload.
	if err := s.Store.Users().ResetFailedAttempts(ctx, email); err != nil {
		return domain.Identity{}, err
	}

	u, err = s.Store.Users().GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		// The record vanished mid-login; surface it, don't mask it.
		log.Error("user disappeared after successful verification", slog.String("email", email))
		return domain.Identity{}, ErrUserNotFound
	}
	if err != nil {
		return domain.Identity{}, err
	}

	log.Info("login succeeded", slog.String("user_id", u.ID))
	return domain.Identity{ID: u.ID, Email: u.Email, Name: u.Name}, nil
}

// recordFailure charges one failed attempt and converts the post-increment
// count into the caller-facing verdict.
func (s *AuthService) recordFailure(ctx context.Context, email string) error {
	log := slogx.FromContext(ctx)

	updated, err := s.Store.Users().IncrementFailedAttempts(ctx, email, s.Policy.Spec())
	if errors.Is(err, store.ErrNotFound) {
		// No record to count against. Report a full allowance so unknown
		// emails are indistinguishable from a first wrong password.
		return &InvalidCredentialsError{AttemptsRemaining: s.Policy.Threshold}
	}
	if err != nil {
		return err
	}

	remaining := s.Policy.Remaining(updated.FailedAttempts)
	if remaining == 0 {
		log.Warn("account locked after repeated failures",
			slog.String("email", email),
			slog.Int("failed_attempts", updated.FailedAttempts),
		)
		return ErrAccountLocked
	}

	log.Info("login failed: invalid credentials",
		slog.String("email", email),
		slog.Int("attempts_remaining", remaining),
	)
	return &InvalidCredentialsError{AttemptsRemaining: remaining}
}
