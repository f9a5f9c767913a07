package service

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredentials is a caller input error; it is never counted
	// against the lockout budget.
	ErrMissingCredentials = errors.New("missing_credentials")

	// ErrInvalidCredentials rejects a wrong password or an unknown email.
	// Concrete instances are InvalidCredentialsError values carrying the
	// attempts remaining; errors.Is against this sentinel matches them.
	ErrInvalidCredentials = errors.New("invalid_credentials")

	// ErrAccountLocked rejects an attempt against a locked account,
	// including the attempt whose failure crossed the threshold.
	ErrAccountLocked = errors.New("account_locked")

	// ErrUserNotFound reports a record that vanished between password
	// verification and the success re-read. It should be unreachable in
	// normal flow and is surfaced rather than swallowed.
	ErrUserNotFound = errors.New("user_not_found")

	// ErrEmailTaken rejects a registration for an already-used email.
	ErrEmailTaken = errors.New("email_taken")
)

// InvalidCredentialsError carries how many failed attempts remain before the
// account locks. The count is computed from the post-increment record, so a
// caller retry always sees accurate state.
type InvalidCredentialsError struct {
	AttemptsRemaining int
}

func (e *InvalidCredentialsError) Error() string {
	return fmt.Sprintf("invalid_credentials: %d attempts remaining", e.AttemptsRemaining)
}

func (e *InvalidCredentialsError) Unwrap() error { return ErrInvalidCredentials }
