package gatesdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gatehouselabs/gatehouse/pkg/httpx"
)

// Error kinds carried on the wire. Each maps to exactly one human-readable
// message category.
const (
	ErrorCodeMissingCredentials = "missing_credentials"
	ErrorCodeInvalidCredentials = "invalid_credentials"
	ErrorCodeAccountLocked      = "account_locked"
	ErrorCodeUserNotFound       = "user_not_found"
	ErrorCodeEmailTaken         = "email_taken"
	ErrorCodeValidation         = "validation_error"
	ErrorCodeServerError        = "server_error"
)

// APIError is the service's error envelope. It implements the error
// interface and is used both by the server (to write HTTP responses) and by
// the SDK client (to represent failed calls).
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is the error kind (e.g. "invalid_credentials", "account_locked")
	Code string `json:"error"`

	// Description is a human-readable description of the error
	Description string `json:"error_description"`

	// AttemptsRemaining is set only for invalid_credentials: how many more
	// failures the account absorbs before it locks.
	AttemptsRemaining int `json:"attempts_remaining,omitempty"`

	// Details carries field-specific validation errors when Code is
	// "validation_error".
	Details map[string]string `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes this APIError to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(e)
}

// Predefined errors for the fixed kinds. Handlers copy the prototypes that
// need per-request fields (attempts remaining, validation details).
var (
	ErrMissingCredentials = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeMissingCredentials,
		Description: "email and password are required",
	}

	ErrAccountLocked = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeAccountLocked,
		Description: "account temporarily locked due to repeated failures; retry in 15 minutes",
	}

	ErrUserNotFound = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeUserNotFound,
		Description: "user not found",
	}

	ErrEmailTaken = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeEmailTaken,
		Description: "an account with this email already exists",
	}

	ErrInvalidJSONBody = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeValidation,
		Description: "request body is not valid JSON",
	}

	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "an internal error occurred",
	}
)

// InvalidCredentialsError builds the invalid_credentials error for a given
// remaining-attempts count.
func InvalidCredentialsError(attemptsRemaining int) *APIError {
	return &APIError{
		StatusCode:        http.StatusUnauthorized,
		Code:              ErrorCodeInvalidCredentials,
		Description:       fmt.Sprintf("invalid credentials, %d attempts remaining", attemptsRemaining),
		AttemptsRemaining: attemptsRemaining,
	}
}

// ValidationError builds a validation_error with field-level details.
func ValidationError(details map[string]string) *APIError {
	return &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeValidation,
		Description: "request validation failed",
		Details:     details,
	}
}
