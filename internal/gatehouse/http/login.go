package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gatehouselabs/gatehouse/internal/gatehouse/service"
	"github.com/gatehouselabs/gatehouse/pkg/gatesdk"
	"github.com/gatehouselabs/gatehouse/pkg/httpx"
	"github.com/gatehouselabs/gatehouse/pkg/slogx"
)

// LoginHandler serves POST /v1/login.
type LoginHandler struct {
	AuthService *service.AuthService
}

// ServeHTTP godoc
//
//	@Summary		Login Endpoint
//	@Description	Verifies an email/password pair and returns the account identity.
//	@Description	Accounts lock for 15 minutes after 5 consecutive failures; attempts against a locked account are rejected without password verification.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		gatesdk.LoginRequest		true	"Credentials"
//	@Success		200		{object}	gatesdk.IdentityResponse	"id, email, name"
//	@Failure		400		{object}	gatesdk.APIError			"missing_credentials"
//	@Failure		401		{object}	gatesdk.APIError			"invalid_credentials with attempts_remaining"
//	@Failure		403		{object}	gatesdk.APIError			"account_locked"
//	@Failure		404		{object}	gatesdk.APIError			"user_not_found"
//	@Failure		429		{object}	gatesdk.APIError			"rate_limit_exceeded"
//	@Failure		500		{object}	gatesdk.APIError			"server_error"
//	@Router			/v1/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req gatesdk.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		gatesdk.ErrInvalidJSONBody.WriteError(w)
		return
	}

	identity, err := h.AuthService.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		var invalid *service.InvalidCredentialsError
		switch {
		case errors.Is(err, service.ErrMissingCredentials):
			gatesdk.ErrMissingCredentials.WriteError(w)
		case errors.Is(err, service.ErrAccountLocked):
			gatesdk.ErrAccountLocked.WriteError(w)
		case errors.As(err, &invalid):
			gatesdk.InvalidCredentialsError(invalid.AttemptsRemaining).WriteError(w)
		case errors.Is(err, service.ErrUserNotFound):
			gatesdk.ErrUserNotFound.WriteError(w)
		default:
			log.Error("login failed", "err", err)
			gatesdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, gatesdk.IdentityResponse{
		ID:    identity.ID,
		Email: identity.Email,
		Name:  identity.Name,
	})
}
