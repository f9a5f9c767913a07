package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gatehouselabs/gatehouse/internal/gatehouse/service"
	"github.com/gatehouselabs/gatehouse/pkg/gatesdk"
	"github.com/gatehouselabs/gatehouse/pkg/httpx"
	"github.com/gatehouselabs/gatehouse/pkg/slogx"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// registerPayload mirrors gatesdk.RegisterRequest with validation tags. The
// password floor applies at signup only; login accepts whatever was set.
type registerPayload struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=256"`
	Name     string `json:"name"     validate:"required,min=1,max=100"`
}

// RegisterHandler serves POST /v1/register.
type RegisterHandler struct {
	AccountService *service.AccountService
}

// ServeHTTP godoc
//
//	@Summary		Registration Endpoint
//	@Description	Creates an account with a hashed password and a clean lockout state.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		gatesdk.RegisterRequest	true	"New account"
//	@Success		201		{object}	gatesdk.UserResponse	"id, email, name, created_at"
//	@Failure		400		{object}	gatesdk.APIError		"validation_error with details"
//	@Failure		409		{object}	gatesdk.APIError		"email_taken"
//	@Failure		429		{object}	gatesdk.APIError		"rate_limit_exceeded"
//	@Failure		500		{object}	gatesdk.APIError		"server_error"
//	@Router			/v1/register [post].
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req registerPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		gatesdk.ErrInvalidJSONBody.WriteError(w)
		return
	}

	if err := validate.Struct(req); err != nil {
		gatesdk.ValidationError(validationDetails(err)).WriteError(w)
		return
	}

	u, err := h.AccountService.Register(ctx, req.Email, req.Password, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			gatesdk.ErrEmailTaken.WriteError(w)
		case errors.Is(err, service.ErrMissingCredentials):
			gatesdk.ErrMissingCredentials.WriteError(w)
		default:
			log.Error("registration failed", "err", err)
			gatesdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, gatesdk.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	})
}

// validationDetails flattens validator errors into a field → message map.
func validationDetails(err error) map[string]string {
	details := make(map[string]string)

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		details["request"] = "invalid request"
		return details
	}

	for _, fe := range fieldErrors {
		switch fe.Tag() {
		case "required":
			details[fe.Field()] = "required"
		case "email":
			details[fe.Field()] = "must be a valid email address"
		case "min":
			details[fe.Field()] = "too short (min " + fe.Param() + ")"
		case "max":
			details[fe.Field()] = "too long (max " + fe.Param() + ")"
		default:
			details[fe.Field()] = "invalid"
		}
	}
	return details
}
