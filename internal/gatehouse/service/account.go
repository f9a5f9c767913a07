package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gatehouselabs/gatehouse/internal/gatehouse/domain"
	"github.com/gatehouselabs/gatehouse/internal/gatehouse/store"
	"github.com/gatehouselabs/gatehouse/pkg/cryptox"
	"github.com/gatehouselabs/gatehouse/pkg/idx"
	"github.com/gatehouselabs/gatehouse/pkg/slogx"
)

// AccountService handles registration. Signup flows above it own everything
// else about onboarding; this only mints the credential record.
type AccountService struct {
	Store store.Store
}

// Register creates a user record with a hashed password and a clean lockout
// state. ErrEmailTaken when the email is already registered; the existing
// record is left untouched.
func (s *AccountService) Register(
	ctx context.Context,
	email, password, name string,
) (domain.User, error) {
	log := slogx.FromContext(ctx)

	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if email == "" || password == "" || name == "" {
		return domain.User{}, ErrMissingCredentials
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}

	now := time.Now().UTC()
	u := domain.User{
		ID:             idx.New().String(),
		Email:          email,
		Name:           name,
		PasswordHash:   hash,
		FailedAttempts: 0,
		LockedUntil:    nil,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			log.Info("registration rejected: email taken", slog.String("email", email))
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, err
	}

	log.Info("user registered", slog.String("user_id", u.ID))
	return u, nil
}
