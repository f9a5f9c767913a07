package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gatehouselabs/gatehouse/internal/gatehouse/service"
	"github.com/gatehouselabs/gatehouse/internal/gatehouse/store/drivers/memory"
	"github.com/gatehouselabs/gatehouse/pkg/cryptox"
	"github.com/gatehouselabs/gatehouse/pkg/gatesdk"
	"github.com/gatehouselabs/gatehouse/pkg/httpx"
	"github.com/gatehouselabs/gatehouse/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	tmpDir := os.TempDir()
	pepperPath := filepath.Join(tmpDir, "gatehouse-http-test-pepper")
	cryptox.SetPepperPath(pepperPath)
	os.Remove(pepperPath)
	defer os.Remove(pepperPath)

	// Handler tests hammer the endpoints far past the production limits;
	// loosen them so only the dedicated rate limit test observes a 429.
	relaxed := httpx.RateLimitConfig{
		RequestsPerWindow: 10000,
		Window:            time.Minute,
		Burst:             10000,
	}
	httpx.StrictLimit = relaxed
	httpx.PublicLimit = relaxed

	os.Exit(m.Run())
}

// newTestServer stands up the full router over a fresh in-memory store and
// returns an SDK client pointed at it.
func newTestServer(t *testing.T) *gatesdk.Client {
	t.Helper()

	logger := slogx.New(slogx.Config{
		Service: "gatehouse-test",
		Version: "test",
		Env:     "test",
		Level:   "error",
		Format:  "text",
	})

	st := memory.NewStore()
	router := NewRouter("test", st, logger)
	router.AuthService = &service.AuthService{
		Store:  st,
		Policy: service.DefaultLockoutPolicy(),
	}
	router.AccountService = &service.AccountService{Store: st}
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return gatesdk.NewClient(srv.URL)
}

func registerUser(t *testing.T, client *gatesdk.Client, email, password string) *gatesdk.UserResponse {
	t.Helper()

	user, err := client.Register(context.Background(), gatesdk.RegisterRequest{
		Email:    email,
		Password: password,
		Name:     "Test User",
	})
	require.NoError(t, err)
	return user
}

func requireAPIError(t *testing.T, err error, status int, code string) *gatesdk.APIError {
	t.Helper()

	var apiErr *gatesdk.APIError
	require.True(t, errors.As(err, &apiErr), "expected *gatesdk.APIError, got %v", err)
	require.Equal(t, status, apiErr.StatusCode)
	require.Equal(t, code, apiErr.Code)
	return apiErr
}

func TestLoginEndpoint(t *testing.T) {
	ctx := context.Background()

	t.Run("success returns identity", func(t *testing.T) {
		client := newTestServer(t)
		created := registerUser(t, client, "alice@example.com", "a long password")

		identity, err := client.Login(ctx, gatesdk.LoginRequest{
			Email:    "alice@example.com",
			Password: "a long password",
		})
		require.NoError(t, err)
		require.Equal(t, created.ID, identity.ID)
		require.Equal(t, "alice@example.com", identity.Email)
		require.Equal(t, "Test User", identity.Name)
	})

	t.Run("missing credentials", func(t *testing.T) {
		client := newTestServer(t)

		_, err := client.Login(ctx, gatesdk.LoginRequest{Email: "", Password: ""})
		requireAPIError(t, err, http.StatusBadRequest, gatesdk.ErrorCodeMissingCredentials)
	})

	t.Run("wrong password reports attempts remaining", func(t *testing.T) {
		client := newTestServer(t)
		registerUser(t, client, "alice@example.com", "a long password")

		_, err := client.Login(ctx, gatesdk.LoginRequest{
			Email:    "alice@example.com",
			Password: "not the password",
		})
		apiErr := requireAPIError(t, err, http.StatusUnauthorized, gatesdk.ErrorCodeInvalidCredentials)
		require.Equal(t, 4, apiErr.AttemptsRemaining)
	})

	t.Run("unknown email looks like a wrong password", func(t *testing.T) {
		client := newTestServer(t)

		_, err := client.Login(ctx, gatesdk.LoginRequest{
			Email:    "ghost@example.com",
			Password: "whatever",
		})
		apiErr := requireAPIError(t, err, http.StatusUnauthorized, gatesdk.ErrorCodeInvalidCredentials)
		require.Equal(t, 5, apiErr.AttemptsRemaining)
	})

	t.Run("fifth failure locks the account", func(t *testing.T) {
		client := newTestServer(t)
		registerUser(t, client, "alice@example.com", "a long password")

		for range 4 {
			_, err := client.Login(ctx, gatesdk.LoginRequest{
				Email:    "alice@example.com",
				Password: "not the password",
			})
			requireAPIError(t, err, http.StatusUnauthorized, gatesdk.ErrorCodeInvalidCredentials)
		}

		_, err := client.Login(ctx, gatesdk.LoginRequest{
			Email:    "alice@example.com",
			Password: "not the password",
		})
		requireAPIError(t, err, http.StatusForbidden, gatesdk.ErrorCodeAccountLocked)

		// Correct password is rejected while locked.
		_, err = client.Login(ctx, gatesdk.LoginRequest{
			Email:    "alice@example.com",
			Password: "a long password",
		})
		requireAPIError(t, err, http.StatusForbidden, gatesdk.ErrorCodeAccountLocked)
	})

	t.Run("malformed JSON body", func(t *testing.T) {
		client := newTestServer(t)

		resp, err := http.Post(client.BaseURL+"/v1/login", "application/json", nil)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestRegisterEndpoint(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an account", func(t *testing.T) {
		client := newTestServer(t)

		user, err := client.Register(ctx, gatesdk.RegisterRequest{
			Email:    "bob@example.com",
			Password: "a long password",
			Name:     "Bob",
		})
		require.NoError(t, err)
		require.NotEmpty(t, user.ID)
		require.Equal(t, "bob@example.com", user.Email)
		require.Equal(t, "Bob", user.Name)
		require.NotEmpty(t, user.CreatedAt)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		client := newTestServer(t)
		registerUser(t, client, "bob@example.com", "a long password")

		_, err := client.Register(ctx, gatesdk.RegisterRequest{
			Email:    "bob@example.com",
			Password: "another password",
			Name:     "Imposter",
		})
		requireAPIError(t, err, http.StatusConflict, gatesdk.ErrorCodeEmailTaken)
	})

	t.Run("validation failures carry field details", func(t *testing.T) {
		client := newTestServer(t)

		tests := []struct {
			name  string
			req   gatesdk.RegisterRequest
			field string
		}{
			{"invalid email", gatesdk.RegisterRequest{Email: "not-an-email", Password: "a long password", Name: "Bob"}, "Email"},
			{"short password", gatesdk.RegisterRequest{Email: "bob@example.com", Password: "short", Name: "Bob"}, "Password"},
			{"missing name", gatesdk.RegisterRequest{Email: "bob@example.com", Password: "a long password"}, "Name"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := client.Register(ctx, tt.req)
				apiErr := requireAPIError(t, err, http.StatusBadRequest, gatesdk.ErrorCodeValidation)
				require.Contains(t, apiErr.Details, tt.field)
			})
		}
	})
}

func TestHealthEndpoints(t *testing.T) {
	ctx := context.Background()
	client := newTestServer(t)

	t.Run("livez", func(t *testing.T) {
		health, err := client.GetLiveness(ctx)
		require.NoError(t, err)
		require.Equal(t, "ok", health.Status)
		require.Equal(t, "test", health.Version)
		require.NotEmpty(t, health.Uptime)
	})

	t.Run("readyz reports store health", func(t *testing.T) {
		health, err := client.GetReadiness(ctx)
		require.NoError(t, err)
		require.Equal(t, "ok", health.Status)
		require.NotNil(t, health.Checks)
		require.Equal(t, "ok", health.Checks.Database)
	})
}

func TestSwaggerEndpoint(t *testing.T) {
	client := newTestServer(t)

	resp, err := http.Get(client.BaseURL + "/swagger/index.html")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLoginRateLimit(t *testing.T) {
	ctx := context.Background()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	st := memory.NewStore()
	router := NewRouter("test", st, logger)
	router.AuthService = &service.AuthService{Store: st, Policy: service.DefaultLockoutPolicy()}
	router.AccountService = &service.AccountService{Store: st}

	// Wire the login route with a tight limit instead of the shared profile
	// so this test does not depend on package-level state.
	tight := httpx.RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute, Burst: 2}
	loginHandler := &LoginHandler{AuthService: router.AuthService}
	router.Mux.Handle("POST /v1/login",
		httpx.Chain(loginHandler, httpx.RateLimitByIPAndJSONField(tight, "email")),
	)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	client := gatesdk.NewClient(srv.URL)

	for range 2 {
		_, err := client.Login(ctx, gatesdk.LoginRequest{
			Email:    "alice@example.com",
			Password: "whatever",
		})
		requireAPIError(t, err, http.StatusUnauthorized, gatesdk.ErrorCodeInvalidCredentials)
	}

	_, err := client.Login(ctx, gatesdk.LoginRequest{
		Email:    "alice@example.com",
		Password: "whatever",
	})
	var apiErr *gatesdk.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)

	// A different email from the same client keeps its own budget.
	_, err = client.Login(ctx, gatesdk.LoginRequest{
		Email:    "bob@example.com",
		Password: "whatever",
	})
	requireAPIError(t, err, http.StatusUnauthorized, gatesdk.ErrorCodeInvalidCredentials)
}
