/*
Package gatesdk provides a client SDK for the gatehouse credential service.

# Overview

The service exposes a deliberately small surface: register an account, attempt
a login, and probe health. The SDK wraps those endpoints with typed requests,
responses and errors so callers branch on error kinds rather than matching
message strings.

	client := gatesdk.NewClient("https://gatehouse.example.com")

	user, err := client.Register(ctx, gatesdk.RegisterRequest{
		Email:    "ada@example.com",
		Password: "correct horse battery staple",
		Name:     "Ada",
	})

	identity, err := client.Login(ctx, gatesdk.LoginRequest{
		Email:    "ada@example.com",
		Password: "correct horse battery staple",
	})

# Error handling

Failed calls return *APIError. The Code field carries the service's error
kind; for invalid credentials the AttemptsRemaining field reports how many
tries remain before the account locks:

	identity, err := client.Login(ctx, req)
	var apiErr *gatesdk.APIError
	if errors.As(err, &apiErr) && apiErr.Code == gatesdk.ErrorCodeInvalidCredentials {
		fmt.Printf("%d attempts remaining\n", apiErr.AttemptsRemaining)
	}
*/
package gatesdk
