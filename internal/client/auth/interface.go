package auth

//go:generate moq -out authenticator_mock.go . Authenticator

import (
	"context"

	"github.com/iudanet/layoutsync/internal/client/storage"
)

// Authenticator операции с токеном, нужные CLI
type Authenticator interface {
	Describe(server, token string) (*storage.AuthData, error)
	Login(ctx context.Context, server, token string) (*storage.AuthData, error)
	Current(ctx context.Context) (*storage.AuthData, error)
	Logout(ctx context.Context) error
}

var _ Authenticator = (*Service)(nil)
