package storage

import (
	"context"
)

// AuthStorage defines interface for storing the bearer credential on client.
// Токен хранится как есть: он и так передается серверу в query строке.
type AuthStorage interface {
	// SaveAuth stores authentication data, replacing the previous one
	SaveAuth(ctx context.Context, auth *AuthData) error

	// GetAuth retrieves stored authentication data
	// Returns ErrAuthNotFound if no auth data exists
	GetAuth(ctx context.Context) (*AuthData, error)

	// DeleteAuth removes stored authentication data (logout)
	DeleteAuth(ctx context.Context) error

	// IsAuthenticated checks if a stored token exists and is not expired
	IsAuthenticated(ctx context.Context) (bool, error)
}

// AuthData represents authentication information in storage
type AuthData struct {
	Server      string `json:"server"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Token       string `json:"token"`
	// ExpiresAt unix seconds; 0 means the token carries no exp claim
	ExpiresAt int64 `json:"expires_at"`
}
