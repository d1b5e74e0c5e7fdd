package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/layoutsync/internal/client/auth"
)

func (c *Cli) runStatus(ctx context.Context) error {
	c.io.Println("=== Token Status ===")
	c.io.Println()

	authData, err := c.auth.Current(ctx)
	switch {
	case errors.Is(err, auth.ErrNoToken):
		c.io.Println("Status: No saved token")
		c.io.Println()
		c.io.Println("Run 'layoutsync login' to save one.")
		return nil
	case errors.Is(err, auth.ErrTokenExpired):
		// authData заполнен: показываем, что именно истекло
	case err != nil:
		return fmt.Errorf("failed to check token: %w", err)
	}

	c.io.Println("Status: Token saved")
	c.io.Printf("Server: %s\n", authData.Server)
	if authData.UserID != "" {
		c.io.Printf("User: %s (%s)\n", displayOr(authData.DisplayName, "-"), authData.UserID)
	}

	if authData.ExpiresAt == 0 {
		c.io.Println("Token expires: never (no exp claim)")
		return nil
	}

	expiresAt := time.Unix(authData.ExpiresAt, 0)
	c.io.Printf("Token expires: %s\n", expiresAt.Format(time.RFC3339))
	if remaining := time.Until(expiresAt); remaining > 0 {
		c.io.Printf("Time remaining: %s\n", remaining.Round(time.Second))
	} else {
		c.io.Println("⚠️  Token has expired. Please login again.")
	}

	return nil
}
