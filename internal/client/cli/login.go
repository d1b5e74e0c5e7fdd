package cli

import (
	"context"
	"fmt"
	"time"
)

func (c *Cli) runLogin(ctx context.Context) error {
	c.io.Println("=== Login ===")
	c.io.Println()

	token, err := c.explicitToken()
	if err != nil {
		return err
	}
	if token == "" {
		if token, err = c.promptToken(); err != nil {
			return err
		}
	}

	authData, err := c.auth.Login(ctx, c.opts.Server, token)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	c.io.Println("✓ Token saved!")
	c.io.Printf("Server: %s\n", authData.Server)
	if authData.UserID != "" {
		c.io.Printf("User: %s (%s)\n", displayOr(authData.DisplayName, "-"), authData.UserID)
	} else {
		c.io.Println("User: unknown (token is not a JWT)")
	}
	if authData.ExpiresAt != 0 {
		c.io.Printf("Token expires: %s\n", time.Unix(authData.ExpiresAt, 0).Format(time.RFC3339))
	}

	return nil
}

func displayOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
