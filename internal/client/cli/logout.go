package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/layoutsync/internal/client/auth"
)

func (c *Cli) runLogout(ctx context.Context) error {
	c.io.Println("=== Logout ===")

	if err := c.auth.Logout(ctx); err != nil {
		if errors.Is(err, auth.ErrNoToken) {
			c.io.Println("No saved token.")
			return nil
		}
		return fmt.Errorf("logout failed: %w", err)
	}

	c.io.Println("✓ Logout successful!")
	c.io.Println("The saved token has been deleted.")

	return nil
}
