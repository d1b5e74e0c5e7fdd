package cli

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownCommand indicates a command name Run does not handle
var ErrUnknownCommand = errors.New("unknown command")

// Run выполняет команду верхнего уровня
func (c *Cli) Run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return c.runLogin(ctx)
	case "logout":
		return c.runLogout(ctx)
	case "status":
		return c.runStatus(ctx)
	case "edit":
		if len(args) == 0 {
			return fmt.Errorf("missing project id. Usage: layoutsync edit <project>")
		}
		return c.runEdit(ctx, args[0])
	case "local":
		return c.runLocal(ctx)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}
}
