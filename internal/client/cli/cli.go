package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/iudanet/layoutsync/internal/client/auth"
	"github.com/iudanet/layoutsync/internal/client/collab"
	"github.com/iudanet/layoutsync/internal/client/iocli"
	"github.com/iudanet/layoutsync/internal/client/storage"
	"github.com/iudanet/layoutsync/internal/client/transport"
)

// TokenEnv переменная окружения с bearer токеном
const TokenEnv = "LAYOUTSYNC_TOKEN"

// Tokens источники токена из флагов
type Tokens struct {
	FromFile string
	FromArgs string
}

// Options настройки команд
type Options struct {
	Server string
	Tokens Tokens
	// Collab базовая конфигурация сессии; Host, ProjectID, Token и DisplayName заполняются командой
	Collab collab.Config
}

// Deps зависимости команд
type Deps struct {
	IO       iocli.IO
	Auth     auth.Authenticator
	Layouts  storage.LayoutStorage
	Outbox   storage.OutboxStorage
	Metadata storage.MetadataStorage
	Dialer   transport.Dialer
	Logger   *slog.Logger
}

type Cli struct {
	io       iocli.IO
	auth     auth.Authenticator
	layouts  storage.LayoutStorage
	outbox   storage.OutboxStorage
	metadata storage.MetadataStorage
	dialer   transport.Dialer
	logger   *slog.Logger
	opts     Options
}

func New(opts Options, deps Deps) *Cli {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	return &Cli{
		io:       deps.IO,
		auth:     deps.Auth,
		layouts:  deps.Layouts,
		outbox:   deps.Outbox,
		metadata: deps.Metadata,
		dialer:   deps.Dialer,
		logger:   deps.Logger,
		opts:     opts,
	}
}

// explicitToken возвращает токен, переданный явно, в порядке приоритета:
// 1. Переменная окружения LAYOUTSYNC_TOKEN
// 2. Файл --token-file
// 3. Флаг --token
// Пустая строка означает, что явного токена нет.
func (c *Cli) explicitToken() (string, error) {
	// Priority 1: Environment variable
	if envToken := os.Getenv(TokenEnv); envToken != "" {
		return strings.TrimSpace(envToken), nil
	}

	// Priority 2: File
	if c.opts.Tokens.FromFile != "" {
		content, err := os.ReadFile(c.opts.Tokens.FromFile)
		if err != nil {
			return "", fmt.Errorf("failed to read token file: %w", err)
		}
		token := strings.TrimSpace(string(content))
		if token == "" {
			return "", fmt.Errorf("token file is empty")
		}
		return token, nil
	}

	// Priority 3: CLI parameter
	return strings.TrimSpace(c.opts.Tokens.FromArgs), nil
}

// promptToken запрашивает токен интерактивно
func (c *Cli) promptToken() (string, error) {
	token, err := c.io.ReadPassword("Token: ")
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	if token == "" {
		return "", fmt.Errorf("token cannot be empty")
	}
	return token, nil
}

// resolveSession выбирает токен для подключения:
// явный токен, затем сохраненный (login), затем интерактивный ввод.
func (c *Cli) resolveSession(ctx context.Context) (*storage.AuthData, error) {
	token, err := c.explicitToken()
	if err != nil {
		return nil, err
	}
	if token != "" {
		return c.auth.Describe(c.opts.Server, token)
	}

	// Priority 4: stored token
	current, err := c.auth.Current(ctx)
	switch {
	case err == nil:
		return current, nil
	case errors.Is(err, auth.ErrTokenExpired):
		return nil, fmt.Errorf("stored token has expired. Please run 'layoutsync login' again")
	case !errors.Is(err, auth.ErrNoToken):
		return nil, err
	}

	// Priority 5: Interactive prompt (fallback)
	token, err = c.promptToken()
	if err != nil {
		return nil, err
	}
	return c.auth.Describe(c.opts.Server, token)
}

func (c *Cli) serverFor(a *storage.AuthData) string {
	if c.opts.Server != "" {
		return c.opts.Server
	}
	if a != nil {
		return a.Server
	}
	return ""
}

func PrintUsage(out iocli.IO) {
	out.Println("LayoutSync Client")
	out.Println()
	out.Println("Usage:")
	out.Println("  layoutsync [OPTIONS] COMMAND")
	out.Println()
	out.Println("Options:")
	out.Println("  --version             Show version information")
	out.Println("  --server URL          Collaboration server (default: ws://localhost:8000)")
	out.Println("  --db PATH             Path to local database (default: layoutsync.db)")
	out.Println("  --token TOKEN         Bearer token (not recommended, use env var or file)")
	out.Println("  --token-file PATH     Path to file containing the bearer token")
	out.Println("  --log-level LEVEL     debug, info, warn or error (default: warn)")
	out.Println()
	out.Println("Token Priority (highest to lowest):")
	out.Println("  1. " + TokenEnv + " environment variable")
	out.Println("  2. --token-file (file path)")
	out.Println("  3. --token (command line)")
	out.Println("  4. Token saved by 'login'")
	out.Println("  5. Interactive prompt (fallback)")
	out.Println()
	out.Println("Commands:")
	out.Println("  login                 Save a token for later sessions")
	out.Println("  logout                Forget the saved token")
	out.Println("  status                Show the saved token status")
	out.Println("  edit <project>        Join a project session and edit its layout")
	out.Println("  local                 Edit a layout without a session (local undo/redo)")
	out.Println()
	out.Println("Examples:")
	out.Println("  export " + TokenEnv + "='eyJhbGciOi...'")
	out.Println("  layoutsync edit 3f2b9a1e-7c4d-4e8a-9b1f-0a2c3d4e5f60")
	out.Println("  layoutsync --server wss://plans.example.com login")
}
