package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/iudanet/layoutsync/internal/client/auth"
	"github.com/iudanet/layoutsync/internal/client/cli"
	"github.com/iudanet/layoutsync/internal/client/collab"
	"github.com/iudanet/layoutsync/internal/client/iocli"
	"github.com/iudanet/layoutsync/internal/client/storage/boltdb"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run())
}

// run возвращает код выхода; отложенные вызовы успевают отработать до os.Exit
func run() int {
	// Глобальные флаги
	showVersion := flag.Bool("version", false, "Show version information")
	serverURL := flag.String("server", "ws://localhost:8000", "Collaboration server URL")
	dbPath := flag.String("db", "layoutsync.db", "Path to local database")
	token := flag.String("token", "", "Bearer token (prefer "+cli.TokenEnv+" or --token-file)")
	tokenFile := flag.String("token-file", "", "Path to file containing the bearer token")
	logLevel := flag.String("log-level", "warn", "Log level: debug, info, warn, error")

	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		printVersion()
		return 0
	}

	out, closeIO := openIO(*dbPath)
	defer closeIO()

	// Получаем команду
	args := flag.Args()
	if len(args) == 0 {
		cli.PrintUsage(out)
		return 1
	}
	command := args[0]

	level, err := parseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	// логи идут в stderr, чтобы не смешиваться с выводом REPL
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})).
		With("session_id", uuid.NewString())
	slog.SetDefault(logger)

	// Ctrl+C завершает сессию штатно: сохранение и закрытие соединения
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Открываем BoltDB storage
	boltStorage, err := boltdb.New(ctx, *dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		return 1
	}
	defer func() {
		if err := boltStorage.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	app := cli.New(cli.Options{
		Server: *serverURL,
		Tokens: cli.Tokens{FromFile: *tokenFile, FromArgs: *token},
		Collab: collab.DefaultConfig(),
	}, cli.Deps{
		IO:       out,
		Auth:     auth.NewService(boltStorage, logger),
		Layouts:  boltStorage,
		Outbox:   boltStorage,
		Metadata: boltStorage,
		Logger:   logger,
	})

	if err := app.Run(ctx, command, args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, cli.ErrUnknownCommand) {
			cli.PrintUsage(out)
		}
		return 1
	}
	return 0
}

// openIO выбирает readline для интерактивного терминала и построчный ввод
// для перенаправленного stdin (скрипты команд).
func openIO(dbPath string) (iocli.IO, func()) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return iocli.NewStdio(), func() {}
	}
	rl, err := iocli.NewReadline(iocli.ReadlineConfig{
		HistoryFile: dbPath + ".history",
		Commands:    cli.Commands(),
	})
	if err != nil {
		return iocli.NewStdio(), func() {}
	}
	return rl, func() { _ = rl.Close() }
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

func printVersion() {
	fmt.Printf("LayoutSync Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
