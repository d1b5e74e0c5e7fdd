package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/iudanet/layoutsync/internal/client/collab"
	"github.com/iudanet/layoutsync/internal/client/pending"
	"github.com/iudanet/layoutsync/internal/client/storage"
	"github.com/iudanet/layoutsync/internal/models"
)

// Editor операции редактора, доступные из REPL
type Editor interface {
	Layout() models.Layout
	ProjectID() string
	AddRoom(room models.Room) (models.Op, *pending.Completion, error)
	UpdateRoom(patch models.RoomPatch) (models.Op, *pending.Completion, error)
	TransformRoom(name string, x, y float64, rotationY, scale *float64) (models.Op, *pending.Completion, error)
	RemoveRoom(name string) (models.Op, *pending.Completion, error)
	LoadLayout(l models.Layout)
	Undo() (bool, error)
	Redo() (bool, error)
	RequestSave() error
	PointerMove(screenX, screenY, width, height float64)
	Participants() []models.Participant
	Pending() []pending.Info
	Resend() int
	Status() collab.Status
}

var _ Editor = (*collab.Client)(nil)

// errQuit завершает REPL по команде пользователя
var errQuit = errors.New("quit")

func (c *Cli) collabConfig(a *storage.AuthData) collab.Config {
	cfg := c.opts.Collab
	cfg.Host = c.serverFor(a)
	if a != nil {
		cfg.Token = a.Token
		cfg.DisplayName = a.DisplayName
	}
	return cfg
}

func (c *Cli) runEdit(ctx context.Context, projectID string) error {
	authData, err := c.resolveSession(ctx)
	if err != nil {
		return err
	}

	cfg := c.collabConfig(authData)
	cfg.ProjectID = projectID

	client, err := collab.New(cfg, collab.Deps{
		Dialer:   c.dialer,
		Layouts:  c.layouts,
		Outbox:   c.outbox,
		Metadata: c.metadata,
		Sink:     newPrinter(c.io),
		Logger:   c.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	c.io.Printf("=== Project %s ===\n", projectID)
	c.io.Printf("Server: %s\n", cfg.Host)
	c.io.Println("Type 'help' for commands.")

	if err := client.Start(ctx); err != nil {
		return errors.Join(fmt.Errorf("failed to start session: %w", err), client.Close())
	}

	loopErr := c.repl(ctx, client)
	if err := client.Close(); err != nil {
		c.logger.Warn("Session closed with errors", "error", err)
	}
	return loopErr
}

func (c *Cli) runLocal(ctx context.Context) error {
	cfg := c.opts.Collab
	cfg.ProjectID = ""

	client, err := collab.New(cfg, collab.Deps{
		Sink:   newPrinter(c.io),
		Logger: c.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create editor: %w", err)
	}

	c.io.Println("=== Local layout ===")
	c.io.Println("No session: undo/redo work locally. Type 'help' for commands.")

	if err := client.Start(ctx); err != nil {
		return errors.Join(err, client.Close())
	}
	loopErr := c.repl(ctx, client)
	if err := client.Close(); err != nil {
		c.logger.Warn("Editor closed with errors", "error", err)
	}
	return loopErr
}

// repl читает команды, пока не придет quit, EOF или отмена контекста.
// Чтение идет в отдельной горутине: ReadInput блокируется на stdin.
func (c *Cli) repl(ctx context.Context, ed Editor) error {
	type line struct {
		err  error
		text string
	}
	lines := make(chan line)
	next := make(chan struct{}, 1)

	go func() {
		for range next {
			text, err := c.io.ReadInput("> ")
			select {
			case lines <- line{text: text, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()
	defer close(next)

	for {
		next <- struct{}{}
		var in line
		select {
		case <-ctx.Done():
			c.io.Println()
			return nil
		case in = <-lines:
		}

		if in.text != "" {
			if err := c.execute(ed, in.text); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				c.io.Printf("Error: %v\n", err)
			}
		}

		if in.err != nil {
			if errors.Is(in.err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to read command: %w", in.err)
		}
	}
}
