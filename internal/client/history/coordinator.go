package history

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/iudanet/layoutsync/internal/layout"
	"github.com/iudanet/layoutsync/internal/models"
	"github.com/iudanet/layoutsync/pkg/api"
)

// Ошибки истории
var (
	// ErrNothingToUndo indicates the standalone undo stack is empty
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrNothingToRedo indicates the standalone redo stack is empty
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Requester отправляет undo_request/redo_request на сервер
type Requester interface {
	Send(msg any) error
}

// Coordinator выбирает между локальной историей и делегированием серверу.
// Единственный переключатель - наличие активной сессии (SetSession/ClearSession):
// в сессии локальный undo никогда не применяется, без сессии запросы на сервер не уходят.
type Coordinator struct {
	stack     *Stack
	requester Requester
	logger    *slog.Logger
	mu        sync.Mutex
}

// NewCoordinator creates a coordinator in standalone mode.
func NewCoordinator(capacity int, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		stack:  NewStack(capacity),
		logger: logger,
	}
}

// SetSession включает режим совместной работы. Локальная история сбрасывается:
// после выхода из сессии снимки до нее уже не соответствуют общему layout.
func (c *Coordinator) SetSession(r Requester) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requester = r
	c.stack.Clear()
}

// ClearSession returns to standalone mode.
func (c *Coordinator) ClearSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requester = nil
}

// InSession reports whether undo/redo are delegated to the server.
func (c *Coordinator) InSession() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requester != nil
}

// Apply применяет локальную операцию через reducer.
// Без сессии и без skipHistory состояние до изменения попадает в undo.
func (c *Coordinator) Apply(current models.Layout, op models.Op, skipHistory bool) models.Layout {
	next := layout.Apply(current, op)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.requester == nil && !skipHistory {
		c.stack.Record(current)
	}
	return next
}

// Replace устанавливает новый layout целиком (загрузка, генерация)
func (c *Coordinator) Replace(current, next models.Layout, skipHistory bool) models.Layout {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.requester == nil && !skipHistory {
		c.stack.Record(current)
	}
	return next.Clone()
}

// Undo без сессии возвращает предыдущее состояние (applied=true).
// В сессии отправляет undo_request и возвращает current без изменений.
func (c *Coordinator) Undo(current models.Layout) (models.Layout, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.requester != nil {
		return current, false, c.delegateLocked(api.TypeUndoRequest)
	}
	prev, ok := c.stack.Undo(current)
	if !ok {
		return current, false, ErrNothingToUndo
	}
	return prev, true, nil
}

// Redo mirrors Undo.
func (c *Coordinator) Redo(current models.Layout) (models.Layout, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.requester != nil {
		return current, false, c.delegateLocked(api.TypeRedoRequest)
	}
	next, ok := c.stack.Redo(current)
	if !ok {
		return current, false, ErrNothingToRedo
	}
	return next, true, nil
}

// Depths returns the local undo/redo stack sizes.
func (c *Coordinator) Depths() (undo, redo int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stack.Depths()
}

func (c *Coordinator) delegateLocked(kind string) error {
	if err := c.requester.Send(api.SimpleMessage{Type: kind}); err != nil {
		return fmt.Errorf("failed to send %s: %w", kind, err)
	}
	c.logger.Debug("History navigation delegated to server", "type", kind)
	return nil
}
