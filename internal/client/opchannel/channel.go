// Package opchannel превращает локальную правку в отслеживаемое сообщение
// с доставкой at-least-once: отправка, очередь до открытия соединения,
// повторная отправка с тем же opId после переподключения.
package opchannel

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/iudanet/layoutsync/internal/client/pending"
	"github.com/iudanet/layoutsync/internal/client/transport"
	"github.com/iudanet/layoutsync/internal/models"
	"github.com/iudanet/layoutsync/internal/opid"
	"github.com/iudanet/layoutsync/pkg/api"
)

//go:generate moq -out sender_mock.go . Sender

// Sender транспорт, через который уходят операции (transport.Manager)
type Sender interface {
	Send(msg any) error
	IsOpen() bool
	EnsureConnected()
}

// Config grace-окна для индикатора ожидающих операций
type Config struct {
	// NoSessionGrace срок жизни записи, если сессии нет и ack не ожидается
	NoSessionGrace time.Duration
	// SendFailureGrace срок жизни записи после неудачной отправки,
	// если переподключение не отправит ее раньше
	SendFailureGrace time.Duration
}

// DefaultConfig returns 200ms / 3000ms grace windows.
func DefaultConfig() Config {
	return Config{
		NoSessionGrace:   200 * time.Millisecond,
		SendFailureGrace: 3000 * time.Millisecond,
	}
}

// Channel отправляет операции и ведет их учет в pending.Registry.
// Без Sender (автономный режим) операции регистрируются только для UI
// и истекают через NoSessionGrace.
type Channel struct {
	sender   Sender
	registry *pending.Registry
	ids      *opid.Generator
	logger   *slog.Logger
	cfg      Config
	mu       sync.Mutex
}

// New creates a channel. sender may be nil when there is no session.
func New(sender Sender, registry *pending.Registry, ids *opid.Generator, cfg Config, logger *slog.Logger) *Channel {
	return &Channel{
		sender:   sender,
		registry: registry,
		ids:      ids,
		logger:   logger,
		cfg:      cfg,
	}
}

// SendOp назначает opId (если его нет), регистрирует операцию и отправляет ее,
// если соединение открыто. Иначе операция ждет в очереди, а транспорт
// инициирует подключение. Возвращает операцию с opId и ее Completion.
func (c *Channel) SendOp(op models.Op) (models.Op, *pending.Completion, error) {
	if op.OpID == "" {
		op = op.WithID(c.ids.Next())
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sender == nil {
		comp, err := c.registry.Add(op, false)
		if err != nil {
			return op, nil, err
		}
		c.registry.StartGrace(op.OpID, c.cfg.NoSessionGrace)
		return op, comp, nil
	}

	open := c.sender.IsOpen()
	comp, err := c.registry.Add(op, !open)
	if err != nil {
		return op, nil, err
	}

	if !open {
		c.logger.Debug("Transport not open, operation queued", "op_id", op.OpID)
		c.sender.EnsureConnected()
		return op, comp, nil
	}

	c.transmitLocked(op)
	return op, comp, nil
}

// transmitLocked отправляет одну операцию; false если отправка не удалась
func (c *Channel) transmitLocked(op models.Op) bool {
	err := c.sender.Send(api.OpMessage{Op: op})
	if err == nil {
		c.registry.MarkSent(op.OpID)
		c.registry.CancelGrace(op.OpID)
		return true
	}

	c.registry.MarkQueued(op.OpID)
	if errors.Is(err, transport.ErrNotConnected) {
		// соединение закрылось между проверкой и отправкой
		c.sender.EnsureConnected()
		return false
	}

	c.logger.Warn("Failed to send operation", "op_id", op.OpID, "error", err)
	c.registry.StartGrace(op.OpID, c.cfg.SendFailureGrace)
	return false
}

// Flush повторно отправляет все записи реестра (в очереди и отправленные
// без ack) в порядке регистрации с теми же opId. Вызывается при открытии
// соединения. Возвращает число отправленных операций.
func (c *Channel) Flush() int {
	if c.sender == nil {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	sent := 0
	for _, info := range c.registry.Snapshot() {
		if !c.transmitLocked(info.Op) {
			break
		}
		sent++
	}
	if sent > 0 {
		c.logger.Info("Flushed pending operations", "count", sent)
	}
	return sent
}

// Resend отправляет ожидающие операции по запросу пользователя.
// Если соединение не открыто, инициирует подключение; отправка произойдет при открытии.
func (c *Channel) Resend() int {
	if c.sender == nil {
		return 0
	}
	if !c.sender.IsOpen() {
		c.sender.EnsureConnected()
		return 0
	}
	return c.Flush()
}

// HandleAck resolves the matching pending entry. Unknown ids are ignored.
func (c *Channel) HandleAck(ack api.AckMessage) bool {
	ok := c.registry.Resolve(ack)
	if !ok {
		c.logger.Debug("Ack for unknown operation", "op_id", ack.OpID)
	}
	return ok
}

// Pending returns the outstanding operations in send order.
func (c *Channel) Pending() []pending.Info {
	return c.registry.Snapshot()
}

// Close rejects every outstanding completion with pending.ErrClosed.
func (c *Channel) Close() {
	c.registry.Close()
}
