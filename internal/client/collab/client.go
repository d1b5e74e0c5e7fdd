// Package collab собирает клиент совместного редактирования плана:
// соединение, отправку операций, reducer, историю и присутствие участников.
package collab

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iudanet/layoutsync/internal/client/history"
	"github.com/iudanet/layoutsync/internal/client/opchannel"
	"github.com/iudanet/layoutsync/internal/client/pending"
	"github.com/iudanet/layoutsync/internal/client/presence"
	"github.com/iudanet/layoutsync/internal/client/storage"
	"github.com/iudanet/layoutsync/internal/client/transport"
	"github.com/iudanet/layoutsync/internal/models"
	"github.com/iudanet/layoutsync/internal/opid"
	"github.com/iudanet/layoutsync/internal/validation"
	"github.com/iudanet/layoutsync/pkg/api"
)

// Ошибки клиента
var (
	// ErrStandalone indicates an operation that needs a collaborative session
	ErrStandalone = errors.New("no collaborative session")

	// ErrClosed indicates the client was closed
	ErrClosed = errors.New("client closed")

	// ErrAlreadyStarted indicates Start was called twice
	ErrAlreadyStarted = errors.New("client already started")

	// ErrRoomNotFound indicates the edit targets a room that is not in the layout
	ErrRoomNotFound = errors.New("room not found")
)

// Mode статус совместной работы для UI
type Mode string

const (
	ModeIdle       Mode = "idle"
	ModeConnecting Mode = "connecting"
	ModeSyncing    Mode = "syncing"
	ModeConnected  Mode = "connected"
)

// Deps внешние зависимости клиента. Все поля необязательны:
// без Dialer используется websocket, без хранилищ кэш и outbox отключены.
type Deps struct {
	Dialer   transport.Dialer
	Layouts  storage.LayoutStorage
	Outbox   storage.OutboxStorage
	Metadata storage.MetadataStorage
	Sink     EventSink
	Logger   *slog.Logger
	Now      func() time.Time
}

// Client владеет layout и связывает входящие сообщения с reducer,
// реестром операций, историей и списком участников.
//
// Входящие кадры обрабатываются под mu строго по одному; публичные методы
// берут тот же mu. Порядок блокировок: mu, затем блокировки opchannel и transport.
// EventSink вызывается после освобождения mu.
type Client struct {
	ctx       context.Context
	manager   *transport.Manager
	channel   *opchannel.Channel
	registry  *pending.Registry
	ids       *opid.Generator
	history   *history.Coordinator
	tracker   *presence.Tracker
	coalescer *presence.FrameCoalescer
	throttle  *presence.Throttle
	layouts   storage.LayoutStorage
	outbox    storage.OutboxStorage
	metadata  storage.MetadataStorage
	sink      EventSink
	logger    *slog.Logger
	now       func() time.Time

	beaconStop chan struct{}
	beaconDone chan struct{}

	layout        models.Layout
	recent        []api.OpRecord
	notifications []func()
	cfg           Config
	mu            sync.Mutex
	started       bool
	closed        atomic.Bool

	status   statusState
	statusMu sync.Mutex
}

type statusState struct {
	lastAutosave time.Time
	lastSync     time.Time
	mode         Mode
}

// New создает клиент. Соединение не открывается до Start.
func New(cfg Config, deps Deps) (*Client, error) {
	if !cfg.Standalone() {
		if err := validation.ValidateProjectID(cfg.ProjectID); err != nil {
			return nil, fmt.Errorf("invalid project id: %w", err)
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if !cfg.Standalone() {
		logger = logger.With("project_id", cfg.ProjectID)
	}
	sink := deps.Sink
	if sink == nil {
		sink = NopSink{}
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	c := &Client{
		ctx:      context.Background(),
		ids:      opid.NewGenerator(),
		history:  history.NewCoordinator(cfg.HistoryCapacity, logger),
		tracker:  presence.NewTrackerWithClock(now),
		layouts:  deps.Layouts,
		outbox:   deps.Outbox,
		metadata: deps.Metadata,
		sink:     sink,
		logger:   logger,
		now:      now,
		layout:   models.NewLayout(),
		cfg:      cfg,
		status:   statusState{mode: ModeIdle},
	}
	c.registry = pending.NewRegistry(pending.WithClock(now), pending.WithExpireHook(c.onExpired))

	var sender opchannel.Sender
	if !cfg.Standalone() {
		dialer := deps.Dialer
		if dialer == nil {
			dialer = transport.NewWebsocketDialer(cfg.Transport.DialTimeout, cfg.WriteTimeout)
		}
		c.manager = transport.NewManager(cfg.transportConfig(), dialer, c, logger)
		sender = c.manager
		c.coalescer = presence.NewFrameCoalescer(cfg.FrameInterval, c.emitPresence)
		c.throttle = presence.NewThrottle(cfg.ThrottleInterval, c.emitCursor)
	}
	c.channel = opchannel.New(sender, c.registry, c.ids, cfg.Channel, logger)

	return c, nil
}

// Start подключается к сессии. Перед подключением восстанавливаются
// кэшированный layout и неподтвержденные операции из outbox: они уйдут
// с теми же opId при открытии соединения. В автономном режиме ничего не делает.
func (c *Client) Start(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}

	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	if c.cfg.Standalone() {
		c.mu.Unlock()
		return nil
	}

	// outbox может инициировать подключение раньше, чем закончится Start:
	// OnOpen ждет mu и выставит connected уже после syncing
	c.setMode(ModeSyncing)
	c.restoreLocked(ctx)
	c.history.SetSession(c.manager)
	c.beaconStop = make(chan struct{})
	c.beaconDone = make(chan struct{})
	c.unlock()

	c.manager.EnsureConnected()
	go c.beacon(c.beaconStop, c.beaconDone)

	c.logger.Info("Collaborative session started", "node_id", c.ids.NodeID())
	return nil
}

// Close завершает сессию: best-effort save, остановка таймеров и транспорта,
// сохранение layout в кэш. Неподтвержденные операции остаются в outbox.
// Повторный вызов безопасен.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.mu.Lock()
	started := c.started
	current := c.layout
	stop, done := c.beaconStop, c.beaconDone
	c.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
	if c.coalescer != nil {
		c.coalescer.Stop()
		c.throttle.Stop()
	}

	var errs []error
	if c.manager != nil {
		if started && c.cfg.SaveOnClose && c.manager.IsOpen() {
			if err := c.manager.Send(api.SimpleMessage{Type: api.TypeSave}); err != nil {
				c.logger.Debug("Save on close not sent", "error", err)
			}
		}
		c.manager.Close()
		if started {
			errs = append(errs, c.persistSnapshot(current))
		}
	}

	c.channel.Close()
	c.history.ClearSession()
	c.setMode(ModeIdle)
	return errors.Join(errs...)
}

// Layout returns a copy of the current layout.
func (c *Client) Layout() models.Layout {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.layout.Clone()
}

// ProjectID returns the session project, empty when standalone.
func (c *Client) ProjectID() string {
	return c.cfg.ProjectID
}

// Participants returns the roster sorted by user id.
func (c *Client) Participants() []models.Participant {
	return c.tracker.Participants()
}

// OtherCursors returns the latest broadcast cursor per user.
func (c *Client) OtherCursors() map[string]models.Cursor {
	return c.tracker.OtherCursors()
}

// Pending returns the operations awaiting acknowledgment in send order.
func (c *Client) Pending() []pending.Info {
	return c.channel.Pending()
}

// Resend повторно отправляет ожидающие операции; если соединения нет, инициирует его
func (c *Client) Resend() int {
	c.mu.Lock()
	defer c.unlock()
	return c.channel.Resend()
}

// notify откладывает вызов sink до освобождения mu
func (c *Client) notify(fn func()) {
	c.notifications = append(c.notifications, fn)
}

// unlock освобождает mu и выполняет накопленные уведомления
func (c *Client) unlock() {
	queued := c.notifications
	c.notifications = nil
	c.mu.Unlock()
	for _, fn := range queued {
		fn()
	}
}

func (c *Client) setMode(mode Mode) {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	if c.closed.Load() && mode != ModeIdle {
		return
	}
	c.status.mode = mode
}
