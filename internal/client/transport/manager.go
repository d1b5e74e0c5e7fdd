// Package transport управляет единственным соединением с сессией проекта:
// подключение, heartbeat, переподключение с backoff.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/iudanet/layoutsync/pkg/api"
)

// Ошибки транспорта
var (
	// ErrNotConnected indicates the transport is not open
	ErrNotConnected = errors.New("transport not connected")

	// ErrSendFailed indicates the frame could not be written to an open transport
	ErrSendFailed = errors.New("transport send failed")
)

// State состояние соединения
type State string

const (
	StateIdle         State = "idle"
	StateConnecting   State = "connecting"
	StateOpen         State = "open"
	StateReconnecting State = "reconnecting"
	StateClosed       State = "closed"
)

// Handler получает события соединения.
// Методы вызываются из горутины чтения соединения, строго по одному.
type Handler interface {
	// OnOpen вызывается после открытия соединения и отправки join
	OnOpen()

	// OnMessage вызывается для каждого входящего кадра, кроме ping
	OnMessage(data []byte)

	// OnReconnecting вызывается, когда запланировано переподключение
	OnReconnecting(delay time.Duration)
}

// Config параметры соединения
type Config struct {
	Host              string
	ProjectID         string
	Token             string
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	// HeartbeatTimeout закрывает соединение, если за это время не пришло ни одного кадра.
	// 0 отключает watchdog.
	HeartbeatTimeout time.Duration
	DialTimeout      time.Duration
}

// DefaultConfig returns the production defaults. The heartbeat timeout covers
// two missed server pings (20s interval, 10s timeout on the server side).
func DefaultConfig() Config {
	return Config{
		Host:              "ws://localhost:8000",
		InitialBackoff:    DefaultInitialBackoff,
		MaxBackoff:        DefaultMaxBackoff,
		BackoffMultiplier: DefaultBackoffMultiplier,
		HeartbeatTimeout:  50 * time.Second,
		DialTimeout:       10 * time.Second,
	}
}

// Manager держит не более одного живого соединения.
// Ошибки транспорта никогда не возвращаются вызывающему коду как фатальные:
// любое закрытие или ошибка ведет к переподключению с backoff.
type Manager struct {
	dialer         Dialer
	handler        Handler
	conn           Conn
	logger         *slog.Logger
	backoff        *Backoff
	reconnectTimer *time.Timer
	watchdog       *time.Timer
	cfg            Config
	state          State
	reconnectDelay time.Duration
	gen            uint64
	reconnectGen   uint64
	mu             sync.Mutex
	writeMu        sync.Mutex
	closed         bool
}

// NewManager creates a manager in the idle state; nothing is dialed until Connect.
func NewManager(cfg Config, dialer Dialer, handler Handler, logger *slog.Logger) *Manager {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultConfig().DialTimeout
	}
	return &Manager{
		cfg:     cfg,
		dialer:  dialer,
		handler: handler,
		logger:  logger,
		backoff: NewBackoff(cfg.InitialBackoff, cfg.MaxBackoff, cfg.BackoffMultiplier),
		state:   StateIdle,
	}
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsOpen reports whether frames can be sent right now.
func (m *Manager) IsOpen() bool {
	return m.State() == StateOpen
}

// ReconnectDelay возвращает задержку последнего запланированного переподключения
func (m *Manager) ReconnectDelay() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reconnectDelay
}

// Connect закрывает текущее соединение (если есть) и открывает новое.
// Не блокируется: результат приходит через Handler.
func (m *Manager) Connect() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	old, gen := m.restartLocked()
	m.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	go m.run(gen)
}

// EnsureConnected инициирует подключение, только если соединение не открыто
// и не открывается прямо сейчас.
func (m *Manager) EnsureConnected() {
	m.mu.Lock()
	if m.closed || m.state == StateOpen || m.state == StateConnecting {
		m.mu.Unlock()
		return
	}
	old, gen := m.restartLocked()
	m.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	go m.run(gen)
}

// Send сериализует сообщение и отправляет его, если соединение открыто.
// При ошибке записи соединение закрывается и уходит в переподключение.
func (m *Manager) Send(msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	m.mu.Lock()
	conn, gen, open := m.conn, m.gen, m.state == StateOpen
	m.mu.Unlock()
	if !open || conn == nil {
		return ErrNotConnected
	}

	m.writeMu.Lock()
	err = conn.WriteMessage(data)
	m.writeMu.Unlock()
	if err != nil {
		m.logger.Warn("Failed to write frame, dropping connection", "error", err)
		// Send вызывается и из обработчиков событий, поэтому уведомление асинхронное
		if delay, ok := m.disconnected(gen, err); ok {
			go m.handler.OnReconnecting(delay)
		}
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return nil
}

// Close отменяет heartbeat и таймер переподключения и закрывает соединение.
// Идемпотентен; после Close менеджер больше не подключается.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.state = StateClosed
	m.stopReconnectLocked()
	conn := m.detachLocked()
	m.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	m.logger.Debug("Transport closed", "project_id", m.cfg.ProjectID)
}

// restartLocked отсоединяет текущее соединение и переводит менеджер в connecting.
func (m *Manager) restartLocked() (Conn, uint64) {
	m.stopReconnectLocked()
	old := m.detachLocked()
	m.state = StateConnecting
	return old, m.gen
}

// detachLocked увеличивает поколение соединения, чтобы события старого
// соединения игнорировались, и останавливает watchdog.
func (m *Manager) detachLocked() Conn {
	m.gen++
	if m.watchdog != nil {
		m.watchdog.Stop()
		m.watchdog = nil
	}
	conn := m.conn
	m.conn = nil
	return conn
}

func (m *Manager) stopReconnectLocked() {
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}
	m.reconnectGen++
}

// run выполняет подключение и затем цикл чтения одного поколения соединения
func (m *Manager) run(gen uint64) {
	url, err := BuildURL(m.cfg.Host, m.cfg.ProjectID, m.cfg.Token)
	if err != nil {
		m.logger.Error("Invalid session address", "error", err)
		m.lost(gen, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.DialTimeout)
	conn, err := m.dialer.Dial(ctx, url)
	cancel()

	m.mu.Lock()
	if gen != m.gen || m.closed {
		// за время подключения был вызван Connect или Close
		m.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return
	}
	if err != nil {
		m.mu.Unlock()
		m.logger.Warn("Failed to connect", "project_id", m.cfg.ProjectID, "error", err)
		m.lost(gen, err)
		return
	}

	m.conn = conn
	m.state = StateOpen
	m.reconnectDelay = 0
	m.backoff.Reset()
	m.armWatchdogLocked(gen)
	m.mu.Unlock()

	m.logger.Info("Connected to session", "project_id", m.cfg.ProjectID)

	if err := m.Send(api.NewJoin()); err != nil {
		m.logger.Warn("Failed to send join", "error", err)
	}
	if !m.current(gen) {
		return
	}
	m.handler.OnOpen()

	m.readLoop(gen, conn)
}

func (m *Manager) readLoop(gen uint64, conn Conn) {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			m.lost(gen, err)
			return
		}
		if !m.touch(gen) {
			return
		}
		if m.answerPing(data) {
			continue
		}
		m.handler.OnMessage(data)
	}
}

// answerPing отвечает pong с тем же ts, если кадр - ping
func (m *Manager) answerPing(data []byte) bool {
	var env api.Envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Type != api.TypePing {
		return false
	}
	var ping api.PingMessage
	if err := json.Unmarshal(data, &ping); err != nil {
		m.logger.Debug("Dropping malformed ping", "error", err)
		return true
	}
	if err := m.Send(api.NewPong(ping.TS)); err != nil {
		m.logger.Warn("Failed to answer ping", "error", err)
	}
	return true
}

func (m *Manager) current(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return gen == m.gen && !m.closed
}

// touch сбрасывает watchdog; false если поколение устарело
func (m *Manager) touch(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen || m.closed {
		return false
	}
	if m.watchdog != nil {
		m.watchdog.Reset(m.cfg.HeartbeatTimeout)
	}
	return true
}

func (m *Manager) armWatchdogLocked(gen uint64) {
	if m.cfg.HeartbeatTimeout <= 0 {
		return
	}
	m.watchdog = time.AfterFunc(m.cfg.HeartbeatTimeout, func() {
		m.mu.Lock()
		if gen != m.gen || m.closed {
			m.mu.Unlock()
			return
		}
		conn := m.conn
		m.mu.Unlock()

		m.logger.Warn("No frames from server, dropping connection",
			"timeout", m.cfg.HeartbeatTimeout)
		if conn != nil {
			// цикл чтения получит ошибку и запустит переподключение
			_ = conn.Close()
		}
	})
}

// lost переводит соединение поколения gen в переподключение и уведомляет обработчик
func (m *Manager) lost(gen uint64, cause error) {
	if delay, ok := m.disconnected(gen, cause); ok {
		m.handler.OnReconnecting(delay)
	}
}

// disconnected обрабатывает закрытие/ошибку соединения поколения gen.
// Возвращает задержку, если было запланировано переподключение.
func (m *Manager) disconnected(gen uint64, cause error) (time.Duration, bool) {
	m.mu.Lock()
	if gen != m.gen || m.closed {
		m.mu.Unlock()
		return 0, false
	}
	conn := m.detachLocked()
	delay, scheduled := m.scheduleReconnectLocked()
	m.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	if !scheduled {
		return 0, false
	}

	m.logger.Info("Connection lost, reconnecting",
		"project_id", m.cfg.ProjectID,
		"delay_ms", delay.Milliseconds(),
		"error", cause)
	return delay, true
}

// scheduleReconnectLocked планирует одну попытку; второй таймер не создается
func (m *Manager) scheduleReconnectLocked() (time.Duration, bool) {
	if m.reconnectTimer != nil {
		return 0, false
	}

	delay := m.backoff.Next()
	m.state = StateReconnecting
	m.reconnectDelay = delay
	rgen := m.reconnectGen
	m.reconnectTimer = time.AfterFunc(delay, func() {
		m.mu.Lock()
		if rgen != m.reconnectGen || m.closed {
			m.mu.Unlock()
			return
		}
		m.reconnectTimer = nil
		old, gen := m.restartLocked()
		m.mu.Unlock()

		if old != nil {
			_ = old.Close()
		}
		m.run(gen)
	})
	return delay, true
}
