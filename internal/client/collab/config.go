package collab

import (
	"time"

	"github.com/iudanet/layoutsync/internal/client/history"
	"github.com/iudanet/layoutsync/internal/client/opchannel"
	"github.com/iudanet/layoutsync/internal/client/presence"
	"github.com/iudanet/layoutsync/internal/client/transport"
)

// Config параметры клиента совместного редактирования.
// Пустой ProjectID означает автономный режим: без соединения и с локальной историей.
type Config struct {
	Host        string
	ProjectID   string
	Token       string
	DisplayName string

	// Transport backoff, heartbeat и таймауты; Host/ProjectID/Token берутся из полей выше
	Transport transport.Config
	Channel   opchannel.Config

	HistoryCapacity  int
	PresenceInterval time.Duration
	FrameInterval    time.Duration
	ThrottleInterval time.Duration
	WriteTimeout     time.Duration

	// RecentOps сколько последних удаленных операций хранить для Status
	RecentOps int

	// SaveOnClose отправляет save перед закрытием сессии
	SaveOnClose bool
}

// DefaultConfig returns the editor defaults.
func DefaultConfig() Config {
	tcfg := transport.DefaultConfig()
	return Config{
		Host:             tcfg.Host,
		Transport:        tcfg,
		Channel:          opchannel.DefaultConfig(),
		HistoryCapacity:  history.DefaultCapacity,
		PresenceInterval: 4 * time.Second,
		FrameInterval:    presence.DefaultFrameInterval,
		ThrottleInterval: presence.DefaultThrottleInterval,
		WriteTimeout:     5 * time.Second,
		RecentOps:        10,
		SaveOnClose:      true,
	}
}

// Standalone reports whether the client runs without a session.
func (c Config) Standalone() bool {
	return c.ProjectID == ""
}

func (c Config) transportConfig() transport.Config {
	tcfg := c.Transport
	tcfg.Host = c.Host
	tcfg.ProjectID = c.ProjectID
	tcfg.Token = c.Token
	return tcfg
}
