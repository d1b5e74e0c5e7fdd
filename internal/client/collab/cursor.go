package collab

import (
	"errors"
	"time"

	"github.com/iudanet/layoutsync/internal/client/presence"
	"github.com/iudanet/layoutsync/internal/client/transport"
	"github.com/iudanet/layoutsync/internal/models"
	"github.com/iudanet/layoutsync/pkg/api"
)

// PointerMove принимает положение указателя в пикселях внутри области width x height.
// Образцы прореживаются: presence не чаще раза за кадр, cursor_update не чаще ThrottleInterval.
func (c *Client) PointerMove(screenX, screenY, width, height float64) {
	if c.coalescer == nil || c.closed.Load() {
		return
	}
	cur := presence.CursorFromPixels(screenX, screenY, width, height)
	c.coalescer.Push(cur)
	c.throttle.Push(cur)
}

func (c *Client) emitPresence(cur models.Cursor) {
	c.sendBestEffort(api.PresenceMessage{
		Type:   api.TypePresence,
		Cursor: &cur,
		Meta:   c.presenceMeta(),
	})
}

// emitCursor отправляет только нормализованные координаты
func (c *Client) emitCursor(cur models.Cursor) {
	c.sendBestEffort(api.CursorUpdateMessage{
		Type:   api.TypeCursorUpdate,
		Cursor: models.Cursor{X: cur.X, Y: cur.Y},
	})
}

// beacon периодически сообщает серверу, что клиент жив
func (c *Client) beacon(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	if c.cfg.PresenceInterval <= 0 {
		<-stop
		return
	}

	ticker := time.NewTicker(c.cfg.PresenceInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			meta := c.presenceMeta()
			meta["now"] = c.now().UnixMilli()
			c.sendBestEffort(api.PresenceMessage{Type: api.TypePresence, Meta: meta})
		}
	}
}

func (c *Client) presenceMeta() map[string]any {
	meta := map[string]any{}
	if c.cfg.DisplayName != "" {
		meta["displayName"] = c.cfg.DisplayName
	}
	return meta
}

// sendBestEffort отправляет кадр, для которого потеря допустима
func (c *Client) sendBestEffort(msg any) {
	if c.manager == nil || c.closed.Load() {
		return
	}
	if err := c.manager.Send(msg); err != nil && !errors.Is(err, transport.ErrNotConnected) {
		c.logger.Debug("Best-effort frame not sent", "error", err)
	}
}
