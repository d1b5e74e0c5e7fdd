package collab

import (
	"encoding/json"
	"time"

	"github.com/iudanet/layoutsync/internal/client/transport"
	"github.com/iudanet/layoutsync/pkg/api"
)

var _ transport.Handler = (*Client)(nil)

// OnOpen отправляет все ожидающие операции с прежними opId
func (c *Client) OnOpen() {
	c.mu.Lock()
	defer c.unlock()
	if c.closed.Load() {
		return
	}

	c.setMode(ModeConnected)
	if n := c.channel.Flush(); n > 0 {
		c.logger.Debug("Pending operations replayed on open", "count", n)
	}
	c.notify(c.sink.OnOpen)
}

// OnReconnecting только обновляет статус: может вызываться асинхронно
// из Send, поэтому mu здесь не берется.
func (c *Client) OnReconnecting(delay time.Duration) {
	if c.closed.Load() {
		return
	}
	c.setMode(ModeConnecting)
	c.sink.OnReconnecting(delay)
}

// OnMessage разбирает кадр и обрабатывает его под mu.
// Битые и неизвестные кадры отбрасываются.
func (c *Client) OnMessage(data []byte) {
	msg, err := api.Decode(data)
	if err != nil {
		c.logger.Debug("Inbound frame dropped", "error", err)
		return
	}

	c.mu.Lock()
	defer c.unlock()
	if c.closed.Load() {
		return
	}
	c.dispatchLocked(msg)
}

func (c *Client) dispatchLocked(msg any) {
	switch m := msg.(type) {
	case *api.SnapshotMessage:
		c.handleSnapshotLocked(m)
	case *api.OpRecord:
		c.handleOpLocked(*m)
	case *api.OpsBatchMessage:
		c.handleBatchLocked(m)
	case *api.AckMessage:
		c.handleAckLocked(*m)
	case *api.PresenceUpdate:
		if c.tracker.HandlePresence(*m) {
			c.notifyRosterLocked()
		}
	case *api.RosterChange:
		c.handleRosterChangeLocked(*m)
	case *api.PresenceRoster:
		c.tracker.ReplaceRoster(m.Clients)
		c.notifyRosterLocked()
	case *api.CursorBroadcast:
		if c.tracker.HandleCursorBroadcast(*m) {
			cursors := c.tracker.OtherCursors()
			c.notify(func() { c.sink.OnCursors(cursors) })
		}
	case *api.HistoryNotice:
		// сервер не присылает вместе с уведомлением ни op, ни snapshot: только лог
		c.logger.Info("Server history notification", "type", m.Type)
		notice := *m
		c.notify(func() { c.sink.OnHistoryNotice(notice) })
	case *api.AutosaveConfirm:
		c.statusMu.Lock()
		c.status.lastAutosave = c.now()
		c.statusMu.Unlock()
		c.notify(c.sink.OnAutosave)
	case *api.ErrorMessage:
		c.logger.Warn("Server reported error", "msg", m.Msg)
		text := m.Msg
		c.notify(func() { c.sink.OnServerError(text) })
	case *api.SimpleMessage, *api.PingMessage:
		// pong и ping обрабатывает транспорт
	default:
		c.logger.Debug("Unhandled inbound message", "message", msg)
	}
}

// handleSnapshotLocked заменяет layout и roster целиком, без записи в историю
func (c *Client) handleSnapshotLocked(snap *api.SnapshotMessage) {
	c.layout = c.history.Replace(c.layout, snap.Layout, true)
	c.tracker.ReplaceRoster(snap.Clients)
	c.setMode(ModeConnected)
	c.markSynced()

	if err := c.persistSnapshot(c.layout); err != nil {
		c.logger.Warn("Failed to cache snapshot", "error", err)
	}
	c.persistSyncTime()

	l := c.layout.Clone()
	clients := c.tracker.Participants()
	c.logger.Debug("Snapshot applied", "rooms", len(l.Rooms), "clients", len(clients))
	c.notify(func() { c.sink.OnSnapshot(l, clients) })
}

// handleOpLocked применяет авторитетную операцию; история не затрагивается
func (c *Client) handleOpLocked(rec api.OpRecord) {
	if !rec.Op.Kind.Valid() {
		c.logger.Debug("Operation with unknown kind dropped", "kind", rec.Op.Kind, "op_id", rec.OpID)
		return
	}

	c.layout = c.history.Apply(c.layout, rec.Op, true)
	c.rememberLocked(rec)
	c.markSynced()

	l := c.layout.Clone()
	c.notify(func() { c.sink.OnRemoteOp(rec, l) })
}

// handleBatchLocked применяет операции batch по порядку через тот же путь, что и op
func (c *Client) handleBatchLocked(batch *api.OpsBatchMessage) {
	for i, raw := range batch.Ops {
		var rec api.OpRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			c.logger.Debug("Malformed batch entry dropped", "index", i, "error", err)
			continue
		}
		c.handleOpLocked(rec)
	}
}

func (c *Client) handleAckLocked(ack api.AckMessage) {
	if !c.channel.HandleAck(ack) {
		return
	}
	c.forgetOutbox(ack.OpID)
	c.notify(func() { c.sink.OnAck(ack) })
}

func (c *Client) handleRosterChangeLocked(m api.RosterChange) {
	var changed bool
	switch m.Type {
	case api.TypeJoined:
		changed = c.tracker.HandleJoined(m)
	case api.TypeLeft:
		changed = c.tracker.HandleLeft(m)
	}
	if changed {
		c.notifyRosterLocked()
	}
}

func (c *Client) notifyRosterLocked() {
	participants := c.tracker.Participants()
	c.notify(func() { c.sink.OnRoster(participants) })
}

// rememberLocked хранит последние удаленные операции (новые первыми)
func (c *Client) rememberLocked(rec api.OpRecord) {
	if c.cfg.RecentOps <= 0 {
		return
	}
	c.recent = append([]api.OpRecord{rec}, c.recent...)
	if len(c.recent) > c.cfg.RecentOps {
		c.recent = c.recent[:c.cfg.RecentOps]
	}
}

func (c *Client) markSynced() {
	c.statusMu.Lock()
	c.status.lastSync = c.now()
	c.statusMu.Unlock()
}
