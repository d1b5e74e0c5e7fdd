package collab

import (
	"time"

	"github.com/iudanet/layoutsync/internal/client/pending"
	"github.com/iudanet/layoutsync/internal/client/transport"
	"github.com/iudanet/layoutsync/pkg/api"
)

// Status то, что UI показывает о сессии
type Status struct {
	LastAutosave   time.Time
	LastSync       time.Time
	State          transport.State
	Mode           Mode
	NodeID         string
	Pending        []pending.Info
	RecentOps      []api.OpRecord
	Participants   int
	ReconnectDelay time.Duration
	UndoDepth      int
	RedoDepth      int
}

// Status returns a point-in-time view of the session.
func (c *Client) Status() Status {
	c.mu.Lock()
	recent := append([]api.OpRecord(nil), c.recent...)
	c.mu.Unlock()

	c.statusMu.Lock()
	st := c.status
	c.statusMu.Unlock()

	out := Status{
		LastAutosave: st.lastAutosave,
		LastSync:     st.lastSync,
		State:        transport.StateIdle,
		Mode:         st.mode,
		NodeID:       c.ids.NodeID(),
		Pending:      c.channel.Pending(),
		RecentOps:    recent,
		Participants: c.tracker.Len(),
	}
	if c.manager != nil {
		out.State = c.manager.State()
		if out.State == transport.StateReconnecting {
			out.ReconnectDelay = c.manager.ReconnectDelay()
		}
	}
	out.UndoDepth, out.RedoDepth = c.history.Depths()
	return out
}
