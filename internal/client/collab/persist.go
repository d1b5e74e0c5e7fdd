package collab

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/layoutsync/internal/client/pending"
	"github.com/iudanet/layoutsync/internal/client/storage"
	"github.com/iudanet/layoutsync/internal/layout"
	"github.com/iudanet/layoutsync/internal/models"
)

// restoreLocked загружает кэш layout, время последней синхронизации и outbox.
// Ошибки хранилища не мешают работе сессии и только логируются.
func (c *Client) restoreLocked(ctx context.Context) {
	pid := c.cfg.ProjectID

	if c.layouts != nil {
		snap, err := c.layouts.GetSnapshot(ctx, pid)
		switch {
		case err == nil:
			c.layout = c.history.Replace(c.layout, snap.Layout, true)
			c.logger.Info("Cached layout restored", "rooms", len(snap.Layout.Rooms), "saved_at", snap.SavedAt)
		case errors.Is(err, storage.ErrSnapshotNotFound):
		default:
			c.logger.Warn("Failed to load cached layout", "error", err)
		}
	}

	if c.metadata != nil {
		ts, err := c.metadata.GetLastSyncTimestamp(ctx, pid)
		if err != nil {
			c.logger.Warn("Failed to load last sync time", "error", err)
		} else if ts > 0 {
			c.statusMu.Lock()
			c.status.lastSync = time.Unix(ts, 0)
			c.statusMu.Unlock()
		}
	}

	if c.outbox == nil {
		return
	}
	ops, err := c.outbox.ListOps(ctx, pid)
	if err != nil {
		c.logger.Warn("Failed to load outbox", "error", err)
		return
	}
	restored := 0
	for _, op := range ops {
		if _, _, err := c.channel.SendOp(op); err != nil {
			c.logger.Warn("Failed to restore pending operation", "op_id", op.OpID, "error", err)
			continue
		}
		restored++
	}
	if restored > 0 {
		// кэш мог быть сохранен раньше, чем операции попали в outbox
		c.layout = layout.Replay(c.layout, ops...)
		c.logger.Info("Pending operations restored from outbox", "count", restored)
	}
}

// onExpired вызывается реестром после истечения grace-окна, вне mu
func (c *Client) onExpired(info pending.Info) {
	c.logger.Debug("Pending operation expired", "op_id", info.OpID, "retries", info.Retries)
	c.forgetOutbox(info.OpID)
	c.sink.OnPendingExpired(info)
}

func (c *Client) storeOutbox(op models.Op) {
	if c.outbox == nil || c.cfg.Standalone() {
		return
	}
	if err := c.outbox.PutOp(c.ctx, c.cfg.ProjectID, op); err != nil {
		c.logger.Warn("Failed to persist pending operation", "op_id", op.OpID, "error", err)
	}
}

func (c *Client) forgetOutbox(opID string) {
	if c.outbox == nil || c.cfg.Standalone() {
		return
	}
	err := c.outbox.DeleteOp(c.ctx, c.cfg.ProjectID, opID)
	if err != nil && !errors.Is(err, storage.ErrOpNotFound) {
		c.logger.Warn("Failed to drop pending operation from outbox", "op_id", opID, "error", err)
	}
}

func (c *Client) persistSnapshot(l models.Layout) error {
	if c.layouts == nil || c.cfg.Standalone() {
		return nil
	}
	snap := &storage.Snapshot{
		ProjectID: c.cfg.ProjectID,
		Layout:    l.Clone(),
		SavedAt:   c.now(),
	}
	if err := c.layouts.SaveSnapshot(c.ctx, snap); err != nil {
		return fmt.Errorf("failed to cache layout: %w", err)
	}
	return nil
}

func (c *Client) persistSyncTime() {
	if c.metadata == nil {
		return
	}
	if err := c.metadata.SaveLastSyncTimestamp(c.ctx, c.cfg.ProjectID, c.now().Unix()); err != nil {
		c.logger.Warn("Failed to save last sync time", "error", err)
	}
}
