package collab

import (
	"fmt"

	"github.com/iudanet/layoutsync/internal/client/pending"
	"github.com/iudanet/layoutsync/internal/layout"
	"github.com/iudanet/layoutsync/internal/models"
	"github.com/iudanet/layoutsync/pkg/api"
)

// AddRoom добавляет комнату. Занятое имя получает суффикс "Name 2", "Name 3"...,
// и на сервер уходит комната с тем же именем, что применена локально.
func (c *Client) AddRoom(room models.Room) (models.Op, *pending.Completion, error) {
	c.mu.Lock()
	defer c.unlock()
	if c.closed.Load() {
		return models.Op{}, nil, ErrClosed
	}

	room = room.Clone()
	room.Name = layout.UniqueRoomName(c.layout, room.Name)
	return c.commitLocked(models.AddRoom(room))
}

// UpdateRoom сливает переданные поля с комнатой patch.Name (или добавляет ее)
func (c *Client) UpdateRoom(patch models.RoomPatch) (models.Op, *pending.Completion, error) {
	if patch.Name == "" {
		return models.Op{}, nil, fmt.Errorf("room name is required")
	}

	c.mu.Lock()
	defer c.unlock()
	if c.closed.Load() {
		return models.Op{}, nil, ErrClosed
	}
	return c.commitLocked(models.UpdateRoom(patch))
}

// TransformRoom применяет результат перемещения комнаты в редакторе.
// Непереданные rotationY/scale берутся из текущей комнаты, так что локальный
// и отправленный результат совпадают.
func (c *Client) TransformRoom(name string, x, y float64, rotationY, scale *float64) (models.Op, *pending.Completion, error) {
	c.mu.Lock()
	defer c.unlock()
	if c.closed.Load() {
		return models.Op{}, nil, ErrClosed
	}

	room, ok := c.layout.Room(name)
	if !ok {
		return models.Op{}, nil, fmt.Errorf("%w: %s", ErrRoomNotFound, name)
	}
	rot, sc := room.RotationY, room.Scale
	if rotationY != nil {
		rot = *rotationY
	}
	if scale != nil {
		sc = *scale
	}

	patch := models.RoomPatch{
		Name:      name,
		X:         models.Float(x),
		Y:         models.Float(y),
		RotationY: models.Float(rot),
		Scale:     models.Float(sc),
	}
	return c.commitLocked(models.UpdateRoom(patch))
}

// RemoveRoom удаляет комнату по имени
func (c *Client) RemoveRoom(name string) (models.Op, *pending.Completion, error) {
	c.mu.Lock()
	defer c.unlock()
	if c.closed.Load() {
		return models.Op{}, nil, ErrClosed
	}

	if c.layout.IndexOf(name) < 0 {
		return models.Op{}, nil, fmt.Errorf("%w: %s", ErrRoomNotFound, name)
	}
	return c.commitLocked(models.RemoveRoom(name))
}

// LoadLayout заменяет layout целиком (сгенерированный или загруженный план).
// Замена не попадает в историю и не отправляется на сервер.
func (c *Client) LoadLayout(l models.Layout) {
	c.mu.Lock()
	defer c.unlock()
	c.layout = c.history.Replace(c.layout, l, true)
}

// Undo без сессии откатывает последнее локальное изменение и возвращает true.
// В сессии отправляет undo_request; результат придет от сервера.
func (c *Client) Undo() (bool, error) {
	c.mu.Lock()
	defer c.unlock()
	if c.closed.Load() {
		return false, ErrClosed
	}

	next, applied, err := c.history.Undo(c.layout)
	if applied {
		c.layout = next
	}
	return applied, err
}

// Redo mirrors Undo.
func (c *Client) Redo() (bool, error) {
	c.mu.Lock()
	defer c.unlock()
	if c.closed.Load() {
		return false, ErrClosed
	}

	next, applied, err := c.history.Redo(c.layout)
	if applied {
		c.layout = next
	}
	return applied, err
}

// RequestSave просит сервер сохранить проект
func (c *Client) RequestSave() error {
	if c.manager == nil {
		return ErrStandalone
	}
	if err := c.manager.Send(api.SimpleMessage{Type: api.TypeSave}); err != nil {
		return fmt.Errorf("failed to request save: %w", err)
	}
	return nil
}

// commitLocked применяет операцию оптимистично и передает ее в opchannel.
// opId назначается здесь, чтобы записать операцию в outbox до отправки.
func (c *Client) commitLocked(op models.Op) (models.Op, *pending.Completion, error) {
	op = op.WithID(c.ids.Next())
	c.layout = c.history.Apply(c.layout, op, false)

	c.storeOutbox(op)
	sent, comp, err := c.channel.SendOp(op)
	if err != nil {
		c.forgetOutbox(op.OpID)
		return sent, nil, fmt.Errorf("failed to send operation: %w", err)
	}
	return sent, comp, nil
}
