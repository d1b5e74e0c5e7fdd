// Package api описывает wire-протокол сессии совместного редактирования.
// Каждый кадр - один JSON объект с дискриминатором "type".
package api

import (
	"encoding/json"

	"github.com/iudanet/layoutsync/internal/models"
)

// Типы сообщений клиент -> сервер
const (
	TypeJoin         = "join"
	TypeOp           = "op"
	TypeUndoRequest  = "undo_request"
	TypeRedoRequest  = "redo_request"
	TypePresence     = "presence"
	TypeCursorUpdate = "cursor_update"
	TypeSave         = "save"
	TypePong         = "pong"
)

// Типы сообщений сервер -> клиент
const (
	TypeSnapshot        = "snapshot"
	TypeOpsBatch        = "ops_batch"
	TypeAck             = "ack"
	TypeJoined          = "joined"
	TypeLeft            = "left"
	TypeUndo            = "undo"
	TypeRedo            = "redo"
	TypePing            = "ping"
	TypeCursorBroadcast = "cursor_broadcast"
	TypeAutosaveConfirm = "autosave_confirm"
	TypeError           = "error"
	TypePresenceUpdate  = "presence_update"
)

// Envelope общий заголовок любого кадра
type Envelope struct {
	Type string `json:"type"`
}

// JoinMessage announces the client after connect.
type JoinMessage struct {
	Type string `json:"type"`
}

// NewJoin creates a join frame.
func NewJoin() JoinMessage {
	return JoinMessage{Type: TypeJoin}
}

// SimpleMessage кадр без payload (undo_request, redo_request, save)
type SimpleMessage struct {
	Type string `json:"type"`
}

// OpMessage предлагает изменение: {"type":"op","opId","kind","room"?,"name"?}
type OpMessage struct {
	Op models.Op
}

// MarshalJSON встраивает поля операции рядом с дискриминатором type
func (m OpMessage) MarshalJSON() ([]byte, error) {
	opData, err := json.Marshal(m.Op)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(opData, &fields); err != nil {
		return nil, err
	}
	fields["type"] = json.RawMessage(`"` + TypeOp + `"`)
	return json.Marshal(fields)
}

// PongMessage heartbeat reply; TS echoes the server's ts verbatim.
type PongMessage struct {
	Type string          `json:"type"`
	TS   json.RawMessage `json:"ts"`
}

// NewPong creates a pong frame echoing ts as-is.
func NewPong(ts json.RawMessage) PongMessage {
	if len(ts) == 0 {
		ts = json.RawMessage("null")
	}
	return PongMessage{Type: TypePong, TS: ts}
}

// PresenceMessage beacon локального участника (метаданные и, возможно, курсор)
type PresenceMessage struct {
	Cursor *models.Cursor `json:"cursor,omitempty"`
	Meta   map[string]any `json:"meta"`
	Type   string         `json:"type"`
}

// CursorUpdateMessage low-frequency cursor broadcast.
type CursorUpdateMessage struct {
	Type   string        `json:"type"`
	Cursor models.Cursor `json:"cursor"`
}
