package api

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iudanet/layoutsync/internal/models"
)

// Ошибки декодирования входящих кадров
var (
	// ErrMalformed indicates the frame is not a JSON object with a type
	ErrMalformed = errors.New("malformed message")

	// ErrUnknownType indicates a frame with an unrecognized type
	ErrUnknownType = errors.New("unknown message type")
)

// SnapshotMessage полная синхронизация layout и списка участников
type SnapshotMessage struct {
	Clients []models.Participant `json:"clients"`
	Layout  models.Layout        `json:"layout"`
}

// OpRecord одна авторитетная операция (кадр "op" или элемент ops_batch).
// Сервер кладет операцию в поле "op"; старые серверы присылают поля операции на верхнем уровне.
type OpRecord struct {
	Op    models.Op `json:"op"`
	OpID  string    `json:"opId"`
	From  string    `json:"from"`
	Actor string    `json:"actor"`
}

// UnmarshalJSON decodes both nested and flat op records.
func (r *OpRecord) UnmarshalJSON(data []byte) error {
	var in struct {
		Op    json.RawMessage `json:"op"`
		OpID  string          `json:"opId"`
		From  string          `json:"from"`
		Actor string          `json:"actor"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("failed to decode op record: %w", err)
	}

	opData := []byte(in.Op)
	if len(opData) == 0 || string(opData) == "null" {
		opData = data
	}
	var op models.Op
	if err := json.Unmarshal(opData, &op); err != nil {
		return err
	}

	out := OpRecord{Op: op, OpID: in.OpID, From: in.From, Actor: in.Actor}
	if out.OpID == "" {
		out.OpID = op.OpID
	}
	if out.Op.OpID == "" {
		out.Op.OpID = out.OpID
	}
	if out.From == "" {
		out.From = in.Actor
	}
	*r = out
	return nil
}

// OpsBatchMessage несколько операций в порядке применения.
// Элементы хранятся сырыми, чтобы одна битая запись не роняла весь batch.
type OpsBatchMessage struct {
	Ops []json.RawMessage `json:"ops"`
}

// AckMessage confirms a previously sent op.
type AckMessage struct {
	TS     json.RawMessage `json:"ts,omitempty"`
	OpID   string          `json:"opId"`
	Status string          `json:"status,omitempty"`
}

// PresenceUpdate обновление участника (курсор и метаданные)
type PresenceUpdate struct {
	Cursor *models.Cursor `json:"cursor"`
	Meta   map[string]any `json:"meta"`
	UserID string         `json:"userId"`
}

// DisplayName returns meta.displayName when the sender supplied one.
func (p PresenceUpdate) DisplayName() string {
	if p.Meta == nil {
		return ""
	}
	name, _ := p.Meta["displayName"].(string)
	return name
}

// RosterChange кадр joined/left; Type различает их
type RosterChange struct {
	Type        string `json:"type"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

// PresenceRoster полный список участников от сервера (presence_update)
type PresenceRoster struct {
	Clients []models.Participant `json:"clients"`
}

// PingMessage heartbeat from the server; TS is kept raw so pong can echo it verbatim.
type PingMessage struct {
	TS json.RawMessage `json:"ts"`
}

// CursorBroadcast курсор другого участника
type CursorBroadcast struct {
	Cursor *models.Cursor `json:"cursor"`
	UserID string         `json:"userId"`
}

// HistoryNotice server-defined undo/redo notification.
type HistoryNotice struct {
	Raw  json.RawMessage `json:"-"`
	Type string          `json:"type"`
}

// AutosaveConfirm сервер завершил автосохранение
type AutosaveConfirm struct {
	Raw json.RawMessage `json:"-"`
}

// ErrorMessage non-fatal protocol error.
type ErrorMessage struct {
	Msg string `json:"msg"`
}

// userIDAliases вытаскивает user id из userId или user_id
type userIDAliases struct {
	UserID      string `json:"userId"`
	UserIDSnake string `json:"user_id"`
	Username    string `json:"username"`
}

func (a userIDAliases) id() string {
	if a.UserID != "" {
		return a.UserID
	}
	return a.UserIDSnake
}

// Decode разбирает входящий кадр и возвращает типизированное сообщение
// (указатель на одну из структур выше). Для неизвестного type возвращается ErrUnknownType,
// для битого JSON - ErrMalformed.
func Decode(data []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Type == "" {
		return nil, ErrMalformed
	}

	var msg any
	switch env.Type {
	case TypeSnapshot:
		msg = &SnapshotMessage{}
	case TypeOp:
		msg = &OpRecord{}
	case TypeOpsBatch:
		msg = &OpsBatchMessage{}
	case TypeAck:
		msg = &AckMessage{}
	case TypePresence:
		msg = &PresenceUpdate{}
	case TypeJoined, TypeLeft:
		msg = &RosterChange{}
	case TypePresenceUpdate:
		msg = &PresenceRoster{}
	case TypePing:
		msg = &PingMessage{}
	case TypeCursorBroadcast:
		msg = &CursorBroadcast{}
	case TypeError:
		msg = &ErrorMessage{}
	case TypePong:
		return &SimpleMessage{Type: TypePong}, nil
	case TypeUndo, TypeRedo:
		return &HistoryNotice{Type: env.Type, Raw: append(json.RawMessage(nil), data...)}, nil
	case TypeAutosaveConfirm:
		return &AutosaveConfirm{Raw: append(json.RawMessage(nil), data...)}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, env.Type)
	}

	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, env.Type, err)
	}

	// сервер присылает user_id/username вместо userId/displayName
	switch msg.(type) {
	case *PresenceUpdate, *RosterChange, *CursorBroadcast:
		var aliases userIDAliases
		if err := json.Unmarshal(data, &aliases); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, env.Type, err)
		}
		switch m := msg.(type) {
		case *PresenceUpdate:
			m.UserID = aliases.id()
		case *CursorBroadcast:
			m.UserID = aliases.id()
		case *RosterChange:
			m.UserID = aliases.id()
			if m.DisplayName == "" {
				m.DisplayName = aliases.Username
			}
		}
	}

	return msg, nil
}
