package models

import (
	"encoding/json"
	"fmt"
)

// OpKind тип операции над layout
type OpKind string

const (
	OpRoomAdd    OpKind = "room:add"    // добавить комнату, если имя свободно
	OpRoomRemove OpKind = "room:remove" // удалить все комнаты с именем
	OpRoomUpdate OpKind = "room:update" // merge полей или upsert
)

// Valid reports whether k is one of the known op kinds.
func (k OpKind) Valid() bool {
	switch k {
	case OpRoomAdd, OpRoomRemove, OpRoomUpdate:
		return true
	}
	return false
}

// Op представляет одну операцию редактирования layout.
// Для room:add используется Room, для room:update - Patch, для room:remove - Name.
type Op struct {
	Room  *Room
	Patch *RoomPatch
	OpID  string
	Kind  OpKind
	Name  string
}

// AddRoom creates a room:add op.
func AddRoom(r Room) Op {
	r = r.Clone()
	return Op{Kind: OpRoomAdd, Room: &r}
}

// RemoveRoom creates a room:remove op.
func RemoveRoom(name string) Op {
	return Op{Kind: OpRoomRemove, Name: name}
}

// UpdateRoom creates a room:update op.
func UpdateRoom(p RoomPatch) Op {
	p = p.Clone()
	return Op{Kind: OpRoomUpdate, Patch: &p}
}

// Target возвращает имя комнаты, которую затрагивает операция
func (o Op) Target() string {
	switch o.Kind {
	case OpRoomAdd:
		if o.Room != nil {
			return o.Room.Name
		}
	case OpRoomUpdate:
		if o.Patch != nil {
			return o.Patch.Name
		}
	case OpRoomRemove:
		return o.Name
	}
	return ""
}

// Clone создает глубокую копию операции
func (o Op) Clone() Op {
	out := o
	if o.Room != nil {
		r := o.Room.Clone()
		out.Room = &r
	}
	if o.Patch != nil {
		p := o.Patch.Clone()
		out.Patch = &p
	}
	return out
}

// WithID returns a copy of o carrying opID.
func (o Op) WithID(opID string) Op {
	out := o.Clone()
	out.OpID = opID
	return out
}

type opJSON struct {
	Room json.RawMessage `json:"room,omitempty"`
	OpID string          `json:"opId,omitempty"`
	Kind OpKind          `json:"kind"`
	Name string          `json:"name,omitempty"`
}

// MarshalJSON пишет операцию в формате {opId, kind, room?, name?}
func (o Op) MarshalJSON() ([]byte, error) {
	out := opJSON{OpID: o.OpID, Kind: o.Kind, Name: o.Name}

	var err error
	switch {
	case o.Kind == OpRoomAdd && o.Room != nil:
		out.Room, err = json.Marshal(o.Room)
	case o.Kind == OpRoomUpdate && o.Patch != nil:
		out.Room, err = json.Marshal(o.Patch)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode op room: %w", err)
	}

	return json.Marshal(out)
}

// UnmarshalJSON decodes an op record. Older peers use "type" instead of "kind".
func (o *Op) UnmarshalJSON(data []byte) error {
	var in struct {
		opJSON
		Type OpKind `json:"type"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("failed to decode op: %w", err)
	}
	if in.Kind == "" {
		in.Kind = in.Type
	}
	if !in.Kind.Valid() {
		return fmt.Errorf("unknown op kind %q", in.Kind)
	}

	out := Op{OpID: in.OpID, Kind: in.Kind, Name: in.Name}
	if len(in.Room) > 0 && string(in.Room) != "null" {
		switch in.Kind {
		case OpRoomAdd:
			var r Room
			if err := json.Unmarshal(in.Room, &r); err != nil {
				return err
			}
			out.Room = &r
		case OpRoomUpdate:
			var p RoomPatch
			if err := json.Unmarshal(in.Room, &p); err != nil {
				return err
			}
			out.Patch = &p
		}
	}

	*o = out
	return nil
}
