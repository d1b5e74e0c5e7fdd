package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Значения по умолчанию для необязательных полей комнаты
const (
	DefaultRotationY = 0.0
	DefaultScale     = 1.0
)

// known JSON keys of a room; everything else goes to Extra
const (
	fieldName      = "name"
	fieldSize      = "size"
	fieldX         = "x"
	fieldY         = "y"
	fieldRotationY = "rotationY"
	fieldScale     = "scale"
)

// Room представляет одну комнату плана.
// Дополнительные поля, пришедшие с сервера, сохраняются в Extra и
// передаются дальше без изменений.
type Room struct {
	Extra     map[string]json.RawMessage `json:"-"`
	Name      string                     `json:"name"`
	Size      float64                    `json:"size"`
	X         float64                    `json:"x"`
	Y         float64                    `json:"y"`
	RotationY float64                    `json:"rotationY"`
	Scale     float64                    `json:"scale"`
	// unset поля, которых не было в upsert-патче; они не пишутся в JSON
	unset     fieldMask
}

// fieldMask набор флагов size/x/y
type fieldMask uint8

const (
	maskSize fieldMask = 1 << iota
	maskX
	maskY
)

// NewRoom creates a room with default rotation and scale.
func NewRoom(name string, size, x, y float64) Room {
	return Room{
		Name:      name,
		Size:      size,
		X:         x,
		Y:         y,
		RotationY: DefaultRotationY,
		Scale:     DefaultScale,
	}
}

// Clone создает глубокую копию комнаты
func (r Room) Clone() Room {
	out := r
	if r.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(r.Extra))
		for k, v := range r.Extra {
			out.Extra[k] = bytes.Clone(v)
		}
	}
	return out
}

// MarshalJSON пишет известные поля и все дополнительные поля из Extra
func (r Room) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any, 6+len(r.Extra))
	for k, v := range r.Extra {
		fields[k] = v
	}
	fields[fieldName] = r.Name
	if r.unset&maskSize == 0 {
		fields[fieldSize] = r.Size
	}
	if r.unset&maskX == 0 {
		fields[fieldX] = r.X
	}
	if r.unset&maskY == 0 {
		fields[fieldY] = r.Y
	}
	fields[fieldRotationY] = r.RotationY
	fields[fieldScale] = r.Scale
	return json.Marshal(fields)
}

// UnmarshalJSON decodes a room; absent rotationY/scale take their defaults.
func (r *Room) UnmarshalJSON(data []byte) error {
	var p RoomPatch
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = p.ToRoom()
	return nil
}

// RoomPatch представляет частичное обновление комнаты (payload room:update).
// nil поле означает "не передано" и не затрагивает существующее значение.
type RoomPatch struct {
	Size      *float64
	X         *float64
	Y         *float64
	RotationY *float64
	Scale     *float64
	Extra     map[string]json.RawMessage
	Name      string
}

// PatchFromRoom builds a patch carrying every field of r.
func PatchFromRoom(r Room) RoomPatch {
	r = r.Clone()
	return RoomPatch{
		Name:      r.Name,
		Size:      &r.Size,
		X:         &r.X,
		Y:         &r.Y,
		RotationY: &r.RotationY,
		Scale:     &r.Scale,
		Extra:     r.Extra,
	}
}

// ApplyTo выполняет shallow merge патча поверх существующей комнаты
func (p RoomPatch) ApplyTo(r Room) Room {
	out := r.Clone()
	if p.Name != "" {
		out.Name = p.Name
	}
	if p.Size != nil {
		out.Size = *p.Size
		out.unset &^= maskSize
	}
	if p.X != nil {
		out.X = *p.X
		out.unset &^= maskX
	}
	if p.Y != nil {
		out.Y = *p.Y
		out.unset &^= maskY
	}
	if p.RotationY != nil {
		out.RotationY = *p.RotationY
	}
	if p.Scale != nil {
		out.Scale = *p.Scale
	}
	if len(p.Extra) > 0 {
		if out.Extra == nil {
			out.Extra = make(map[string]json.RawMessage, len(p.Extra))
		}
		for k, v := range p.Extra {
			out.Extra[k] = bytes.Clone(v)
		}
	}
	return out
}

// ToRoom превращает патч в новую комнату (upsert). rotationY и scale получают
// значения по умолчанию; отсутствующие size/x/y читаются как 0, но в JSON
// комната уходит только с переданными полями.
func (p RoomPatch) ToRoom() Room {
	return p.ApplyTo(Room{
		RotationY: DefaultRotationY,
		Scale:     DefaultScale,
		unset:     maskSize | maskX | maskY,
	})
}

// Clone создает глубокую копию патча
func (p RoomPatch) Clone() RoomPatch {
	out := RoomPatch{
		Name:      p.Name,
		Size:      cloneFloat(p.Size),
		X:         cloneFloat(p.X),
		Y:         cloneFloat(p.Y),
		RotationY: cloneFloat(p.RotationY),
		Scale:     cloneFloat(p.Scale),
	}
	if p.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(p.Extra))
		for k, v := range p.Extra {
			out.Extra[k] = bytes.Clone(v)
		}
	}
	return out
}

// MarshalJSON пишет только переданные поля
func (p RoomPatch) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any, 6+len(p.Extra))
	for k, v := range p.Extra {
		fields[k] = v
	}
	fields[fieldName] = p.Name
	putFloat(fields, fieldSize, p.Size)
	putFloat(fields, fieldX, p.X)
	putFloat(fields, fieldY, p.Y)
	putFloat(fields, fieldRotationY, p.RotationY)
	putFloat(fields, fieldScale, p.Scale)
	return json.Marshal(fields)
}

// UnmarshalJSON decodes a partial room, keeping unknown keys in Extra.
func (p *RoomPatch) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode room: %w", err)
	}

	out := RoomPatch{}
	if v, ok := raw[fieldName]; ok {
		if err := json.Unmarshal(v, &out.Name); err != nil {
			return fmt.Errorf("invalid room name: %w", err)
		}
		delete(raw, fieldName)
	}

	targets := []struct {
		dst **float64
		key string
	}{
		{&out.Size, fieldSize},
		{&out.X, fieldX},
		{&out.Y, fieldY},
		{&out.RotationY, fieldRotationY},
		{&out.Scale, fieldScale},
	}
	for _, t := range targets {
		v, ok := raw[t.key]
		if !ok {
			continue
		}
		delete(raw, t.key)
		if string(v) == "null" {
			continue
		}
		var f float64
		if err := json.Unmarshal(v, &f); err != nil {
			return fmt.Errorf("invalid room field %q: %w", t.key, err)
		}
		*t.dst = &f
	}

	if len(raw) > 0 {
		out.Extra = raw
	}
	*p = out
	return nil
}

func putFloat(fields map[string]any, key string, v *float64) {
	if v != nil {
		fields[key] = *v
	}
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	f := *v
	return &f
}

// Float returns a pointer to v; handy for building patches.
func Float(v float64) *float64 {
	return &v
}
