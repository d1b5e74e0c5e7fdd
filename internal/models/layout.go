package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Layout представляет общий план этажа: упорядоченный список комнат и
// произвольные метаданные. Комнаты логически уникальны по Name, но это
// обеспечивает reducer, а не сам контейнер.
type Layout struct {
	Meta  map[string]any `json:"meta"`
	Rooms []Room         `json:"rooms"`
}

// NewLayout возвращает пустой layout с инициализированными полями
func NewLayout() Layout {
	return Layout{Rooms: []Room{}, Meta: map[string]any{}}
}

// UnmarshalJSON декодирует layout; отсутствующий или null rooms превращается в пустой список
func (l *Layout) UnmarshalJSON(data []byte) error {
	type plain Layout
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("failed to decode layout: %w", err)
	}
	if p.Rooms == nil {
		p.Rooms = []Room{}
	}
	*l = Layout(p)
	return nil
}

// MarshalJSON всегда пишет rooms как массив, никогда как null
func (l Layout) MarshalJSON() ([]byte, error) {
	type plain Layout
	p := plain(l)
	if p.Rooms == nil {
		p.Rooms = []Room{}
	}
	if p.Meta == nil {
		p.Meta = map[string]any{}
	}
	return json.Marshal(p)
}

// IndexOf returns the position of the first room named name, or -1.
func (l Layout) IndexOf(name string) int {
	for i := range l.Rooms {
		if l.Rooms[i].Name == name {
			return i
		}
	}
	return -1
}

// Room returns the first room named name.
func (l Layout) Room(name string) (Room, bool) {
	if i := l.IndexOf(name); i >= 0 {
		return l.Rooms[i], true
	}
	return Room{}, false
}

// Clone создает глубокую копию layout (используется для истории undo/redo)
func (l Layout) Clone() Layout {
	out := Layout{
		Rooms: make([]Room, len(l.Rooms)),
		Meta:  cloneMap(l.Meta),
	}
	for i := range l.Rooms {
		out.Rooms[i] = l.Rooms[i].Clone()
	}
	if out.Meta == nil {
		out.Meta = map[string]any{}
	}
	return out
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	case json.RawMessage:
		return bytes.Clone(t)
	default:
		// строки, числа, bool и nil неизменяемы
		return v
	}
}
