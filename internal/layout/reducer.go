// Package layout содержит чистый reducer, применяющий операции к layout.
package layout

import (
	"fmt"

	"github.com/iudanet/layoutsync/internal/models"
)

// Apply применяет одну операцию к layout и возвращает новый layout.
// Входной layout никогда не изменяется: результат всегда новая копия,
// поэтому предыдущие значения можно безопасно хранить в истории.
//
// Правила:
//   - room:add добавляет комнату, только если имя свободно (первый писатель выигрывает)
//   - room:remove удаляет все комнаты с указанным именем
//   - room:update делает shallow merge полей в существующую комнату или добавляет новую (upsert)
//
// Неизвестные или неполные операции возвращают копию без изменений.
func Apply(l models.Layout, op models.Op) models.Layout {
	next := l.Clone()

	switch op.Kind {
	case models.OpRoomAdd:
		if op.Room == nil {
			return next
		}
		if next.IndexOf(op.Room.Name) >= 0 {
			return next
		}
		next.Rooms = append(next.Rooms, op.Room.Clone())

	case models.OpRoomRemove:
		kept := next.Rooms[:0]
		for _, r := range next.Rooms {
			if r.Name != op.Name {
				kept = append(kept, r)
			}
		}
		next.Rooms = kept

	case models.OpRoomUpdate:
		if op.Patch == nil {
			return next
		}
		found := false
		for i := range next.Rooms {
			if next.Rooms[i].Name == op.Patch.Name {
				next.Rooms[i] = op.Patch.ApplyTo(next.Rooms[i])
				found = true
			}
		}
		if !found {
			next.Rooms = append(next.Rooms, op.Patch.ToRoom())
		}
	}

	return next
}

// Replay применяет последовательность операций по порядку
func Replay(l models.Layout, ops ...models.Op) models.Layout {
	out := l.Clone()
	for _, op := range ops {
		out = Apply(out, op)
	}
	return out
}

// UniqueRoomName возвращает base, если имя свободно, иначе "base 2", "base 3" и т.д.
// Пустое base заменяется на "Room".
func UniqueRoomName(l models.Layout, base string) string {
	if base == "" {
		base = "Room"
	}
	name := base
	for suffix := 2; l.IndexOf(name) >= 0; suffix++ {
		name = fmt.Sprintf("%s %d", base, suffix)
	}
	return name
}
