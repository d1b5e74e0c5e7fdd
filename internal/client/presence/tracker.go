// Package presence ведет список участников сессии и их курсоров,
// а также ограничивает частоту исходящих обновлений курсора.
package presence

import (
	"sort"
	"sync"
	"time"

	"github.com/iudanet/layoutsync/internal/models"
	"github.com/iudanet/layoutsync/pkg/api"
)

// Tracker roster участников по userId и карта курсоров других пользователей.
// Участник без сообщения left остается в списке: вытеснения по таймауту нет.
type Tracker struct {
	participants map[string]models.Participant
	cursors      map[string]models.Cursor
	now          func() time.Time
	mu           sync.RWMutex
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return NewTrackerWithClock(time.Now)
}

// NewTrackerWithClock creates a tracker with a custom time source for LastSeen.
func NewTrackerWithClock(now func() time.Time) *Tracker {
	return &Tracker{
		participants: make(map[string]models.Participant),
		cursors:      make(map[string]models.Cursor),
		now:          now,
	}
}

// HandlePresence обновляет участника: курсор заменяется, lastSeen обновляется.
func (t *Tracker) HandlePresence(msg api.PresenceUpdate) bool {
	if msg.UserID == "" {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	p := t.participants[msg.UserID]
	p.UserID = msg.UserID
	if name := msg.DisplayName(); name != "" {
		p.DisplayName = name
	}
	if p.DisplayName == "" {
		p.DisplayName = models.DefaultDisplayName(msg.UserID)
	}
	p.Cursor = cloneCursor(msg.Cursor)
	p.LastSeen = t.now()
	t.participants[msg.UserID] = p
	return true
}

// HandleJoined добавляет участника; имя по умолчанию User-<первые 6 символов id>
func (t *Tracker) HandleJoined(msg api.RosterChange) bool {
	if msg.UserID == "" {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	p := t.participants[msg.UserID]
	p.UserID = msg.UserID
	if msg.DisplayName != "" {
		p.DisplayName = msg.DisplayName
	}
	if p.DisplayName == "" {
		p.DisplayName = models.DefaultDisplayName(msg.UserID)
	}
	p.LastSeen = t.now()
	t.participants[msg.UserID] = p
	return true
}

// HandleLeft removes the participant and its cursor dot.
func (t *Tracker) HandleLeft(msg api.RosterChange) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.participants[msg.UserID]
	delete(t.participants, msg.UserID)
	delete(t.cursors, msg.UserID)
	return ok
}

// ReplaceRoster заменяет весь список (snapshot, presence_update).
// Курсоры ушедших участников тоже удаляются.
func (t *Tracker) ReplaceRoster(clients []models.Participant) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	next := make(map[string]models.Participant, len(clients))
	for _, c := range clients {
		if c.UserID == "" {
			continue
		}
		if c.DisplayName == "" {
			c.DisplayName = models.DefaultDisplayName(c.UserID)
		}
		if c.LastSeen.IsZero() {
			c.LastSeen = now
		}
		c.Cursor = cloneCursor(c.Cursor)
		next[c.UserID] = c
	}
	t.participants = next

	for id := range t.cursors {
		if _, ok := next[id]; !ok {
			delete(t.cursors, id)
		}
	}
}

// HandleCursorBroadcast обновляет точку курсора другого участника; пустой курсор ее убирает
func (t *Tracker) HandleCursorBroadcast(msg api.CursorBroadcast) bool {
	if msg.UserID == "" {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if msg.Cursor == nil {
		delete(t.cursors, msg.UserID)
		return true
	}
	t.cursors[msg.UserID] = *cloneCursor(msg.Cursor)
	return true
}

// Participants returns the roster sorted by user id.
func (t *Tracker) Participants() []models.Participant {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]models.Participant, 0, len(t.participants))
	for _, p := range t.participants {
		p.Cursor = cloneCursor(p.Cursor)
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UserID < out[j].UserID
	})
	return out
}

// Get returns one participant.
func (t *Tracker) Get(userID string) (models.Participant, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	p, ok := t.participants[userID]
	p.Cursor = cloneCursor(p.Cursor)
	return p, ok
}

// OtherCursors returns a copy of the cursor overlay map.
func (t *Tracker) OtherCursors() map[string]models.Cursor {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]models.Cursor, len(t.cursors))
	for id, c := range t.cursors {
		out[id] = *cloneCursor(&c)
	}
	return out
}

// Len returns the roster size.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.participants)
}

// Reset очищает roster и курсоры (выход из сессии)
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.participants = make(map[string]models.Participant)
	t.cursors = make(map[string]models.Cursor)
}

func cloneCursor(c *models.Cursor) *models.Cursor {
	if c == nil {
		return nil
	}
	out := *c
	if c.ScreenX != nil {
		v := *c.ScreenX
		out.ScreenX = &v
	}
	if c.ScreenY != nil {
		v := *c.ScreenY
		out.ScreenY = &v
	}
	return &out
}
