package presence

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/layoutsync/internal/models"
	"github.com/iudanet/layoutsync/pkg/api"
)

func fixedClock() (func() time.Time, func(time.Duration)) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	return func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return now
		}, func(d time.Duration) {
			mu.Lock()
			now = now.Add(d)
			mu.Unlock()
		}
}

func decode[T any](t *testing.T, raw string) *T {
	t.Helper()
	msg, err := api.Decode([]byte(raw))
	require.NoError(t, err)
	out, ok := msg.(*T)
	require.True(t, ok, "unexpected message type %T", msg)
	return out
}

func TestTracker_PresenceUpsertsAndReplacesCursor(t *testing.T) {
	clock, advance := fixedClock()
	tr := NewTrackerWithClock(clock)

	msg := decode[api.PresenceUpdate](t, `{"type":"presence","userId":"u-1234567","cursor":{"x":0.1,"y":0.2},"meta":{"displayName":"Ann"}}`)
	require.True(t, tr.HandlePresence(*msg))

	p, ok := tr.Get("u-1234567")
	require.True(t, ok)
	assert.Equal(t, "Ann", p.DisplayName)
	require.NotNil(t, p.Cursor)
	assert.Equal(t, 0.1, p.Cursor.X)
	first := p.LastSeen

	advance(time.Second)
	msg = decode[api.PresenceUpdate](t, `{"type":"presence","user_id":"u-1234567","meta":{}}`)
	require.True(t, tr.HandlePresence(*msg))

	p, _ = tr.Get("u-1234567")
	assert.Equal(t, "Ann", p.DisplayName, "name is kept when the update has none")
	assert.Nil(t, p.Cursor, "cursor is replaced, not merged")
	assert.Equal(t, first.Add(time.Second), p.LastSeen)
	assert.Equal(t, 1, tr.Len())
}

func TestTracker_PresenceWithoutUserIgnored(t *testing.T) {
	tr := NewTracker()
	assert.False(t, tr.HandlePresence(api.PresenceUpdate{}))
	assert.Equal(t, 0, tr.Len())
}

func TestTracker_JoinedDefaultName(t *testing.T) {
	tr := NewTracker()

	require.True(t, tr.HandleJoined(api.RosterChange{UserID: "abcdef123"}))
	p, ok := tr.Get("abcdef123")
	require.True(t, ok)
	assert.Equal(t, "User-abcdef", p.DisplayName)

	require.True(t, tr.HandleJoined(api.RosterChange{UserID: "abcdef123", DisplayName: "Bob"}))
	p, _ = tr.Get("abcdef123")
	assert.Equal(t, "Bob", p.DisplayName)

	msg := decode[api.RosterChange](t, `{"type":"joined","user_id":"zz","username":"Zed"}`)
	require.True(t, tr.HandleJoined(*msg))
	p, _ = tr.Get("zz")
	assert.Equal(t, "Zed", p.DisplayName)
}

func TestTracker_LeftRemovesParticipantAndCursor(t *testing.T) {
	tr := NewTracker()
	tr.HandleJoined(api.RosterChange{UserID: "u1"})
	tr.HandleCursorBroadcast(api.CursorBroadcast{UserID: "u1", Cursor: &models.Cursor{X: 0.5, Y: 0.5}})

	assert.True(t, tr.HandleLeft(api.RosterChange{UserID: "u1"}))
	assert.Equal(t, 0, tr.Len())
	assert.Empty(t, tr.OtherCursors())
	assert.False(t, tr.HandleLeft(api.RosterChange{UserID: "u1"}))
}

func TestTracker_NoEvictionWithoutLeft(t *testing.T) {
	clock, advance := fixedClock()
	tr := NewTrackerWithClock(clock)
	tr.HandleJoined(api.RosterChange{UserID: "ghost"})

	advance(24 * time.Hour)
	tr.HandleJoined(api.RosterChange{UserID: "other"})

	assert.Equal(t, 2, tr.Len())
}

func TestTracker_ReplaceRoster(t *testing.T) {
	tr := NewTracker()
	tr.HandleJoined(api.RosterChange{UserID: "old"})
	tr.HandleCursorBroadcast(api.CursorBroadcast{UserID: "old", Cursor: &models.Cursor{X: 1}})
	tr.HandleCursorBroadcast(api.CursorBroadcast{UserID: "b", Cursor: &models.Cursor{X: 0.3}})

	var clients []models.Participant
	require.NoError(t, json.Unmarshal([]byte(`[{"user_id":"b","username":"Bea"},{"userId":"a"},{"userId":""}]`), &clients))
	tr.ReplaceRoster(clients)

	ps := tr.Participants()
	require.Len(t, ps, 2)
	assert.Equal(t, "a", ps[0].UserID, "participants are sorted by id")
	assert.Equal(t, "User-a", ps[0].DisplayName)
	assert.Equal(t, "Bea", ps[1].DisplayName)
	assert.False(t, ps[0].LastSeen.IsZero())

	cursors := tr.OtherCursors()
	assert.Len(t, cursors, 1)
	assert.Contains(t, cursors, "b")
}

func TestTracker_CursorBroadcast(t *testing.T) {
	tr := NewTracker()

	assert.False(t, tr.HandleCursorBroadcast(api.CursorBroadcast{}))
	require.True(t, tr.HandleCursorBroadcast(api.CursorBroadcast{UserID: "u1", Cursor: &models.Cursor{X: 0.25, Y: 0.75}}))

	cursors := tr.OtherCursors()
	assert.Equal(t, models.Cursor{X: 0.25, Y: 0.75}, cursors["u1"])

	// копия не влияет на состояние трекера
	cursors["u1"] = models.Cursor{}
	assert.Equal(t, 0.25, tr.OtherCursors()["u1"].X)

	require.True(t, tr.HandleCursorBroadcast(api.CursorBroadcast{UserID: "u1"}))
	assert.Empty(t, tr.OtherCursors())
}

func TestTracker_Reset(t *testing.T) {
	tr := NewTracker()
	tr.HandleJoined(api.RosterChange{UserID: "u1"})
	tr.HandleCursorBroadcast(api.CursorBroadcast{UserID: "u1", Cursor: &models.Cursor{}})

	tr.Reset()
	assert.Equal(t, 0, tr.Len())
	assert.Empty(t, tr.OtherCursors())
}
