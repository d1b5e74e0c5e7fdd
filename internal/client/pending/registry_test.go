package pending

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/layoutsync/internal/models"
	"github.com/iudanet/layoutsync/pkg/api"
)

func testOp(id string) models.Op {
	return models.RemoveRoom("Room-" + id).WithID(id)
}

func TestRegistry_AddAndResolve(t *testing.T) {
	r := NewRegistry()

	c, err := r.Add(testOp("op_1"), false)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, 1, r.Len())

	ok := r.Resolve(api.AckMessage{OpID: "op_1", Status: "persisted"})
	assert.True(t, ok)
	assert.Equal(t, 0, r.Len())

	select {
	case <-c.Done():
	default:
		t.Fatal("completion should be settled after ack")
	}
	ack, err := c.Result()
	require.NoError(t, err)
	assert.Equal(t, "persisted", ack.Status)
}

func TestRegistry_ResolveUnknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Add(testOp("op_1"), false)
	require.NoError(t, err)

	assert.False(t, r.Resolve(api.AckMessage{OpID: "op_other"}))
	assert.Equal(t, 1, r.Len(), "only a matching ack removes an entry")
}

func TestRegistry_AddWithoutID(t *testing.T) {
	r := NewRegistry()
	_, err := r.Add(models.RemoveRoom("x"), false)
	assert.ErrorIs(t, err, ErrMissingOpID)
}

func TestRegistry_AddDuplicateReturnsSameCompletion(t *testing.T) {
	r := NewRegistry()
	c1, err := r.Add(testOp("op_1"), false)
	require.NoError(t, err)
	c2, err := r.Add(testOp("op_1"), true)
	require.NoError(t, err)

	assert.Same(t, c1, c2)
	info, ok := r.Get("op_1")
	require.True(t, ok)
	assert.False(t, info.Queued, "duplicate add must not change the entry")
}

func TestRegistry_SnapshotKeepsInsertionOrder(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"op_c", "op_a", "op_b"} {
		_, err := r.Add(testOp(id), true)
		require.NoError(t, err)
	}
	r.Resolve(api.AckMessage{OpID: "op_a"})

	snap := r.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "op_c", snap[0].OpID)
	assert.Equal(t, "op_b", snap[1].OpID)
	assert.True(t, snap[0].Queued)
}

func TestRegistry_MarkSentCountsRetries(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewRegistry(WithClock(func() time.Time { return now }))

	_, err := r.Add(testOp("op_1"), true)
	require.NoError(t, err)

	require.True(t, r.MarkSent("op_1"))
	info, _ := r.Get("op_1")
	assert.Equal(t, 0, info.Retries)
	assert.False(t, info.Queued)
	assert.Equal(t, now, info.LastSentAt)

	require.True(t, r.MarkQueued("op_1"))
	now = now.Add(time.Second)
	require.True(t, r.MarkSent("op_1"))
	info, _ = r.Get("op_1")
	assert.Equal(t, 1, info.Retries)
	assert.Equal(t, now, info.LastSentAt)

	assert.False(t, r.MarkSent("op_missing"))
	assert.False(t, r.MarkQueued("op_missing"))
}

func TestRegistry_GraceExpires(t *testing.T) {
	var (
		mu      sync.Mutex
		expired []string
	)
	r := NewRegistry(WithExpireHook(func(info Info) {
		mu.Lock()
		expired = append(expired, info.OpID)
		mu.Unlock()
	}))

	c, err := r.Add(testOp("op_1"), false)
	require.NoError(t, err)
	require.True(t, r.StartGrace("op_1", 10*time.Millisecond))
	assert.True(t, r.HasGrace("op_1"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = c.Wait(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAckTimeout)

	assert.Equal(t, 0, r.Len())
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(expired) == 1 && expired[0] == "op_1"
	}, time.Second, 5*time.Millisecond)
}

func TestRegistry_AckBeforeGrace(t *testing.T) {
	r := NewRegistry()
	c, err := r.Add(testOp("op_1"), false)
	require.NoError(t, err)
	require.True(t, r.StartGrace("op_1", 20*time.Millisecond))

	require.True(t, r.Resolve(api.AckMessage{OpID: "op_1"}))
	time.Sleep(40 * time.Millisecond)

	_, err = c.Result()
	assert.NoError(t, err, "ack wins over the grace window")
}

func TestRegistry_CancelGrace(t *testing.T) {
	r := NewRegistry()
	_, err := r.Add(testOp("op_1"), false)
	require.NoError(t, err)

	require.True(t, r.StartGrace("op_1", 10*time.Millisecond))
	require.True(t, r.CancelGrace("op_1"))
	assert.False(t, r.HasGrace("op_1"))

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, r.Len(), "cancelled grace must not remove the entry")
	assert.False(t, r.CancelGrace("op_1"))
}

func TestRegistry_RestartGraceUsesLatestWindow(t *testing.T) {
	r := NewRegistry()
	_, err := r.Add(testOp("op_1"), false)
	require.NoError(t, err)

	require.True(t, r.StartGrace("op_1", 10*time.Millisecond))
	require.True(t, r.StartGrace("op_1", time.Hour))

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, r.Len())
	r.Close()
}

func TestRegistry_Close(t *testing.T) {
	r := NewRegistry()
	c1, err := r.Add(testOp("op_1"), false)
	require.NoError(t, err)
	c2, err := r.Add(testOp("op_2"), true)
	require.NoError(t, err)
	require.True(t, r.StartGrace("op_2", time.Hour))

	r.Close()
	r.Close()

	for _, c := range []*Completion{c1, c2} {
		_, err := c.Result()
		assert.True(t, errors.Is(err, ErrClosed))
	}
	assert.Equal(t, 0, r.Len())

	_, err = r.Add(testOp("op_3"), false)
	assert.ErrorIs(t, err, ErrClosed)
	assert.False(t, r.StartGrace("op_3", time.Millisecond))
}

func TestCompletion_ResultBeforeSettled(t *testing.T) {
	c := newCompletion()
	_, err := c.Result()
	assert.ErrorIs(t, err, ErrNotSettled)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompletion_SettlesOnce(t *testing.T) {
	c := newCompletion()
	assert.True(t, c.resolve(api.AckMessage{OpID: "a"}))
	assert.False(t, c.reject(ErrAckTimeout))
	assert.False(t, c.resolve(api.AckMessage{OpID: "b"}))

	ack, err := c.Result()
	require.NoError(t, err)
	assert.Equal(t, "a", ack.OpID)
}
