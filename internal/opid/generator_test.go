package opid

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGenerator(t *testing.T) {
	g := NewGenerator()

	require.NotNil(t, g)
	assert.Len(t, g.NodeID(), 8, "NodeID should be 8 hex chars of a UUID")
	assert.Equal(t, uint64(0), g.Count())
}

func TestNewGeneratorWithNodeID(t *testing.T) {
	tests := []struct {
		name   string
		nodeID string
		want   string
	}{
		{"uuid is shortened", "123e4567-e89b-12d3-a456-426614174000", "123e4567"},
		{"short id kept", "abc", "abc"},
		{"dashes dropped", "ab-cd-ef-gh-ij", "abcdefgh"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewGeneratorWithNodeID(tt.nodeID).NodeID())
		})
	}
}

func TestGenerator_Next(t *testing.T) {
	g := NewGeneratorWithNodeID("node1234")

	assert.Equal(t, "op_node1234_1", g.Next())
	assert.Equal(t, "op_node1234_2", g.Next())
	assert.Equal(t, uint64(2), g.Count())
}

func TestGenerator_UniqueAcrossGenerators(t *testing.T) {
	a := NewGenerator()
	b := NewGenerator()

	assert.NotEqual(t, a.NodeID(), b.NodeID(), "Different generators should have different node ids")
	assert.NotEqual(t, a.Next(), b.Next())
}

func TestGenerator_ConcurrentNext(t *testing.T) {
	g := NewGenerator()
	const goroutines = 50
	const perGoroutine = 100

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]struct{}, goroutines*perGoroutine)
	)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				id := g.Next()
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, goroutines*perGoroutine, "All ids should be unique")
	for id := range seen {
		assert.True(t, strings.HasPrefix(id, Prefix))
	}
}
