package transport

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff_DefaultSequence(t *testing.T) {
	b := NewBackoff(DefaultInitialBackoff, DefaultMaxBackoff, DefaultBackoffMultiplier)

	wantMs := []float64{1000, 1600, 2560, 4096, 6553.6}
	for i, want := range wantMs {
		got := b.Next()
		assert.InDelta(t, want, float64(got)/float64(time.Millisecond), 1, "attempt %d", i)
	}
}

func TestBackoff_MatchesFormulaAndCap(t *testing.T) {
	b := NewBackoff(DefaultInitialBackoff, DefaultMaxBackoff, DefaultBackoffMultiplier)

	for k := 0; k < 20; k++ {
		want := math.Min(30000, 1000*math.Pow(1.6, float64(k)))
		got := float64(b.Next()) / float64(time.Millisecond)
		assert.InDelta(t, want, got, 1, "attempt %d", k)
		assert.LessOrEqual(t, got, 30000.0)
	}
}

func TestBackoff_Reset(t *testing.T) {
	b := NewBackoff(DefaultInitialBackoff, DefaultMaxBackoff, DefaultBackoffMultiplier)
	b.Next()
	b.Next()
	assert.InDelta(t, 2560, float64(b.Current())/float64(time.Millisecond), 1)

	b.Reset()
	assert.Equal(t, DefaultInitialBackoff, b.Next())
}

func TestNewBackoff_InvalidParamsUseDefaults(t *testing.T) {
	b := NewBackoff(0, -1, 0.5)

	assert.Equal(t, DefaultInitialBackoff, b.Next())
	assert.InDelta(t, 1600, float64(b.Next())/float64(time.Millisecond), 1)
}
