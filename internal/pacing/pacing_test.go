package pacing

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStaysWithinBounds(t *testing.T) {
	p := NewRandomPacerWithSource(3*time.Second, 7*time.Second, rand.NewSource(42))

	for i := 0; i < 1000; i++ {
		d := p.Next()
		assert.GreaterOrEqual(t, d, 3*time.Second)
		assert.LessOrEqual(t, d, 7*time.Second)
	}
}

func TestNextFixedDelay(t *testing.T) {
	p := NewRandomPacer(2*time.Second, 2*time.Second)
	assert.Equal(t, 2*time.Second, p.Next())
}

func TestSwappedBounds(t *testing.T) {
	p := NewRandomPacer(7*time.Second, 3*time.Second)

	min, max := p.Bounds()
	assert.Equal(t, 3*time.Second, min)
	assert.Equal(t, 7*time.Second, max)
}

func TestWaitSleepsDrawnDelay(t *testing.T) {
	p := NewRandomPacerWithSource(time.Second, 5*time.Second, rand.NewSource(1))

	var slept time.Duration
	p.sleep = func(ctx context.Context, d time.Duration) error {
		slept = d
		return nil
	}

	d, err := p.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, d, slept)
	assert.GreaterOrEqual(t, d, time.Second)
}

func TestWaitCancelled(t *testing.T) {
	p := NewRandomPacer(time.Hour, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, err := p.Wait(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestWaitShortDelay(t *testing.T) {
	p := NewRandomPacer(time.Millisecond, 2*time.Millisecond)

	d, err := p.Wait(context.Background())
	require.NoError(t, err)
	assert.LessOrEqual(t, d, 2*time.Millisecond)
}
