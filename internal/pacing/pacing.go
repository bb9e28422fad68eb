package pacing

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Pacer spaces out consecutive page visits with a random delay.
type Pacer interface {
	Wait(ctx context.Context) (time.Duration, error)
}

// RandomPacer sleeps a duration drawn uniformly from [minDelay, maxDelay].
type RandomPacer struct {
	minDelay time.Duration
	maxDelay time.Duration
	rnd      *rand.Rand
	mu       sync.Mutex

	// sleep is replaced in tests
	sleep func(ctx context.Context, d time.Duration) error
}

func NewRandomPacer(minDelay, maxDelay time.Duration) *RandomPacer {
	return NewRandomPacerWithSource(minDelay, maxDelay, rand.NewSource(time.Now().UnixNano()))
}

func NewRandomPacerWithSource(minDelay, maxDelay time.Duration, src rand.Source) *RandomPacer {
	if maxDelay < minDelay {
		minDelay, maxDelay = maxDelay, minDelay
	}
	return &RandomPacer{
		minDelay: minDelay,
		maxDelay: maxDelay,
		rnd:      rand.New(src),
		sleep:    sleepContext,
	}
}

// Wait blocks for the next delay and returns it. It returns early with the
// context error if ctx is cancelled.
func (p *RandomPacer) Wait(ctx context.Context) (time.Duration, error) {
	delay := p.Next()
	if err := p.sleep(ctx, delay); err != nil {
		return delay, err
	}
	return delay, nil
}

// Next draws the next delay without sleeping.
func (p *RandomPacer) Next() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.minDelay == p.maxDelay {
		return p.minDelay
	}

	delta := p.maxDelay - p.minDelay
	jitter := time.Duration(p.rnd.Int63n(int64(delta) + 1))
	return p.minDelay + jitter
}

func (p *RandomPacer) Bounds() (time.Duration, time.Duration) {
	return p.minDelay, p.maxDelay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
