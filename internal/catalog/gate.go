package catalog

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// DefaultMaxConcurrent matches the upstream's documented per-second budget.
const DefaultMaxConcurrent = 3

// Gate is the dispatcher every catalog request passes through. It bounds the
// number of requests in flight, optionally spaces them out, and holds a shared
// cooldown so that one rate-limit response pauses all callers instead of each
// retrying on its own schedule. A Gate is meant to be shared by all clients of
// one session.
type Gate struct {
	sem     *semaphore.Weighted
	limiter *rate.Limiter

	mu       sync.Mutex
	resumeAt time.Time
}

// NewGate allows maxConcurrent requests in flight and at most one request per
// minInterval (0 disables pacing).
func NewGate(maxConcurrent int, minInterval time.Duration) *Gate {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	g := &Gate{sem: semaphore.NewWeighted(int64(maxConcurrent))}
	if minInterval > 0 {
		g.limiter = rate.NewLimiter(rate.Every(minInterval), 1)
	}
	return g
}

// Acquire blocks until a request may be sent. The returned release func must
// be called once the response has been read; calling it twice is harmless.
func (g *Gate) Acquire(ctx context.Context) (func(), error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	if err := g.waitCooldown(ctx); err != nil {
		g.sem.Release(1)
		return nil, err
	}
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			g.sem.Release(1)
			return nil, err
		}
	}
	var once sync.Once
	return func() { once.Do(func() { g.sem.Release(1) }) }, nil
}

// Pause holds every future Acquire for at least d. Overlapping pauses keep the
// later deadline.
func (g *Gate) Pause(d time.Duration) {
	if d <= 0 {
		return
	}
	until := time.Now().Add(d)
	g.mu.Lock()
	if until.After(g.resumeAt) {
		g.resumeAt = until
	}
	g.mu.Unlock()
}

// Remaining returns how long the current cooldown still lasts.
func (g *Gate) Remaining() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	if d := time.Until(g.resumeAt); d > 0 {
		return d
	}
	return 0
}

func (g *Gate) waitCooldown(ctx context.Context) error {
	for {
		wait := g.Remaining()
		if wait <= 0 {
			return nil
		}
		// a concurrent Pause may extend the deadline while we sleep
		if err := SleepWithContext(ctx, wait); err != nil {
			return err
		}
	}
}
