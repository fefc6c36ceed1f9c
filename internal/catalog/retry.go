package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Backoff selects how the wait grows between rate-limited attempts.
type Backoff string

const (
	BackoffFixed       Backoff = "fixed"
	BackoffExponential Backoff = "exponential"
)

// DefaultInterval is the wait after a 429 under the default policy.
const DefaultInterval = time.Second

// RetryPolicy governs how rate-limited requests are repeated.
// MaxAttempts counts every request including the first; 0 means unlimited.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     Backoff
	Interval    time.Duration
	MaxInterval time.Duration // exponential cap, 0 = uncapped
}

// DefaultRetryPolicy retries forever, one second apart, without jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Backoff:  BackoffFixed,
		Interval: DefaultInterval,
	}
}

// ParseBackoff accepts "fixed" or "exponential" (case-insensitive).
func ParseBackoff(s string) (Backoff, error) {
	switch Backoff(strings.ToLower(strings.TrimSpace(s))) {
	case BackoffFixed, "":
		return BackoffFixed, nil
	case BackoffExponential:
		return BackoffExponential, nil
	default:
		return "", fmt.Errorf("unknown backoff %q", s)
	}
}

func (p RetryPolicy) Validate() error {
	if p.MaxAttempts < 0 {
		return errors.New("max attempts must be >= 0")
	}
	if p.Interval <= 0 {
		return errors.New("retry interval must be positive")
	}
	switch p.Backoff {
	case BackoffFixed, BackoffExponential:
	default:
		return fmt.Errorf("unknown backoff %q", p.Backoff)
	}
	return nil
}

// Exhausted reports whether no further attempt is allowed after attempts requests.
func (p RetryPolicy) Exhausted(attempts int) bool {
	return p.MaxAttempts > 0 && attempts >= p.MaxAttempts
}

// Delay returns the wait after the given (1-based) rate-limited attempt.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if p.Backoff != BackoffExponential || attempt <= 1 {
		return p.Interval
	}
	d := p.Interval
	for i := 1; i < attempt; i++ {
		if p.MaxInterval > 0 && d >= p.MaxInterval {
			return p.MaxInterval
		}
		if d > math.MaxInt64/2 {
			break
		}
		d *= 2
	}
	if p.MaxInterval > 0 && d > p.MaxInterval {
		return p.MaxInterval
	}
	return d
}

// SleepWithContext blocks for d, returning early if ctx is cancelled.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
