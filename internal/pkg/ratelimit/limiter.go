// Package ratelimit implements per-key token buckets with lazy refill.
//
// Each key owns a bucket of Capacity tokens refilled continuously at RefillPerSecond.
// TryAcquire refills the bucket for the elapsed time, then either deducts the cost
// or rejects without touching the bucket and reports when enough tokens will exist.
// Check-and-deduct is a compare-and-swap on an immutable bucket snapshot, so
// concurrent acquirers on one key never overspend it.
package ratelimit

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"oms/internal/pkg/errs"
)

var ErrInvalidCost = errors.New("cost must be positive and not exceed bucket capacity")

// Config describes every bucket created by a Limiter.
type Config struct {
	Capacity        float64
	RefillPerSecond float64
}

func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("capacity", fmt.Errorf("%v is not greater than 0", c.Capacity))
	}
	if c.RefillPerSecond <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("refillPerSecond", fmt.Errorf("%v is not greater than 0", c.RefillPerSecond))
	}
	return nil
}

// Decision is the outcome of one TryAcquire call.
type Decision struct {
	Allowed bool
	// Remaining is the token count left after the call.
	Remaining float64
	// RetryAfter is zero when Allowed.
	RetryAfter time.Duration
}

type snapshot struct {
	tokens float64
	last   time.Time
	// retired marks a bucket removed by Sweep. Acquirers holding it must
	// reload the bucket of their key.
	retired bool
}

type bucket struct {
	state atomic.Pointer[snapshot]
}

// Limiter holds one bucket per key. The zero value is not usable; use New.
type Limiter struct {
	config  Config
	now     func() time.Time
	buckets sync.Map
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

func New(config Config, opts ...Option) (*Limiter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	l := &Limiter{
		config: config,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// TryAcquire takes cost tokens from the bucket of key if available.
// A missing bucket starts full.
func (l *Limiter) TryAcquire(key string, cost float64) (Decision, error) {
	if cost <= 0 || cost > l.config.Capacity {
		return Decision{}, fmt.Errorf("%w: got %v, capacity %v", ErrInvalidCost, cost, l.config.Capacity)
	}

	b := l.bucketFor(key)
	for {
		now := l.now()
		current := b.state.Load()
		if current.retired {
			l.buckets.CompareAndDelete(key, b)
			b = l.bucketFor(key)
			continue
		}
		tokens := l.refill(current, now)

		if tokens < cost {
			return Decision{
				Allowed:    false,
				Remaining:  tokens,
				RetryAfter: l.waitFor(cost - tokens),
			}, nil
		}

		next := &snapshot{tokens: tokens - cost, last: laterOf(current.last, now)}
		if b.state.CompareAndSwap(current, next) {
			return Decision{Allowed: true, Remaining: next.tokens}, nil
		}
	}
}

// Sweep drops buckets that have been idle for at least idle and have refilled
// to capacity, and returns how many were removed. A dropped key starts full
// again, so removal changes no future decision whatever idle is.
func (l *Limiter) Sweep(idle time.Duration) int {
	now := l.now()
	removed := 0
	l.buckets.Range(func(key, value any) bool {
		b, ok := value.(*bucket)
		if !ok {
			return true
		}
		current := b.state.Load()
		if current.retired {
			l.buckets.CompareAndDelete(key, b)
			return true
		}
		if now.Sub(current.last) < idle || l.refill(current, now) < l.config.Capacity {
			return true
		}
		if b.state.CompareAndSwap(current, &snapshot{tokens: current.tokens, last: current.last, retired: true}) {
			l.buckets.CompareAndDelete(key, b)
			removed++
		}
		return true
	})
	return removed
}

// Len reports the number of tracked keys.
func (l *Limiter) Len() int {
	n := 0
	l.buckets.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (l *Limiter) bucketFor(key string) *bucket {
	if existing, ok := l.buckets.Load(key); ok {
		return existing.(*bucket)
	}

	fresh := &bucket{}
	fresh.state.Store(&snapshot{tokens: l.config.Capacity, last: l.now()})
	actual, _ := l.buckets.LoadOrStore(key, fresh)
	return actual.(*bucket)
}

// refill never moves backwards in time: a clock step back counts as zero elapsed.
func (l *Limiter) refill(s *snapshot, now time.Time) float64 {
	elapsed := now.Sub(s.last).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	return math.Min(l.config.Capacity, s.tokens+elapsed*l.config.RefillPerSecond)
}

func (l *Limiter) waitFor(missing float64) time.Duration {
	return time.Duration(math.Ceil(missing / l.config.RefillPerSecond * float64(time.Second)))
}

func laterOf(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
