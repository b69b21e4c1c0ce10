package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"oms/internal/core/ports"
	"oms/internal/pkg/errs"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
)

// Config tunes one gateway instance.
type Config struct {
	FailureThreshold uint32        // consecutive retryable failures that open the circuit
	FailureWindow    time.Duration // closed-state counting interval; zero never clears
	Cooldown         time.Duration // time spent OPEN before a trial call
	HalfOpenMaxCalls uint32        // trial calls allowed, and successes needed to close
	MaxRetries       uint64
	InitialBackoff   time.Duration
	MaxBackoff       time.Duration
	CallTimeout      time.Duration
}

func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		FailureWindow:    time.Minute,
		Cooldown:         30 * time.Second,
		HalfOpenMaxCalls: 1,
		MaxRetries:       2,
		InitialBackoff:   100 * time.Millisecond,
		MaxBackoff:       2 * time.Second,
		CallTimeout:      2 * time.Second,
	}
}

func (c Config) Validate() error {
	if c.FailureThreshold == 0 {
		return errs.NewValueIsOutOfRangeError("failureThreshold", c.FailureThreshold, 1, "unbounded")
	}
	if c.HalfOpenMaxCalls == 0 {
		return errs.NewValueIsOutOfRangeError("halfOpenMaxCalls", c.HalfOpenMaxCalls, 1, "unbounded")
	}
	if c.Cooldown <= 0 {
		return errs.NewValueIsRequiredError("cooldown")
	}
	if c.CallTimeout <= 0 {
		return errs.NewValueIsRequiredError("callTimeout")
	}
	if c.InitialBackoff <= 0 || c.MaxBackoff < c.InitialBackoff {
		return errs.NewValueIsInvalidError("backoff")
	}
	return nil
}

// Gateway decorates a ports.ConfirmationService. It is safe for concurrent use;
// breaker state is shared by every caller of one instance.
type Gateway struct {
	name     string
	next     ports.ConfirmationService
	config   Config
	breaker  *gobreaker.CircuitBreaker
	observer ports.Observer
	logger   *slog.Logger
}

var _ ports.ConfirmationService = (*Gateway)(nil)

func New(
	name string,
	next ports.ConfirmationService,
	config Config,
	observer ports.Observer,
	logger *slog.Logger,
) (*Gateway, error) {
	if name == "" {
		return nil, errs.NewValueIsRequiredError("name")
	}
	if next == nil {
		return nil, errs.NewValueIsRequiredError("next")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if observer == nil {
		observer = ports.NopObserver{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	g := &Gateway{
		name:     name,
		next:     next,
		config:   config,
		observer: observer,
		logger:   logger.With("component", "gateway", "dependency", name),
	}
	g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: config.HalfOpenMaxCalls,
		Interval:    config.FailureWindow,
		Timeout:     config.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return Classify(err) != Retryable
		},
		OnStateChange: g.onStateChange,
	})

	return g, nil
}

func (g *Gateway) Name() string {
	return g.name
}

// Confirm returns nil, ports.ErrDownstreamRejected for fatal answers, or
// ports.ErrDownstreamUnavailable when the circuit is open or retries ran out.
func (g *Gateway) Confirm(ctx context.Context, req ports.ConfirmationRequest) error {
	attempt := 0
	operation := func() error {
		attempt++
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(fmt.Errorf("%w: %s: %w", ports.ErrDownstreamUnavailable, g.name, err))
		}

		// The call is bounded by CallTimeout only. A caller giving up mid call
		// must not be recorded as an outcome of the dependency.
		_, err := g.breaker.Execute(func() (any, error) {
			callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.config.CallTimeout)
			defer cancel()
			return nil, g.next.Confirm(callCtx, req)
		})
		if err == nil {
			return nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return backoff.Permanent(fmt.Errorf("%w: %s circuit is %s", ports.ErrDownstreamUnavailable, g.name, stateName(g.breaker.State())))
		}
		if ctx.Err() != nil {
			return backoff.Permanent(fmt.Errorf("%w: %s: %w", ports.ErrDownstreamUnavailable, g.name, ctx.Err()))
		}
		if Classify(err) == Fatal {
			if errors.Is(err, ports.ErrDownstreamRejected) {
				return backoff.Permanent(err)
			}
			return backoff.Permanent(fmt.Errorf("%w: %s: %w", ports.ErrDownstreamRejected, g.name, err))
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		g.logger.WarnContext(ctx, "Downstream call failed, retrying",
			"order_id", req.OrderID.String(), "attempt", attempt, "retry_in", wait, "error", err)
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(g.newBackOff(), ctx), notify)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ports.ErrDownstreamUnavailable), errors.Is(err, ports.ErrDownstreamRejected):
		return err
	default:
		return fmt.Errorf("%w: %s failed after %d attempts: %w", ports.ErrDownstreamUnavailable, g.name, attempt, err)
	}
}

// Snapshot describes the breaker for health reporting.
type Snapshot struct {
	Name                 string `json:"name"`
	State                string `json:"state"`
	Requests             uint32 `json:"requests"`
	TotalFailures        uint32 `json:"totalFailures"`
	ConsecutiveFailures  uint32 `json:"consecutiveFailures"`
	ConsecutiveSuccesses uint32 `json:"consecutiveSuccesses"`
}

func (g *Gateway) Snapshot() Snapshot {
	counts := g.breaker.Counts()
	return Snapshot{
		Name:                 g.name,
		State:                stateName(g.breaker.State()),
		Requests:             counts.Requests,
		TotalFailures:        counts.TotalFailures,
		ConsecutiveFailures:  counts.ConsecutiveFailures,
		ConsecutiveSuccesses: counts.ConsecutiveSuccesses,
	}
}

func (g *Gateway) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = g.config.InitialBackoff
	b.MaxInterval = g.config.MaxBackoff
	b.MaxElapsedTime = 0
	return backoff.WithMaxRetries(b, g.config.MaxRetries)
}

// onStateChange runs under the breaker lock.
func (g *Gateway) onStateChange(_ string, from, to gobreaker.State) {
	ctx := context.Background()
	g.logger.InfoContext(ctx, "Circuit breaker state changed", "from", stateName(from), "to", stateName(to))
	g.observer.BreakerStateChanged(ctx, g.name, stateName(from), stateName(to))
}

func stateName(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "CLOSED"
	case gobreaker.StateHalfOpen:
		return "HALF_OPEN"
	case gobreaker.StateOpen:
		return "OPEN"
	default:
		return "UNKNOWN"
	}
}
