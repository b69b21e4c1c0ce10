// Package publisher relays outbox entries to the message bus.
//
// One Publisher runs per process. It drains on a fixed poll interval and
// whenever Notify is called after a commit. Delivery is at-least-once: an
// entry acknowledged by the broker but not yet marked DELIVERED is published
// again after a crash, and consumers deduplicate on (orderID, newStatus, version).
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"oms/internal/core/domain/model/outbox"
	"oms/internal/core/ports"
	"oms/internal/pkg/errs"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Config struct {
	PollInterval   time.Duration
	BatchSize      int
	PublishTimeout time.Duration
	MaxAttempts    int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
}

func DefaultConfig() Config {
	return Config{
		PollInterval:   time.Second,
		BatchSize:      100,
		PublishTimeout: 5 * time.Second,
		MaxAttempts:    10,
		BaseDelay:      500 * time.Millisecond,
		MaxDelay:       5 * time.Minute,
	}
}

func (c Config) Validate() error {
	if c.PollInterval <= 0 {
		return errs.NewValueIsRequiredError("pollInterval")
	}
	if c.BatchSize < 1 {
		return errs.NewValueIsOutOfRangeError("batchSize", c.BatchSize, 1, "unbounded")
	}
	if c.PublishTimeout <= 0 {
		return errs.NewValueIsRequiredError("publishTimeout")
	}
	if c.MaxAttempts < 1 {
		return errs.NewValueIsOutOfRangeError("maxAttempts", c.MaxAttempts, 1, "unbounded")
	}
	if c.BaseDelay <= 0 || c.MaxDelay < c.BaseDelay {
		return errs.NewValueIsInvalidError("retry delay")
	}
	return nil
}

// Option customises a Publisher.
type Option func(*Publisher)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) { p.now = now }
}

// WithRandomizationFactor sets how far a retry delay may stray from its
// exponential value, as a fraction of it. Zero disables randomization.
func WithRandomizationFactor(factor float64) Option {
	return func(p *Publisher) { p.randomization = factor }
}

// Publisher moves PENDING outbox entries to the bus.
type Publisher struct {
	store    ports.OutboxRepository
	bus      ports.MessageBus
	config   Config
	observer ports.Observer
	logger   *slog.Logger
	tracer   trace.Tracer

	now           func() time.Time
	randomization float64

	wake     chan struct{}
	draining sync.Mutex
}

func New(
	store ports.OutboxRepository,
	bus ports.MessageBus,
	config Config,
	observer ports.Observer,
	logger *slog.Logger,
	opts ...Option,
) (*Publisher, error) {
	if store == nil {
		return nil, errs.NewValueIsRequiredError("store")
	}
	if bus == nil {
		return nil, errs.NewValueIsRequiredError("bus")
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

	p := &Publisher{
		store:         store,
		bus:           bus,
		config:        config,
		observer:      observer,
		logger:        logger.With("component", "outbox_publisher"),
		tracer:        otel.Tracer("oms/publisher"),
		now:           time.Now,
		randomization: backoff.DefaultRandomizationFactor,
		wake:          make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Notify wakes the loop. It never blocks; signals coalesce.
func (p *Publisher) Notify() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Run drains until ctx is cancelled.
func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.InfoContext(ctx, "Outbox publisher started", "poll_interval", p.config.PollInterval)
	for {
		if _, err := p.Drain(ctx); err != nil && ctx.Err() == nil {
			p.logger.ErrorContext(ctx, "Outbox drain failed", "error", err)
		}

		select {
		case <-ctx.Done():
			p.logger.InfoContext(context.Background(), "Outbox publisher stopped")
			return
		case <-ticker.C:
		case <-p.wake:
		}
	}
}

// Result summarises one Drain.
type Result struct {
	Delivered int
	Retried   int
	Failed    int
}

// Drain publishes due entries until a batch delivers nothing. A Drain already
// in progress makes a concurrent call return immediately with a zero Result.
func (p *Publisher) Drain(ctx context.Context) (Result, error) {
	var total Result
	if !p.draining.TryLock() {
		return total, nil
	}
	defer p.draining.Unlock()

	ctx, span := p.tracer.Start(ctx, "outbox.drain")
	defer span.End()

	for ctx.Err() == nil {
		batch, err := p.store.FetchPending(ctx, p.config.BatchSize, p.now().UTC())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "fetch pending")
			return total, err
		}
		if len(batch) == 0 {
			break
		}

		var round Result
		for _, entry := range batch {
			if ctx.Err() != nil {
				break
			}
			if err := p.publish(ctx, entry, &round); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "update entry")
				total = total.add(round)
				return total, err
			}
		}
		total = total.add(round)

		if round.Delivered == 0 {
			break
		}
	}

	span.SetAttributes(
		attribute.Int("outbox.delivered", total.Delivered),
		attribute.Int("outbox.retried", total.Retried),
		attribute.Int("outbox.failed", total.Failed),
	)
	return total, nil
}

func (p *Publisher) publish(ctx context.Context, entry *outbox.Entry, result *Result) error {
	publishCtx, cancel := context.WithTimeout(ctx, p.config.PublishTimeout)
	err := p.bus.Publish(publishCtx, ports.Message{
		ID:         entry.ID().String(),
		Key:        entry.OrderID().String(),
		Type:       entry.EventType(),
		Payload:    entry.Payload(),
		OccurredAt: entry.CreatedAt(),
	})
	cancel()

	now := p.now().UTC()
	attempts := entry.Attempts() + 1

	if err == nil {
		if err := p.store.MarkDelivered(ctx, entry.ID(), now); err != nil {
			return err
		}
		result.Delivered++
		p.observer.OutboxEntryDelivered(ctx, entry.ID(), entry.OrderID(), attempts)
		return nil
	}

	reason := outbox.TruncateError(err)
	if attempts >= p.config.MaxAttempts {
		if err := p.store.MarkFailed(ctx, entry.ID(), reason, now); err != nil {
			return err
		}
		result.Failed++
		p.logger.ErrorContext(ctx, "Outbox entry failed permanently",
			"entry_id", entry.ID().String(), "order_id", entry.OrderID().String(),
			"attempts", attempts, "error", reason)
		p.observer.OutboxEntryFailed(ctx, entry.ID(), entry.OrderID(), attempts, reason)
		return nil
	}

	next := now.Add(p.RetryDelay(attempts))
	if err := p.store.RecordFailedAttempt(ctx, entry.ID(), attempts, next, reason); err != nil {
		return err
	}
	result.Retried++
	p.logger.WarnContext(ctx, "Outbox publish failed, will retry",
		"entry_id", entry.ID().String(), "attempts", attempts, "next_attempt_at", next, "error", reason)
	return nil
}

// RetryDelay is the backoff after attempts failures: BaseDelay doubled per
// earlier failure and capped at MaxDelay, then randomized by the factor. The
// schedule is derived from the attempt count stored on the entry, so it holds
// across restarts.
func (p *Publisher) RetryDelay(attempts int) time.Duration {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     p.config.BaseDelay,
		RandomizationFactor: p.randomization,
		Multiplier:          2,
		MaxInterval:         p.config.MaxDelay,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	b.Reset()

	// The interval reaches MaxInterval long before 64 doublings.
	delay := b.NextBackOff()
	for i := 1; i < min(attempts, 64); i++ {
		delay = b.NextBackOff()
	}
	return delay
}

func (r Result) add(other Result) Result {
	return Result{
		Delivered: r.Delivered + other.Delivered,
		Retried:   r.Retried + other.Retried,
		Failed:    r.Failed + other.Failed,
	}
}
