// Package telemetry implements ports.Observer with OpenTelemetry counters and
// structured log records, and bootstraps the OTLP exporters.
package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"oms/internal/core/domain/model/kernel"
	"oms/internal/core/domain/model/order"
	"oms/internal/core/ports"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	MetricRateLimited        = "oms.ratelimit.rejections"
	MetricBreakerTransitions = "oms.breaker.transitions"
	MetricOutboxDelivered    = "oms.outbox.delivered"
	MetricOutboxFailed       = "oms.outbox.failed"
	MetricTransitionsFailed  = "oms.order.transitions.failed"
)

// Observer is safe for concurrent use and never blocks the caller.
type Observer struct {
	logger *slog.Logger

	rateLimited        metric.Int64Counter
	breakerTransitions metric.Int64Counter
	outboxDelivered    metric.Int64Counter
	outboxFailed       metric.Int64Counter
	transitionsFailed  metric.Int64Counter
}

var _ ports.Observer = (*Observer)(nil)

func NewObserver(meter metric.Meter, logger *slog.Logger) (*Observer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	o := &Observer{logger: logger.With("component", "observer")}

	var err, errList error
	o.rateLimited, err = meter.Int64Counter(MetricRateLimited,
		metric.WithDescription("Requests rejected by the ingress rate limiter"))
	errList = errors.Join(errList, err)
	o.breakerTransitions, err = meter.Int64Counter(MetricBreakerTransitions,
		metric.WithDescription("Circuit breaker state changes per dependency"))
	errList = errors.Join(errList, err)
	o.outboxDelivered, err = meter.Int64Counter(MetricOutboxDelivered,
		metric.WithDescription("Outbox entries acknowledged by the broker"))
	errList = errors.Join(errList, err)
	o.outboxFailed, err = meter.Int64Counter(MetricOutboxFailed,
		metric.WithDescription("Outbox entries that exhausted their publish attempts"))
	errList = errors.Join(errList, err)
	o.transitionsFailed, err = meter.Int64Counter(MetricTransitionsFailed,
		metric.WithDescription("Order commands that ended in an error"))
	errList = errors.Join(errList, err)

	if errList != nil {
		return nil, errList
	}
	return o, nil
}

func (o *Observer) RateLimited(ctx context.Context, key string, retryAfter time.Duration) {
	o.rateLimited.Add(ctx, 1)
	o.logger.WarnContext(ctx, "request rate limited", "key", key, "retry_after", retryAfter)
}

func (o *Observer) BreakerStateChanged(ctx context.Context, dependency string, from, to string) {
	o.breakerTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("dependency", dependency),
		attribute.String("to", to),
	))
	o.logger.WarnContext(ctx, "circuit breaker state changed", "dependency", dependency, "from", from, "to", to)
}

func (o *Observer) OutboxEntryDelivered(ctx context.Context, entryID, orderID kernel.UUID, attempts int) {
	o.outboxDelivered.Add(ctx, 1)
	o.logger.DebugContext(ctx, "outbox entry delivered",
		"entry_id", entryID.String(), "order_id", orderID.String(), "attempts", attempts)
}

func (o *Observer) OutboxEntryFailed(ctx context.Context, entryID, orderID kernel.UUID, attempts int, reason string) {
	o.outboxFailed.Add(ctx, 1)
	o.logger.ErrorContext(ctx, "outbox entry failed permanently",
		"entry_id", entryID.String(), "order_id", orderID.String(), "attempts", attempts, "reason", reason)
}

func (o *Observer) TransitionFailed(ctx context.Context, orderID kernel.UUID, command order.CommandType, err error) {
	o.transitionsFailed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("command", command.String()),
		attribute.String("reason", reason(err)),
	))
	o.logger.InfoContext(ctx, "order transition failed",
		"order_id", orderID.String(), "command", command.String(), "error", err)
}

// reason keeps the attribute cardinality bounded.
func reason(err error) string {
	switch {
	case errors.Is(err, order.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ports.ErrDownstreamUnavailable):
		return "downstream_unavailable"
	case errors.Is(err, ports.ErrDownstreamRejected):
		return "downstream_rejected"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "other"
	}
}
