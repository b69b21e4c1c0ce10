package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"oms/internal/core/domain/model/kernel"
	"oms/internal/core/domain/model/order"
	"oms/internal/core/domain/model/outbox"
	"oms/internal/core/ports"
	"oms/internal/pkg/errs"
	"oms/internal/pkg/ratelimit"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type (
	// RateLimiter admits or rejects a request for a client key.
	RateLimiter interface {
		TryAcquire(key string, cost float64) (ratelimit.Decision, error)
	}

	// Notifier is told after every commit that new outbox entries exist.
	Notifier interface {
		Notify()
	}
)

// SubmitConfig tunes SubmitOrderCommandHandler.
type SubmitConfig struct {
	// MaxConflictRetries is how many times a transition that lost a version
	// race is recomputed before ConcurrentModification is returned.
	MaxConflictRetries int
}

func DefaultSubmitConfig() SubmitConfig {
	return SubmitConfig{MaxConflictRetries: 3}
}

// SubmitOrderResult describes the transition produced by a command. A replayed
// idempotent request returns the result of its first execution.
type SubmitOrderResult struct {
	OrderID        kernel.UUID
	EventType      string
	PreviousStatus order.Status
	NewStatus      order.Status
	Version        int64
	OccurredAt     time.Time
}

// SubmitOrderCommandHandler is the single entry point for order commands.
//
// For each command it:
//  1. rate limits by client key
//  2. returns the stored result when the idempotency key was seen before
//  3. computes the transition on the current order value
//  4. asks the downstream dependency registered for the command, if any
//  5. writes order, outbox entry and idempotency record in one transaction
//  6. wakes the publisher
//
// A lost version race restarts from step 2, at most MaxConflictRetries times.
//
// Example:
//
//	handler, _ := NewSubmitOrderCommandHandler(uowFactory, limiter, confirmers, publisher, observer, DefaultSubmitConfig())
//	cmd, _ := NewSubmitOrderCommand(orderID, order.Cancel, nil, "req-1", "user-1")
//	result, err := handler.Handle(ctx, cmd)
//	if errors.Is(err, order.ErrInvalidTransition) {
//	    // the order was not in a cancellable state
//	}
type SubmitOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	limiter    RateLimiter
	confirmers map[order.CommandType]ports.ConfirmationService
	notifier   Notifier
	observer   ports.Observer
	config     SubmitConfig
	tracer     trace.Tracer
	now        func() time.Time
}

// SubmitOption customises a SubmitOrderCommandHandler.
type SubmitOption func(*SubmitOrderCommandHandler)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) SubmitOption {
	return func(h *SubmitOrderCommandHandler) { h.now = now }
}

// NewSubmitOrderCommandHandler wires the handler. limiter, notifier and
// observer may be nil. confirmers maps the commands that need external
// confirmation to the dependency that gives it.
func NewSubmitOrderCommandHandler(
	uowFactory OrderUoWFactory,
	limiter RateLimiter,
	confirmers map[order.CommandType]ports.ConfirmationService,
	notifier Notifier,
	observer ports.Observer,
	config SubmitConfig,
	opts ...SubmitOption,
) (*SubmitOrderCommandHandler, error) {
	if uowFactory == nil {
		return nil, errs.NewValueIsRequiredError("uowFactory")
	}
	if config.MaxConflictRetries < 0 {
		return nil, errs.NewValueIsOutOfRangeError("maxConflictRetries", config.MaxConflictRetries, 0, "unbounded")
	}
	if observer == nil {
		observer = ports.NopObserver{}
	}

	h := &SubmitOrderCommandHandler{
		uowFactory: uowFactory,
		limiter:    limiter,
		confirmers: make(map[order.CommandType]ports.ConfirmationService, len(confirmers)),
		notifier:   notifier,
		observer:   observer,
		config:     config,
		tracer:     otel.Tracer("oms/commands"),
		now:        time.Now,
	}
	for command, confirmer := range confirmers {
		if confirmer != nil {
			h.confirmers[command] = confirmer
		}
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Handle executes cmd. See SubmitOrderCommandHandler for the steps.
func (h *SubmitOrderCommandHandler) Handle(ctx context.Context, cmd SubmitOrderCommand) (result SubmitOrderResult, err error) {
	if err := cmd.Validate(); err != nil {
		return SubmitOrderResult{}, err
	}

	ctx, span := h.tracer.Start(ctx, "order.submit", trace.WithAttributes(
		attribute.String("order.id", cmd.OrderID().String()),
		attribute.String("order.command", cmd.CommandType().String()),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "submit failed")
			// Rejections by the limiter are reported through RateLimited.
			if !errors.Is(err, ErrRateLimited) {
				h.observer.TransitionFailed(ctx, cmd.OrderID(), cmd.CommandType(), err)
			}
		} else {
			span.SetAttributes(attribute.Int64("order.version", result.Version))
		}
		span.End()
	}()

	if err := h.admit(ctx, cmd.ClientKey()); err != nil {
		return SubmitOrderResult{}, err
	}

	for attempt := 0; ; attempt++ {
		result, err = h.attempt(ctx, cmd)
		if err == nil || !errors.Is(err, errs.ErrConcurrentModification) || attempt >= h.config.MaxConflictRetries {
			return result, err
		}
	}
}

func (h *SubmitOrderCommandHandler) admit(ctx context.Context, clientKey string) error {
	if clientKey == "" || h.limiter == nil {
		return nil
	}

	decision, err := h.limiter.TryAcquire(clientKey, 1)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		h.observer.RateLimited(ctx, clientKey, decision.RetryAfter)
		return NewRateLimitedError(clientKey, decision.RetryAfter)
	}
	return nil
}

func (h *SubmitOrderCommandHandler) attempt(ctx context.Context, cmd SubmitOrderCommand) (SubmitOrderResult, error) {
	reader := h.uowFactory.Create()
	key, hasKey := cmd.IdempotencyKey()

	if hasKey {
		if result, found, err := h.replay(ctx, reader, cmd, key); found || err != nil {
			return result, err
		}
	}

	now := h.now().UTC().Truncate(time.Microsecond)
	next, event, expectedVersion, err := h.transition(ctx, reader.OrderRepository(), cmd, now)
	if err != nil {
		// A concurrent request with the same key may have committed between the
		// lookup and the load.
		if hasKey && errors.Is(err, order.ErrInvalidTransition) {
			if result, found, replayErr := h.replay(ctx, reader, cmd, key); found || replayErr != nil {
				return result, replayErr
			}
		}
		return SubmitOrderResult{}, err
	}

	if confirmer, ok := h.confirmers[cmd.CommandType()]; ok {
		if err := ctx.Err(); err != nil {
			return SubmitOrderResult{}, err
		}
		err := confirmer.Confirm(context.WithoutCancel(ctx), ports.ConfirmationRequest{
			OrderID:        next.ID(),
			Command:        cmd.CommandType(),
			Amount:         next.Total(),
			IdempotencyKey: fmt.Sprintf("%s:%d", next.ID().String(), next.Version()),
		})
		if err != nil {
			return SubmitOrderResult{}, err
		}
	}

	entry, err := outbox.NewEntry(event, now)
	if err != nil {
		return SubmitOrderResult{}, err
	}

	var record *ports.IdempotencyRecord
	if hasKey {
		r := recordFromEvent(key, cmd.CommandType(), event)
		record = &r
	}

	if err := h.appendAtomic(context.WithoutCancel(ctx), next, expectedVersion, entry, record); err != nil {
		return SubmitOrderResult{}, err
	}
	if h.notifier != nil {
		h.notifier.Notify()
	}

	return resultFromEvent(event), nil
}

// replay returns the stored result of an earlier execution with the same key.
func (h *SubmitOrderCommandHandler) replay(
	ctx context.Context,
	reader OrderUoW,
	cmd SubmitOrderCommand,
	key kernel.IdempotencyKey,
) (SubmitOrderResult, bool, error) {
	record, err := reader.IdempotencyRepository().Get(ctx, cmd.OrderID(), key)
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		return SubmitOrderResult{}, false, nil
	case err != nil:
		return SubmitOrderResult{}, false, err
	case record.Command != cmd.CommandType():
		return SubmitOrderResult{}, false, fmt.Errorf("%w: key %q belongs to %s", ErrIdempotencyKeyReused, key.String(), record.Command)
	}
	return resultFromRecord(record), true, nil
}

// transition returns the next order value and the version it must replace;
// zero stands for a new order.
func (h *SubmitOrderCommandHandler) transition(
	ctx context.Context,
	repo ports.OrderRepository,
	cmd SubmitOrderCommand,
	now time.Time,
) (*order.Order, order.StatusChanged, int64, error) {
	current, err := repo.Get(ctx, cmd.OrderID())
	if err != nil && !(cmd.CommandType() == order.Create && errors.Is(err, errs.ErrObjectNotFound)) {
		return nil, order.StatusChanged{}, 0, err
	}

	if current == nil {
		placed, event, err := order.Place(cmd.OrderID(), cmd.Items(), now)
		return placed, event, 0, err
	}

	next, event, err := current.Apply(cmd.CommandType(), now)
	if err != nil {
		return nil, order.StatusChanged{}, 0, err
	}
	return next, event, current.Version(), nil
}

// appendAtomic persists the order change, its outbox entry and the optional
// idempotency record in one transaction.
func (h *SubmitOrderCommandHandler) appendAtomic(
	ctx context.Context,
	next *order.Order,
	expectedVersion int64,
	entry *outbox.Entry,
	record *ports.IdempotencyRecord,
) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return errs.NewPersistenceError("begin transaction", err)
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if expectedVersion == 0 {
		if err := uow.OrderRepository().Add(ctx, next); err != nil {
			return err
		}
	} else if err := uow.OrderRepository().Update(ctx, next, expectedVersion); err != nil {
		return err
	}

	if err := uow.OutboxRepository().Add(ctx, entry); err != nil {
		return err
	}

	if record != nil {
		if err := uow.IdempotencyRepository().Add(ctx, *record); err != nil {
			return err
		}
	}

	if err := uow.Commit(ctx); err != nil {
		return errs.NewPersistenceError("commit transaction", err)
	}
	return nil
}

func recordFromEvent(key kernel.IdempotencyKey, command order.CommandType, event order.StatusChanged) ports.IdempotencyRecord {
	return ports.IdempotencyRecord{
		OrderID:        event.OrderID,
		Key:            key,
		Command:        command,
		EventType:      event.EventType,
		PreviousStatus: event.PreviousStatus,
		NewStatus:      event.NewStatus,
		Version:        event.Version,
		OccurredAt:     event.OccurredAt,
	}
}

func resultFromEvent(event order.StatusChanged) SubmitOrderResult {
	return SubmitOrderResult{
		OrderID:        event.OrderID,
		EventType:      event.EventType,
		PreviousStatus: event.PreviousStatus,
		NewStatus:      event.NewStatus,
		Version:        event.Version,
		OccurredAt:     event.OccurredAt,
	}
}

func resultFromRecord(record ports.IdempotencyRecord) SubmitOrderResult {
	return SubmitOrderResult{
		OrderID:        record.OrderID,
		EventType:      record.EventType,
		PreviousStatus: record.PreviousStatus,
		NewStatus:      record.NewStatus,
		Version:        record.Version,
		OccurredAt:     record.OccurredAt,
	}
}
