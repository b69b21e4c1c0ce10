package commands

import (
	"context"
	"errors"
	"time"

	"oms/internal/core/domain/model/order"
)

// Submitter runs one order command. SubmitOrderCommandHandler implements it.
type Submitter interface {
	Handle(ctx context.Context, cmd SubmitOrderCommand) (SubmitOrderResult, error)
}

// CancelExpiredPaymentsCommandHandler cancels stale PAYMENT_PENDING orders
// through the regular submit path, so every cancellation gets its outbox
// entry and version check.
//
// Example:
//
//	handler := NewCancelExpiredPaymentsCommandHandler(uowFactory, submitHandler)
//	cmd, _ := NewCancelExpiredPaymentsCommand(15*time.Minute, 100)
//	cancelled, err := handler.Handle(ctx, cmd)
type CancelExpiredPaymentsCommandHandler struct {
	uowFactory OrderUoWFactory
	submitter  Submitter
	now        func() time.Time
}

func NewCancelExpiredPaymentsCommandHandler(
	uowFactory OrderUoWFactory,
	submitter Submitter,
) CancelExpiredPaymentsCommandHandler {
	return CancelExpiredPaymentsCommandHandler{
		uowFactory: uowFactory,
		submitter:  submitter,
		now:        time.Now,
	}
}

// WithNow returns a copy of the handler reading time from now.
func (h CancelExpiredPaymentsCommandHandler) WithNow(now func() time.Time) CancelExpiredPaymentsCommandHandler {
	h.now = now
	return h
}

// Handle returns the number of orders cancelled. Orders that left
// PAYMENT_PENDING after they were listed are skipped silently; other failures
// are joined into the returned error while the rest of the batch proceeds.
func (h CancelExpiredPaymentsCommandHandler) Handle(ctx context.Context, cmd CancelExpiredPaymentsCommand) (int, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}

	deadline := h.now().UTC().Add(-cmd.Timeout())
	expired, err := h.uowFactory.Create().OrderRepository().
		GetAllInStatusUpdatedBefore(ctx, order.PaymentPending, deadline, cmd.BatchSize())
	if err != nil {
		return 0, err
	}

	cancelled := 0
	var failures []error
	for _, o := range expired {
		if ctx.Err() != nil {
			failures = append(failures, ctx.Err())
			break
		}

		cancel, err := NewSubmitOrderCommand(o.ID(), order.Cancel, nil, PaymentTimeoutIdempotencyKey, "")
		if err != nil {
			failures = append(failures, err)
			continue
		}

		if _, err := h.submitter.Handle(ctx, cancel); err != nil {
			if errors.Is(err, order.ErrInvalidTransition) {
				continue
			}
			failures = append(failures, err)
			continue
		}
		cancelled++
	}

	return cancelled, errors.Join(failures...)
}
