package commands

import (
	"errors"
	"fmt"
	"time"

	"oms/internal/pkg/errs"
	"oms/internal/pkg/guard"
)

var (
	ErrCancelExpiredPaymentsCommandIsNotConstructed = errors.New(
		"CancelExpiredPaymentsCommand must be created via NewCancelExpiredPaymentsCommand constructor",
	)
)

// PaymentTimeoutIdempotencyKey is the key used for timeout cancellations, so a
// job run that overlaps an earlier one cancels each order once.
const PaymentTimeoutIdempotencyKey = "payment-timeout"

// CancelExpiredPaymentsCommand cancels orders that have waited in
// PAYMENT_PENDING for longer than Timeout. At most BatchSize orders are
// handled per run.
type CancelExpiredPaymentsCommand struct { //nolint:recvcheck //using for validation
	timeout   time.Duration
	batchSize int

	guard guard.ConstructorGuard
}

func NewCancelExpiredPaymentsCommand(timeout time.Duration, batchSize int) (CancelExpiredPaymentsCommand, error) {
	cmd := CancelExpiredPaymentsCommand{guard: guard.NewConstructorGuard()}

	if err := errors.Join(
		cmd.setTimeout(timeout),
		cmd.setBatchSize(batchSize),
	); err != nil {
		return CancelExpiredPaymentsCommand{}, err
	}
	return cmd, nil
}

func (c CancelExpiredPaymentsCommand) Validate() error {
	return c.guard.Validate(ErrCancelExpiredPaymentsCommandIsNotConstructed)
}

func (c CancelExpiredPaymentsCommand) Timeout() time.Duration {
	return c.timeout
}

func (c CancelExpiredPaymentsCommand) BatchSize() int {
	return c.batchSize
}

func (c *CancelExpiredPaymentsCommand) setTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("timeout", fmt.Errorf("%s is not positive", timeout))
	}
	c.timeout = timeout
	return nil
}

func (c *CancelExpiredPaymentsCommand) setBatchSize(batchSize int) error {
	if batchSize < 1 {
		return errs.NewValueIsOutOfRangeError("batchSize", batchSize, 1, "unbounded")
	}
	c.batchSize = batchSize
	return nil
}
