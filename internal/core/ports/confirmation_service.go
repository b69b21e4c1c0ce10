package ports

import (
	"context"
	"errors"
	"fmt"

	"oms/internal/core/domain/model/kernel"
	"oms/internal/core/domain/model/order"

	"github.com/shopspring/decimal"
)

var (
	// ErrDownstreamUnavailable covers open circuits and exhausted retries.
	ErrDownstreamUnavailable = errors.New("downstream dependency unavailable")

	// ErrDownstreamRejected means the dependency refused the request; retrying
	// will not help.
	ErrDownstreamRejected = errors.New("downstream dependency rejected the request")
)

// ConfirmationRequest asks a dependency (payments, inventory) to confirm an
// order transition. IdempotencyKey is stable across retries of one transition.
type ConfirmationRequest struct {
	OrderID        kernel.UUID
	Command        order.CommandType
	Amount         decimal.Decimal
	IdempotencyKey string
}

// ConfirmationService is a downstream dependency consulted before a transition
// is committed.
type ConfirmationService interface {
	Confirm(ctx context.Context, req ConfirmationRequest) error
}

// DownstreamCallError is returned by transport adapters for non-2xx answers and
// transport failures. StatusCode is zero for transport failures.
type DownstreamCallError struct {
	Dependency string
	StatusCode int
	Err        error
}

func (e *DownstreamCallError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s call failed: %v", e.Dependency, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s call failed with status %d: %v", e.Dependency, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s call failed with status %d", e.Dependency, e.StatusCode)
}

func (e *DownstreamCallError) Unwrap() error {
	return e.Err
}
