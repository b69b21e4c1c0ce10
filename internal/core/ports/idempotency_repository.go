package ports

import (
	"context"
	"time"

	"oms/internal/core/domain/model/kernel"
	"oms/internal/core/domain/model/order"
)

// IdempotencyRecord is the stored outcome of one deduplicated command.
type IdempotencyRecord struct {
	OrderID        kernel.UUID
	Key            kernel.IdempotencyKey
	Command        order.CommandType
	EventType      string
	PreviousStatus order.Status
	NewStatus      order.Status
	Version        int64
	OccurredAt     time.Time
}

// IdempotencyRepository records command results keyed by (order, key).
type IdempotencyRepository interface {
	// Get returns errs.ErrObjectNotFound when no record exists.
	Get(ctx context.Context, orderID kernel.UUID, key kernel.IdempotencyKey) (IdempotencyRecord, error)

	// Add returns errs.ErrConcurrentModification when the key is already taken.
	Add(ctx context.Context, record IdempotencyRecord) error
}
