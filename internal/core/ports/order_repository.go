package ports

import (
	"context"
	"time"

	"oms/internal/core/domain/model/kernel"
	"oms/internal/core/domain/model/order"
)

// OrderRepository persists Order aggregates.
type OrderRepository interface {
	// Add inserts a freshly placed order together with its items.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update stores aggregate only if the persisted version still equals
	// expectedVersion. A mismatch returns errs.ErrConcurrentModification.
	Update(ctx context.Context, aggregate *order.Order, expectedVersion int64) error

	// Get returns errs.ErrObjectNotFound when the order does not exist.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetAllInStatusUpdatedBefore returns up to limit orders sitting in status
	// since before, oldest first.
	GetAllInStatusUpdatedBefore(ctx context.Context, status order.Status, before time.Time, limit int) ([]*order.Order, error)
}
