package order

import (
	"time"

	"oms/internal/core/domain/model/kernel"
)

const (
	EventTypeOrderCreated       = "OrderCreated"
	EventTypeOrderStatusChanged = "OrderStatusChanged"
)

// StatusChanged describes one accepted transition. (OrderID, NewStatus, Version)
// identifies it uniquely and serves as the consumer deduplication key.
type StatusChanged struct {
	EventType      string
	OrderID        kernel.UUID
	PreviousStatus Status
	NewStatus      Status
	Version        int64
	OccurredAt     time.Time
}
