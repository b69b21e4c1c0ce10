package ports

import (
	"context"
	"time"

	"oms/internal/core/domain/model/kernel"
	"oms/internal/core/domain/model/order"
)

// Observer receives operational signals. Implementations must not block.
type Observer interface {
	RateLimited(ctx context.Context, key string, retryAfter time.Duration)
	BreakerStateChanged(ctx context.Context, dependency string, from, to string)
	OutboxEntryFailed(ctx context.Context, entryID, orderID kernel.UUID, attempts int, reason string)
	OutboxEntryDelivered(ctx context.Context, entryID, orderID kernel.UUID, attempts int)
	TransitionFailed(ctx context.Context, orderID kernel.UUID, command order.CommandType, err error)
}

// NopObserver discards every signal.
type NopObserver struct{}

func (NopObserver) RateLimited(context.Context, string, time.Duration) {}
func (NopObserver) BreakerStateChanged(context.Context, string, string, string) {}
func (NopObserver) OutboxEntryFailed(context.Context, kernel.UUID, kernel.UUID, int, string) {}
func (NopObserver) OutboxEntryDelivered(context.Context, kernel.UUID, kernel.UUID, int) {}
func (NopObserver) TransitionFailed(context.Context, kernel.UUID, order.CommandType, error) {}
