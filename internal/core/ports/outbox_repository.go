package ports

import (
	"context"
	"time"

	"oms/internal/core/domain/model/kernel"
	"oms/internal/core/domain/model/outbox"
)

// OutboxRepository stores outbox entries and their delivery state.
type OutboxRepository interface {
	Add(ctx context.Context, entry *outbox.Entry) error

	// FetchPending returns PENDING entries due at now, oldest first. Only the
	// oldest pending entry of each order is returned so that per-order order is
	// kept while an earlier entry backs off.
	FetchPending(ctx context.Context, limit int, now time.Time) ([]*outbox.Entry, error)

	// MarkDelivered is idempotent; marking a processed entry again is a no-op.
	MarkDelivered(ctx context.Context, id kernel.UUID, at time.Time) error

	// MarkFailed is idempotent; marking a processed entry again is a no-op.
	MarkFailed(ctx context.Context, id kernel.UUID, reason string, at time.Time) error

	// RecordFailedAttempt keeps the entry PENDING with a new attempt count and
	// earliest retry time.
	RecordFailedAttempt(ctx context.Context, id kernel.UUID, attempts int, nextAttemptAt time.Time, reason string) error
}
