package outboxrepo

import (
	"context"
	"time"

	"oms/internal/core/domain/model/kernel"
	"oms/internal/core/domain/model/outbox"
	"oms/internal/pkg/errs"

	"gorm.io/gorm"
)

// olderPendingSibling excludes entries whose order still has an earlier
// undelivered entry, so a backing-off entry blocks the ones behind it.
const olderPendingSibling = `NOT EXISTS (
	SELECT 1 FROM outbox_entries AS older
	WHERE older.order_id = outbox_entries.order_id
	  AND older.status = ?
	  AND older.order_version < outbox_entries.order_version
)`

// GormOutboxRepository implements ports.OutboxRepository using GORM.
type GormOutboxRepository struct {
	db *gorm.DB
}

func NewGormOutboxRepository(db *gorm.DB) *GormOutboxRepository {
	return &GormOutboxRepository{db: db}
}

func (r *GormOutboxRepository) Add(ctx context.Context, entry *outbox.Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	dto := fromDomain(entry)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return errs.NewPersistenceError("insert outbox entry", err)
	}
	return nil
}

func (r *GormOutboxRepository) FetchPending(ctx context.Context, limit int, now time.Time) ([]*outbox.Entry, error) {
	if limit <= 0 {
		return nil, errs.NewValueIsOutOfRangeError("limit", limit, 1, "unbounded")
	}

	var dtos []EntryDTO
	err := r.db.WithContext(ctx).
		Where("status = ? AND next_attempt_at <= ?", int(outbox.Pending), now).
		Where(olderPendingSibling, int(outbox.Pending)).
		Order("created_at, id").
		Limit(limit).
		Find(&dtos).Error
	if err != nil {
		return nil, errs.NewPersistenceError("fetch pending outbox entries", err)
	}

	entries := make([]*outbox.Entry, 0, len(dtos))
	for _, dto := range dtos {
		entry, mapErr := toDomain(dto)
		if mapErr != nil {
			return nil, mapErr
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (r *GormOutboxRepository) MarkDelivered(ctx context.Context, id kernel.UUID, at time.Time) error {
	return r.updatePending(ctx, "mark outbox entry delivered", id, map[string]any{
		"status":       int(outbox.Delivered),
		"processed_at": at,
	})
}

func (r *GormOutboxRepository) MarkFailed(ctx context.Context, id kernel.UUID, reason string, at time.Time) error {
	return r.updatePending(ctx, "mark outbox entry failed", id, map[string]any{
		"status":       int(outbox.Failed),
		"last_error":   reason,
		"processed_at": at,
	})
}

func (r *GormOutboxRepository) RecordFailedAttempt(
	ctx context.Context,
	id kernel.UUID,
	attempts int,
	nextAttemptAt time.Time,
	reason string,
) error {
	return r.updatePending(ctx, "record outbox attempt", id, map[string]any{
		"attempts":        attempts,
		"next_attempt_at": nextAttemptAt,
		"last_error":      reason,
	})
}

// updatePending only touches PENDING rows. Zero affected rows on an existing
// entry means it was already processed and the call is a no-op.
func (r *GormOutboxRepository) updatePending(ctx context.Context, operation string, id kernel.UUID, values map[string]any) error {
	if err := id.Validate(); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&EntryDTO{}).
		Where("id = ? AND status = ?", id.Bytes(), int(outbox.Pending)).
		Updates(values)
	if result.Error != nil {
		return errs.NewPersistenceError(operation, result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&EntryDTO{}).Where("id = ?", id.Bytes()).Count(&count).Error; err != nil {
		return errs.NewPersistenceError(operation, err)
	}
	if count == 0 {
		return errs.NewObjectNotFoundError("outbox entry", id.String())
	}
	return nil
}
