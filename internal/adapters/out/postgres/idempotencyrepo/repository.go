package idempotencyrepo

import (
	"context"
	"errors"

	"oms/internal/core/domain/model/kernel"
	"oms/internal/core/ports"
	"oms/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormIdempotencyRepository implements ports.IdempotencyRepository using GORM.
type GormIdempotencyRepository struct {
	db *gorm.DB
}

func NewGormIdempotencyRepository(db *gorm.DB) *GormIdempotencyRepository {
	return &GormIdempotencyRepository{db: db}
}

func (r *GormIdempotencyRepository) Get(
	ctx context.Context,
	orderID kernel.UUID,
	key kernel.IdempotencyKey,
) (ports.IdempotencyRecord, error) {
	if err := errors.Join(orderID.Validate(), key.Validate()); err != nil {
		return ports.IdempotencyRecord{}, err
	}

	var dto RecordDTO
	err := r.db.WithContext(ctx).
		First(&dto, "order_id = ? AND idempotency_key = ?", orderID.Bytes(), key.String()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, errs.NewObjectNotFoundError("idempotency record", key.String())
		}
		return ports.IdempotencyRecord{}, errs.NewPersistenceError("get idempotency record", err)
	}

	return toDomain(dto)
}

// Add fails with errs.ErrConcurrentModification when a concurrent request with
// the same key committed first.
func (r *GormIdempotencyRepository) Add(ctx context.Context, record ports.IdempotencyRecord) error {
	if err := errors.Join(record.OrderID.Validate(), record.Key.Validate()); err != nil {
		return err
	}

	dto := fromDomain(record)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errs.NewConcurrentModificationErrorWithCause("idempotency record", record.Key.String(), record.Version-1, err)
		}
		return errs.NewPersistenceError("insert idempotency record", err)
	}
	return nil
}
