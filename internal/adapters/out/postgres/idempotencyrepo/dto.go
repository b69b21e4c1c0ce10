// Package idempotencyrepo stores the outcome of deduplicated order commands in
// the "idempotency_records" table, keyed by (order_id, idempotency_key).
package idempotencyrepo

import (
	"time"

	"oms/internal/core/domain/model/kernel"
	"oms/internal/core/domain/model/order"
	"oms/internal/core/ports"

	"github.com/google/uuid"
)

type RecordDTO struct {
	OrderID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	IdempotencyKey string    `gorm:"primaryKey;size:128"`
	Command        int       `gorm:"not null"`
	EventType      string    `gorm:"size:64;not null"`
	PreviousStatus int       `gorm:"not null"`
	NewStatus      int       `gorm:"not null"`
	Version        int64     `gorm:"not null"`
	OccurredAt     time.Time `gorm:"not null"`
	CreatedAt      time.Time
}

func (RecordDTO) TableName() string {
	return "idempotency_records"
}

func fromDomain(record ports.IdempotencyRecord) RecordDTO {
	return RecordDTO{
		OrderID:        record.OrderID.Bytes(),
		IdempotencyKey: record.Key.String(),
		Command:        int(record.Command),
		EventType:      record.EventType,
		PreviousStatus: int(record.PreviousStatus),
		NewStatus:      int(record.NewStatus),
		Version:        record.Version,
		OccurredAt:     record.OccurredAt,
	}
}

func toDomain(dto RecordDTO) (ports.IdempotencyRecord, error) {
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return ports.IdempotencyRecord{}, err
	}
	key, err := kernel.NewIdempotencyKey(dto.IdempotencyKey)
	if err != nil {
		return ports.IdempotencyRecord{}, err
	}

	return ports.IdempotencyRecord{
		OrderID:        orderID,
		Key:            key,
		Command:        order.CommandType(dto.Command),
		EventType:      dto.EventType,
		PreviousStatus: order.Status(dto.PreviousStatus),
		NewStatus:      order.Status(dto.NewStatus),
		Version:        dto.Version,
		OccurredAt:     dto.OccurredAt.UTC(),
	}, nil
}
