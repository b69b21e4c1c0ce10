// Package outboxrepo persists outbox entries in the "outbox_entries" table.
package outboxrepo

import (
	"time"

	"oms/internal/core/domain/model/kernel"
	"oms/internal/core/domain/model/outbox"

	"github.com/google/uuid"
)

// EntryDTO is one outbox row. The (status, next_attempt_at) index serves the
// publisher poll, the (order_id, status, order_version) index the per-order
// ordering check.
type EntryDTO struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OrderID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_outbox_order_pending,priority:1"`
	OrderVersion  int64      `gorm:"not null;index:idx_outbox_order_pending,priority:3"`
	EventType     string     `gorm:"size:64;not null"`
	Payload       string     `gorm:"type:jsonb;not null"`
	Status        int        `gorm:"not null;index:idx_outbox_status_next_attempt,priority:1;index:idx_outbox_order_pending,priority:2"`
	Attempts      int        `gorm:"not null;default:0"`
	NextAttemptAt time.Time  `gorm:"not null;index:idx_outbox_status_next_attempt,priority:2"`
	LastError     string     `gorm:"size:512"`
	CreatedAt     time.Time  `gorm:"not null;autoCreateTime:false"`
	ProcessedAt   *time.Time `gorm:"default:null"`
}

func (EntryDTO) TableName() string {
	return "outbox_entries"
}

func fromDomain(entry *outbox.Entry) EntryDTO {
	var processedAt *time.Time
	if at := entry.ProcessedAt(); !at.IsZero() {
		processedAt = &at
	}

	return EntryDTO{
		ID:            entry.ID().Bytes(),
		OrderID:       entry.OrderID().Bytes(),
		OrderVersion:  entry.OrderVersion(),
		EventType:     entry.EventType(),
		Payload:       string(entry.Payload()),
		Status:        int(entry.Status()),
		Attempts:      entry.Attempts(),
		NextAttemptAt: entry.NextAttemptAt(),
		LastError:     entry.LastError(),
		CreatedAt:     entry.CreatedAt(),
		ProcessedAt:   processedAt,
	}
}

func toDomain(dto EntryDTO) (*outbox.Entry, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return nil, err
	}

	var processedAt time.Time
	if dto.ProcessedAt != nil {
		processedAt = dto.ProcessedAt.UTC()
	}

	return outbox.RestoreEntry(
		id,
		orderID,
		dto.OrderVersion,
		dto.EventType,
		[]byte(dto.Payload),
		dto.CreatedAt.UTC(),
		outbox.DeliveryStatus(dto.Status),
		dto.Attempts,
		dto.NextAttemptAt.UTC(),
		dto.LastError,
		processedAt,
	)
}
