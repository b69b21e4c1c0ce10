package postgres

import (
	"oms/internal/adapters/out/postgres/idempotencyrepo"
	"oms/internal/adapters/out/postgres/orderrepo"
	"oms/internal/adapters/out/postgres/outboxrepo"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates every table the service writes to.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&orderrepo.OrderDTO{},
		&orderrepo.OrderItemDTO{},
		&outboxrepo.EntryDTO{},
		&idempotencyrepo.RecordDTO{},
	)
}

// Tables lists the managed tables, children first.
func Tables() []string {
	return []string{"order_items", "orders", "outbox_entries", "idempotency_records"}
}
