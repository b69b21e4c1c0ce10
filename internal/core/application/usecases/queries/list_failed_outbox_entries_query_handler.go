package queries

import (
	"context"
	"database/sql"

	"oms/internal/core/domain/model/kernel"
	"oms/internal/core/domain/model/outbox"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ListFailedOutboxEntriesQueryHandler struct {
	db *gorm.DB
}

func NewListFailedOutboxEntriesQueryHandler(db *gorm.DB) ListFailedOutboxEntriesQueryHandler {
	return ListFailedOutboxEntriesQueryHandler{db: db}
}

func (h ListFailedOutboxEntriesQueryHandler) Handle(
	ctx context.Context,
	query ListFailedOutboxEntriesQuery,
) ([]ListFailedOutboxEntriesQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			order_id,
			order_version,
			event_type,
			attempts,
			last_error,
			created_at,
			processed_at
		FROM outbox_entries
		WHERE status = ?
		ORDER BY processed_at DESC, id
		LIMIT ? OFFSET ?
	`, int(outbox.Failed), query.Limit(), query.Offset()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]ListFailedOutboxEntriesQueryResponse, 0)
	for rows.Next() {
		var (
			view        ListFailedOutboxEntriesQueryResponse
			id, orderID uuid.UUID
			failedAt    sql.NullTime
		)
		if err = rows.Scan(&id, &orderID, &view.OrderVersion, &view.EventType, &view.Attempts,
			&view.LastError, &view.CreatedAt, &failedAt); err != nil {
			return nil, err
		}

		entryID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}
		ownerID, idErr := kernel.UUIDFromBytes(orderID[:])
		if idErr != nil {
			return nil, idErr
		}
		view.ID = entryID
		view.OrderID = ownerID
		view.CreatedAt = view.CreatedAt.UTC()
		if failedAt.Valid {
			view.FailedAt = failedAt.Time.UTC()
		}
		entries = append(entries, view)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
