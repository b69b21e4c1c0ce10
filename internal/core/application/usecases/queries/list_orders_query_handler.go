package queries

import (
	"context"

	"oms/internal/core/domain/model/kernel"
	"oms/internal/core/domain/model/order"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const listOrdersSQL = `
	SELECT
		o.id,
		o.status,
		o.version,
		COALESCE(SUM(i.quantity * i.unit_price), 0) AS total,
		o.created_at,
		o.updated_at
	FROM orders o
	LEFT JOIN order_items i ON i.order_id = o.id
	WHERE (? OR o.status = ?)
	GROUP BY o.id
	ORDER BY o.created_at, o.id
	LIMIT ? OFFSET ?
`

type ListOrdersQueryHandler struct {
	db *gorm.DB
}

func NewListOrdersQueryHandler(db *gorm.DB) ListOrdersQueryHandler {
	return ListOrdersQueryHandler{db: db}
}

func (h ListOrdersQueryHandler) Handle(ctx context.Context, query ListOrdersQuery) ([]ListOrdersQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	status, filtered := query.Status()
	rows, err := h.db.WithContext(ctx).
		Raw(listOrdersSQL, !filtered, int(status), query.Limit(), query.Offset()).
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]ListOrdersQueryResponse, 0)
	for rows.Next() {
		var (
			view      ListOrdersQueryResponse
			id        uuid.UUID
			rawStatus int
		)
		if err = rows.Scan(&id, &rawStatus, &view.Version, &view.Total, &view.CreatedAt, &view.UpdatedAt); err != nil {
			return nil, err
		}

		orderID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}
		view.ID = orderID
		view.Status = order.Status(rawStatus)
		view.CreatedAt = view.CreatedAt.UTC()
		view.UpdatedAt = view.UpdatedAt.UTC()
		orders = append(orders, view)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}
