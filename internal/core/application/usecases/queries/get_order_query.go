// Package queries contains read operations of the order service. Handlers
// query PostgreSQL directly and return read models; they never load aggregates.
package queries

import (
	"errors"
	"time"

	"oms/internal/core/domain/model/kernel"
	"oms/internal/core/domain/model/order"
	"oms/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var (
	ErrGetOrderQueryIsNotConstructed = errors.New(
		"GetOrderQuery must be created via NewGetOrderQuery constructor",
	)
)

// GetOrderQuery fetches one order with its lines.
//
// Example:
//
//	query, err := NewGetOrderQuery(orderID)
//	if err != nil {
//	    return err
//	}
//	view, err := NewGetOrderQueryHandler(db).Handle(ctx, query)
type GetOrderQuery struct {
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

func NewGetOrderQuery(orderID kernel.UUID) (GetOrderQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetOrderQuery{}, err
	}
	return GetOrderQuery{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

// Validate ensures the query was created through the constructor.
func (q GetOrderQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderQueryIsNotConstructed)
}

func (q GetOrderQuery) OrderID() kernel.UUID {
	return q.orderID
}

// OrderItemView is one order line in a read model.
type OrderItemView struct {
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

// GetOrderQueryResponse is the full read model of an order.
type GetOrderQueryResponse struct {
	ID        kernel.UUID
	Status    order.Status
	Version   int64
	Items     []OrderItemView
	Total     decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}
