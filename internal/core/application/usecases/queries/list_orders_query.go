package queries

import (
	"errors"
	"time"

	"oms/internal/core/domain/model/kernel"
	"oms/internal/core/domain/model/order"
	"oms/internal/pkg/errs"
	"oms/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

// MaxListLimit bounds a single page of a list query.
const MaxListLimit = 500

var (
	ErrListOrdersQueryIsNotConstructed = errors.New(
		"ListOrdersQuery must be created via NewListOrdersQuery constructor",
	)
)

// ListOrdersQuery pages through orders, oldest first, optionally restricted to
// one status. order.Unknown means every status.
type ListOrdersQuery struct {
	status order.Status
	limit  int
	offset int

	guard guard.ConstructorGuard
}

func NewListOrdersQuery(status order.Status, limit, offset int) (ListOrdersQuery, error) {
	if status != order.Unknown {
		if err := status.Validate(); err != nil {
			return ListOrdersQuery{}, err
		}
	}
	if err := validatePage(limit, offset); err != nil {
		return ListOrdersQuery{}, err
	}

	return ListOrdersQuery{
		status: status,
		limit:  limit,
		offset: offset,
		guard:  guard.NewConstructorGuard(),
	}, nil
}

func (q ListOrdersQuery) Validate() error {
	return q.guard.Validate(ErrListOrdersQueryIsNotConstructed)
}

// Status returns the filter and whether one is set.
func (q ListOrdersQuery) Status() (order.Status, bool) {
	return q.status, q.status != order.Unknown
}

func (q ListOrdersQuery) Limit() int {
	return q.limit
}

func (q ListOrdersQuery) Offset() int {
	return q.offset
}

// ListOrdersQueryResponse is the summary of one order.
type ListOrdersQueryResponse struct {
	ID        kernel.UUID
	Status    order.Status
	Version   int64
	Total     decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

func validatePage(limit, offset int) error {
	if limit < 1 || limit > MaxListLimit {
		return errs.NewValueIsOutOfRangeError("limit", limit, 1, MaxListLimit)
	}
	if offset < 0 {
		return errs.NewValueIsOutOfRangeError("offset", offset, 0, "unbounded")
	}
	return nil
}
