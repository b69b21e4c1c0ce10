package order

import (
	"errors"
	"fmt"
	"time"

	"oms/internal/core/domain/model/kernel"
	"oms/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order was not created through
	// Place or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via Place or RestoreOrder constructor")
)

// Order is the aggregate root of the order lifecycle.
//
// Order follows these invariants:
//   - Must have a valid unique identifier
//   - Must contain at least one valid line item; items never change after placement
//   - Version starts at 1 and grows by exactly one per accepted transition
//   - Status transitions follow the lifecycle graph
//
// Order values are never mutated after construction. Apply returns a new Order.
type Order struct {
	id        kernel.UUID
	status    Status
	version   int64
	items     []Item
	createdAt time.Time
	updatedAt time.Time

	isConstructed bool
}

// Place creates a new order in CREATED status with version 1 and returns the
// OrderCreated event describing the placement.
//
// Example:
//
//	item, _ := order.NewItem("sku-1", 2, decimal.RequireFromString("9.99"))
//	placed, event, err := order.Place(kernel.NewUUID(), []order.Item{item}, time.Now())
func Place(id kernel.UUID, items []Item, at time.Time) (*Order, StatusChanged, error) {
	o := &Order{
		status:        Created,
		version:       1,
		createdAt:     at,
		updatedAt:     at,
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setItems(items),
		validateTimestamp(at),
	); err != nil {
		return nil, StatusChanged{}, err
	}

	return o, StatusChanged{
		EventType:      EventTypeOrderCreated,
		OrderID:        o.id,
		PreviousStatus: Unknown,
		NewStatus:      Created,
		Version:        o.version,
		OccurredAt:     at,
	}, nil
}

// RestoreOrder rebuilds an order from persisted state.
func RestoreOrder(
	id kernel.UUID,
	status Status,
	version int64,
	items []Item,
	createdAt time.Time,
	updatedAt time.Time,
) (*Order, error) {
	o := &Order{
		createdAt:     createdAt,
		updatedAt:     updatedAt,
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setItems(items),
		o.setStatus(status),
		o.setVersion(version),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// Validate ensures the Order was built by a constructor.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

// IsEqual compares two orders by identifier.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

func (o *Order) ID() kernel.UUID {
	return o.id
}

func (o *Order) Status() Status {
	return o.status
}

func (o *Order) Version() int64 {
	return o.version
}

// Items returns a copy of the order lines.
func (o *Order) Items() []Item {
	items := make([]Item, len(o.items))
	copy(items, o.items)
	return items
}

func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

// UpdatedAt is the time of the last accepted transition.
func (o *Order) UpdatedAt() time.Time {
	return o.updatedAt
}

// Total sums the subtotals of all lines.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Apply computes the result of command without modifying the receiver.
//
// Returns:
//   - the next Order value with version incremented by one
//   - the OrderStatusChanged event
//   - *InvalidTransitionError (matching ErrInvalidTransition) when the command is
//     not allowed from the current status, including CREATE on an existing order
//
// Example:
//
//	next, event, err := current.Apply(order.Cancel, time.Now())
//	if errors.Is(err, order.ErrInvalidTransition) {
//	    // current is unchanged
//	}
func (o *Order) Apply(command CommandType, at time.Time) (*Order, StatusChanged, error) {
	if err := o.Validate(); err != nil {
		return nil, StatusChanged{}, err
	}
	if err := command.Validate(); err != nil {
		return nil, StatusChanged{}, err
	}
	if err := validateTimestamp(at); err != nil {
		return nil, StatusChanged{}, err
	}

	target := command.Target()
	if command == Create || !o.status.CanTransitionTo(target) {
		return nil, StatusChanged{}, NewInvalidTransitionError(o.status, command)
	}

	next := o.clone()
	next.status = target
	next.version = o.version + 1
	next.updatedAt = at

	return next, StatusChanged{
		EventType:      EventTypeOrderStatusChanged,
		OrderID:        o.id,
		PreviousStatus: o.status,
		NewStatus:      target,
		Version:        next.version,
		OccurredAt:     at,
	}, nil
}

func (o *Order) clone() *Order {
	c := *o
	c.items = o.Items()
	return &c
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setItems(items []Item) error {
	if len(items) == 0 {
		return errs.NewValueIsRequiredError("items")
	}
	for idx, item := range items {
		if err := item.Validate(); err != nil {
			return errs.NewValueIsInvalidErrorWithCause(fmt.Sprintf("items[%d]", idx), err)
		}
	}
	o.items = make([]Item, len(items))
	copy(o.items, items)
	return nil
}

func (o *Order) setStatus(status Status) error {
	if err := status.Validate(); err != nil {
		return err
	}
	o.status = status
	return nil
}

func (o *Order) setVersion(version int64) error {
	if version < 1 {
		return errs.NewVersionIsInvalidError("version", fmt.Errorf("%d is less than 1", version))
	}
	o.version = version
	return nil
}

func validateTimestamp(at time.Time) error {
	if at.IsZero() {
		return errs.NewValueIsRequiredError("timestamp")
	}
	return nil
}
