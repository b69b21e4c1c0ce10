package commands

import (
	"errors"

	"oms/internal/core/domain/model/kernel"
	"oms/internal/core/domain/model/order"
	"oms/internal/pkg/guard"
)

var (
	ErrSubmitOrderCommandIsNotConstructed = errors.New(
		"SubmitOrderCommand must be created via NewSubmitOrderCommand constructor",
	)
)

// SubmitOrderCommand asks for one lifecycle command on one order.
//
// Items are only read for order.Create. An empty idempotency key disables
// deduplication. An empty client key bypasses rate limiting; internal callers
// such as scheduled jobs use it.
//
// Example:
//
//	cmd, err := NewSubmitOrderCommand(orderID, order.Cancel, nil, "req-42", "user-7")
//	if err != nil {
//	    return err
//	}
//	result, err := handler.Handle(ctx, cmd)
type SubmitOrderCommand struct { //nolint:recvcheck //using for validation
	orderID        kernel.UUID
	commandType    order.CommandType
	items          []order.Item
	idempotencyKey kernel.IdempotencyKey
	hasKey         bool
	clientKey      string

	guard guard.ConstructorGuard
}

// CreateOrderID names the order placed by a create request that carries an
// idempotency key but no identifier. A retry by the same client with the same
// key addresses the same order, so its stored result is replayed.
func CreateOrderID(clientKey, idempotencyKey string) kernel.UUID {
	return kernel.UUIDFromName(clientKey + "\x00" + idempotencyKey)
}

func NewSubmitOrderCommand(
	orderID kernel.UUID,
	commandType order.CommandType,
	items []order.Item,
	idempotencyKey string,
	clientKey string,
) (SubmitOrderCommand, error) {
	cmd := SubmitOrderCommand{
		clientKey: clientKey,
		guard:     guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setCommandType(commandType),
		cmd.setIdempotencyKey(idempotencyKey),
	); err != nil {
		return SubmitOrderCommand{}, err
	}
	if commandType == order.Create {
		cmd.items = append([]order.Item(nil), items...)
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c SubmitOrderCommand) Validate() error {
	return c.guard.Validate(ErrSubmitOrderCommandIsNotConstructed)
}

func (c SubmitOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c SubmitOrderCommand) CommandType() order.CommandType {
	return c.commandType
}

// Items returns a copy of the lines of a CREATE command.
func (c SubmitOrderCommand) Items() []order.Item {
	return append([]order.Item(nil), c.items...)
}

// IdempotencyKey reports the key and whether one was supplied.
func (c SubmitOrderCommand) IdempotencyKey() (kernel.IdempotencyKey, bool) {
	return c.idempotencyKey, c.hasKey
}

func (c SubmitOrderCommand) ClientKey() string {
	return c.clientKey
}

func (c *SubmitOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *SubmitOrderCommand) setCommandType(commandType order.CommandType) error {
	if err := commandType.Validate(); err != nil {
		return err
	}

	c.commandType = commandType
	return nil
}

func (c *SubmitOrderCommand) setIdempotencyKey(raw string) error {
	if raw == "" {
		return nil
	}

	key, err := kernel.NewIdempotencyKey(raw)
	if err != nil {
		return err
	}
	c.idempotencyKey = key
	c.hasKey = true
	return nil
}
