package order_test

import (
	"math/rand/v2"
	"testing"
	"time"

	"oms/internal/core/domain/model/kernel"
	"oms/internal/core/domain/model/order"
	"oms/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var placedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func testItems(t *testing.T) []order.Item {
	t.Helper()
	first, err := order.NewItem("sku-1", 2, decimal.RequireFromString("10.00"))
	require.NoError(t, err)
	second, err := order.NewItem("sku-2", 1, decimal.RequireFromString("5.25"))
	require.NoError(t, err)
	return []order.Item{first, second}
}

func placeOrder(t *testing.T) *order.Order {
	t.Helper()
	o, _, err := order.Place(kernel.NewUUID(), testItems(t), placedAt)
	require.NoError(t, err)
	return o
}

func TestPlace(t *testing.T) {
	t.Run("creates order in CREATED with version 1", func(t *testing.T) {
		id := kernel.NewUUID()

		o, event, err := order.Place(id, testItems(t), placedAt)

		require.NoError(t, err)
		require.NoError(t, o.Validate())
		assert.True(t, id.IsEqual(o.ID()))
		assert.Equal(t, order.Created, o.Status())
		assert.Equal(t, int64(1), o.Version())
		assert.Equal(t, placedAt, o.CreatedAt())
		assert.Equal(t, placedAt, o.UpdatedAt())
		assert.True(t, decimal.RequireFromString("25.25").Equal(o.Total()))

		assert.Equal(t, order.EventTypeOrderCreated, event.EventType)
		assert.True(t, id.IsEqual(event.OrderID))
		assert.Equal(t, order.Unknown, event.PreviousStatus)
		assert.Equal(t, order.Created, event.NewStatus)
		assert.Equal(t, int64(1), event.Version)
		assert.Equal(t, placedAt, event.OccurredAt)
	})

	t.Run("requires at least one item", func(t *testing.T) {
		_, _, err := order.Place(kernel.NewUUID(), nil, placedAt)

		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("rejects unconstructed items and ids", func(t *testing.T) {
		_, _, err := order.Place(kernel.UUID{}, []order.Item{{}}, placedAt)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
		require.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)
	})

	t.Run("items are copied", func(t *testing.T) {
		items := testItems(t)
		o, _, err := order.Place(kernel.NewUUID(), items, placedAt)
		require.NoError(t, err)

		items[0] = items[1]
		returned := o.Items()
		returned[1] = items[0]

		assert.Equal(t, "sku-1", o.Items()[0].ProductID())
		assert.Equal(t, "sku-2", o.Items()[1].ProductID())
	})
}

func TestOrder_Apply(t *testing.T) {
	t.Run("cancel from CREATED", func(t *testing.T) {
		o := placeOrder(t)
		at := placedAt.Add(time.Minute)

		next, event, err := o.Apply(order.Cancel, at)

		require.NoError(t, err)
		assert.Equal(t, order.Cancelled, next.Status())
		assert.Equal(t, int64(2), next.Version())
		assert.Equal(t, at, next.UpdatedAt())
		assert.Equal(t, placedAt, next.CreatedAt())

		assert.Equal(t, order.EventTypeOrderStatusChanged, event.EventType)
		assert.Equal(t, order.Created, event.PreviousStatus)
		assert.Equal(t, order.Cancelled, event.NewStatus)
		assert.Equal(t, int64(2), event.Version)
	})

	t.Run("receiver is not modified", func(t *testing.T) {
		o := placeOrder(t)

		_, _, err := o.Apply(order.RequestPayment, placedAt.Add(time.Second))

		require.NoError(t, err)
		assert.Equal(t, order.Created, o.Status())
		assert.Equal(t, int64(1), o.Version())
	})

	t.Run("ship after cancel is an invalid transition", func(t *testing.T) {
		o := placeOrder(t)
		cancelled, _, err := o.Apply(order.Cancel, placedAt.Add(time.Second))
		require.NoError(t, err)

		next, _, err := cancelled.Apply(order.Ship, placedAt.Add(2*time.Second))

		require.ErrorIs(t, err, order.ErrInvalidTransition)
		assert.Nil(t, next)
		var transitionErr *order.InvalidTransitionError
		require.ErrorAs(t, err, &transitionErr)
		assert.Equal(t, order.Cancelled, transitionErr.From)
		assert.Equal(t, order.Shipped, transitionErr.To)
		assert.Equal(t, order.Ship, transitionErr.Command)
	})

	t.Run("create on an existing order is an invalid transition", func(t *testing.T) {
		_, _, err := placeOrder(t).Apply(order.Create, placedAt.Add(time.Second))

		require.ErrorIs(t, err, order.ErrInvalidTransition)
	})

	t.Run("cannot cancel once shipped", func(t *testing.T) {
		o := placeOrder(t)
		for _, c := range []order.CommandType{order.RequestPayment, order.ConfirmPayment, order.Ship} {
			var err error
			o, _, err = o.Apply(c, placedAt.Add(time.Second))
			require.NoError(t, err)
		}

		_, _, err := o.Apply(order.Cancel, placedAt.Add(time.Minute))

		require.ErrorIs(t, err, order.ErrInvalidTransition)
	})

	t.Run("happy path walks to DELIVERED", func(t *testing.T) {
		o := placeOrder(t)
		commands := []order.CommandType{order.RequestPayment, order.ConfirmPayment, order.Ship, order.Deliver}

		for i, c := range commands {
			var err error
			o, _, err = o.Apply(c, placedAt.Add(time.Duration(i+1)*time.Second))
			require.NoError(t, err)
		}

		assert.Equal(t, order.Delivered, o.Status())
		assert.Equal(t, int64(5), o.Version())
	})

	t.Run("unknown command and zero timestamp are rejected", func(t *testing.T) {
		o := placeOrder(t)

		_, _, err := o.Apply(order.UnknownCommand, placedAt)
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)

		_, _, err = o.Apply(order.Cancel, time.Time{})
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("unconstructed order is rejected", func(t *testing.T) {
		var o order.Order

		_, _, err := o.Apply(order.Cancel, placedAt)

		require.ErrorIs(t, err, order.ErrOrderIsNotConstructed)
	})
}

func TestOrder_RandomCommandSequencesFollowTheGraph(t *testing.T) {
	commands := []order.CommandType{
		order.Create, order.RequestPayment, order.ConfirmPayment,
		order.Ship, order.Deliver, order.Cancel,
	}
	rng := rand.New(rand.NewPCG(7, 11))

	for range 200 {
		o := placeOrder(t)
		for range 10 {
			c := commands[rng.IntN(len(commands))]
			next, event, err := o.Apply(c, placedAt.Add(time.Second))
			if err != nil {
				require.ErrorIs(t, err, order.ErrInvalidTransition)
				assert.False(t, c != order.Create && o.Status().CanTransitionTo(c.Target()))
				continue
			}
			require.True(t, o.Status().CanTransitionTo(next.Status()))
			require.Equal(t, o.Version()+1, next.Version())
			require.Equal(t, o.Status(), event.PreviousStatus)
			o = next
		}
	}
}

func TestRestoreOrder(t *testing.T) {
	t.Run("restores persisted state", func(t *testing.T) {
		id := kernel.NewUUID()
		updatedAt := placedAt.Add(time.Hour)

		o, err := order.RestoreOrder(id, order.Shipped, 4, testItems(t), placedAt, updatedAt)

		require.NoError(t, err)
		assert.Equal(t, order.Shipped, o.Status())
		assert.Equal(t, int64(4), o.Version())
		assert.Equal(t, updatedAt, o.UpdatedAt())
	})

	t.Run("rejects invalid status and version", func(t *testing.T) {
		_, err := order.RestoreOrder(kernel.NewUUID(), order.Unknown, 0, testItems(t), placedAt, placedAt)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
		require.ErrorIs(t, err, errs.ErrVersionIsInvalid)
	})
}
