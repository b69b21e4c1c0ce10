package order_test

import (
	"testing"

	"oms/internal/core/domain/model/order"
	"oms/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status   order.Status
		expected string
	}{
		{order.Created, "CREATED"},
		{order.PaymentPending, "PAYMENT_PENDING"},
		{order.Confirmed, "CONFIRMED"},
		{order.Shipped, "SHIPPED"},
		{order.Delivered, "DELIVERED"},
		{order.Cancelled, "CANCELLED"},
		{order.Unknown, "UNKNOWN"},
		{order.Status(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.String())
		})
	}
}

func TestStatus_Validate(t *testing.T) {
	t.Run("lifecycle states are valid", func(t *testing.T) {
		for _, s := range []order.Status{
			order.Created, order.PaymentPending, order.Confirmed,
			order.Shipped, order.Delivered, order.Cancelled,
		} {
			require.NoError(t, s.Validate(), s.String())
		}
	})

	t.Run("unknown and out of range values are invalid", func(t *testing.T) {
		require.ErrorIs(t, order.Unknown.Validate(), errs.ErrValueIsInvalid)
		require.ErrorIs(t, order.Status(-1).Validate(), errs.ErrValueIsInvalid)
		require.ErrorIs(t, order.Status(7).Validate(), errs.ErrValueIsInvalid)
	})
}

func TestStatus_CanTransitionTo(t *testing.T) {
	allowed := map[order.Status][]order.Status{
		order.Created:        {order.PaymentPending, order.Cancelled},
		order.PaymentPending: {order.Confirmed, order.Cancelled},
		order.Confirmed:      {order.Shipped, order.Cancelled},
		order.Shipped:        {order.Delivered},
		order.Delivered:      {},
		order.Cancelled:      {},
	}
	all := []order.Status{
		order.Created, order.PaymentPending, order.Confirmed,
		order.Shipped, order.Delivered, order.Cancelled,
	}

	for from, targets := range allowed {
		for _, to := range all {
			expected := false
			for _, target := range targets {
				if target == to {
					expected = true
				}
			}
			assert.Equal(t, expected, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.True(t, order.Delivered.IsTerminal())
	assert.True(t, order.Cancelled.IsTerminal())
	assert.False(t, order.Created.IsTerminal())
	assert.False(t, order.Shipped.IsTerminal())
	assert.Empty(t, order.Delivered.Successors())
}

func TestParseStatus(t *testing.T) {
	t.Run("parses wire names case-insensitively", func(t *testing.T) {
		s, err := order.ParseStatus("payment_pending")

		require.NoError(t, err)
		assert.Equal(t, order.PaymentPending, s)
	})

	t.Run("rejects unknown names", func(t *testing.T) {
		_, err := order.ParseStatus("UNKNOWN")
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)

		_, err = order.ParseStatus("LOST")
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}
