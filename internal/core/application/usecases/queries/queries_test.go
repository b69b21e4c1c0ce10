package queries

import (
	"testing"

	"oms/internal/core/domain/model/kernel"
	"oms/internal/core/domain/model/order"
	"oms/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGetOrderQuery(t *testing.T) {
	id := kernel.NewUUID()

	query, err := NewGetOrderQuery(id)

	require.NoError(t, err)
	assert.NoError(t, query.Validate())
	assert.True(t, id.IsEqual(query.OrderID()))
}

func TestNewGetOrderQuery_ZeroID(t *testing.T) {
	_, err := NewGetOrderQuery(kernel.UUID{})

	assert.Error(t, err)
}

func TestGetOrderQuery_ZeroValue_IsNotConstructed(t *testing.T) {
	var query GetOrderQuery

	assert.ErrorIs(t, query.Validate(), ErrGetOrderQueryIsNotConstructed)
}

func TestNewListOrdersQuery(t *testing.T) {
	tests := []struct {
		name     string
		status   order.Status
		filtered bool
	}{
		{name: "all statuses", status: order.Unknown, filtered: false},
		{name: "single status", status: order.PaymentPending, filtered: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, err := NewListOrdersQuery(tt.status, 50, 10)

			require.NoError(t, err)
			assert.NoError(t, query.Validate())
			status, filtered := query.Status()
			assert.Equal(t, tt.filtered, filtered)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, 50, query.Limit())
			assert.Equal(t, 10, query.Offset())
		})
	}
}

func TestNewListOrdersQuery_InvalidPage(t *testing.T) {
	tests := []struct {
		name   string
		limit  int
		offset int
	}{
		{name: "zero limit", limit: 0, offset: 0},
		{name: "limit above maximum", limit: MaxListLimit + 1, offset: 0},
		{name: "negative offset", limit: 10, offset: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewListOrdersQuery(order.Unknown, tt.limit, tt.offset)

			assert.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
		})
	}
}

func TestNewListOrdersQuery_InvalidStatus(t *testing.T) {
	_, err := NewListOrdersQuery(order.Status(99), 10, 0)

	assert.Error(t, err)
}

func TestListOrdersQuery_ZeroValue_IsNotConstructed(t *testing.T) {
	var query ListOrdersQuery

	assert.ErrorIs(t, query.Validate(), ErrListOrdersQueryIsNotConstructed)
}

func TestNewListFailedOutboxEntriesQuery(t *testing.T) {
	query, err := NewListFailedOutboxEntriesQuery(MaxListLimit, 0)

	require.NoError(t, err)
	assert.NoError(t, query.Validate())
	assert.Equal(t, MaxListLimit, query.Limit())
	assert.Equal(t, 0, query.Offset())

	_, err = NewListFailedOutboxEntriesQuery(0, 0)
	assert.ErrorIs(t, err, errs.ErrValueIsOutOfRange)

	var zero ListFailedOutboxEntriesQuery
	assert.ErrorIs(t, zero.Validate(), ErrListFailedOutboxEntriesQueryIsNotConstructed)
}
