package commands_test

import (
	"context"
	"time"

	"oms/internal/core/application/usecases/commands"
	"oms/internal/core/domain/model/kernel"
	"oms/internal/core/domain/model/order"
	"oms/internal/core/domain/model/outbox"
	"oms/internal/core/ports"
	"oms/internal/pkg/ratelimit"

	"github.com/stretchr/testify/mock"
)

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order, expectedVersion int64) error {
	args := m.Called(ctx, o, expectedVersion)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderRepository) GetAllInStatusUpdatedBefore(
	ctx context.Context,
	status order.Status,
	before time.Time,
	limit int,
) ([]*order.Order, error) {
	args := m.Called(ctx, status, before, limit)
	orders, _ := args.Get(0).([]*order.Order)
	return orders, args.Error(1)
}

type MockOutboxRepository struct{ mock.Mock }

func (m *MockOutboxRepository) Add(ctx context.Context, entry *outbox.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}
func (m *MockOutboxRepository) FetchPending(context.Context, int, time.Time) ([]*outbox.Entry, error) {
	return nil, nil
}
func (m *MockOutboxRepository) MarkDelivered(context.Context, kernel.UUID, time.Time) error { return nil }
func (m *MockOutboxRepository) MarkFailed(context.Context, kernel.UUID, string, time.Time) error {
	return nil
}
func (m *MockOutboxRepository) RecordFailedAttempt(context.Context, kernel.UUID, int, time.Time, string) error {
	return nil
}

type MockIdempotencyRepository struct{ mock.Mock }

func (m *MockIdempotencyRepository) Get(
	ctx context.Context,
	orderID kernel.UUID,
	key kernel.IdempotencyKey,
) (ports.IdempotencyRecord, error) {
	args := m.Called(ctx, orderID, key)
	record, _ := args.Get(0).(ports.IdempotencyRecord)
	return record, args.Error(1)
}

func (m *MockIdempotencyRepository) Add(ctx context.Context, record ports.IdempotencyRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

type MockOrderUoW struct{ mock.Mock }

func (m *MockOrderUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
func (m *MockOrderUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
func (m *MockOrderUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

func (m *MockOrderUoW) OutboxRepository() ports.OutboxRepository {
	args := m.Called()
	return args.Get(0).(ports.OutboxRepository)
}

func (m *MockOrderUoW) IdempotencyRepository() ports.IdempotencyRepository {
	args := m.Called()
	return args.Get(0).(ports.IdempotencyRepository)
}

type MockOrderUoWFactory struct{ mock.Mock }

func (m *MockOrderUoWFactory) Create() commands.OrderUoW {
	args := m.Called()
	return args.Get(0).(commands.OrderUoW)
}

type MockRateLimiter struct{ mock.Mock }

func (m *MockRateLimiter) TryAcquire(key string, cost float64) (ratelimit.Decision, error) {
	args := m.Called(key, cost)
	return args.Get(0).(ratelimit.Decision), args.Error(1)
}

type MockConfirmationService struct{ mock.Mock }

func (m *MockConfirmationService) Confirm(ctx context.Context, req ports.ConfirmationRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) Notify() {
	m.Called()
}

type MockSubmitter struct{ mock.Mock }

func (m *MockSubmitter) Handle(ctx context.Context, cmd commands.SubmitOrderCommand) (commands.SubmitOrderResult, error) {
	args := m.Called(ctx, cmd)
	result, _ := args.Get(0).(commands.SubmitOrderResult)
	return result, args.Error(1)
}

type MockObserver struct {
	ports.NopObserver
	mock.Mock
}

func (m *MockObserver) RateLimited(ctx context.Context, key string, retryAfter time.Duration) {
	m.Called(ctx, key, retryAfter)
}

func (m *MockObserver) TransitionFailed(ctx context.Context, orderID kernel.UUID, command order.CommandType, err error) {
	m.Called(ctx, orderID, command, err)
}
