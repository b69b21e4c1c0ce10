package commands_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	postgres_adapter "oms/internal/adapters/out/postgres"
	"oms/internal/adapters/out/postgres/outboxrepo"
	"oms/internal/adapters/out/postgres/pgtest"
	"oms/internal/core/application/usecases/commands"
	"oms/internal/core/domain/model/kernel"
	"oms/internal/core/domain/model/order"
	"oms/internal/core/domain/model/outbox"
	"oms/internal/core/ports"
	"oms/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
)

type orderUoWFactory struct {
	inner ports.UnitOfWorkFactory
}

func (f orderUoWFactory) Create() commands.OrderUoW {
	return f.inner.Create()
}

type SubmitOrderIntegrationTestSuite struct {
	suite.Suite
	database *pgtest.Database
	factory  commands.OrderUoWFactory
}

func (suite *SubmitOrderIntegrationTestSuite) SetupSuite() {
	database, err := pgtest.Start(context.Background())
	suite.Require().NoError(err)
	suite.database = database
	suite.factory = orderUoWFactory{inner: postgres_adapter.NewGormUnitOfWorkFactory(database.DB)}
}

func (suite *SubmitOrderIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.database.Truncate())
}

func (suite *SubmitOrderIntegrationTestSuite) TearDownSuite() {
	suite.Require().NoError(suite.database.Terminate(context.Background()))
}

func (suite *SubmitOrderIntegrationTestSuite) handler(retries int) *commands.SubmitOrderCommandHandler {
	h, err := commands.NewSubmitOrderCommandHandler(suite.factory, nil, nil, nil, nil,
		commands.SubmitConfig{MaxConflictRetries: retries})
	suite.Require().NoError(err)
	return h
}

func (suite *SubmitOrderIntegrationTestSuite) submit(
	h *commands.SubmitOrderCommandHandler,
	id kernel.UUID,
	command order.CommandType,
	key string,
) (commands.SubmitOrderResult, error) {
	cmd := newCommand(suite.T(), id, command, key)
	return h.Handle(context.Background(), cmd)
}

func (suite *SubmitOrderIntegrationTestSuite) outboxMessages(id kernel.UUID) []outbox.Message {
	var dtos []outboxrepo.EntryDTO
	suite.Require().NoError(suite.database.DB.
		Where("order_id = ?", id.Bytes()).
		Order("order_version").
		Find(&dtos).Error)

	messages := make([]outbox.Message, 0, len(dtos))
	for _, dto := range dtos {
		msg, err := outbox.UnmarshalMessage([]byte(dto.Payload))
		suite.Require().NoError(err)
		messages = append(messages, msg)
	}
	return messages
}

func (suite *SubmitOrderIntegrationTestSuite) TestCancelThenShip() {
	h := suite.handler(3)
	id := kernel.NewUUID()

	_, err := suite.submit(h, id, order.Create, "")
	suite.Require().NoError(err)

	cancelled, err := suite.submit(h, id, order.Cancel, "")
	suite.Require().NoError(err)
	suite.Equal(order.Cancelled, cancelled.NewStatus)
	suite.Equal(int64(2), cancelled.Version)

	_, err = suite.submit(h, id, order.Ship, "")
	suite.Require().ErrorIs(err, order.ErrInvalidTransition)

	messages := suite.outboxMessages(id)
	suite.Require().Len(messages, 2)
	suite.Equal(order.EventTypeOrderCreated, messages[0].EventType)
	suite.Empty(messages[0].PreviousStatus)
	suite.Equal("CREATED", messages[1].PreviousStatus)
	suite.Equal("CANCELLED", messages[1].NewStatus)
	suite.Equal(int64(2), messages[1].Version)
}

func (suite *SubmitOrderIntegrationTestSuite) TestFullLifecycle_OneEntryPerTransition() {
	h := suite.handler(3)
	id := kernel.NewUUID()
	walk := []order.CommandType{order.Create, order.RequestPayment, order.ConfirmPayment, order.Ship, order.Deliver}

	for i, command := range walk {
		result, err := suite.submit(h, id, command, "")
		suite.Require().NoError(err)
		suite.Equal(int64(i+1), result.Version)
	}

	loaded, err := suite.factory.Create().OrderRepository().Get(context.Background(), id)
	suite.Require().NoError(err)
	suite.Equal(order.Delivered, loaded.Status())

	messages := suite.outboxMessages(id)
	suite.Require().Len(messages, len(walk))
	for i, msg := range messages {
		suite.Equal(int64(i+1), msg.Version)
	}
}

func (suite *SubmitOrderIntegrationTestSuite) TestConcurrentTransitions_VersionsNeverCollide() {
	h := suite.handler(0)
	id := kernel.NewUUID()
	_, err := suite.submit(h, id, order.Create, "")
	suite.Require().NoError(err)

	commandsToRun := []order.CommandType{
		order.RequestPayment, order.Cancel, order.RequestPayment, order.Cancel,
		order.RequestPayment, order.Cancel, order.RequestPayment, order.Cancel,
	}
	results := make([]commands.SubmitOrderResult, len(commandsToRun))
	failures := make([]error, len(commandsToRun))
	var wg sync.WaitGroup
	for i, c := range commandsToRun {
		wg.Add(1)
		go func(i int, c order.CommandType) {
			defer wg.Done()
			results[i], failures[i] = suite.submit(h, id, c, "")
		}(i, c)
	}
	wg.Wait()

	versions := make(map[int64]bool)
	for i, err := range failures {
		if err != nil {
			suite.True(errors.Is(err, errs.ErrConcurrentModification) || errors.Is(err, order.ErrInvalidTransition),
				"unexpected error: %v", err)
			continue
		}
		suite.False(versions[results[i].Version], "version %d committed twice", results[i].Version)
		versions[results[i].Version] = true
	}
	suite.NotEmpty(versions)

	loaded, err := suite.factory.Create().OrderRepository().Get(context.Background(), id)
	suite.Require().NoError(err)
	suite.Equal(int64(1+len(versions)), loaded.Version())
	suite.Len(suite.outboxMessages(id), 1+len(versions))
}

func (suite *SubmitOrderIntegrationTestSuite) TestSameIdempotencyKey_AppliesOnce() {
	h := suite.handler(3)
	id := kernel.NewUUID()
	_, err := suite.submit(h, id, order.Create, "")
	suite.Require().NoError(err)

	first, err := suite.submit(h, id, order.Cancel, "cancel-1")
	suite.Require().NoError(err)
	second, err := suite.submit(h, id, order.Cancel, "cancel-1")
	suite.Require().NoError(err)

	suite.Equal(first.Version, second.Version)
	suite.Equal(first.NewStatus, second.NewStatus)
	suite.Equal(first.PreviousStatus, second.PreviousStatus)
	suite.Equal(first.EventType, second.EventType)
	suite.True(first.OccurredAt.Equal(second.OccurredAt))
	suite.Len(suite.outboxMessages(id), 2)

	_, err = suite.submit(h, id, order.Ship, "cancel-1")
	suite.Require().ErrorIs(err, commands.ErrIdempotencyKeyReused)
}

func (suite *SubmitOrderIntegrationTestSuite) TestSameIdempotencyKey_ConcurrentRequestsAgree() {
	h := suite.handler(3)
	id := kernel.NewUUID()
	_, err := suite.submit(h, id, order.Create, "")
	suite.Require().NoError(err)

	const callers = 6
	results := make([]commands.SubmitOrderResult, callers)
	failures := make([]error, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], failures[i] = suite.submit(h, id, order.Cancel, "cancel-concurrent")
		}(i)
	}
	wg.Wait()

	for i := range callers {
		suite.Require().NoError(failures[i])
		suite.Equal(int64(2), results[i].Version)
		suite.Equal(order.Cancelled, results[i].NewStatus)
	}
	suite.Len(suite.outboxMessages(id), 2)
}

func (suite *SubmitOrderIntegrationTestSuite) TestIdempotentCreate_ReplaysPlacement() {
	h := suite.handler(3)
	id := kernel.NewUUID()

	first, err := suite.submit(h, id, order.Create, "create-1")
	suite.Require().NoError(err)
	second, err := suite.submit(h, id, order.Create, "create-1")
	suite.Require().NoError(err)
	suite.Equal(first.Version, second.Version)

	_, err = suite.submit(h, id, order.Create, "")
	suite.Require().ErrorIs(err, order.ErrInvalidTransition)
	suite.Len(suite.outboxMessages(id), 1)
}

func (suite *SubmitOrderIntegrationTestSuite) TestRetriedCreateWithoutID_PlacesOneOrder() {
	h := suite.handler(3)
	id := commands.CreateOrderID("user:alice", "req-1")

	first, err := suite.submit(h, id, order.Create, "req-1")
	suite.Require().NoError(err)
	second, err := suite.submit(h, id, order.Create, "req-1")
	suite.Require().NoError(err)

	suite.True(first.OrderID.IsEqual(id))
	suite.True(second.OrderID.IsEqual(id))
	suite.Equal(first.Version, second.Version)
	suite.True(first.OccurredAt.Equal(second.OccurredAt))
	suite.Len(suite.outboxMessages(id), 1)

	var placed int64
	suite.Require().NoError(suite.database.DB.Table("orders").Count(&placed).Error)
	suite.Equal(int64(1), placed)
}

func TestSubmitOrderIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(SubmitOrderIntegrationTestSuite))
}
