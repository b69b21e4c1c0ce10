package cmd

import (
	"log/slog"

	httpin "oms/internal/adapters/in/http"
	"oms/internal/adapters/out/downstream"
	"oms/internal/adapters/out/postgres"
	"oms/internal/core/application/gateway"
	"oms/internal/core/application/publisher"
	"oms/internal/core/application/usecases/commands"
	"oms/internal/core/application/usecases/queries"
	"oms/internal/core/domain/model/order"
	"oms/internal/core/ports"
	"oms/internal/jobs"
	"oms/internal/pkg/ratelimit"

	"gorm.io/gorm"
)

// CompositionRoot owns the long-lived collaborators: one limiter, one
// publisher and one gateway per dependency. Handlers built from it share them.
type CompositionRoot struct {
	config     Config
	gormDB     *gorm.DB
	uowFactory *postgres.GormUnitOfWorkFactory
	observer   ports.Observer
	logger     *slog.Logger

	limiter   *ratelimit.Limiter
	publisher *publisher.Publisher
	gateways  map[order.CommandType]*gateway.Gateway
	submit    *commands.SubmitOrderCommandHandler
}

func NewCompositionRoot(
	config Config,
	gormDB *gorm.DB,
	bus ports.MessageBus,
	observer ports.Observer,
	logger *slog.Logger,
) (*CompositionRoot, error) {
	c := &CompositionRoot{
		config:     config,
		gormDB:     gormDB,
		uowFactory: postgres.NewGormUnitOfWorkFactory(gormDB),
		observer:   observer,
		logger:     logger,
		gateways:   make(map[order.CommandType]*gateway.Gateway, 2),
	}

	limiter, err := ratelimit.New(config.RateLimit)
	if err != nil {
		return nil, err
	}
	c.limiter = limiter

	c.publisher, err = publisher.New(c.uowFactory.Create().OutboxRepository(), bus, config.Publisher, observer, logger)
	if err != nil {
		return nil, err
	}

	for command, target := range map[order.CommandType]downstream.Config{
		order.ConfirmPayment: config.Payments,
		order.Ship:           config.Inventory,
	} {
		client, clientErr := downstream.NewClient(target)
		if clientErr != nil {
			return nil, clientErr
		}
		g, gatewayErr := gateway.New(target.Name, client, config.Gateway, observer, logger)
		if gatewayErr != nil {
			return nil, gatewayErr
		}
		c.gateways[command] = g
	}

	c.submit, err = commands.NewSubmitOrderCommandHandler(
		c.orderUoWFactory(),
		c.limiter,
		c.confirmers(),
		c.publisher,
		observer,
		config.Submit,
	)
	if err != nil {
		return nil, err
	}

	return c, nil
}

func (c *CompositionRoot) CreateSubmitOrderCommandHandler() *commands.SubmitOrderCommandHandler {
	return c.submit
}

func (c *CompositionRoot) CreateCancelExpiredPaymentsCommandHandler() commands.CancelExpiredPaymentsCommandHandler {
	return commands.NewCancelExpiredPaymentsCommandHandler(c.orderUoWFactory(), c.submit)
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateListOrdersQueryHandler() queries.ListOrdersQueryHandler {
	return queries.NewListOrdersQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateListFailedOutboxEntriesQueryHandler() queries.ListFailedOutboxEntriesQueryHandler {
	return queries.NewListFailedOutboxEntriesQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateHTTPServer() *httpin.Server {
	breakers := make([]httpin.BreakerReporter, 0, len(c.gateways))
	for _, command := range []order.CommandType{order.ConfirmPayment, order.Ship} {
		if g, ok := c.gateways[command]; ok {
			breakers = append(breakers, g)
		}
	}

	return httpin.NewServer(
		c.submit,
		c.CreateGetOrderQueryHandler(),
		c.CreateListOrdersQueryHandler(),
		c.CreateListFailedOutboxEntriesQueryHandler(),
		breakers,
		c.logger,
		httpin.WithReadRateLimiter(c.limiter, c.observer),
	)
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(
		jobs.NewPaymentTimeoutJob(c.CreateCancelExpiredPaymentsCommandHandler(), c.config.PaymentTimeout, c.logger),
		jobs.NewRateLimiterSweepJob(c.limiter, c.config.RateLimitSweepSchedule, c.config.RateLimitIdle, c.logger),
		jobs.NewOutboxPublisherJob(c.publisher, c.logger),
	)
}

func (c *CompositionRoot) confirmers() map[order.CommandType]ports.ConfirmationService {
	confirmers := make(map[order.CommandType]ports.ConfirmationService, len(c.gateways))
	for command, g := range c.gateways {
		confirmers[command] = g
	}
	return confirmers
}

func (c *CompositionRoot) orderUoWFactory() commands.OrderUoWFactory {
	return FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}
