package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"oms/internal/core/application/gateway"
	"oms/internal/core/application/usecases/commands"
	"oms/internal/core/application/usecases/queries"
	"oms/internal/core/domain/model/kernel"
	"oms/internal/core/domain/model/order"
	"oms/internal/core/ports"
	"oms/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

const defaultPageSize = 100

type OrderSubmitter interface {
	Handle(ctx context.Context, cmd commands.SubmitOrderCommand) (commands.SubmitOrderResult, error)
}

type OrderGetter interface {
	Handle(ctx context.Context, query queries.GetOrderQuery) (queries.GetOrderQueryResponse, error)
}

type OrderLister interface {
	Handle(ctx context.Context, query queries.ListOrdersQuery) ([]queries.ListOrdersQueryResponse, error)
}

type FailedOutboxLister interface {
	Handle(ctx context.Context, query queries.ListFailedOutboxEntriesQuery) ([]queries.ListFailedOutboxEntriesQueryResponse, error)
}

type BreakerReporter interface {
	Snapshot() gateway.Snapshot
}

// Server maps HTTP requests onto the order use cases.
type Server struct {
	// Command handlers
	submitHandler OrderSubmitter

	// Query handlers
	getOrderHandler     OrderGetter
	listOrdersHandler   OrderLister
	failedOutboxHandler FailedOutboxLister

	breakers []BreakerReporter
	limiter  commands.RateLimiter
	observer ports.Observer
	logger   *slog.Logger
}

func NewServer(
	submitHandler OrderSubmitter,
	getOrderHandler OrderGetter,
	listOrdersHandler OrderLister,
	failedOutboxHandler FailedOutboxLister,
	breakers []BreakerReporter,
	logger *slog.Logger,
	opts ...ServerOption,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		submitHandler:       submitHandler,
		getOrderHandler:     getOrderHandler,
		listOrdersHandler:   listOrdersHandler,
		failedOutboxHandler: failedOutboxHandler,
		breakers:            breakers,
		observer:            ports.NopObserver{},
		logger:              logger.With("component", "http"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrder handles POST /api/v1/orders.
func (s *Server) CreateOrder(c echo.Context) error {
	var body NewOrder
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, Error{Code: http.StatusBadRequest, Message: "Invalid request body"})
	}

	var orderID kernel.UUID
	switch key := strings.TrimSpace(c.Request().Header.Get(HeaderIdempotencyKey)); {
	case body.ID != "":
		parsed, err := parseID("id", body.ID)
		if err != nil {
			return s.fail(c, err)
		}
		orderID = parsed
	case key != "":
		orderID = commands.CreateOrderID(clientKey(c), key)
	default:
		orderID = kernel.NewUUID()
	}

	items := make([]order.Item, 0, len(body.Items))
	for _, line := range body.Items {
		item, err := order.NewItem(line.ProductID, line.Quantity, line.UnitPrice)
		if err != nil {
			return s.fail(c, err)
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return s.fail(c, errs.NewValueIsRequiredError("items"))
	}

	return s.submit(c, orderID, order.Create, items, http.StatusCreated)
}

// SubmitCommand handles POST /api/v1/orders/:id/commands.
func (s *Server) SubmitCommand(c echo.Context) error {
	orderID, err := parseID("id", c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}

	var body OrderCommand
	if err = c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, Error{Code: http.StatusBadRequest, Message: "Invalid request body"})
	}

	commandType, err := order.ParseCommandType(body.Command)
	if err != nil {
		return s.fail(c, err)
	}
	if commandType == order.Create {
		return c.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "CREATE is submitted through POST /api/v1/orders",
		})
	}

	return s.submit(c, orderID, commandType, nil, http.StatusOK)
}

func (s *Server) submit(c echo.Context, orderID kernel.UUID, commandType order.CommandType, items []order.Item, status int) error {
	cmd, err := commands.NewSubmitOrderCommand(
		orderID,
		commandType,
		items,
		c.Request().Header.Get(HeaderIdempotencyKey),
		clientKey(c),
	)
	if err != nil {
		return s.fail(c, err)
	}

	result, err := s.submitHandler.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(status, Transition{
		OrderID:        result.OrderID.String(),
		EventType:      result.EventType,
		PreviousStatus: statusName(result.PreviousStatus),
		NewStatus:      statusName(result.NewStatus),
		Version:        result.Version,
		OccurredAt:     result.OccurredAt,
	})
}

// GetOrder handles GET /api/v1/orders/:id.
func (s *Server) GetOrder(c echo.Context) error {
	orderID, err := parseID("id", c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	query, err := queries.NewGetOrderQuery(orderID)
	if err != nil {
		return s.fail(c, err)
	}

	view, err := s.getOrderHandler.Handle(c.Request().Context(), query)
	if err != nil {
		return s.fail(c, err)
	}

	items := make([]OrderItem, len(view.Items))
	for i, item := range view.Items {
		items[i] = OrderItem{ProductID: item.ProductID, Quantity: item.Quantity, UnitPrice: item.UnitPrice}
	}

	return c.JSON(http.StatusOK, Order{
		ID:        view.ID.String(),
		Status:    view.Status.String(),
		Version:   view.Version,
		Items:     items,
		Total:     view.Total,
		CreatedAt: view.CreatedAt,
		UpdatedAt: view.UpdatedAt,
	})
}

// ListOrders handles GET /api/v1/orders?status=&limit=&offset=.
func (s *Server) ListOrders(c echo.Context) error {
	status := order.Unknown
	if raw := c.QueryParam("status"); raw != "" {
		parsed, err := order.ParseStatus(raw)
		if err != nil {
			return s.fail(c, err)
		}
		status = parsed
	}

	limit, offset, err := page(c)
	if err != nil {
		return s.fail(c, err)
	}
	query, err := queries.NewListOrdersQuery(status, limit, offset)
	if err != nil {
		return s.fail(c, err)
	}

	views, err := s.listOrdersHandler.Handle(c.Request().Context(), query)
	if err != nil {
		return s.fail(c, err)
	}

	response := make([]Order, len(views))
	for i, view := range views {
		response[i] = Order{
			ID:        view.ID.String(),
			Status:    view.Status.String(),
			Version:   view.Version,
			Total:     view.Total,
			CreatedAt: view.CreatedAt,
			UpdatedAt: view.UpdatedAt,
		}
	}
	return c.JSON(http.StatusOK, response)
}

// ListFailedOutboxEntries handles GET /api/v1/outbox/failed.
func (s *Server) ListFailedOutboxEntries(c echo.Context) error {
	limit, offset, err := page(c)
	if err != nil {
		return s.fail(c, err)
	}
	query, err := queries.NewListFailedOutboxEntriesQuery(limit, offset)
	if err != nil {
		return s.fail(c, err)
	}

	views, err := s.failedOutboxHandler.Handle(c.Request().Context(), query)
	if err != nil {
		return s.fail(c, err)
	}

	response := make([]FailedOutboxEntry, len(views))
	for i, view := range views {
		response[i] = FailedOutboxEntry{
			ID:           view.ID.String(),
			OrderID:      view.OrderID.String(),
			OrderVersion: view.OrderVersion,
			EventType:    view.EventType,
			Attempts:     view.Attempts,
			LastError:    view.LastError,
			CreatedAt:    view.CreatedAt,
			FailedAt:     view.FailedAt,
		}
	}
	return c.JSON(http.StatusOK, response)
}

// CircuitBreakers handles GET /api/v1/health/circuit-breakers. The service is
// DEGRADED while any breaker is not CLOSED.
func (s *Server) CircuitBreakers(c echo.Context) error {
	health := BreakerHealth{Status: "UP", Breakers: make([]BreakerSummary, 0, len(s.breakers))}
	for _, breaker := range s.breakers {
		snapshot := breaker.Snapshot()
		if snapshot.State != "CLOSED" {
			health.Status = "DEGRADED"
		}
		health.Breakers = append(health.Breakers, BreakerSummary(snapshot))
	}
	return c.JSON(http.StatusOK, health)
}

func parseID(name, raw string) (kernel.UUID, error) {
	id, err := kernel.UUIDFromString(raw)
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause(name, err)
	}
	return id, nil
}

func page(c echo.Context) (int, int, error) {
	limit, err := intParam(c, "limit", defaultPageSize)
	if err != nil {
		return 0, 0, err
	}
	offset, err := intParam(c, "offset", 0)
	if err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

func intParam(c echo.Context, name string, fallback int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errs.NewValueIsInvalidErrorWithCause(name, err)
	}
	return value, nil
}

// statusName renders the absent previous status of a placement as "".
func statusName(status order.Status) string {
	if status == order.Unknown {
		return ""
	}
	return status.String()
}
