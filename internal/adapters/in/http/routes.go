package http

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// NewEcho builds the echo instance with request logging and panic recovery.
func NewEcho(logger *slog.Logger) *echo.Echo {
	if logger == nil {
		logger = slog.Default()
	}
	requestLogger := logger.With("component", "http")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			requestLogger.InfoContext(c.Request().Context(), "HTTP request",
				"uri", v.URI,
				"method", v.Method,
				"status", v.Status,
				"latency", v.Latency,
				"error", v.Error,
			)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	return e
}

// Register mounts every route of the service on e.
func (s *Server) Register(e *echo.Echo) {
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy")
	})

	api := e.Group("/api/v1")
	api.POST("/orders", s.CreateOrder)
	api.GET("/orders", s.ListOrders, s.rateLimited)
	api.GET("/orders/:id", s.GetOrder, s.rateLimited)
	api.POST("/orders/:id/commands", s.SubmitCommand)
	api.GET("/outbox/failed", s.ListFailedOutboxEntries, s.rateLimited)
	api.GET("/health/circuit-breakers", s.CircuitBreakers, s.rateLimited)
}
