package http

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"oms/internal/core/application/usecases/commands"
	"oms/internal/core/domain/model/order"
	"oms/internal/core/ports"
	"oms/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// statusFor maps application errors to HTTP status codes. Storage failures are
// checked before validation so a wrapped cause never turns a 500 into a 400.
func statusFor(err error) int {
	var rateLimited *commands.RateLimitedError
	switch {
	case errors.As(err, &rateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, order.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, errs.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, commands.ErrIdempotencyKeyReused),
		errors.Is(err, ports.ErrDownstreamRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errs.ErrConcurrentModification),
		errors.Is(err, ports.ErrDownstreamUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, errs.ErrPersistence):
		return http.StatusInternalServerError
	case errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsOutOfRange),
		errors.Is(err, errs.ErrVersionIsInvalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c echo.Context, err error) error {
	code := statusFor(err)

	var rateLimited *commands.RateLimitedError
	if errors.As(err, &rateLimited) {
		seconds := int(math.Ceil(rateLimited.RetryAfter.Seconds()))
		c.Response().Header().Set("Retry-After", strconv.Itoa(max(seconds, 1)))
	}

	message := err.Error()
	if code == http.StatusInternalServerError {
		s.logger.ErrorContext(c.Request().Context(), "request failed",
			"method", c.Request().Method, "path", c.Path(), "error", err)
		message = http.StatusText(code)
	}

	return c.JSON(code, Error{Code: code, Message: message})
}
