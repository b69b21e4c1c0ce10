package http

import (
	"oms/internal/core/application/usecases/commands"
	"oms/internal/core/ports"

	"github.com/labstack/echo/v4"
)

// ServerOption customises a Server.
type ServerOption func(*Server)

// WithReadRateLimiter charges every read request to the bucket of its client
// key. Command routes are charged by the submit handler itself.
func WithReadRateLimiter(limiter commands.RateLimiter, observer ports.Observer) ServerOption {
	return func(s *Server) {
		s.limiter = limiter
		if observer != nil {
			s.observer = observer
		}
	}
}

func (s *Server) rateLimited(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.limiter == nil {
			return next(c)
		}

		key := clientKey(c)
		decision, err := s.limiter.TryAcquire(key, 1)
		if err != nil {
			return s.fail(c, err)
		}
		if !decision.Allowed {
			s.observer.RateLimited(c.Request().Context(), key, decision.RetryAfter)
			return s.fail(c, commands.NewRateLimitedError(key, decision.RetryAfter))
		}
		return next(c)
	}
}
