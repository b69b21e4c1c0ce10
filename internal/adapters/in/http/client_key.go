package http

import (
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	HeaderUserID         = "X-User-Id"
	HeaderIdempotencyKey = "Idempotency-Key"
)

// clientKey identifies the caller for rate limiting: the user header when
// present, otherwise the client address.
func clientKey(c echo.Context) string {
	if user := strings.TrimSpace(c.Request().Header.Get(HeaderUserID)); user != "" {
		return "user:" + user
	}
	return "ip:" + c.RealIP()
}
