package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ridKey is the echo context key under which the request id is stored.
const ridKey = "request_id"

// RequestID assigns every request a unique identifier, honoring an inbound
// X-Request-ID header when present.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get("X-Request-ID")
			if rid == "" {
				rid = uuid.New().String()
			}
			c.Set(ridKey, rid)
			c.Response().Header().Set("X-Request-ID", rid)
			return next(c)
		}
	}
}

// requestID returns the id set by RequestID, or "" when the middleware did
// not run for this request.
func requestID(c echo.Context) string {
	rid, _ := c.Get(ridKey).(string)
	return rid
}
