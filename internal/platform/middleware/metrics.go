package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mias/mias/internal/platform/metrics"
)

// Metrics records request counts and latency per matched route. Using the
// route pattern rather than the raw path keeps token values out of labels.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := responseStatus(c, err)
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method

			metrics.HTTPRequestsTotal.WithLabelValues(method, route, metrics.StatusLabel(status)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
