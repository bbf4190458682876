package echoapi

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/gradebook/services/metrics"
)

// metricsMiddleware records the duration of every request, labelled by route pattern.
func metricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		start := time.Now()
		err := next(ctx)

		status := ctx.Response().Status
		if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
		}
		metrics.APIRequestDuration.
			WithLabelValues(ctx.Path(), ctx.Request().Method, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
		return err
	}
}
