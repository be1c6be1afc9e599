package middleware

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/99minutos/taskhub/internal/infrastructure/metrics"
	"github.com/99minutos/taskhub/pkg/ratelimit"
)

// operationalPrefixes are never rate limited.
var operationalPrefixes = []string{"/health", "/metrics", "/swagger"}

// SkipOperational skips health checks, metrics scraping and the API docs.
func SkipOperational(c echo.Context) bool {
	path := c.Request().URL.Path
	for _, p := range operationalPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// RateLimit admits requests through limiter keyed by the client address
// (c.RealIP, which honours the router's IPExtractor). Rejections carry a
// Retry-After header and a 429.
func RateLimit(limiter *ratelimit.Limiter, service string, skipper echomiddleware.Skipper) echo.MiddlewareFunc {
	if skipper == nil {
		skipper = echomiddleware.DefaultSkipper
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper(c) {
				return next(c)
			}

			err := limiter.Allow(c.RealIP())
			if err == nil {
				return next(c)
			}

			var exceeded *ratelimit.ExceededError
			if !errors.As(err, &exceeded) {
				return err
			}
			metrics.RateLimitedTotal.WithLabelValues(service).Inc()
			seconds := int(math.Ceil(exceeded.RetryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			c.Response().Header().Set("Retry-After", strconv.Itoa(seconds))
			return echo.NewHTTPError(http.StatusTooManyRequests, exceeded.Error())
		}
	}
}
