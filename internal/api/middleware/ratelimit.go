package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/veriscribe/signature-api/internal/api/metrics"
	"github.com/veriscribe/signature-api/internal/infrastructure/db/redis"
)

// Limiter is the admission check RateLimit consults, satisfied by
// *redis.Limiter.
type Limiter interface {
	Allow(ctx context.Context, bucket, caller string, window time.Duration, max int) (redis.Decision, error)
}

// RateLimit applies a fixed-window counter keyed by client IP. The limiter
// fails open: if Redis is unreachable the request proceeds, because losing
// rate limiting is cheaper than losing the service.
func RateLimit(limiter Limiter, bucket string, window time.Duration, max int, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			d, err := limiter.Allow(c.Request().Context(), bucket, c.RealIP(), window, max)
			if err != nil {
				log.Warn().Err(err).Str("bucket", bucket).Msg("rate limiter unavailable, allowing request")
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(max))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))

			if !d.Allowed {
				metrics.RateLimitedTotal.WithLabelValues(bucket).Inc()
				h.Set("Retry-After", strconv.Itoa(int(d.RetryAfter.Seconds())))
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"error": "Too many requests. Please try again later.",
					"code":  "RATE_LIMITED",
				})
			}

			return next(c)
		}
	}
}
