package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	apperrors "venuebook/internal/errors"
	"venuebook/internal/logger"
)

const rateLimitPrefix = "ratelimit:login"

// NewLimiter builds a fixed-window limiter allowing limit requests per
// period. It counts in redis when client answers a ping and in process
// memory otherwise.
func NewLimiter(ctx context.Context, client *redis.Client, limit int64, period time.Duration, log logger.Logger) *limiter.Limiter {
	rate := limiter.Rate{Limit: limit, Period: period}
	opts := limiter.StoreOptions{
		Prefix:          rateLimitPrefix,
		MaxRetry:        limiter.DefaultMaxRetry,
		CleanUpInterval: limiter.DefaultCleanUpInterval,
	}

	if client != nil && client.Ping(ctx).Err() == nil {
		store, err := sredis.NewStoreWithOptions(client, opts)
		if err == nil {
			return limiter.New(store, rate)
		}
		log.Warn("redis rate limit store unavailable, using memory", "error", err)
	}
	return limiter.New(memory.NewStoreWithOptions(opts), rate)
}

// RateLimit rejects a client IP with 429 once it exceeds the limiter rate.
// Store failures let the request through.
func RateLimit(l *limiter.Limiter, log logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			res, err := l.Get(c.Request().Context(), c.RealIP())
			if err != nil {
				log.Warn("rate limit lookup failed", "ip", c.RealIP(), "error", err)
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.FormatInt(res.Limit, 10))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(res.Reset, 10))

			if res.Reached {
				return apperrors.NewHTTPError(http.StatusTooManyRequests, "too many attempts, try again later", "RATE_LIMITED")
			}
			return next(c)
		}
	}
}
