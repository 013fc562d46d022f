package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/PrithviSeran/whats-poppin-sub003/config"
	"github.com/labstack/echo/v4"
)

type Config struct {
	Store          Store
	Rate           int
	Period         time.Duration
	CountMode      config.CountingMode
	KeyGenerator   func(c echo.Context) string
	OnLimitReached func(c echo.Context, retryAfter time.Duration) error
}

func Middleware(cfg *Config) echo.MiddlewareFunc {
	if cfg.Store == nil {
		cfg.Store = NewMemoryStore()
	}

	if cfg.Rate <= 0 {
		cfg.Rate = 10
	}

	if cfg.Period <= 0 {
		cfg.Period = time.Minute
	}

	if cfg.KeyGenerator == nil {
		cfg.KeyGenerator = DefaultKeyGenerator
	}

	if cfg.OnLimitReached == nil {
		cfg.OnLimitReached = DefaultOnLimitReached
	}

	if cfg.CountMode == "" {
		cfg.CountMode = config.CountAll
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := cfg.KeyGenerator(c)
			now := time.Now()
			resetTime := now.Add(cfg.Period)

			count, existingResetTime, exists := cfg.Store.Get(key)
			if exists {
				resetTime = existingResetTime
			}

			header := c.Response().Header()
			header.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Rate))
			header.Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

			if count >= cfg.Rate {
				retryAfter := resetTime.Sub(now)
				header.Set("X-RateLimit-Remaining", "0")
				header.Set(echo.HeaderRetryAfter, RetryAfterSeconds(retryAfter))
				return cfg.OnLimitReached(c, retryAfter)
			}

			var newCount int
			if cfg.CountMode == config.CountAll {
				newCount = cfg.Store.Increment(key, resetTime)
			} else {
				newCount = count + 1
				cfg.Store.Set(key, newCount, resetTime)
			}

			header.Set("X-RateLimit-Remaining", strconv.Itoa(max(cfg.Rate-newCount, 0)))

			err := next(c)

			if cfg.CountMode != config.CountAll {
				status := c.Response().Status
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}

				shouldCount := false
				switch cfg.CountMode {
				case config.CountFailures:
					shouldCount = status >= 400
				case config.CountSuccess:
					shouldCount = status < 400
				}

				// the slot reserved above stays taken only when counted
				switch {
				case shouldCount:
				case count > 0:
					cfg.Store.Set(key, count, resetTime)
				default:
					cfg.Store.Reset(key)
				}
			}

			return err
		}
	}
}

func DefaultKeyGenerator(c echo.Context) string {
	realIP := c.RealIP()

	if realIP == "" || realIP == "unknown" {
		realIP = "fallback"
	}

	return "rate_limit:" + realIP
}

func DefaultOnLimitReached(c echo.Context, _ time.Duration) error {
	return echo.NewHTTPError(http.StatusTooManyRequests, "Too Many Requests")
}

// RetryAfterSeconds renders d as a Retry-After value, rounded up and never
// below one second.
func RetryAfterSeconds(d time.Duration) string {
	secs := int64(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}

func NewStore(rateLimitConfig *config.RateLimitConfig) Store {
	switch rateLimitConfig.Store {
	case "memory":
		fallthrough
	default:
		return NewMemoryStore()
	}
}
