package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/mkarpik/storefront-api/internal/config"
)

// bucketScript implements a token bucket in Redis so every instance of
// the service shares one budget per caller. The bucket state lives in a
// hash {tokens, refilled_ms}; the script refills lazily based on
// elapsed time, then either spends a token or reports how long until
// the next one. Runs atomically, so concurrent requests cannot
// double-spend.
var bucketScript = redis.NewScript(`
	local now_ms   = tonumber(ARGV[1])
	local capacity = tonumber(ARGV[2])
	local refill_n = tonumber(ARGV[3])
	local every_ms = tonumber(ARGV[4])
	local ttl_s    = tonumber(ARGV[5])

	local state = redis.call('HMGET', KEYS[1], 'tokens', 'refilled_ms')
	local tokens, refilled = tonumber(state[1]), tonumber(state[2])
	if tokens == nil or refilled == nil then
		tokens, refilled = capacity, now_ms
	end

	local ticks = math.floor(math.max(0, now_ms - refilled) / every_ms)
	if ticks > 0 then
		tokens = math.min(capacity, tokens + ticks * refill_n)
		refilled = refilled + ticks * every_ms
	end

	local allowed, wait_ms = 0, 0
	if tokens > 0 then
		allowed = 1
		tokens = tokens - 1
	else
		wait_ms = math.max(0, every_ms - (now_ms - refilled))
	end

	redis.call('HMSET', KEYS[1], 'tokens', tokens, 'refilled_ms', refilled)
	redis.call('EXPIRE', KEYS[1], ttl_s)
	return { allowed, tokens, wait_ms }
`)

// NewTokenBucket throttles the public catalog endpoints. Keys combine
// the caller's IP, their user id when the session guard already ran,
// and the matched route, so an anonymous crawler cannot starve
// logged-in browsing. Redis being down fails open.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(cfg.Prefix, c)

			res, err := bucketScript.Run(c.Request().Context(), rdb, []string{key},
				time.Now().UnixMilli(),
				cfg.Capacity,
				cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(),
				int64(cfg.TTL/time.Second),
			).Int64Slice()
			if err != nil || len(res) != 3 {
				if cfg.Debug {
					c.Logger().Warnf("ratelimit: script failed for %s: %v", key, err)
				}
				return next(c)
			}
			allowed, remaining, waitMs := res[0] == 1, res[1], res[2]

			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if !allowed {
				secs := int(math.Ceil(float64(waitMs) / 1000.0))
				c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":       "too many requests",
					"retry_after": secs,
				})
			}
			return next(c)
		}
	}
}

func rateKey(prefix string, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	caller := "anon"
	if id, ok := IdentityFrom(c); ok {
		caller = strconv.FormatUint(id.UserID, 10)
	}
	route := c.Request().Method + " " + c.Path()
	return strings.Join([]string{prefix, ip, caller, route}, ":")
}
