package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/mkarpik/storefront-api/internal/config"
)

// cachedResponse is the envelope stored in Redis for one catalog
// response. Headers are kept so a cache hit is byte-for-byte what the
// handler would have produced.
type cachedResponse struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// bodyCapture tees the response body into a buffer while it streams to
// the client, refusing to buffer past limit so a huge listing cannot
// balloon memory. over is set when the limit was exceeded; such
// responses are served normally but never stored.
type bodyCapture struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	over   bool
	limit  int
}

func (bc *bodyCapture) WriteHeader(code int) {
	bc.status = code
	bc.ResponseWriter.WriteHeader(code)
}

func (bc *bodyCapture) Write(b []byte) (int, error) {
	if !bc.over {
		if bc.limit > 0 && bc.buf.Len()+len(b) > bc.limit {
			bc.over = true
		} else {
			bc.buf.Write(b)
		}
	}
	return bc.ResponseWriter.Write(b)
}

// catalogKey derives the Redis key for a request: the matched route
// plus the raw query, hashed so arbitrary query strings cannot grow
// unbounded key material.
func catalogKey(prefix string, c echo.Context) string {
	sum := sha1.Sum([]byte(c.Path() + "?" + c.Request().URL.RawQuery))
	return fmt.Sprintf("%s:%x", prefix, sum)
}

// NewRedisCache returns the catalog response cache. Only successful GET
// responses are cached; everything else passes straight through, as
// does every request when Redis is not configured.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}

			ctx := c.Request().Context()
			key := catalogKey(cfg.Prefix, c)

			if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
				var cached cachedResponse
				if json.Unmarshal(raw, &cached) == nil {
					for k, vals := range cached.Header {
						if strings.EqualFold(k, "Content-Length") {
							continue
						}
						for _, v := range vals {
							c.Response().Header().Add(k, v)
						}
					}
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(cached.Status)
					_, _ = c.Response().Write(cached.Body)
					return nil
				}
			}

			bc := &bodyCapture{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
			c.Response().Writer = bc
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}

			if bc.status != http.StatusOK || bc.over {
				return nil
			}
			envelope := cachedResponse{
				Status: bc.status,
				Header: c.Response().Header().Clone(),
				Body:   bc.buf.Bytes(),
			}
			if raw, err := json.Marshal(envelope); err == nil {
				_ = rdb.SetEx(context.Background(), key, raw, cfg.TTL).Err()
			}
			return nil
		}
	}
}
