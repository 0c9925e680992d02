package middleware

import (
	"bytes"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/jdvansice-cloud/reservepty-api/internal/config"
)

// cachedResponse is the envelope stored in Redis for a cached HTTP
// response.
type cachedResponse struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// bodyCapture buffers the response body while forwarding it to the
// client, up to a byte limit.  Responses that exceed the limit are
// delivered but not cached.
type bodyCapture struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	size     int64
	limit    int64
	overflow bool
}

func (w *bodyCapture) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	w.size += int64(len(b))
	if w.limit > 0 && w.size > w.limit {
		w.overflow = true
	} else {
		w.buf.Write(b)
	}
	return w.ResponseWriter.Write(b)
}

// ResponseCache returns a middleware that serves successful responses
// for configured methods out of Redis.  The lookup tables and public
// browse endpoints change rarely, so even a short TTL removes most of
// their database load.  With caching disabled or Redis unavailable
// the middleware is a pass-through, and a Redis failure on the hot
// path falls back to the handler.
func ResponseCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[c.Request().Method] {
				return next(c)
			}
			key := cacheKey(cfg, c)
			ctx := c.Request().Context()

			if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
				var cached cachedResponse
				if json.Unmarshal(raw, &cached) == nil {
					h := c.Response().Header()
					for k, vs := range cached.Header {
						for _, v := range vs {
							h.Add(k, v)
						}
					}
					h.Set("X-Cache", "HIT")
					return c.Blob(cached.Status, h.Get(echo.HeaderContentType), cached.Body)
				}
			}

			cap := &bodyCapture{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: int64(cfg.MaxBodyBytes)}
			c.Response().Writer = cap
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}

			// Only complete 2xx responses are cached.
			if cap.overflow || cap.status < 200 || cap.status >= 300 {
				return nil
			}
			cached := cachedResponse{
				Status: cap.status,
				Header: http.Header{echo.HeaderContentType: c.Response().Header().Values(echo.HeaderContentType)},
				Body:   cap.buf.Bytes(),
			}
			if raw, err := json.Marshal(cached); err == nil {
				_ = rdb.Set(ctx, key, raw, cfg.TTL).Err()
			}
			return nil
		}
	}
}

// cacheKey hashes the request route (and query, depending on the
// strategy) under the configured prefix.
func cacheKey(cfg config.CacheConfig, c echo.Context) string {
	r := c.Request()
	parts := []string{c.Path()}
	switch strings.ToLower(cfg.KeyStrategy) {
	case "route":
		// path only
	case "method_route":
		parts = append([]string{r.Method}, parts...)
	default: // "route_query"
		parts = append(parts, r.URL.RawQuery)
	}
	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("%s:%x", cfg.Prefix, sum)
}
