package ratelimit

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/todokeeper/internal/logging"
)

// KeyFunc extracts the throttling key from a request. An empty key falls
// back to the client address.
type KeyFunc func(r *http.Request) string

// Middleware rejects requests over the limit with 429. Limiter failures
// let the request through.
func Middleware(l Limiter, limit int, key KeyFunc, logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := ""
			if key != nil {
				k = key(r)
			}
			if k == "" {
				k = "ip:" + ClientIP(r)
			}

			res, err := l.Allow(r.Context(), k)
			if err != nil {
				logger.Warn(r.Context(), "rate limiter unavailable", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed {
				writeTooManyRequests(w, res)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP is the host part of the remote address.
func ClientIP(r *http.Request) string {
	return hostOf(r.RemoteAddr)
}

func writeTooManyRequests(w http.ResponseWriter, res *Result) {
	retry := int(res.RetryAfter.Seconds())
	if retry < 1 {
		retry = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retry))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": fmt.Sprintf("rate limit exceeded, retry after %d seconds", retry),
	})
}

func hostOf(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
