package ratelimit

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/logging"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

// countingLimiter allows the first limit calls per key.
type countingLimiter struct {
	limit int
	seen  map[string]int
	err   error
}

func (c *countingLimiter) Allow(ctx context.Context, key string) (*Result, error) {
	if c.err != nil {
		return nil, c.err
	}
	if c.seen == nil {
		c.seen = map[string]int{}
	}
	c.seen[key]++
	n := c.seen[key]
	if n > c.limit {
		return &Result{Allowed: false, ResetAt: time.Now().Add(time.Minute), RetryAfter: 1500 * time.Millisecond}, nil
	}
	return &Result{Allowed: true, Remaining: c.limit - n, ResetAt: time.Now().Add(time.Minute)}, nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
}

func TestMiddleware_Throttles(t *testing.T) {
	l := &countingLimiter{limit: 2}
	h := Middleware(l, 2, nil, nopLogger{})(okHandler())

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "rate limit exceeded")

	// httptest requests come from 192.0.2.1
	assert.Equal(t, 3, l.seen["ip:192.0.2.1"])
}

func TestMiddleware_KeyFunc(t *testing.T) {
	l := &countingLimiter{limit: 1}
	key := func(r *http.Request) string { return r.Header.Get("X-User") }
	h := Middleware(l, 1, key, nopLogger{})(okHandler())

	for _, user := range []string{"alice", "bob", ""} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-User", user)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code, user)
	}
	assert.Equal(t, 1, l.seen["alice"])
	assert.Equal(t, 1, l.seen["ip:192.0.2.1"])
}

func TestMiddleware_FailsOpen(t *testing.T) {
	h := Middleware(&countingLimiter{err: errors.New("redis down")}, 1, nil, nopLogger{})(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "[::1]:4242"
	assert.Equal(t, "::1", ClientIP(r))

	r.RemoteAddr = "garbage"
	assert.Equal(t, "garbage", ClientIP(r))
}

func TestUnaryServerInterceptor(t *testing.T) {
	l := &countingLimiter{limit: 1}
	i := UnaryServerInterceptor(l, nopLogger{})

	ctx := peer.NewContext(context.Background(), &peer.Peer{Addr: &net.TCPAddr{IP: net.ParseIP("10.0.0.7"), Port: 5000}})
	handler := func(ctx context.Context, req any) (any, error) { return "ok", nil }
	info := &grpc.UnaryServerInfo{FullMethod: "/todokeeper.TodoService/ListTasks"}

	resp, err := i(ctx, nil, info, handler)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)

	_, err = i(ctx, nil, info, handler)
	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.ResourceExhausted, st.Code())
	assert.Equal(t, 2, l.seen["grpc:10.0.0.7"])
}

func TestParseResult(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	res, err := parseResult([]any{int64(1), int64(4), int64(0)}, now, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 4, res.Remaining)
	assert.Equal(t, now.Add(time.Minute), res.ResetAt)
	assert.Zero(t, res.RetryAfter)

	res, err = parseResult([]any{int64(0), int64(0), int64(2500)}, now, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 2500*time.Millisecond, res.RetryAfter)

	_, err = parseResult([]any{int64(1)}, now, time.Minute)
	assert.Error(t, err)

	_, err = parseResult([]any{"1", int64(0), int64(0)}, now, time.Minute)
	assert.Error(t, err)
}

func TestSlidingWindowLimiter_Redis(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Redis not available, skipping integration test")
	}

	prefix := "test:todokeeper:ratelimit:"
	defer client.Del(ctx, prefix+"k", prefix+"k:seq", prefix+"other", prefix+"other:seq")

	l := NewSlidingWindowLimiter(client, Config{Requests: 3, Window: time.Minute}, prefix)

	for i := 0; i < 3; i++ {
		res, err := l.Allow(ctx, "k")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 3-i-1, res.Remaining)
	}

	res, err := l.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Positive(t, res.RetryAfter)

	res, err = l.Allow(ctx, "other")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}
