package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLimiter struct {
	decisions []Decision
	err       error
	keys      []string
}

func (f *fakeLimiter) Allow(_ context.Context, key string) (Decision, error) {
	f.keys = append(f.keys, key)
	if f.err != nil {
		return Decision{}, f.err
	}
	d := f.decisions[0]
	f.decisions = f.decisions[1:]
	return d, nil
}

func serve(t *testing.T, l Limiter) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.POST("/book_ticket", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "success"})
	}, RateLimit(l, 5, nil))
	req := httptest.NewRequest(http.MethodPost, "/book_ticket", nil)
	req.RemoteAddr = "10.0.0.7:4242"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitAllows(t *testing.T) {
	l := &fakeLimiter{decisions: []Decision{{Allowed: true, Remaining: 4}}}
	rec := serve(t, l)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "4", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, []string{"10.0.0.7:POST /book_ticket"}, l.keys)
}

func TestRateLimitRejects(t *testing.T) {
	l := &fakeLimiter{decisions: []Decision{{Allowed: false, RetryAfter: 1500 * time.Millisecond}}}
	rec := serve(t, l)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"status":"error","msg":"Terlalu banyak permintaan, coba lagi nanti."}`, rec.Body.String())
}

func TestRateLimitFailsOpen(t *testing.T) {
	rec := serve(t, &fakeLimiter{err: errors.New("redis down")})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRedisTokenBucket(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	b := NewRedisTokenBucket(rdb, RateLimitConfig{
		Prefix:         "test-rl",
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Minute,
	})
	now := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		d, err := b.Allow(ctx, "k")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, int64(1-i), d.Remaining)
	}
	d, err := b.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, time.Minute, d.RetryAfter)

	// Other clients have their own bucket.
	d, err = b.Allow(ctx, "other")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	now = now.Add(90 * time.Second)
	d, err = b.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, d.Allowed, "one token refilled")
	assert.Equal(t, int64(0), d.Remaining)

	assert.True(t, mr.Exists("test-rl:k"))
	assert.Equal(t, 10*time.Minute, mr.TTL("test-rl:k"))
}

func TestRateLimitWithRedisBucket(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	b := NewRedisTokenBucket(rdb, RateLimitConfig{Capacity: 1, RefillTokens: 1, RefillInterval: time.Hour})

	assert.Equal(t, http.StatusOK, serve(t, b).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(t, b).Code)

	// A failing Redis lets requests through.
	mr.SetError("LOADING Redis is loading the dataset in memory")
	assert.Equal(t, http.StatusOK, serve(t, b).Code)
}
