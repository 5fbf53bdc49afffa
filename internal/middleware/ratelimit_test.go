package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_BurstThenReject(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	app := drift.New()
	app.Use(rl.Middleware())
	app.Post("/apply", func(c *drift.Context) {
		_ = c.JSON(http.StatusCreated, map[string]string{"status": "ok"})
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/apply", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusCreated, http.StatusCreated, http.StatusTooManyRequests}, codes)
}

func TestRateLimiter_SeparateBucketsPerIP(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	app := drift.New()
	app.Use(rl.Middleware())
	app.Post("/apply", func(c *drift.Context) {
		_ = c.JSON(http.StatusCreated, nil)
	})

	for _, ip := range []string{"10.0.0.1:1", "10.0.0.2:1"} {
		req := httptest.NewRequest(http.MethodPost, "/apply", nil)
		req.RemoteAddr = ip
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusCreated, rec.Code)
	}
}

func TestRateLimiter_KeysAuthenticatedUsers(t *testing.T) {
	jwtSvc := newTestJWTService()
	rl := NewRateLimiter(1, 1)
	app := drift.New()
	app.Use(Auth(jwtSvc))
	app.Use(rl.Middleware())
	app.Post("/apply", func(c *drift.Context) {
		_ = c.JSON(http.StatusCreated, nil)
	})

	alice := generateTestToken(t, jwtSvc, uuid.New(), "alice@example.com")
	bob := generateTestToken(t, jwtSvc, uuid.New(), "bob@example.com")

	send := func(token string) int {
		req := httptest.NewRequest(http.MethodPost, "/apply", nil)
		req.RemoteAddr = "10.0.0.1:1"
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusCreated, send(alice))
	assert.Equal(t, http.StatusTooManyRequests, send(alice))
	assert.Equal(t, http.StatusCreated, send(bob))
}

func TestRateLimiter_Sweep(t *testing.T) {
	rl := NewRateLimiter(60, 1)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.allow("a")
	now = now.Add(5 * time.Minute)
	rl.allow("b")
	now = now.Add(6 * time.Minute)

	assert.Equal(t, 1, rl.Sweep())
	_, stillThere := rl.buckets["b"]
	assert.True(t, stillThere)
}

func TestClientIP_ForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	assert.Equal(t, "203.0.113.7", clientIP(req))
}
