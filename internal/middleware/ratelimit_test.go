package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/insights/internal/config"
)

func TestRateLimit_Disabled(t *testing.T) {
	app := fiber.New()
	app.Use(RateLimit(config.RateLimitConfig{Enabled: false}))
	app.Get("/test", func(c *fiber.Ctx) error { return c.SendString("OK") })

	for i := 0; i < 20; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
		if err != nil {
			t.Fatalf("Failed to test request: %v", err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("Request %d: expected 200, got %d", i, resp.StatusCode)
		}
	}
}

func TestRateLimit_RejectsAboveBurst(t *testing.T) {
	app := fiber.New()
	app.Use(RateLimit(config.RateLimitConfig{Enabled: true, RequestsPerSecond: 0.001, Burst: 2}))
	app.Get("/test", func(c *fiber.Ctx) error { return c.SendString("OK") })

	statuses := make([]int, 3)
	var retryAfter string
	for i := range statuses {
		resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
		if err != nil {
			t.Fatalf("Failed to test request: %v", err)
		}
		statuses[i] = resp.StatusCode
		retryAfter = resp.Header.Get(fiber.HeaderRetryAfter)
	}

	if statuses[0] != fiber.StatusOK || statuses[1] != fiber.StatusOK {
		t.Errorf("Expected first two requests to pass, got %v", statuses)
	}
	if statuses[2] != fiber.StatusTooManyRequests {
		t.Errorf("Expected third request to be limited, got %d", statuses[2])
	}
	if retryAfter == "" {
		t.Error("Expected Retry-After header on limited response")
	}
}

func TestIPLimiter_PerClientAndSweep(t *testing.T) {
	l := newIPLimiter(0.001, 1)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	if !l.allow("10.0.0.1") {
		t.Fatal("first request from client 1 should pass")
	}
	if l.allow("10.0.0.1") {
		t.Error("second request from client 1 should be limited")
	}
	if !l.allow("10.0.0.2") {
		t.Error("client 2 has its own bucket")
	}

	now = now.Add(limiterIdleTTL + 2*time.Minute)
	l.allow("10.0.0.3")
	if _, ok := l.clients["10.0.0.1"]; ok {
		t.Error("idle client should have been swept")
	}
}
