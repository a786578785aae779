package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
)

func TestRequestIDGenerated(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/test", func(c fiber.Ctx) error {
		if GetRequestID(c) == "" {
			t.Error("request ID should not be empty")
		}
		return c.SendString("OK")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("response should carry X-Request-ID header")
	}
}

func TestRequestIDPropagated(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/test", func(c fiber.Ctx) error { return c.SendString("OK") })

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", "client-supplied")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if got := resp.Header.Get("X-Request-ID"); got != "client-supplied" {
		t.Errorf("expected client-supplied, got %s", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	app := fiber.New()
	app.Use(CORS(DefaultCORSConfig()))
	app.Post("/api/chat", func(c fiber.Ctx) error { return c.SendString("OK") })

	req := httptest.NewRequest("OPTIONS", "/api/chat", nil)
	req.Header.Set("Origin", "https://example.com")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNoContent {
		t.Errorf("preflight should answer 204, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "https://example.com" {
		t.Error("allow-all config should echo the origin")
	}
	if resp.Header.Get("Access-Control-Allow-Methods") == "" {
		t.Error("preflight should list allowed methods")
	}
}

func TestCORSSimpleRequest(t *testing.T) {
	app := fiber.New()
	app.Use(CORS(DefaultCORSConfig()))
	app.Get("/test", func(c fiber.Ctx) error { return c.SendString("OK") })

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Origin", "https://example.com")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "https://example.com" {
		t.Error("CORS headers missing on simple request")
	}
}

func TestCORSForbiddenOrigin(t *testing.T) {
	app := fiber.New()
	app.Use(CORS(CORSConfig{AllowedOrigins: []string{"https://allowed.example.com"}}))
	app.Get("/test", func(c fiber.Ctx) error { return c.SendString("OK") })

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Origin", "https://evil.example.org")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Errorf("expected 403, got %d", resp.StatusCode)
	}
}

func TestRecoveryCatchesPanic(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Use(Recovery())
	app.Get("/panic", func(c fiber.Ctx) error {
		panic("test panic")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/panic", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Errorf("expected 500, got %d", resp.StatusCode)
	}
}
