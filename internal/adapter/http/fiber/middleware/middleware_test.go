package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/seu-repo/invoice-stripe-driver/internal/domain"
	"github.com/seu-repo/invoice-stripe-driver/pkg/config"
)

const testSecret = "shared-secret"

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.RegisteredClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return s
}

func statusOf(t *testing.T, app *fiber.App, req *http.Request) int {
	t.Helper()
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp.StatusCode
}

func newAuthApp() *fiber.App {
	app := fiber.New()
	app.Use(AuthRequired(config.JWTConfig{Secret: testSecret, Issuer: "invoicing"}))
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("subject").(string))
	})
	return app
}

func TestAuthRequired(t *testing.T) {
	valid := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{
		Subject:   "host",
		Issuer:    "invoicing",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	expired := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{
		Issuer:    "invoicing",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	wrongIssuer := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{Issuer: "other"})
	wrongKey := signToken(t, jwt.SigningMethodHS256, []byte("nope"), jwt.RegisteredClaims{Issuer: "invoicing"})
	hs512 := signToken(t, jwt.SigningMethodHS512, []byte(testSecret), jwt.RegisteredClaims{Issuer: "invoicing"})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + valid, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"bad format", "Token " + valid, http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong issuer", "Bearer " + wrongIssuer, http.StatusUnauthorized},
		{"wrong key", "Bearer " + wrongKey, http.StatusUnauthorized},
		{"other algorithm", "Bearer " + hs512, http.StatusUnauthorized},
	}

	app := newAuthApp()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if got := statusOf(t, app, req); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestCircuitBreaker_OpensOnServerErrors(t *testing.T) {
	app := fiber.New()
	app.Use(CircuitBreaker(config.CircuitBreakerConfig{
		Enabled:     true,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     time.Minute,
	}, zap.NewNop()))
	app.Get("/fail", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusInternalServerError)
	})
	app.Get("/declined", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusUnprocessableEntity)
	})

	for i := 0; i < 3; i++ {
		if got := statusOf(t, app, httptest.NewRequest(http.MethodGet, "/declined", nil)); got != fiber.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", got)
		}
	}

	// 5 of 8 requests failed: ratio crosses 0.6
	for i := 0; i < 5; i++ {
		if got := statusOf(t, app, httptest.NewRequest(http.MethodGet, "/fail", nil)); got != fiber.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", got)
		}
	}

	if got := statusOf(t, app, httptest.NewRequest(http.MethodGet, "/declined", nil)); got != fiber.StatusServiceUnavailable {
		t.Errorf("expected open breaker to answer 503, got %d", got)
	}
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
	app.Get("/config", func(c *fiber.Ctx) error { return domain.ErrMissingAPIKey })
	app.Get("/missing", func(c *fiber.Ctx) error { return fiber.ErrNotFound })
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("boom") })

	for path, want := range map[string]int{
		"/config":  fiber.StatusUnprocessableEntity,
		"/missing": fiber.StatusNotFound,
		"/boom":    fiber.StatusInternalServerError,
	} {
		if got := statusOf(t, app, httptest.NewRequest(http.MethodGet, path, nil)); got != want {
			t.Errorf("%s: expected %d, got %d", path, want, got)
		}
	}
}
