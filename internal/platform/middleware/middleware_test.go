package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/epitofcode/Cosmetic-Star-CRM/internal/platform/auth"
)

func newTestContext(method, path string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func TestRequestID_GeneratesWhenMissing(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/patients")

	h := RequestID()(okHandler)
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	rid, _ := c.Get("request_id").(string)
	if rid == "" {
		t.Fatal("expected request_id to be set on context")
	}
	if got := rec.Header().Get("X-Request-ID"); got != rid {
		t.Errorf("response header %q does not match context id %q", got, rid)
	}
}

func TestRequestID_PreservesIncomingHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/patients", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := RequestID()(okHandler)
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rid, _ := c.Get("request_id").(string); rid != "req-123" {
		t.Errorf("expected request_id req-123, got %q", rid)
	}
	if got := rec.Header().Get("X-Request-ID"); got != "req-123" {
		t.Errorf("expected echoed header req-123, got %q", got)
	}
}

func TestRecovery_ConvertsPanicTo500(t *testing.T) {
	c, _ := newTestContext(http.MethodGet, "/boom")

	h := Recovery(zerolog.Nop())(func(c echo.Context) error {
		panic("something broke")
	})

	err := h(c)
	if err == nil {
		t.Fatal("expected error from recovered panic")
	}
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T", err)
	}
	if he.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", he.Code)
	}
}

func TestLogger_PassesThrough(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/patients")

	h := Logger(zerolog.Nop())(okHandler)
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestLogger_EmitsAuthenticatedUser(t *testing.T) {
	var buf bytes.Buffer
	c, _ := newTestContext(http.MethodGet, "/patients")

	h := Logger(zerolog.New(&buf))(auth.DevAuthMiddleware()(okHandler))
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if !strings.Contains(buf.String(), `"user_id":"dev-user"`) {
		t.Errorf("expected user_id in log line, got %s", buf.String())
	}
}

func TestRateLimit_AllowsWithinBurst(t *testing.T) {
	h := RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 3})(okHandler)

	for i := 0; i < 3; i++ {
		c, _ := newTestContext(http.MethodGet, "/patients")
		if err := h(c); err != nil {
			t.Fatalf("request %d rejected: %v", i, err)
		}
	}
}

func TestRateLimit_RejectsBeyondBurst(t *testing.T) {
	h := RateLimit(RateLimitConfig{RequestsPerSecond: 0.001, BurstSize: 1})(okHandler)

	c, _ := newTestContext(http.MethodGet, "/patients")
	if err := h(c); err != nil {
		t.Fatalf("first request rejected: %v", err)
	}

	c, rec := newTestContext(http.MethodGet, "/patients")
	err := h(c)
	if err == nil {
		t.Fatal("expected rate limit error")
	}
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %v", err)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}
