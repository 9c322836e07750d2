package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dentflow/dentflow/internal/platform/auth"
)

func TestRequestIDGenerated(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen string
	h := RequestID()(func(c echo.Context) error {
		seen, _ = c.Get("request_id").(string)
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}

	if seen == "" {
		t.Fatal("request_id not set in context")
	}
	if _, err := uuid.Parse(seen); err != nil {
		t.Errorf("generated id %q is not a uuid", seen)
	}
	if got := rec.Header().Get(RequestIDHeader); got != seen {
		t.Errorf("response header = %q, want %q", got, seen)
	}
}

func TestRequestIDPropagated(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-id")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := RequestID()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}

	if got := rec.Header().Get(RequestIDHeader); got != "upstream-id" {
		t.Errorf("response header = %q, want upstream-id", got)
	}
	if got, _ := c.Get("request_id").(string); got != "upstream-id" {
		t.Errorf("context request_id = %q, want upstream-id", got)
	}
	if got := RequestIDFromContext(c); got != "upstream-id" {
		t.Errorf("RequestIDFromContext = %q, want upstream-id", got)
	}
}

func TestLoggerIncludesRequestAndUserFields(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/patients?search=anders", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	chain := RequestID()(auth.DevAuthMiddleware()(Logger(logger)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})))
	if err := chain(c); err != nil {
		t.Fatalf("handler: %v", err)
	}

	line := buf.String()
	for _, want := range []string{
		`"request_id":"req-123"`,
		`"user_id":"dev-user"`,
		`"roles":["admin"]`,
		`"search":"anders"`,
		`"method":"GET"`,
	} {
		if !strings.Contains(line, want) {
			t.Errorf("log line missing %s: %s", want, line)
		}
	}
}

func TestLoggerSkipsUserFieldsWhenUnauthenticated(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := Logger(logger)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}

	if strings.Contains(buf.String(), "user_id") {
		t.Errorf("unauthenticated request logged user_id: %s", buf.String())
	}
}

func TestRecoveryConvertsPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-456")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	chain := RequestID()(Recovery(logger)(func(c echo.Context) error {
		panic("boom")
	}))
	err := chain(c)

	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 HTTPError, got %v", err)
	}
	line := buf.String()
	if !strings.Contains(line, `"panic":"boom"`) {
		t.Errorf("log line missing panic value: %s", line)
	}
	if !strings.Contains(line, `"request_id":"req-456"`) {
		t.Errorf("log line missing request id: %s", line)
	}
}
