package logger

import (
	"bytes"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"nonsense", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "short", in: "vpn", max: 10, want: "vpn"},
		{name: "exact", in: "password", max: 8, want: "password"},
		{name: "cut", in: "my outlook keeps crashing", max: 10, want: "my outl..."},
		{name: "multibyte", in: "héllo wörld", max: 6, want: "hél..."},
		{name: "tiny", in: "abcdef", max: 2, want: "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Truncate(tt.in, tt.max); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestHTTPMiddlewareLogsFailures(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(&buf, "debug", true)

	app := fiber.New()
	app.Use(HTTPMiddleware(log))
	app.Get("/ok", func(c fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/bad", func(c fiber.Ctx) error { return fiber.NewError(fiber.StatusBadRequest, "nope") })

	for _, path := range []string{"/ok", "/bad"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
	}

	out := buf.String()
	if !strings.Contains(out, `"msg":"Request handled"`) {
		t.Errorf("missing success entry in %s", out)
	}
	if !strings.Contains(out, `"msg":"Request rejected"`) || !strings.Contains(out, `"status":400`) {
		t.Errorf("missing rejected entry in %s", out)
	}
}
