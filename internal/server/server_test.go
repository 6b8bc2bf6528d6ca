package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/edgard/helpdeskbot/internal/config"
	"github.com/edgard/helpdeskbot/internal/errs"
	"github.com/edgard/helpdeskbot/internal/metrics"
)

type fakeWebhook struct {
	err        error
	authHeader string
	body       string
}

func (f *fakeWebhook) Process(_ context.Context, authHeader string, body []byte) error {
	f.authHeader = authHeader
	f.body = string(body)
	return f.err
}

type checkFunc func(ctx context.Context) error

func (f checkFunc) Ping(ctx context.Context) error { return f(ctx) }

func newTestServer(t *testing.T, hook Webhook, mutate func(*Deps)) (*Server, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	deps := Deps{
		Config: config.ServerConfig{
			Addr:         ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
		Logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
		Webhook:          hook,
		Metrics:          metrics.New(reg),
		Gatherer:         reg,
		Version:          "test",
		KnowledgeEntries: 4,
	}
	if mutate != nil {
		mutate(&deps)
	}
	return New(deps), reg
}

func TestMessagesStatusMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "processed", err: nil, wantStatus: http.StatusOK},
		{name: "malformed", err: errs.NewValidationError("malformed activity", nil), wantStatus: http.StatusBadRequest},
		{name: "unauthorized", err: errs.NewUnauthorizedError("invalid bearer token", nil), wantStatus: http.StatusUnauthorized},
		{name: "other failure acknowledged", err: errors.New("boom"), wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hook := &fakeWebhook{err: tt.err}
			s, _ := newTestServer(t, hook, nil)

			req := httptest.NewRequest(http.MethodPost, routeMessages, strings.NewReader(`{"type":"message"}`))
			req.Header.Set("Authorization", "Bearer abc")
			req.Header.Set("Content-Type", "application/json")
			resp, err := s.App.Test(req)
			if err != nil {
				t.Fatalf("Test() error = %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if hook.authHeader != "Bearer abc" || hook.body != `{"type":"message"}` {
				t.Errorf("webhook got header %q body %q", hook.authHeader, hook.body)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		checks     map[string]Checker
		wantStatus string
		wantChecks map[string]string
	}{
		{
			name:       "healthy",
			checks:     map[string]Checker{"database": checkFunc(func(context.Context) error { return nil })},
			wantStatus: "healthy",
			wantChecks: map[string]string{"database": "ok"},
		},
		{
			name: "degraded",
			checks: map[string]Checker{
				"database":  checkFunc(func(context.Context) error { return nil }),
				"quickbase": checkFunc(func(context.Context) error { return errors.New("timeout") }),
			},
			wantStatus: "degraded",
			wantChecks: map[string]string{"database": "ok", "quickbase": "error: timeout"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, _ := newTestServer(t, &fakeWebhook{}, func(d *Deps) { d.Checks = tt.checks })

			resp, err := s.App.Test(httptest.NewRequest(http.MethodGet, routeHealth, nil))
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			var got healthResponse
			if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
				t.Fatal(err)
			}
			if got.Status != tt.wantStatus || got.Version != "test" || got.KnowledgeEntries != 4 {
				t.Errorf("health = %+v", got)
			}
			for name, want := range tt.wantChecks {
				if got.Checks[name] != want {
					t.Errorf("check %s = %q, want %q", name, got.Checks[name], want)
				}
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, &fakeWebhook{}, nil)

	post := httptest.NewRequest(http.MethodPost, routeMessages, strings.NewReader(`{}`))
	if _, err := s.App.Test(post); err != nil {
		t.Fatal(err)
	}

	resp, err := s.App.Test(httptest.NewRequest(http.MethodGet, routeMetrics, nil))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `helpdesk_request_duration_seconds_count{route="/api/messages"} 1`) {
		t.Errorf("request histogram missing from exposition:\n%s", body)
	}
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, &fakeWebhook{}, func(d *Deps) { d.Config.RateLimit = 2 })

	var last int
	for range 3 {
		resp, err := s.App.Test(httptest.NewRequest(http.MethodGet, routeHealth, nil))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		last = resp.StatusCode
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want 429", last)
	}
}

func TestUnknownRoute(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, &fakeWebhook{}, nil)

	resp, err := s.App.Test(httptest.NewRequest(http.MethodGet, "/nope", nil))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotFound || body["error"] == "" {
		t.Errorf("status = %d body = %v", resp.StatusCode, body)
	}
}
