package system_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"camwatch/internal/api/handlers/http/system"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestSystemHealth(t *testing.T) {
	t.Parallel()

	h := system.NewHandler(newTestLogger(), nil)
	rr := httptest.NewRecorder()
	h.SystemHealth(rr, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("unexpected response %d %q", rr.Code, rr.Body.String())
	}
}

func TestSystemReady(t *testing.T) {
	t.Parallel()

	up := system.PingFunc(func(context.Context) error { return nil })
	down := system.PingFunc(func(context.Context) error { return errors.New("refused") })

	cases := []struct {
		name string
		deps map[string]system.Pinger
		want int
	}{
		{"all_up", map[string]system.Pinger{"postgres": up, "redis": up}, http.StatusOK},
		{"redis_down", map[string]system.Pinger{"postgres": up, "redis": down}, http.StatusServiceUnavailable},
		{"no_deps", nil, http.StatusOK},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			h := system.NewHandler(newTestLogger(), c.deps)
			rr := httptest.NewRecorder()
			h.SystemReady(rr, httptest.NewRequest(http.MethodGet, "/api/v1/ready", nil))
			if rr.Code != c.want {
				t.Fatalf("expected %d got %d body=%s", c.want, rr.Code, rr.Body.String())
			}
		})
	}
}
