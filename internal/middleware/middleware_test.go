package middleware_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"camwatch/internal/domain"
	"camwatch/internal/middleware"
	"camwatch/pkg/e"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), &slog.HandlerOptions{Level: slog.LevelError}))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
}

func TestAPIKeyMiddleware(t *testing.T) {
	t.Parallel()

	h := middleware.APIKeyMiddleware("secret")(okHandler())
	cases := []struct {
		name string
		key  string
		want int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong", "nope", http.StatusUnauthorized},
		{"ok", "secret", http.StatusNoContent},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if c.key != "" {
				req.Header.Set(middleware.APIKeyHeader, c.key)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != c.want {
				t.Fatalf("expected %d got %d", c.want, rr.Code)
			}
		})
	}
}

func TestIdentity(t *testing.T) {
	t.Parallel()

	var seen domain.Viewer
	h := middleware.Identity(newTestLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = middleware.ViewerFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.UserIDHeader, "officer-7")
	req.Header.Set(middleware.UserRoleHeader, "police")
	req.Header.Set(middleware.UserVerifiedHeader, "true")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d body=%s", rr.Code, rr.Body.String())
	}
	want := domain.Viewer{UserID: "officer-7", Role: domain.RolePolice, Verified: true}
	if seen != want {
		t.Fatalf("unexpected viewer %+v", seen)
	}
}

func TestIdentity_Rejects(t *testing.T) {
	t.Parallel()

	h := middleware.Identity(newTestLogger())(okHandler())
	cases := []struct {
		name    string
		headers map[string]string
		want    int
	}{
		{"no_user", map[string]string{}, http.StatusUnauthorized},
		{"bad_role", map[string]string{middleware.UserIDHeader: "u", middleware.UserRoleHeader: "mayor"}, http.StatusBadRequest},
		{"bad_verified", map[string]string{middleware.UserIDHeader: "u", middleware.UserVerifiedHeader: "perhaps"}, http.StatusBadRequest},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range c.headers {
				req.Header.Set(k, v)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != c.want {
				t.Fatalf("expected %d got %d", c.want, rr.Code)
			}
		})
	}
}

func TestLimit_PerViewer(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := middleware.Limit(ctx, 0.001, 1, time.Minute, newTestLogger())(okHandler())

	call := func(user string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(middleware.WithViewer(req.Context(), domain.Viewer{UserID: user}))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	if got := call("a"); got != http.StatusNoContent {
		t.Fatalf("first call expected 204 got %d", got)
	}
	if got := call("a"); got != http.StatusTooManyRequests {
		t.Fatalf("second call expected 429 got %d", got)
	}
	if got := call("b"); got != http.StatusNoContent {
		t.Fatalf("other viewer expected 204 got %d", got)
	}
}

func TestBindJSON(t *testing.T) {
	t.Parallel()

	type body struct {
		Name string  `json:"name" validate:"required"`
		Lat  float64 `json:"lat" validate:"lat"`
	}
	cases := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"ok", `{"name":"porch","lat":51.5}`, false},
		{"empty", ``, true},
		{"broken", `{bad`, true},
		{"unknown_field", `{"name":"x","lat":1,"foo":2}`, true},
		{"trailing", `{"name":"x","lat":1}{}`, true},
		{"invalid_lat", `{"name":"x","lat":91}`, true},
		{"missing_name", `{"lat":1}`, true},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(c.in))
			var out body
			err := middleware.BindJSON(req, &out)
			if c.wantErr {
				if !errors.Is(err, e.ErrInvalidInput) {
					t.Fatalf("expected invalid input, got %v", err)
				}
				return
			}
			if err != nil || out.Name != "porch" {
				t.Fatalf("unexpected result %+v %v", out, err)
			}
		})
	}
}
