package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/geocoder89/taskhub/internal/http/handlers"
)

func TestReadyz(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("dial tcp: refused") }

	tests := []struct {
		name   string
		checks map[string]handlers.Pinger
		want   int
	}{
		{"no checks", nil, http.StatusOK},
		{"all up", map[string]handlers.Pinger{"postgres": ok, "redis": ok}, http.StatusOK},
		{"redis down", map[string]handlers.Pinger{"postgres": ok, "redis": down}, http.StatusServiceUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := handlers.NewHealthHandler(tc.checks)
			w := doJSON(setupRouter(http.MethodGet, "/readyz", h.Readyz, ""), http.MethodGet, "/readyz", "")
			if w.Code != tc.want {
				t.Fatalf("got %d, want %d, body=%s", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestHealthzAndRoot(t *testing.T) {
	h := handlers.NewHealthHandler(nil)

	if w := doJSON(setupRouter(http.MethodGet, "/healthz", h.Healthz, ""), http.MethodGet, "/healthz", ""); w.Code != http.StatusOK {
		t.Fatalf("healthz: got %d", w.Code)
	}
	if w := doJSON(setupRouter(http.MethodGet, "/api/", h.APIRoot, ""), http.MethodGet, "/api/", ""); w.Code != http.StatusOK {
		t.Fatalf("api root: got %d", w.Code)
	}
}

func TestReadyz_Draining(t *testing.T) {
	var draining atomic.Bool
	h := handlers.NewHealthHandler(nil).WithDraining(&draining)
	r := setupRouter(http.MethodGet, "/readyz", h.Readyz, "")

	if w := doJSON(r, http.MethodGet, "/readyz", ""); w.Code != http.StatusOK {
		t.Fatalf("before drain: got %d", w.Code)
	}

	draining.Store(true)

	if w := doJSON(r, http.MethodGet, "/readyz", ""); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("while draining: got %d", w.Code)
	}
}
