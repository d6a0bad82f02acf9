package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether one dependency is reachable.
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	checks   map[string]Pinger
	draining *atomic.Bool
}

func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	if checks == nil {
		checks = map[string]Pinger{}
	}
	return &HealthHandler{checks: checks, draining: new(atomic.Bool)}
}

// WithDraining shares a flag that, once set, fails readiness so load
// balancers stop routing here while in-flight requests finish.
func (h *HealthHandler) WithDraining(flag *atomic.Bool) *HealthHandler {
	if flag != nil {
		h.draining = flag
	}
	return h
}

// Healthz is liveness only: the process is up and serving.
func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz pings every registered dependency.
func (h *HealthHandler) Readyz(ctx *gin.Context) {
	if h.draining.Load() {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "shutting_down"})
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	failed := gin.H{}
	for _, name := range names {
		if err := h.checks[name](cctx); err != nil {
			slog.Default().WarnContext(cctx, "readiness check failed", "check", name, "err", err)
			failed[name] = "unavailable"
		}
	}

	if len(failed) > 0 {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "failed": failed})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// APIRoot answers GET /api/ so clients can check they reached the API.
func (h *HealthHandler) APIRoot(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"message": "TaskHub API", "status": "ok"})
}
