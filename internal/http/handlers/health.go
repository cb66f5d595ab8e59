package handlers

import (
	"context"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependency is a backend checked by the health endpoints. A failing
// optional dependency degrades readiness without failing it.
type Dependency struct {
	Name     string
	Pinger   Pinger
	Optional bool
}

type HealthHandler struct {
	deps    []Dependency
	started time.Time
	version string
}

// NewHealthHandler skips dependencies with a nil Pinger, so an unconfigured
// Redis simply does not show up.
func NewHealthHandler(version string, deps ...Dependency) *HealthHandler {
	h := &HealthHandler{started: time.Now(), version: version}
	for _, d := range deps {
		if d.Pinger != nil {
			h.deps = append(h.deps, d)
		}
	}
	return h
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version,omitempty"`
	Uptime    string            `json:"uptime,omitempty"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// pingAll pings every dependency. ok is false when a required one failed.
func (h *HealthHandler) pingAll(ctx context.Context) (checks map[string]string, ok bool) {
	checks = make(map[string]string, len(h.deps)+1)
	ok = true
	for _, d := range h.deps {
		err := d.Pinger.Ping(ctx)
		switch {
		case err == nil:
			checks[d.Name] = "healthy"
		case d.Optional:
			checks[d.Name] = "degraded: " + err.Error()
		default:
			checks[d.Name] = "unhealthy: " + err.Error()
			ok = false
		}
	}
	return checks, ok
}

// Liveness never touches dependencies.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks, ok := h.pingAll(ctx)

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	checks["memory_alloc_mb"] = strconv.FormatFloat(float64(m.Alloc)/(1<<20), 'f', 2, 64)

	resp := HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}
	code := http.StatusOK
	if !ok {
		resp.Status, code = "unhealthy", http.StatusServiceUnavailable
	}
	c.JSON(code, resp)
}

// Health is the short form of Readiness: status only, no details.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if _, ok := h.pingAll(ctx); !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "dependency unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": h.version})
}
