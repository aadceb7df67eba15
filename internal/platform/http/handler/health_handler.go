// Package handler provides HTTP handlers for platform-level endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const probeTimeout = 2 * time.Second

// Probe checks one backing service.
type Probe func(ctx context.Context) error

// HealthHandler serves /healthz. The service is healthy when every probe passes.
type HealthHandler struct {
	probes map[string]Probe
}

// NewHealthHandler creates a HealthHandler. Nil probes are skipped.
func NewHealthHandler(probes map[string]Probe) *HealthHandler {
	active := make(map[string]Probe, len(probes))
	for name, p := range probes {
		if p != nil {
			active[name] = p
		}
	}
	return &HealthHandler{probes: active}
}

// Health answers 200 when every probe passes and 503 otherwise. Responses are never cached.
func (h *HealthHandler) Health(c *gin.Context) {
	c.Header("Cache-Control", "no-store")

	if c.Request.Method == http.MethodOptions {
		c.Status(http.StatusNoContent)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), probeTimeout)
	defer cancel()

	checks := make(map[string]string, len(h.probes))
	status := http.StatusOK
	for name, probe := range h.probes {
		if err := probe(ctx); err != nil {
			slog.Warn("health probe failed", "probe", name, "error", err)
			checks[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	if c.Request.Method == http.MethodHead {
		c.Status(status)
		return
	}
	body := gin.H{"status": "ok", "checks": checks}
	if status != http.StatusOK {
		body["status"] = "unavailable"
	}
	c.JSON(status, body)
}
