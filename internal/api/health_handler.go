package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/memology/memology-api/internal/api/shared"
	"github.com/memology/memology-api/internal/redact"
)

// healthCheckTimeout bounds each dependency probe.
const healthCheckTimeout = 5 * time.Second

// Pinger is implemented by every dependency that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to the Pinger interface.
type PingerFunc func(ctx context.Context) error

// Ping calls f(ctx).
func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler serves liveness and readiness endpoints. Readiness is
// the AND of all registered dependency probes.
type HealthHandler struct {
	checks map[string]Pinger
	logger *slog.Logger
}

// NewHealthHandler creates a HealthHandler probing the named
// dependencies.
func NewHealthHandler(checks map[string]Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		checks: checks,
		logger: logger.With("component", "health_handler"),
	}
}

// Live handles GET /health and GET /health/live: the process is up.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles GET /health/ready: 200 when every dependency is
// reachable, 503 otherwise.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	results := h.probe(r.Context())

	healthy := true
	for _, err := range results {
		if err != nil {
			healthy = false
			break
		}
	}

	if !healthy {
		shared.RespondWithJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

// Services handles GET /health/services: the per-dependency view.
func (h *HealthHandler) Services(w http.ResponseWriter, r *http.Request) {
	results := h.probe(r.Context())

	services := make(map[string]string, len(results))
	status := http.StatusOK
	for name, err := range results {
		if err != nil {
			services[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		services[name] = "ok"
	}

	shared.RespondWithJSON(w, r, status, map[string]interface{}{"services": services})
}

// probe runs all dependency checks concurrently.
func (h *HealthHandler) probe(ctx context.Context) map[string]error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	var mu sync.Mutex
	results := make(map[string]error, len(h.checks))

	g, ctx := errgroup.WithContext(ctx)
	for name, pinger := range h.checks {
		g.Go(func() error {
			err := pinger.Ping(ctx)
			if err != nil {
				h.logger.Warn("dependency check failed",
					"service", name,
					"error", redact.Error(err))
			}
			mu.Lock()
			results[name] = err
			mu.Unlock()
			// Degraded dependencies are reported, not propagated: all
			// probes must run to completion.
			return nil
		})
	}
	_ = g.Wait()

	return results
}
