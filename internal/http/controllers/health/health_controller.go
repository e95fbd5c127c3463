// Package health contiene el controller de health check.
package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/dropDatabas3/fedlogin/internal/http/helpers"
	"github.com/dropDatabas3/fedlogin/internal/observability/logger"
)

const defaultCheckTimeout = 2 * time.Second

// Pinger es cualquier dependencia que sabe responder a un ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

type componentStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type healthResponse struct {
	Status     string                     `json:"status"`
	Version    string                     `json:"version,omitempty"`
	Components map[string]componentStatus `json:"components"`
}

// HealthController maneja GET /healthz.
type HealthController struct {
	checks  map[string]Pinger
	version string
	timeout time.Duration
}

// NewHealthController crea el controller; checks mapea nombre de componente a su Pinger.
func NewHealthController(checks map[string]Pinger, version string) *HealthController {
	return &HealthController{checks: checks, version: version, timeout: defaultCheckTimeout}
}

// Healthz pinga todos los componentes en paralelo. 503 si alguno falla.
func (c *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
	defer cancel()

	resp := healthResponse{Status: "ok", Version: c.version, Components: make(map[string]componentStatus, len(c.checks))}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for name, p := range c.checks {
		wg.Add(1)
		go func(name string, p Pinger) {
			defer wg.Done()
			st := componentStatus{Status: "ok"}
			if err := p.Ping(ctx); err != nil {
				st = componentStatus{Status: "unavailable", Error: err.Error()}
			}
			mu.Lock()
			resp.Components[name] = st
			mu.Unlock()
		}(name, p)
	}
	wg.Wait()

	status := http.StatusOK
	var down []string
	for name, st := range resp.Components {
		if st.Status != "ok" {
			down = append(down, name)
		}
	}
	if len(down) > 0 {
		sort.Strings(down)
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
		logger.From(r.Context()).Warn("health check failed",
			logger.Layer("controller"), logger.Op("HealthController.Healthz"), logger.Any("down", down))
	}

	w.Header().Set("Cache-Control", "no-store")
	helpers.WriteJSON(w, status, resp)
}
