// Package metrics expone las métricas Prometheus del servicio: intentos de login,
// cuentas creadas/vinculadas, latencia HTTP y estado del pool de Postgres.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fedlogin"

// Metrics agrupa los collectors. Implementa social.Recorder.
type Metrics struct {
	gatherer prometheus.Gatherer

	loginAttempts *prometheus.CounterVec
	provisioned   *prometheus.CounterVec
	linked        *prometheus.CounterVec

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInflight        *prometheus.GaugeVec
}

// New registra las métricas en reg. Un registry nil usa el default de Prometheus.
func New(reg *prometheus.Registry) (*Metrics, error) {
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if reg != nil {
		registerer, gatherer = reg, reg
	}

	m := &Metrics{gatherer: gatherer}
	var err error
	if m.loginAttempts, err = register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Intentos de login federado por provider, resultado y motivo",
	}, []string{"provider", "outcome", "reason"})); err != nil {
		return nil, err
	}
	if m.provisioned, err = register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "accounts_provisioned_total",
		Help:      "Cuentas creadas en el primer login",
	}, []string{"provider"})); err != nil {
		return nil, err
	}
	if m.linked, err = register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "accounts_linked_total",
		Help:      "Cuentas existentes vinculadas por email",
	}, []string{"provider"})); err != nil {
		return nil, err
	}
	if m.httpRequestsTotal, err = register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Número total de requests procesadas",
	}, []string{"method", "path", "status"})); err != nil {
		return nil, err
	}
	if m.httpRequestDuration, err = register(registerer, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Latencia de los requests HTTP",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})); err != nil {
		return nil, err
	}
	if m.httpInflight, err = register(registerer, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "http_inflight_requests",
		Help: "Requests en vuelo por método y ruta",
	}, []string{"method", "path"})); err != nil {
		return nil, err
	}
	return m, nil
}

// Handler sirve /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) LoginAttempt(provider, outcome, reason string) {
	m.loginAttempts.WithLabelValues(provider, outcome, reason).Inc()
}

func (m *Metrics) AccountProvisioned(provider string) {
	m.provisioned.WithLabelValues(provider).Inc()
}

func (m *Metrics) AccountLinked(provider string) {
	m.linked.WithLabelValues(provider).Inc()
}

// RegisterPool expone gauges del pool de Postgres.
func (m *Metrics) RegisterPool(reg prometheus.Registerer, pool *pgxpool.Pool) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	_, err := register[prometheus.Collector](reg, newPoolCollector(pool))
	return err
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware instrumenta requests HTTP (contadores, latencia, inflight).
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := strings.ToUpper(r.Method)
		pathLabel := normalizePath(r.URL.Path)

		m.httpInflight.WithLabelValues(method, pathLabel).Inc()
		start := time.Now()

		rec := &statusRecorder{ResponseWriter: w}
		defer func() {
			m.httpInflight.WithLabelValues(method, pathLabel).Dec()
			m.httpRequestDuration.WithLabelValues(method, pathLabel).Observe(time.Since(start).Seconds())

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			m.httpRequestsTotal.WithLabelValues(method, pathLabel, strconv.Itoa(status)).Inc()
		}()

		next.ServeHTTP(rec, r)
	})
}

// register registra c; si ya había uno igual registrado devuelve el existente.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if prev, ok := are.ExistingCollector.(T); ok {
				return prev, nil
			}
			return c, nil
		}
		return c, err
	}
	return c, nil
}
