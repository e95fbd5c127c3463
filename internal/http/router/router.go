// Package router arma el árbol de rutas chi del servicio.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	healthctrl "github.com/dropDatabas3/fedlogin/internal/http/controllers/health"
	sessionctrl "github.com/dropDatabas3/fedlogin/internal/http/controllers/session"
	socialctrl "github.com/dropDatabas3/fedlogin/internal/http/controllers/social"
	httperrors "github.com/dropDatabas3/fedlogin/internal/http/errors"
	mw "github.com/dropDatabas3/fedlogin/internal/http/middlewares"
	"github.com/dropDatabas3/fedlogin/internal/rate"
)

// Deps contiene lo necesario para construir el router.
type Deps struct {
	Social  *socialctrl.Controllers
	Session *sessionctrl.Controllers
	Health  *healthctrl.HealthController

	// Metrics es opcional: instrumenta requests y sirve /metrics.
	Metrics interface {
		Middleware(http.Handler) http.Handler
		Handler() http.Handler
	}

	// RateLimiter es opcional; solo aplica a los POST de login.
	RateLimiter   rate.Limiter
	RateWhitelist []string

	RequestTimeout time.Duration
}

// New construye el handler raíz.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.WithRecover(), mw.WithRequestID())
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	// Infra: sin logging por request (muy frecuentes).
	if d.Health != nil {
		r.Get("/healthz", d.Health.Healthz)
	}
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(mw.WithSecurityHeaders(), mw.WithLogging(), mw.WithTimeout(d.RequestTimeout))
		registerSocialRoutes(r, d)
		registerSessionRoutes(r, d)
	})

	return r
}

func registerSocialRoutes(r chi.Router, d Deps) {
	c := d.Social
	if c == nil {
		return
	}
	r.Route("/v1/social", func(r chi.Router) {
		r.Get("/providers", c.Providers.List)

		r.Group(func(r chi.Router) {
			r.Use(mw.WithNoStore())
			r.Get("/nonce", c.Nonce.Issue)

			r.Group(func(r chi.Router) {
				r.Use(mw.WithRateLimit(mw.RateLimitConfig{
					Limiter:   d.RateLimiter,
					KeyFunc:   mw.IPPathRateKey,
					Whitelist: d.RateWhitelist,
				}))
				r.Post("/google", c.Google.Login)
				r.Post("/facebook", c.Facebook.Login)
			})
		})
	})
}

func registerSessionRoutes(r chi.Router, d Deps) {
	c := d.Session
	if c == nil {
		return
	}
	r.With(mw.WithNoStore()).Post("/v1/session/logout", c.Logout.Logout)
}
