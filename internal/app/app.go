// Package app es la raíz de composición: arma directorio, sesiones, broker y router desde la config.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/fedlogin/internal/cache"
	"github.com/dropDatabas3/fedlogin/internal/config"
	"github.com/dropDatabas3/fedlogin/internal/domain/repository"
	healthctrl "github.com/dropDatabas3/fedlogin/internal/http/controllers/health"
	sessionctrl "github.com/dropDatabas3/fedlogin/internal/http/controllers/session"
	socialctrl "github.com/dropDatabas3/fedlogin/internal/http/controllers/social"
	"github.com/dropDatabas3/fedlogin/internal/http/router"
	"github.com/dropDatabas3/fedlogin/internal/metrics"
	"github.com/dropDatabas3/fedlogin/internal/oauth/facebook"
	"github.com/dropDatabas3/fedlogin/internal/oauth/google"
	"github.com/dropDatabas3/fedlogin/internal/observability/logger"
	"github.com/dropDatabas3/fedlogin/internal/rate"
	"github.com/dropDatabas3/fedlogin/internal/security/nonce"
	tokens "github.com/dropDatabas3/fedlogin/internal/security/token"
	"github.com/dropDatabas3/fedlogin/internal/session"
	"github.com/dropDatabas3/fedlogin/internal/social"
	"github.com/dropDatabas3/fedlogin/internal/social/identity"
	"github.com/dropDatabas3/fedlogin/internal/store/memory"
	"github.com/dropDatabas3/fedlogin/internal/store/pg"
	migrations "github.com/dropDatabas3/fedlogin/migrations/postgres"
)

// Container agrupa las dependencias vivas del servicio.
type Container struct {
	Config    *config.Config
	Directory repository.AccountDirectory
	Pool      *pgxpool.Pool // nil con driver memory
	Cache     cache.Client
	Redis     *redis.Client // nil con cache memory
	Sessions  *session.Manager
	Nonces    *nonce.Issuer
	Metrics   *metrics.Metrics
	Limiter   rate.Limiter
	Keys      *google.JWKSKeys // nil si no se verifica firma
	Social    social.Services
	Handler   http.Handler

	closers []func() error
}

// Options permite inyectar piezas en tests.
type Options struct {
	// Metrics nil crea uno sobre el registry default.
	Metrics *metrics.Metrics
}

// New arma el contenedor completo. Ante error cierra lo que haya abierto.
func New(ctx context.Context, cfg *config.Config, opts Options) (_ *Container, err error) {
	log := logger.L().With(logger.Layer("app"))
	c := &Container{Config: cfg}
	defer func() {
		if err != nil {
			_ = c.Close()
		}
	}()

	if err = c.openDirectory(ctx); err != nil {
		return nil, err
	}
	if err = c.openCache(ctx); err != nil {
		return nil, err
	}

	c.Sessions = session.NewManager(session.NewCacheStore(c.Cache), session.CookieConfig{
		Name:     cfg.Session.CookieName,
		Domain:   cfg.Session.Domain,
		SameSite: cfg.Session.SameSite,
		Secure:   cfg.Session.Secure,
		TTL:      cfg.Session.TTL,
	})

	secret := cfg.Nonce.Secret
	if secret == "" {
		// Sin secreto configurado los nonces no sobreviven un reinicio ni se comparten entre réplicas.
		if secret, err = tokens.GenerateOpaqueToken(32); err != nil {
			return nil, err
		}
		log.Warn("nonce.secret not set, using an ephemeral secret")
	}
	if c.Nonces, err = nonce.NewIssuer(secret, cfg.Nonce.TTL); err != nil {
		return nil, err
	}

	c.Metrics = opts.Metrics
	if c.Metrics == nil {
		if c.Metrics, err = metrics.New(nil); err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
	}
	if c.Pool != nil {
		if err = c.Metrics.RegisterPool(nil, c.Pool); err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
	}

	if cfg.Rate.Enabled {
		if c.Redis != nil {
			c.Limiter = rate.NewRedisLimiter(c.Redis, cfg.Cache.Redis.Prefix+":rl:", cfg.Rate.MaxRequests, cfg.Rate.Window)
		} else {
			c.Limiter = rate.NewMemoryLimiter("rl:", cfg.Rate.MaxRequests, cfg.Rate.Window)
		}
	}

	providers := cfg.ProviderRegistry()
	gopts := google.Options{Config: providers}
	if cfg.Providers.Google.VerifySignature {
		c.Keys = google.NewJWKSKeys(cfg.Providers.Google.JWKSURL, nil, cfg.Providers.Google.JWKSRefresh)
		gopts.Keys = c.Keys
	}

	c.Social = social.NewServices(social.Deps{
		Directory: c.Directory,
		Config:    providers,
		Validators: map[identity.Provider]social.CredentialValidator{
			identity.Google:   google.NewValidator(gopts),
			identity.Facebook: facebook.NewValidator(),
		},
		LinkPolicy: social.LinkPolicy{
			LinkByEmail:          cfg.Social.LinkByEmail == nil || *cfg.Social.LinkByEmail,
			RequireVerifiedEmail: cfg.Social.RequireVerifiedEmailForLink,
		},
		LandingPath: cfg.Social.LandingPath,
		Recorder:    c.Metrics,
	})

	c.Handler = router.New(router.Deps{
		Social: socialctrl.NewControllers(socialctrl.Deps{
			Broker:     c.Social.Broker,
			Sessions:   c.Sessions,
			Nonces:     c.Nonces,
			Providers:  providers,
			LoginPath:  cfg.Social.LoginPath,
			ErrorParam: cfg.Social.ErrorParam,
		}),
		Session: sessionctrl.NewControllers(c.Sessions),
		Health: healthctrl.NewHealthController(map[string]healthctrl.Pinger{
			"directory": c.Directory,
			"sessions":  c.Sessions.Store(),
		}, cfg.App.Version),
		Metrics:        c.Metrics,
		RateLimiter:    c.Limiter,
		RateWhitelist:  cfg.Rate.Whitelist,
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	log.Info("container ready",
		logger.String("directory", cfg.Directory.Driver),
		logger.String("cache", cfg.Cache.Kind),
		logger.Bool("rate_limit", c.Limiter != nil),
		logger.Int("providers_enabled", len(providers.Enabled())),
	)
	return c, nil
}

func (c *Container) openDirectory(ctx context.Context) error {
	cfg := c.Config.Directory
	switch cfg.Driver {
	case "memory":
		c.Directory = memory.NewDirectory()
		return nil
	case "postgres":
		pool, err := pg.NewPool(ctx, cfg.DSN, pg.PoolConfig{
			MaxConns:        cfg.MaxConns,
			MinConns:        cfg.MinConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
		})
		if err != nil {
			return fmt.Errorf("directory: %w", err)
		}
		c.Pool = pool
		c.closers = append(c.closers, func() error { pool.Close(); return nil })

		if cfg.AutoMigrate {
			res, err := pg.NewMigrator(migrations.AccountsFS, migrations.AccountsDir).Run(ctx, pool)
			if err != nil {
				return fmt.Errorf("directory: migrate: %w", err)
			}
			logger.L().Info("migrations applied",
				logger.Layer("app"), logger.Any("applied", res.Applied), logger.Int("skipped", len(res.Skipped)))
		}
		c.Directory = pg.NewDirectory(pool)
		return nil
	}
	return fmt.Errorf("directory: driver %q not supported", cfg.Driver)
}

func (c *Container) openCache(ctx context.Context) error {
	cfg := c.Config.Cache
	switch cfg.Kind {
	case "memory":
		c.Cache = cache.NewMemory(cfg.Redis.Prefix)
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pctx).Err(); err != nil {
			_ = rdb.Close()
			return fmt.Errorf("cache: redis ping failed: %w", err)
		}
		c.Redis = rdb
		c.Cache = cache.NewRedisFromClient(rdb, cfg.Redis.Prefix)
	default:
		return fmt.Errorf("cache: kind %q not supported", cfg.Kind)
	}
	c.closers = append(c.closers, c.Cache.Close)
	return nil
}

// Start lanza los loops de fondo (refresh de JWKS) hasta que ctx se cancele.
func (c *Container) Start(ctx context.Context) {
	if c.Keys != nil {
		// carga inicial antes de servir; si falla, Run reintenta y los tokens RS256 se rechazan mientras tanto
		if err := c.Keys.Refresh(ctx); err != nil {
			logger.From(ctx).Warn("initial jwks load failed", logger.Component("app"), logger.Err(err))
		}
		go c.Keys.Run(ctx, c.Config.Providers.Google.JWKSRefresh)
	}
}

// Close libera recursos en orden inverso de apertura.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
