package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/fedlogin/internal/validation"
)

type Config struct {
	// Bloque app (opcional en YAML).
	App struct {
		// dev | staging | prod
		Env     string `yaml:"env"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Server struct {
		Addr            string        `yaml:"addr"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		RequestTimeout  time.Duration `yaml:"request_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Social struct {
		LandingPath string `yaml:"landing_path"`
		LoginPath   string `yaml:"login_path"`
		ErrorParam  string `yaml:"error_param"`
		// nil = true
		LinkByEmail                 *bool `yaml:"link_by_email"`
		RequireVerifiedEmailForLink bool  `yaml:"require_verified_email_for_link"`
	} `yaml:"social"`

	Providers struct {
		Google struct {
			Enabled         bool          `yaml:"enabled"`
			ClientID        string        `yaml:"client_id"`
			DefaultRole     string        `yaml:"default_role"`
			VerifySignature bool          `yaml:"verify_signature"`
			JWKSURL         string        `yaml:"jwks_url"`
			JWKSRefresh     time.Duration `yaml:"jwks_refresh"`
		} `yaml:"google"`
		Facebook struct {
			Enabled     bool   `yaml:"enabled"`
			AppID       string `yaml:"app_id"`
			DefaultRole string `yaml:"default_role"`
		} `yaml:"facebook"`
	} `yaml:"providers"`

	Session struct {
		CookieName string        `yaml:"cookie_name"`
		Domain     string        `yaml:"domain"`
		SameSite   string        `yaml:"same_site"`
		Secure     bool          `yaml:"secure"`
		TTL        time.Duration `yaml:"ttl"`
	} `yaml:"session"`

	Nonce struct {
		Secret string        `yaml:"secret"`
		TTL    time.Duration `yaml:"ttl"`
	} `yaml:"nonce"`

	Directory struct {
		Driver          string        `yaml:"driver"` // memory | postgres
		DSN             string        `yaml:"dsn"`
		MaxConns        int           `yaml:"max_conns"`
		MinConns        int           `yaml:"min_conns"`
		ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
		AutoMigrate     bool          `yaml:"auto_migrate"`
	} `yaml:"directory"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Rate struct {
		Enabled     bool          `yaml:"enabled"`
		Window      time.Duration `yaml:"window"`
		MaxRequests int           `yaml:"max_requests"`
		Whitelist   []string      `yaml:"whitelist"`
	} `yaml:"rate"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Load lee el YAML en path, aplica defaults y overrides de entorno.
// path vacío = solo defaults + entorno.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	c.applyEnvOverrides()
	c.applyDefaults()
	return &c, nil
}

// sane defaults
func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = 10 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}

	if c.Social.LandingPath == "" {
		c.Social.LandingPath = "/account/"
	}
	if c.Social.LoginPath == "" {
		c.Social.LoginPath = "/login/"
	}
	if c.Social.ErrorParam == "" {
		c.Social.ErrorParam = "d3v_error_msg"
	}
	if c.Social.LinkByEmail == nil {
		t := true
		c.Social.LinkByEmail = &t
	}

	if c.Providers.Google.JWKSRefresh == 0 {
		c.Providers.Google.JWKSRefresh = time.Hour
	}

	if c.Session.CookieName == "" {
		c.Session.CookieName = "fl_session"
	}
	if c.Session.SameSite == "" {
		c.Session.SameSite = "lax"
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = 24 * time.Hour
	}

	if c.Nonce.TTL == 0 {
		c.Nonce.TTL = 12 * time.Hour
	}

	if c.Directory.Driver == "" {
		c.Directory.Driver = "memory"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "fedlogin"
	}

	if c.Rate.Window == 0 {
		c.Rate.Window = time.Minute
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 30
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// ---- Helpers env ----

const envPrefix = "FEDLOGIN_"

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(envPrefix + key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}
func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides: pisa el YAML con variables FEDLOGIN_*.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Logging.Level = v
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvDur("SERVER_REQUEST_TIMEOUT"); ok {
		c.Server.RequestTimeout = v
	}

	// SOCIAL
	if v, ok := getEnvStr("SOCIAL_LANDING_PATH"); ok {
		c.Social.LandingPath = v
	}
	if v, ok := getEnvStr("SOCIAL_LOGIN_PATH"); ok {
		c.Social.LoginPath = v
	}
	if v, ok := getEnvBool("SOCIAL_LINK_BY_EMAIL"); ok {
		c.Social.LinkByEmail = &v
	}
	if v, ok := getEnvBool("SOCIAL_REQUIRE_VERIFIED_EMAIL_FOR_LINK"); ok {
		c.Social.RequireVerifiedEmailForLink = v
	}

	// PROVIDERS
	if v, ok := getEnvBool("GOOGLE_ENABLED"); ok {
		c.Providers.Google.Enabled = v
	}
	if v, ok := getEnvStr("GOOGLE_CLIENT_ID"); ok {
		c.Providers.Google.ClientID = strings.TrimSpace(v)
	}
	if v, ok := getEnvStr("GOOGLE_DEFAULT_ROLE"); ok {
		c.Providers.Google.DefaultRole = v
	}
	if v, ok := getEnvBool("GOOGLE_VERIFY_SIGNATURE"); ok {
		c.Providers.Google.VerifySignature = v
	}
	if v, ok := getEnvBool("FACEBOOK_ENABLED"); ok {
		c.Providers.Facebook.Enabled = v
	}
	if v, ok := getEnvStr("FACEBOOK_APP_ID"); ok {
		c.Providers.Facebook.AppID = strings.TrimSpace(v)
	}
	if v, ok := getEnvStr("FACEBOOK_DEFAULT_ROLE"); ok {
		c.Providers.Facebook.DefaultRole = v
	}

	// SESSION
	if v, ok := getEnvStr("SESSION_COOKIE_NAME"); ok {
		c.Session.CookieName = v
	}
	if v, ok := getEnvStr("SESSION_DOMAIN"); ok {
		c.Session.Domain = v
	}
	if v, ok := getEnvStr("SESSION_SAMESITE"); ok {
		c.Session.SameSite = v
	}
	if v, ok := getEnvBool("SESSION_SECURE"); ok {
		c.Session.Secure = v
	}
	if v, ok := getEnvDur("SESSION_TTL"); ok {
		c.Session.TTL = v
	}

	// NONCE
	if v, ok := getEnvStr("NONCE_SECRET"); ok {
		c.Nonce.Secret = v
	}
	if v, ok := getEnvDur("NONCE_TTL"); ok {
		c.Nonce.TTL = v
	}

	// DIRECTORY
	if v, ok := getEnvStr("DIRECTORY_DRIVER"); ok {
		c.Directory.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvStr("DIRECTORY_DSN"); ok {
		c.Directory.DSN = v
	}
	if v, ok := getEnvInt("DIRECTORY_MAX_CONNS"); ok {
		c.Directory.MaxConns = v
	}
	if v, ok := getEnvBool("DIRECTORY_AUTO_MIGRATE"); ok {
		c.Directory.AutoMigrate = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = strings.ToLower(v)
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvDur("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}
	if v, ok := getEnvInt("RATE_MAX_REQUESTS"); ok {
		c.Rate.MaxRequests = v
	}
	if v, ok := getEnvCSV("RATE_WHITELIST"); ok {
		c.Rate.Whitelist = v
	}
}

// Validate verifica los valores críticos. Devuelve todos los problemas juntos.
func (c *Config) Validate() error {
	var errs []error
	if c.Providers.Google.Enabled && c.Providers.Google.ClientID == "" {
		errs = append(errs, errors.New("providers.google.client_id is required when google is enabled"))
	}
	if g := c.Providers.Google; g.VerifySignature && g.JWKSURL != "" && !validation.IsHTTPURL(g.JWKSURL) {
		errs = append(errs, fmt.Errorf("providers.google.jwks_url %q must be an http(s) url", g.JWKSURL))
	}
	if c.Providers.Facebook.Enabled && c.Providers.Facebook.AppID == "" {
		errs = append(errs, errors.New("providers.facebook.app_id is required when facebook is enabled"))
	}
	if c.Providers.Facebook.Enabled && len(strings.TrimSpace(c.Nonce.Secret)) < 16 {
		errs = append(errs, errors.New("nonce.secret must be at least 16 bytes when facebook is enabled"))
	}
	switch c.Directory.Driver {
	case "memory":
	case "postgres":
		if c.Directory.DSN == "" {
			errs = append(errs, errors.New("directory.dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("directory.driver %q not supported (memory|postgres)", c.Directory.Driver))
	}
	switch c.Cache.Kind {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("cache.kind %q not supported (memory|redis)", c.Cache.Kind))
	}
	if !strings.HasPrefix(c.Social.LandingPath, "/") || !strings.HasPrefix(c.Social.LoginPath, "/") {
		errs = append(errs, errors.New("social.landing_path and social.login_path must be absolute paths"))
	}
	if c.App.Env == "prod" && !c.Session.Secure {
		errs = append(errs, errors.New("session.secure must be true in prod"))
	}
	return errors.Join(errs...)
}

// IsProd indica si corre en producción.
func (c *Config) IsProd() bool { return c.App.Env == "prod" }
