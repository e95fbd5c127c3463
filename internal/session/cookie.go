package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/dropDatabas3/fedlogin/internal/observability/logger"
)

// CookieConfig son los atributos de la cookie de sesión.
type CookieConfig struct {
	Name     string
	Domain   string
	SameSite string // "", "lax", "strict", "none"
	Secure   bool
	TTL      time.Duration
}

// parseSameSite convierte el string de config a http.SameSite. Default: Lax.
func parseSameSite(s string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lax":
		return http.SameSiteLaxMode
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		logger.L().Warn("unknown cookie SameSite, using Lax", logger.String("same_site", s))
		return http.SameSiteLaxMode
	}
}

// BuildSessionCookie construye la cookie de sesión (HttpOnly, Path=/).
func BuildSessionCookie(cfg CookieConfig, value string) *http.Cookie {
	ss := parseSameSite(cfg.SameSite)
	if ss == http.SameSiteNoneMode && !cfg.Secure {
		// algunos navegadores rechazan SameSite=None sin Secure
		logger.L().Warn("cookie SameSite=None without Secure", logger.String("domain", cfg.Domain))
	}
	return &http.Cookie{
		Name:     cfg.Name,
		Value:    value,
		Path:     "/",
		Domain:   cfg.Domain,
		Expires:  time.Now().UTC().Add(cfg.TTL),
		MaxAge:   int(cfg.TTL.Seconds()),
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: ss,
	}
}

// BuildDeletionCookie devuelve una cookie que borra la sesión del browser.
// Usa mismo nombre/domain/samesite/secure para que el user-agent la sobreescriba.
func BuildDeletionCookie(cfg CookieConfig) *http.Cookie {
	return &http.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Path:     "/",
		Domain:   cfg.Domain,
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: parseSameSite(cfg.SameSite),
	}
}
