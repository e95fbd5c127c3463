package social

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/dropDatabas3/fedlogin/internal/http/helpers"
	"github.com/dropDatabas3/fedlogin/internal/observability/logger"
	"github.com/dropDatabas3/fedlogin/internal/security/csrf"
	"github.com/dropDatabas3/fedlogin/internal/session"
	"github.com/dropDatabas3/fedlogin/internal/social"
	"github.com/dropDatabas3/fedlogin/internal/social/identity"
)

// GoogleController maneja POST /v1/social/google (redirect del botón Sign in with Google).
type GoogleController struct {
	broker     social.Broker
	sessions   *session.Manager
	loginPath  string
	errorParam string
}

// NewGoogleController crea el controller.
func NewGoogleController(b social.Broker, sessions *session.Manager, loginPath, errorParam string) *GoogleController {
	return &GoogleController{broker: b, sessions: sessions, loginPath: loginPath, errorParam: errorParam}
}

// Login procesa el form credential + g_csrf_token y responde siempre con 302.
func (c *GoogleController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("GoogleController.Login"))

	r.Body = http.MaxBytesReader(w, r.Body, helpers.MaxBodyBytes)
	if err := r.ParseForm(); err != nil {
		log.Info("google form rejected", logger.Err(err))
		http.Redirect(w, r, c.failureURL(identity.MsgMissingCredData), http.StatusFound)
		return
	}

	cred := identity.Credential{
		Provider: identity.Google,
		Token:    r.PostFormValue("credential"),
		CSRF:     csrf.PairFromRequest(r, csrf.GoogleName),
	}

	switch o := c.broker.Login(ctx, cred, c.sessions.Bind(w, r)).(type) {
	case *social.Success:
		log.Info("google login ok", logger.AccountID(o.AccountID), logger.Decision(o.Decision.String()))
		http.Redirect(w, r, o.RedirectTarget, http.StatusFound)
	case *social.Failure:
		log.Info("google login failed", logger.Reason(string(o.Reason)), logger.Any("path", trail(o)))
		http.Redirect(w, r, c.failureURL(o.UserMessage), http.StatusFound)
	}
}

// failureURL: login_path?<error_param>=<mensaje url-encoded>.
func (c *GoogleController) failureURL(msg string) string {
	sep := "?"
	if strings.Contains(c.loginPath, "?") {
		sep = "&"
	}
	return c.loginPath + sep + url.QueryEscape(c.errorParam) + "=" + url.QueryEscape(msg)
}
