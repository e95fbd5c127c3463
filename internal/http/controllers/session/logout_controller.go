// Package session contiene los controllers de la sesión local.
package session

import (
	"net/http"

	"github.com/dropDatabas3/fedlogin/internal/audit"
	httperrors "github.com/dropDatabas3/fedlogin/internal/http/errors"
	"github.com/dropDatabas3/fedlogin/internal/observability/logger"
	"github.com/dropDatabas3/fedlogin/internal/session"
)

// LogoutController maneja POST /v1/session/logout.
type LogoutController struct {
	sessions *session.Manager
}

// NewLogoutController crea el controller.
func NewLogoutController(sessions *session.Manager) *LogoutController {
	return &LogoutController{sessions: sessions}
}

// Logout invalida la sesión actual (si hay) y responde 204. Es idempotente.
func (c *LogoutController) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LogoutController.Logout"))

	// solo para auditoría: una cookie vencida o ausente no es un error
	current, _ := c.sessions.Current(ctx, r)

	if err := c.sessions.Bind(w, r).InvalidateCurrent(ctx); err != nil {
		log.Error("logout failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable.WithCause(err))
		return
	}
	if current != nil {
		audit.Log(ctx, audit.EventSessionRevoked, logger.AccountID(current.AccountID))
	}
	w.WriteHeader(http.StatusNoContent)
}
