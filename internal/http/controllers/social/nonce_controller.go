package social

import (
	"net/http"
	"regexp"
	"strings"

	httperrors "github.com/dropDatabas3/fedlogin/internal/http/errors"
	"github.com/dropDatabas3/fedlogin/internal/http/helpers"
	"github.com/dropDatabas3/fedlogin/internal/observability/logger"
	"github.com/dropDatabas3/fedlogin/internal/security/nonce"
)

var actionRe = regexp.MustCompile(`^[a-z0-9_]{1,64}$`)

// NonceController maneja GET /v1/social/nonce?action=...
type NonceController struct {
	nonces NonceService
}

// NewNonceController crea el controller.
func NewNonceController(n NonceService) *NonceController {
	return &NonceController{nonces: n}
}

// Issue devuelve {"nonce": "..."}; sin action usa fb_signup_login.
func (c *NonceController) Issue(w http.ResponseWriter, r *http.Request) {
	action := strings.TrimSpace(r.URL.Query().Get("action"))
	if action == "" {
		action = nonce.ActionFacebookLogin
	}
	if !actionRe.MatchString(action) {
		httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail("action"))
		return
	}

	tok, err := c.nonces.Issue(action)
	if err != nil {
		logger.From(r.Context()).Error("nonce issue failed",
			logger.Layer("controller"), logger.Op("NonceController.Issue"), logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"nonce": tok})
}
