// Package social contiene los controllers HTTP del login federado.
package social

import (
	"github.com/dropDatabas3/fedlogin/internal/session"
	"github.com/dropDatabas3/fedlogin/internal/social"
	"github.com/dropDatabas3/fedlogin/internal/social/identity"
)

// DefaultErrorParam es el query param con el mensaje de error en el redirect a login.
const DefaultErrorParam = "d3v_error_msg"

// NonceService emite y verifica nonces de acción.
type NonceService interface {
	Issue(action string) (string, error)
	Verify(token, action string) error
}

// ProviderLister lista los providers habilitados.
type ProviderLister interface {
	Enabled() []identity.ProviderConfig
}

// Deps contiene las dependencias de los controllers sociales.
type Deps struct {
	Broker    social.Broker
	Sessions  *session.Manager
	Nonces    NonceService
	Providers ProviderLister

	// LoginPath recibe los fallos del flujo Google vía redirect.
	LoginPath  string
	ErrorParam string
}

// Controllers agrupa los controllers del dominio social.
type Controllers struct {
	Google    *GoogleController
	Facebook  *FacebookController
	Nonce     *NonceController
	Providers *ProvidersController
}

// NewControllers crea el agregador.
func NewControllers(d Deps) *Controllers {
	if d.ErrorParam == "" {
		d.ErrorParam = DefaultErrorParam
	}
	if d.LoginPath == "" {
		d.LoginPath = "/login/"
	}
	return &Controllers{
		Google:    NewGoogleController(d.Broker, d.Sessions, d.LoginPath, d.ErrorParam),
		Facebook:  NewFacebookController(d.Broker, d.Sessions, d.Nonces),
		Nonce:     NewNonceController(d.Nonces),
		Providers: NewProvidersController(d.Providers),
	}
}

// trail serializa el path de estados para logs.
func trail(o social.Outcome) []string {
	path := o.Path()
	out := make([]string, len(path))
	for i, s := range path {
		out[i] = string(s)
	}
	return out
}
