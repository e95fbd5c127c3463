package session

import "github.com/dropDatabas3/fedlogin/internal/session"

// Controllers agrupa los controllers de sesión.
type Controllers struct {
	Logout *LogoutController
}

// NewControllers crea el agregador.
func NewControllers(sessions *session.Manager) *Controllers {
	return &Controllers{Logout: NewLogoutController(sessions)}
}
