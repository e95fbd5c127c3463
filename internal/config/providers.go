package config

import (
	"strings"

	"github.com/dropDatabas3/fedlogin/internal/social/identity"
)

// Providers es la vista read-only de los providers que consume el core de login.
type Providers struct {
	byName map[identity.Provider]identity.ProviderConfig
}

// ProviderRegistry construye la vista. Un provider habilitado sin client id se reporta
// deshabilitado: Enabled implica ClientID no vacío.
func (c *Config) ProviderRegistry() *Providers {
	g := c.Providers.Google
	fb := c.Providers.Facebook
	p := &Providers{byName: map[identity.Provider]identity.ProviderConfig{
		identity.Google: {
			Provider:    identity.Google,
			Enabled:     g.Enabled && strings.TrimSpace(g.ClientID) != "",
			ClientID:    strings.TrimSpace(g.ClientID),
			DefaultRole: strings.TrimSpace(g.DefaultRole),
		},
		identity.Facebook: {
			Provider:    identity.Facebook,
			Enabled:     fb.Enabled && strings.TrimSpace(fb.AppID) != "",
			ClientID:    strings.TrimSpace(fb.AppID),
			DefaultRole: strings.TrimSpace(fb.DefaultRole),
		},
	}}
	return p
}

// ProviderConfig implementa identity.ConfigProvider.
func (p *Providers) ProviderConfig(name identity.Provider) identity.ProviderConfig {
	return p.byName[name]
}

// Enabled lista los providers habilitados en orden de presentación.
func (p *Providers) Enabled() []identity.ProviderConfig {
	var out []identity.ProviderConfig
	for _, name := range identity.Providers {
		if pc := p.byName[name]; pc.Enabled {
			out = append(out, pc)
		}
	}
	return out
}
