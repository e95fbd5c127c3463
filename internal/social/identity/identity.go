// Package identity holds the request-scoped values that flow through a federated login:
// the raw credential handed over by the transport, the validated external identity
// and the per-provider configuration read by the core.
package identity

import (
	"encoding/json"
	"strings"
)

// Provider identifies an external identity provider.
type Provider string

const (
	Google   Provider = "google"
	Facebook Provider = "facebook"
)

// Providers lists every supported provider in display order.
var Providers = []Provider{Google, Facebook}

func (p Provider) String() string { return string(p) }

// Valid reports whether p is a supported provider.
func (p Provider) Valid() bool {
	return p == Google || p == Facebook
}

// ProviderConfig is the read-only per-provider configuration.
// ClientID is non-empty whenever Enabled is true.
type ProviderConfig struct {
	Provider    Provider
	Enabled     bool
	ClientID    string
	DefaultRole string
}

// ConfigProvider returns the configuration for a provider.
// Unknown or unconfigured providers yield a zero ProviderConfig.
type ConfigProvider interface {
	ProviderConfig(p Provider) ProviderConfig
}

// CSRFPair is the double-submit pair: the cookie value and the request field value.
type CSRFPair struct {
	Cookie string
	Field  string
}

// Credential is the raw, unvalidated assertion received by the transport.
// Google carries Token plus CSRF; Facebook carries the profile Payload.
type Credential struct {
	Provider Provider
	Token    string
	CSRF     CSRFPair
	Payload  json.RawMessage
}

// Present reports whether the credential carries anything to validate.
func (c Credential) Present() bool {
	switch c.Provider {
	case Google:
		return strings.TrimSpace(c.Token) != ""
	case Facebook:
		p := strings.TrimSpace(string(c.Payload))
		return p != "" && p != "null"
	}
	return false
}

// External is a validated external identity. It is never persisted as such.
type External struct {
	Provider   Provider
	ExternalID string
	Email      string
	FirstName  string
	LastName   string
	AvatarURL  string

	// EmailVerified is the provider's own claim about the email, when it makes one.
	EmailVerified bool
}
