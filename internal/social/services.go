// Package social implements the federated-login broker: identity mapping, account
// provisioning, session establishment and the per-request state machine tying them together.
package social

import (
	"github.com/dropDatabas3/fedlogin/internal/domain/repository"
	"github.com/dropDatabas3/fedlogin/internal/social/identity"
)

// Recorder receives login events (implemented by internal/metrics).
type Recorder interface {
	LoginAttempt(provider, outcome, reason string)
	AccountProvisioned(provider string)
	AccountLinked(provider string)
}

// NopRecorder discards every event.
type NopRecorder struct{}

func (NopRecorder) LoginAttempt(string, string, string) {}
func (NopRecorder) AccountProvisioned(string)           {}
func (NopRecorder) AccountLinked(string)                {}

// Deps contains the dependencies to build the social services.
type Deps struct {
	Directory   repository.AccountDirectory
	Config      identity.ConfigProvider
	Validators  map[identity.Provider]CredentialValidator
	LinkPolicy  LinkPolicy
	LandingPath string
	Recorder    Recorder
}

// Services groups the social login services.
type Services struct {
	Mapper      Mapper
	Provisioner Provisioner
	Establisher Establisher
	Broker      Broker
}

// NewServices wires the broker and its components.
func NewServices(d Deps) Services {
	mapper := NewMapper(MapperDeps{Directory: d.Directory, Policy: d.LinkPolicy})
	provisioner := NewProvisioner(ProvisionerDeps{Directory: d.Directory, Config: d.Config})
	establisher := NewEstablisher(EstablisherDeps{LandingPath: d.LandingPath})

	return Services{
		Mapper:      mapper,
		Provisioner: provisioner,
		Establisher: establisher,
		Broker: NewBroker(BrokerDeps{
			Validators:  d.Validators,
			Config:      d.Config,
			Mapper:      mapper,
			Provisioner: provisioner,
			Establisher: establisher,
			Recorder:    d.Recorder,
		}),
	}
}
