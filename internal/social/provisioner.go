package social

import (
	"context"
	"fmt"
	"strings"

	"github.com/dropDatabas3/fedlogin/internal/domain/repository"
	"github.com/dropDatabas3/fedlogin/internal/observability/logger"
	"github.com/dropDatabas3/fedlogin/internal/social/identity"
)

// RoleSubscriber is the lowest-privilege built-in role.
const RoleSubscriber = "subscriber"

// Provisioner creates local accounts for identities seen for the first time.
type Provisioner interface {
	Provision(ctx context.Context, ext *identity.External) (*repository.Account, error)
}

// ProvisionerDeps contains dependencies for the provisioner.
type ProvisionerDeps struct {
	Directory repository.AccountDirectory
	Config    identity.ConfigProvider
}

type provisioner struct {
	dir repository.AccountDirectory
	cfg identity.ConfigProvider
}

// NewProvisioner creates a Provisioner.
func NewProvisioner(d ProvisionerDeps) Provisioner {
	return &provisioner{dir: d.Directory, cfg: d.Config}
}

// Provision creates the account already tagged as externally managed, in a single directory call.
// A duplicate surfaces as ErrCreationConflict and is not retried.
func (p *provisioner) Provision(ctx context.Context, ext *identity.External) (*repository.Account, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("social.provisioning"),
		logger.Provider(ext.Provider.String()),
	)

	role := p.defaultRole(ext.Provider)
	acct, err := p.dir.CreateAccount(ctx, repository.NewAccount{
		Login:             ext.Email,
		Email:             ext.Email,
		FirstName:         ext.FirstName,
		LastName:          ext.LastName,
		Role:              role,
		ExternallyManaged: true,
		AvatarURL:         ext.AvatarURL,
		ExternalIDs:       map[string]string{ext.Provider.String(): ext.ExternalID},
	})
	if err != nil {
		if repository.IsConflict(err) {
			log.Info("account creation conflict", logger.EmailMasked(ext.Email))
			return nil, fmt.Errorf("%w: %v", identity.ErrCreationConflict, err)
		}
		log.Error("account creation failed", logger.Err(err))
		return nil, fmt.Errorf("%w: create account: %v", identity.ErrDirectoryUnavailable, err)
	}

	log.Info("account provisioned",
		logger.AccountID(acct.ID),
		logger.String("role", role),
		logger.EmailMasked(ext.Email),
	)
	return acct, nil
}

func (p *provisioner) defaultRole(provider identity.Provider) string {
	if p.cfg != nil {
		if r := strings.TrimSpace(p.cfg.ProviderConfig(provider).DefaultRole); r != "" {
			return r
		}
	}
	return RoleSubscriber
}
