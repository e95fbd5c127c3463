package social

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/fedlogin/internal/domain/repository"
	"github.com/dropDatabas3/fedlogin/internal/observability/logger"
	"github.com/dropDatabas3/fedlogin/internal/social/identity"
)

// DecisionKind is how a validated identity was matched to a local account.
type DecisionKind int

const (
	DecisionNew DecisionKind = iota
	DecisionExistingByExternalID
	DecisionExistingByEmailLink
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionExistingByExternalID:
		return "existing_by_external_id"
	case DecisionExistingByEmailLink:
		return "existing_by_email_link"
	default:
		return "new"
	}
}

// MapDecision is the mapper result. Account is nil for DecisionNew.
type MapDecision struct {
	Kind    DecisionKind
	Account *repository.Account
}

// LinkPolicy controls email-collision account linking.
type LinkPolicy struct {
	// LinkByEmail links an unknown external identity to the local account owning the same email.
	LinkByEmail bool
	// RequireVerifiedEmail only links when the provider vouches for the email.
	RequireVerifiedEmail bool
}

// Mapper resolves a validated identity against the directory.
type Mapper interface {
	Resolve(ctx context.Context, ext *identity.External) (MapDecision, error)
}

// MapperDeps contains dependencies for the mapper.
type MapperDeps struct {
	Directory repository.AccountDirectory
	Policy    LinkPolicy
}

type mapper struct {
	dir    repository.AccountDirectory
	policy LinkPolicy
}

// NewMapper creates a Mapper.
func NewMapper(d MapperDeps) Mapper {
	return &mapper{dir: d.Directory, policy: d.Policy}
}

// Resolve matches by (provider, external id) first, then by email, otherwise New.
func (m *mapper) Resolve(ctx context.Context, ext *identity.External) (MapDecision, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("social.mapper"),
		logger.Provider(ext.Provider.String()),
	)

	matches, err := m.dir.FindByExternalID(ctx, ext.Provider.String(), ext.ExternalID)
	if err != nil && !repository.IsNotFound(err) {
		return MapDecision{}, fmt.Errorf("%w: find by external id: %v", identity.ErrDirectoryUnavailable, err)
	}
	if len(matches) > 0 {
		if len(matches) > 1 {
			// Directorio inconsistente: se toma el primero en orden de lookup.
			log.Warn("external id bound to several accounts",
				logger.Int("count", len(matches)),
				logger.AccountID(matches[0].ID),
			)
		}
		return MapDecision{Kind: DecisionExistingByExternalID, Account: matches[0]}, nil
	}

	acct, err := m.dir.FindByEmail(ctx, ext.Email)
	switch {
	case repository.IsNotFound(err):
		return MapDecision{Kind: DecisionNew}, nil
	case err != nil:
		return MapDecision{}, fmt.Errorf("%w: find by email: %v", identity.ErrDirectoryUnavailable, err)
	}

	if !m.policy.LinkByEmail || (m.policy.RequireVerifiedEmail && !ext.EmailVerified) {
		log.Info("email link refused by policy",
			logger.AccountID(acct.ID),
			logger.EmailMasked(ext.Email),
			logger.Bool("email_verified", ext.EmailVerified),
		)
		return MapDecision{}, identity.ErrEmailInUse
	}

	// Primero el vínculo: si otro request ya tomó el external id, la cuenta queda intacta.
	if err := m.dir.TagExternal(ctx, acct.ID, ext.Provider.String(), ext.ExternalID); err != nil {
		if repository.IsConflict(err) {
			return MapDecision{}, fmt.Errorf("%w: external id linked concurrently", identity.ErrCreationConflict)
		}
		return MapDecision{}, fmt.Errorf("%w: tag external: %v", identity.ErrDirectoryUnavailable, err)
	}
	managed := true
	linked, err := m.dir.UpdateAccount(ctx, acct.ID, repository.AccountUpdate{ExternallyManaged: &managed})
	if err != nil {
		return MapDecision{}, fmt.Errorf("%w: mark externally managed: %v", identity.ErrDirectoryUnavailable, err)
	}

	linked = linked.Clone()
	linked.ExternalIDs[ext.Provider.String()] = ext.ExternalID

	log.Info("external identity linked by email",
		logger.AccountID(linked.ID),
		logger.EmailMasked(ext.Email),
	)
	return MapDecision{Kind: DecisionExistingByEmailLink, Account: linked}, nil
}
