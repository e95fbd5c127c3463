package social

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/fedlogin/internal/domain/repository"
	"github.com/dropDatabas3/fedlogin/internal/observability/logger"
	"github.com/dropDatabas3/fedlogin/internal/social/identity"
)

// DefaultLandingPath is used when no landing path is configured.
const DefaultLandingPath = "/account/"

// SessionScope is the session contract bound to the current request.
type SessionScope interface {
	// InvalidateCurrent drops whatever session the request carries. No-op when there is none.
	InvalidateCurrent(ctx context.Context) error
	Create(ctx context.Context, accountID string) (*repository.Session, error)
}

// Established is a freshly created session and where to send the user next.
type Established struct {
	Session        *repository.Session
	RedirectTarget string
}

// Establisher replaces the request's session with one bound to the resolved account.
type Establisher interface {
	Establish(ctx context.Context, acct *repository.Account, scope SessionScope) (*Established, error)
}

// EstablisherDeps contains dependencies for the establisher.
type EstablisherDeps struct {
	// LandingPath is the fixed post-login destination; it never comes from the request.
	LandingPath string
}

type establisher struct {
	landing string
}

// NewEstablisher creates an Establisher.
func NewEstablisher(d EstablisherDeps) Establisher {
	landing := d.LandingPath
	if landing == "" {
		landing = DefaultLandingPath
	}
	return &establisher{landing: landing}
}

// Establish always invalidates before creating, even when the current session belongs to another account.
func (e *establisher) Establish(ctx context.Context, acct *repository.Account, scope SessionScope) (*Established, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("social.session"),
		logger.AccountID(acct.ID),
	)

	if err := scope.InvalidateCurrent(ctx); err != nil {
		log.Error("invalidate current session failed", logger.Err(err))
		return nil, fmt.Errorf("%w: invalidate: %v", identity.ErrSessionUnavailable, err)
	}
	sess, err := scope.Create(ctx, acct.ID)
	if err != nil {
		log.Error("create session failed", logger.Err(err))
		return nil, fmt.Errorf("%w: create: %v", identity.ErrSessionUnavailable, err)
	}

	log.Debug("session established")
	return &Established{Session: sess, RedirectTarget: e.landing}, nil
}
