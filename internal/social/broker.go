package social

import (
	"context"

	"github.com/dropDatabas3/fedlogin/internal/audit"
	"github.com/dropDatabas3/fedlogin/internal/domain/repository"
	"github.com/dropDatabas3/fedlogin/internal/observability/logger"
	"github.com/dropDatabas3/fedlogin/internal/social/identity"
)

// CredentialValidator validates a raw credential for one provider.
type CredentialValidator interface {
	Validate(ctx context.Context, cred identity.Credential) (*identity.External, error)
}

// Outcome is the result of a login attempt: either *Success or *Failure.
type Outcome interface {
	// Path lists the states visited, starting at StateReceived.
	Path() []State
	isOutcome()
}

// Success carries the resolved account and the fixed redirect target.
type Success struct {
	AccountID      string
	RedirectTarget string
	Decision       DecisionKind
	Session        *repository.Session
	Trail          []State
}

// Failure carries a stable reason and a non-empty message safe to show to the user.
type Failure struct {
	Reason      identity.Reason
	UserMessage string
	Err         error
	Trail       []State
}

func (s *Success) Path() []State { return s.Trail }
func (f *Failure) Path() []State { return f.Trail }
func (*Success) isOutcome()      {}
func (*Failure) isOutcome()      {}

// Broker runs one federated login per call. It keeps no state between calls.
type Broker interface {
	Login(ctx context.Context, cred identity.Credential, scope SessionScope) Outcome
}

// BrokerDeps contains dependencies for the broker.
type BrokerDeps struct {
	Validators  map[identity.Provider]CredentialValidator
	Config      identity.ConfigProvider
	Mapper      Mapper
	Provisioner Provisioner
	Establisher Establisher
	Recorder    Recorder
}

type broker struct {
	validators  map[identity.Provider]CredentialValidator
	cfg         identity.ConfigProvider
	mapper      Mapper
	provisioner Provisioner
	establisher Establisher
	rec         Recorder
}

// NewBroker creates a Broker.
func NewBroker(d BrokerDeps) Broker {
	rec := d.Recorder
	if rec == nil {
		rec = NopRecorder{}
	}
	return &broker{
		validators:  d.Validators,
		cfg:         d.Config,
		mapper:      d.Mapper,
		provisioner: d.Provisioner,
		establisher: d.Establisher,
		rec:         rec,
	}
}

func (b *broker) Login(ctx context.Context, cred identity.Credential, scope SessionScope) Outcome {
	provider := cred.Provider.String()
	if !cred.Provider.Valid() {
		provider = "unknown"
	}
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("social.broker"),
		logger.Provider(provider),
	)
	a := newAttempt()

	fail := func(err error) Outcome {
		from := a.current
		_ = a.advance(StateFailed)
		reason, msg := identity.Classify(err)
		b.rec.LoginAttempt(provider, "failure", string(reason))

		fields := []logger.Field{logger.State(string(from)), logger.Reason(string(reason)), logger.Err(err)}
		switch reason {
		case identity.ReasonDirectoryUnavailable, identity.ReasonSessionUnavailable, identity.ReasonInternal:
			log.Error("login failed", fields...)
		default:
			log.Info("login rejected", fields...)
		}
		return &Failure{Reason: reason, UserMessage: msg, Err: err, Trail: a.path()}
	}

	// Received
	if !cred.Provider.Valid() || b.cfg == nil || !b.cfg.ProviderConfig(cred.Provider).Enabled {
		return fail(identity.ErrProviderDisabled)
	}
	validator, ok := b.validators[cred.Provider]
	if !ok {
		return fail(identity.ErrProviderDisabled)
	}
	if !cred.Present() {
		return fail(identity.ErrCredentialMissing)
	}

	if err := a.advance(StateValidating); err != nil {
		return fail(err)
	}
	ext, err := validator.Validate(ctx, cred)
	if err != nil {
		return fail(err)
	}

	if err := a.advance(StateMapping); err != nil {
		return fail(err)
	}
	decision, err := b.mapper.Resolve(ctx, ext)
	if err != nil {
		return fail(err)
	}

	acct := decision.Account
	switch decision.Kind {
	case DecisionNew:
		if err := a.advance(StateProvisioning); err != nil {
			return fail(err)
		}
		acct, err = b.provisioner.Provision(ctx, ext)
		if err != nil {
			return fail(err)
		}
		b.rec.AccountProvisioned(provider)
		audit.Log(ctx, audit.EventAccountProvisioned,
			logger.Provider(provider), logger.AccountID(acct.ID), logger.EmailMasked(ext.Email))
	case DecisionExistingByEmailLink:
		b.rec.AccountLinked(provider)
		audit.Log(ctx, audit.EventAccountLinked,
			logger.Provider(provider), logger.AccountID(acct.ID), logger.EmailMasked(ext.Email))
	}

	if err := a.advance(StateEstablishing); err != nil {
		return fail(err)
	}
	est, err := b.establisher.Establish(ctx, acct, scope)
	if err != nil {
		return fail(err)
	}
	if err := a.advance(StateDone); err != nil {
		return fail(err)
	}

	b.rec.LoginAttempt(provider, "success", "")
	audit.Log(ctx, audit.EventSessionEstablished, logger.Provider(provider), logger.AccountID(acct.ID))
	log.Info("login completed",
		logger.AccountID(acct.ID),
		logger.Decision(decision.Kind.String()),
	)
	return &Success{
		AccountID:      acct.ID,
		RedirectTarget: est.RedirectTarget,
		Decision:       decision.Kind,
		Session:        est.Session,
		Trail:          a.path(),
	}
}
