package social_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dropDatabas3/fedlogin/internal/audit"
	"github.com/dropDatabas3/fedlogin/internal/domain/repository"
	"github.com/dropDatabas3/fedlogin/internal/oauth/facebook"
	"github.com/dropDatabas3/fedlogin/internal/oauth/google"
	"github.com/dropDatabas3/fedlogin/internal/observability/logger"
	"github.com/dropDatabas3/fedlogin/internal/social"
	"github.com/dropDatabas3/fedlogin/internal/social/identity"
	"github.com/dropDatabas3/fedlogin/internal/store/memory"
)

const clientID = "1234-abc.apps.googleusercontent.com"

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type cfg map[identity.Provider]identity.ProviderConfig

func (c cfg) ProviderConfig(p identity.Provider) identity.ProviderConfig { return c[p] }

func bothEnabled() cfg {
	return cfg{
		identity.Google:   {Provider: identity.Google, Enabled: true, ClientID: clientID},
		identity.Facebook: {Provider: identity.Facebook, Enabled: true, ClientID: "fb-app"},
	}
}

// scope es una sesión mínima por request.
type scope struct {
	current  string
	sessions []*repository.Session
}

func (s *scope) InvalidateCurrent(context.Context) error { s.current = ""; return nil }

func (s *scope) Create(_ context.Context, accountID string) (*repository.Session, error) {
	sess := &repository.Session{ID: "s", AccountID: accountID, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	s.current = accountID
	s.sessions = append(s.sessions, sess)
	return sess, nil
}

type env struct {
	dir    *memory.Directory
	broker social.Broker
}

func newEnv(t *testing.T, c cfg, policy social.LinkPolicy) *env {
	t.Helper()
	dir := memory.NewDirectory()
	svcs := social.NewServices(social.Deps{
		Directory: dir,
		Config:    c,
		Validators: map[identity.Provider]social.CredentialValidator{
			identity.Google:   google.NewValidator(google.Options{Config: c, Now: func() time.Time { return now }}),
			identity.Facebook: facebook.NewValidator(),
		},
		LinkPolicy:  policy,
		LandingPath: "/account/",
	})
	return &env{dir: dir, broker: svcs.Broker}
}

func googleToken(t *testing.T, mutate func(jwtv5.MapClaims)) string {
	t.Helper()
	claims := jwtv5.MapClaims{
		"iss":            "https://accounts.google.com",
		"aud":            clientID,
		"sub":            "110169484474386276334",
		"exp":            now.Add(time.Hour).Unix(),
		"email":          "new@example.com",
		"email_verified": true,
		"given_name":     "New",
		"family_name":    "User",
		"picture":        "https://lh3.googleusercontent.com/a/photo.jpg",
	}
	if mutate != nil {
		mutate(claims)
	}
	s, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)
	return s
}

func googleCred(token string) identity.Credential {
	return identity.Credential{
		Provider: identity.Google,
		Token:    token,
		CSRF:     identity.CSRFPair{Cookie: "c1", Field: "c1"},
	}
}

func fbCred(payload string) identity.Credential {
	return identity.Credential{Provider: identity.Facebook, Payload: json.RawMessage(payload)}
}

const fbProfile = `{"id":"10158000000000001","first_name":"Face","last_name":"Book","email":"fb@example.com",
	"picture":{"data":{"url":"https://platform-lookaside.fbsbx.com/p.jpg"}}}`

func TestLogin_GoogleNewIdentity(t *testing.T) {
	e := newEnv(t, bothEnabled(), social.LinkPolicy{LinkByEmail: true})
	sc := &scope{current: "previous-user"}

	out := e.broker.Login(context.Background(), googleCred(googleToken(t, nil)), sc)
	ok, isSuccess := out.(*social.Success)
	require.True(t, isSuccess, "got %#v", out)

	assert.Equal(t, "/account/", ok.RedirectTarget)
	assert.Equal(t, social.DecisionNew, ok.Decision)
	assert.Equal(t, []social.State{
		social.StateReceived, social.StateValidating, social.StateMapping,
		social.StateProvisioning, social.StateEstablishing, social.StateDone,
	}, ok.Path())

	assert.Equal(t, ok.AccountID, sc.current)
	acct, err := e.dir.FindByEmail(context.Background(), "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, ok.AccountID, acct.ID)
	assert.Equal(t, social.RoleSubscriber, acct.Role)
	assert.True(t, acct.ExternallyManaged)
	assert.Equal(t, "110169484474386276334", acct.ExternalIDs["google"])
}

func TestLogin_RepeatedLoginIsIdempotent(t *testing.T) {
	e := newEnv(t, bothEnabled(), social.LinkPolicy{LinkByEmail: true})

	first := e.broker.Login(context.Background(), fbCred(fbProfile), &scope{})
	second := e.broker.Login(context.Background(), fbCred(fbProfile), &scope{})

	a, ok := first.(*social.Success)
	require.True(t, ok)
	b, ok := second.(*social.Success)
	require.True(t, ok)

	assert.Equal(t, a.AccountID, b.AccountID)
	assert.Equal(t, 1, e.dir.Len())
	assert.Equal(t, social.DecisionExistingByExternalID, b.Decision)
	assert.NotContains(t, b.Path(), social.StateProvisioning)
}

func TestLogin_EmailLinkKeepsRole(t *testing.T) {
	e := newEnv(t, bothEnabled(), social.LinkPolicy{LinkByEmail: true})
	e.dir.Seed(&repository.Account{ID: "editor-1", Login: "editor", Email: "new@example.com", Role: "editor"})

	out := e.broker.Login(context.Background(), googleCred(googleToken(t, nil)), &scope{})
	ok, isSuccess := out.(*social.Success)
	require.True(t, isSuccess)
	assert.Equal(t, "editor-1", ok.AccountID)
	assert.Equal(t, social.DecisionExistingByEmailLink, ok.Decision)

	acct, err := e.dir.FindByEmail(context.Background(), "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, "editor", acct.Role)
	assert.True(t, acct.ExternallyManaged)
	assert.Equal(t, 1, e.dir.Len())
}

func TestLogin_Failures(t *testing.T) {
	disabled := bothEnabled()
	disabled[identity.Facebook] = identity.ProviderConfig{Provider: identity.Facebook}

	tests := []struct {
		name       string
		config     cfg
		cred       func(t *testing.T) identity.Credential
		wantReason identity.Reason
		wantMsg    string
		wantPath   []social.State
	}{
		{
			name:   "csrf mismatch",
			config: bothEnabled(),
			cred: func(t *testing.T) identity.Credential {
				c := googleCred(googleToken(t, nil))
				c.CSRF.Field = "other"
				return c
			},
			wantReason: identity.ReasonCSRFMismatch,
			wantMsg:    identity.MsgCSRF,
			wantPath:   []social.State{social.StateReceived, social.StateValidating, social.StateFailed},
		},
		{
			name:   "expired token",
			config: bothEnabled(),
			cred: func(t *testing.T) identity.Credential {
				return googleCred(googleToken(t, func(c jwtv5.MapClaims) { c["exp"] = now.Add(-time.Minute).Unix() }))
			},
			wantReason: identity.ReasonExpired,
			wantMsg:    identity.MsgTokenRejected,
			wantPath:   []social.State{social.StateReceived, social.StateValidating, social.StateFailed},
		},
		{
			name:   "wrong audience",
			config: bothEnabled(),
			cred: func(t *testing.T) identity.Credential {
				return googleCred(googleToken(t, func(c jwtv5.MapClaims) { c["aud"] = "someone-else" }))
			},
			wantReason: identity.ReasonAudienceMismatch,
			wantMsg:    identity.MsgTokenRejected,
			wantPath:   []social.State{social.StateReceived, social.StateValidating, social.StateFailed},
		},
		{
			name:   "facebook field errors",
			config: bothEnabled(),
			cred: func(*testing.T) identity.Credential {
				return fbCred(`{"first_name":"A","last_name":"B","picture":{"data":{"url":"http://x/y.png"}}}`)
			},
			wantReason: identity.ReasonFieldValidation,
			wantMsg:    facebook.MsgIDMissing + "," + facebook.MsgEmailMissing,
			wantPath:   []social.State{social.StateReceived, social.StateValidating, social.StateFailed},
		},
		{
			name:   "provider disabled",
			config: disabled,
			cred: func(*testing.T) identity.Credential {
				return fbCred(fbProfile)
			},
			wantReason: identity.ReasonProviderDisabled,
			wantMsg:    identity.MsgProviderOff,
			wantPath:   []social.State{social.StateReceived, social.StateFailed},
		},
		{
			name:   "missing credential",
			config: bothEnabled(),
			cred: func(*testing.T) identity.Credential {
				return googleCred("  ")
			},
			wantReason: identity.ReasonCredentialMissing,
			wantMsg:    identity.MsgMissingCredData,
			wantPath:   []social.State{social.StateReceived, social.StateFailed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, tt.config, social.LinkPolicy{LinkByEmail: true})
			sc := &scope{current: "previous-user"}

			out := e.broker.Login(context.Background(), tt.cred(t), sc)
			f, ok := out.(*social.Failure)
			require.True(t, ok, "got %#v", out)
			assert.Equal(t, tt.wantReason, f.Reason)
			assert.Equal(t, tt.wantMsg, f.UserMessage)
			assert.Equal(t, tt.wantPath, f.Path())

			assert.Equal(t, 0, e.dir.Len(), "no account on failure")
			assert.Equal(t, "previous-user", sc.current, "session untouched on failure")
			assert.Empty(t, sc.sessions)
		})
	}
}

func TestLogin_EmailInUseWhenLinkingDisabled(t *testing.T) {
	e := newEnv(t, bothEnabled(), social.LinkPolicy{LinkByEmail: false})
	e.dir.Seed(&repository.Account{ID: "u1", Login: "legacy", Email: "fb@example.com"})

	out := e.broker.Login(context.Background(), fbCred(fbProfile), &scope{})
	f, ok := out.(*social.Failure)
	require.True(t, ok)
	assert.Equal(t, identity.ReasonEmailInUse, f.Reason)
	assert.Equal(t, identity.MsgAccountExists, f.UserMessage)
	assert.Equal(t, []social.State{
		social.StateReceived, social.StateValidating, social.StateMapping, social.StateFailed,
	}, f.Path())
}

func TestLogin_EmitsAuditEvents(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := logger.ToContext(context.Background(), zap.New(core))
	e := newEnv(t, bothEnabled(), social.LinkPolicy{LinkByEmail: true})

	out := e.broker.Login(ctx, googleCred(googleToken(t, nil)), &scope{})
	ok, isSuccess := out.(*social.Success)
	require.True(t, isSuccess)

	var events []string
	for _, entry := range logs.FilterField(logger.Component("audit")).All() {
		fields := entry.ContextMap()
		assert.Equal(t, ok.AccountID, fields["account_id"])
		events = append(events, fields["event"].(string))
	}
	assert.Equal(t, []string{audit.EventAccountProvisioned, audit.EventSessionEstablished}, events)
}

// gateDirectory retiene CreateAccount hasta que se liberan todas las llamadas a la vez.
type gateDirectory struct {
	repository.AccountDirectory
	arrived chan struct{}
	release chan struct{}
}

func (g *gateDirectory) CreateAccount(ctx context.Context, in repository.NewAccount) (*repository.Account, error) {
	g.arrived <- struct{}{}
	<-g.release
	return g.AccountDirectory.CreateAccount(ctx, in)
}

func TestLogin_ConcurrentFirstLoginsCreateOneAccount(t *testing.T) {
	const n = 2
	dir := memory.NewDirectory()
	gate := &gateDirectory{AccountDirectory: dir, arrived: make(chan struct{}, n), release: make(chan struct{})}
	c := bothEnabled()
	broker := social.NewServices(social.Deps{
		Directory: gate,
		Config:    c,
		Validators: map[identity.Provider]social.CredentialValidator{
			identity.Facebook: facebook.NewValidator(),
		},
		LinkPolicy:  social.LinkPolicy{LinkByEmail: true},
		LandingPath: "/account/",
	}).Broker

	outcomes := make([]social.Outcome, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = broker.Login(context.Background(), fbCred(fbProfile), &scope{})
		}(i)
	}

	// ambos intentos pasaron el mapeo sin ver cuenta y van a crear
	for i := 0; i < n; i++ {
		select {
		case <-gate.arrived:
		case <-time.After(5 * time.Second):
			close(gate.release)
			t.Fatal("attempts did not reach provisioning")
		}
	}
	close(gate.release)
	wg.Wait()

	var successes, conflicts int
	for _, o := range outcomes {
		switch o := o.(type) {
		case *social.Success:
			successes++
			assert.Equal(t, social.DecisionNew, o.Decision)
		case *social.Failure:
			assert.Equal(t, identity.ReasonCreationConflict, o.Reason)
			assert.Equal(t, identity.MsgAccountExists, o.UserMessage)
			conflicts++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)
	assert.Equal(t, 1, dir.Len())
}
