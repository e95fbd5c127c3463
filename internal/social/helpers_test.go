package social

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dropDatabas3/fedlogin/internal/domain/repository"
	"github.com/dropDatabas3/fedlogin/internal/social/identity"
)

type staticConfig map[identity.Provider]identity.ProviderConfig

func (s staticConfig) ProviderConfig(p identity.Provider) identity.ProviderConfig { return s[p] }

func enabledConfig() staticConfig {
	return staticConfig{
		identity.Google:   {Provider: identity.Google, Enabled: true, ClientID: "g-client"},
		identity.Facebook: {Provider: identity.Facebook, Enabled: true, ClientID: "fb-app"},
	}
}

// fakeScope registra el orden de llamadas sobre la sesión.
type fakeScope struct {
	mu            sync.Mutex
	calls         []string
	current       string
	invalidateErr error
	createErr     error
	seq           int
}

func (s *fakeScope) InvalidateCurrent(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "invalidate")
	if s.invalidateErr != nil {
		return s.invalidateErr
	}
	s.current = ""
	return nil
}

func (s *fakeScope) Create(_ context.Context, accountID string) (*repository.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "create")
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.seq++
	now := time.Now()
	sess := &repository.Session{
		ID:        fmt.Sprintf("sess-%d", s.seq),
		AccountID: accountID,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	s.current = accountID
	return sess, nil
}

// stubValidator devuelve siempre la misma identidad o error.
type stubValidator struct {
	ext   *identity.External
	err   error
	calls int
}

func (v *stubValidator) Validate(context.Context, identity.Credential) (*identity.External, error) {
	v.calls++
	if v.err != nil {
		return nil, v.err
	}
	out := *v.ext
	return &out, nil
}

var errBackend = errors.New("connection refused")

// failingDirectory envuelve un directorio y falla en las operaciones elegidas.
type failingDirectory struct {
	repository.AccountDirectory
	findExternalErr error
	findEmailErr    error
	createErr       error
	updateErr       error
	tagErr          error
	creates         int
	tags            int
}

func (d *failingDirectory) FindByExternalID(ctx context.Context, provider, externalID string) ([]*repository.Account, error) {
	if d.findExternalErr != nil {
		return nil, d.findExternalErr
	}
	return d.AccountDirectory.FindByExternalID(ctx, provider, externalID)
}

func (d *failingDirectory) FindByEmail(ctx context.Context, email string) (*repository.Account, error) {
	if d.findEmailErr != nil {
		return nil, d.findEmailErr
	}
	return d.AccountDirectory.FindByEmail(ctx, email)
}

func (d *failingDirectory) CreateAccount(ctx context.Context, in repository.NewAccount) (*repository.Account, error) {
	d.creates++
	if d.createErr != nil {
		return nil, d.createErr
	}
	return d.AccountDirectory.CreateAccount(ctx, in)
}

func (d *failingDirectory) UpdateAccount(ctx context.Context, id string, upd repository.AccountUpdate) (*repository.Account, error) {
	if d.updateErr != nil {
		return nil, d.updateErr
	}
	return d.AccountDirectory.UpdateAccount(ctx, id, upd)
}

func (d *failingDirectory) TagExternal(ctx context.Context, id, provider, externalID string) error {
	d.tags++
	if d.tagErr != nil {
		return d.tagErr
	}
	return d.AccountDirectory.TagExternal(ctx, id, provider, externalID)
}

type countingRecorder struct {
	attempts    []string
	provisioned int
	linked      int
}

func (r *countingRecorder) LoginAttempt(provider, outcome, reason string) {
	r.attempts = append(r.attempts, provider+":"+outcome+":"+reason)
}
func (r *countingRecorder) AccountProvisioned(string) { r.provisioned++ }
func (r *countingRecorder) AccountLinked(string)      { r.linked++ }

func googleIdentity() *identity.External {
	return &identity.External{
		Provider:      identity.Google,
		ExternalID:    "110169484474386276334",
		Email:         "new@example.com",
		FirstName:     "New",
		LastName:      "User",
		AvatarURL:     "https://lh3.googleusercontent.com/a/photo.jpg",
		EmailVerified: true,
	}
}
