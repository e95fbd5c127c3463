package social

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/fedlogin/internal/domain/repository"
	"github.com/dropDatabas3/fedlogin/internal/social/identity"
	"github.com/dropDatabas3/fedlogin/internal/store/memory"
)

func TestProvision_DefaultsToSubscriber(t *testing.T) {
	dir := &failingDirectory{AccountDirectory: memory.NewDirectory()}
	p := NewProvisioner(ProvisionerDeps{Directory: dir, Config: enabledConfig()})

	acct, err := p.Provision(context.Background(), googleIdentity())
	require.NoError(t, err)
	assert.Equal(t, 1, dir.creates, "single directory call")
	assert.Equal(t, 0, dir.tags)

	assert.Equal(t, RoleSubscriber, acct.Role)
	assert.Equal(t, "new@example.com", acct.Login)
	assert.Equal(t, "new@example.com", acct.Email)
	assert.Equal(t, "New", acct.FirstName)
	assert.Equal(t, "User", acct.LastName)
	assert.True(t, acct.ExternallyManaged)
	assert.Equal(t, "https://lh3.googleusercontent.com/a/photo.jpg", acct.AvatarURL)
	assert.Equal(t, map[string]string{"google": "110169484474386276334"}, acct.ExternalIDs)
}

func TestProvision_ConfiguredRole(t *testing.T) {
	cfg := enabledConfig()
	fb := cfg[identity.Facebook]
	fb.DefaultRole = "  customer "
	cfg[identity.Facebook] = fb

	p := NewProvisioner(ProvisionerDeps{Directory: memory.NewDirectory(), Config: cfg})
	acct, err := p.Provision(context.Background(), &identity.External{
		Provider: identity.Facebook, ExternalID: "42", Email: "fb@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "customer", acct.Role)
}

func TestProvision_Errors(t *testing.T) {
	t.Run("conflict is not retried", func(t *testing.T) {
		dir := &failingDirectory{AccountDirectory: memory.NewDirectory(), createErr: repository.ErrConflict}
		_, err := NewProvisioner(ProvisionerDeps{Directory: dir}).Provision(context.Background(), googleIdentity())
		assert.ErrorIs(t, err, identity.ErrCreationConflict)
		assert.Equal(t, 1, dir.creates)
	})

	t.Run("directory down", func(t *testing.T) {
		dir := &failingDirectory{AccountDirectory: memory.NewDirectory(), createErr: errBackend}
		_, err := NewProvisioner(ProvisionerDeps{Directory: dir}).Provision(context.Background(), googleIdentity())
		assert.ErrorIs(t, err, identity.ErrDirectoryUnavailable)
	})

	t.Run("login taken", func(t *testing.T) {
		mem := memory.NewDirectory()
		mem.Seed(&repository.Account{ID: "u1", Login: "new@example.com"})
		_, err := NewProvisioner(ProvisionerDeps{Directory: mem}).Provision(context.Background(), googleIdentity())
		assert.ErrorIs(t, err, identity.ErrCreationConflict)
	})
}
