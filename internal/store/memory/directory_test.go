package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/fedlogin/internal/domain/repository"
)

func TestDirectory_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	d := NewDirectory()

	a, err := d.CreateAccount(ctx, repository.NewAccount{
		Login:             "ana@example.com",
		Email:             "ana@example.com",
		Role:              "subscriber",
		ExternallyManaged: true,
		ExternalIDs:       map[string]string{"google": "g-1"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.False(t, a.CreatedAt.IsZero())

	byExt, err := d.FindByExternalID(ctx, "google", "g-1")
	require.NoError(t, err)
	require.Len(t, byExt, 1)
	assert.Equal(t, a.ID, byExt[0].ID)

	byEmail, err := d.FindByEmail(ctx, "ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, a.ID, byEmail.ID)

	none, err := d.FindByExternalID(ctx, "facebook", "g-1")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = d.FindByEmail(ctx, "nobody@example.com")
	assert.True(t, repository.IsNotFound(err))
}

func TestDirectory_CreateConflicts(t *testing.T) {
	ctx := context.Background()
	d := NewDirectory()

	_, err := d.CreateAccount(ctx, repository.NewAccount{
		Login:       "ana@example.com",
		Email:       "ana@example.com",
		ExternalIDs: map[string]string{"google": "g-1"},
	})
	require.NoError(t, err)

	_, err = d.CreateAccount(ctx, repository.NewAccount{Login: "Ana@Example.com", Email: "x@example.com"})
	assert.True(t, repository.IsConflict(err), "duplicate login")

	_, err = d.CreateAccount(ctx, repository.NewAccount{
		Login:       "other@example.com",
		ExternalIDs: map[string]string{"google": "g-1"},
	})
	assert.True(t, repository.IsConflict(err), "duplicate external id")

	_, err = d.CreateAccount(ctx, repository.NewAccount{Login: "  "})
	assert.ErrorIs(t, err, repository.ErrInvalidInput)

	assert.Equal(t, 1, d.Len())
}

func TestDirectory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	d := NewDirectory()

	a, err := d.CreateAccount(ctx, repository.NewAccount{
		Login:       "ana@example.com",
		Email:       "ana@example.com",
		ExternalIDs: map[string]string{"google": "g-1"},
	})
	require.NoError(t, err)
	a.ExternalIDs["google"] = "tampered"
	a.Role = "admin"

	got, err := d.FindByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "g-1", got.ExternalIDs["google"])
	assert.Empty(t, got.Role)
}

func TestDirectory_SeedKeepsDuplicatesInOrder(t *testing.T) {
	ctx := context.Background()
	d := NewDirectory()
	d.Seed(&repository.Account{ID: "first", Login: "a", ExternalIDs: map[string]string{"facebook": "42"}})
	d.Seed(&repository.Account{ID: "second", Login: "b", ExternalIDs: map[string]string{"facebook": "42"}})

	got, err := d.FindByExternalID(ctx, "facebook", "42")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].ID)
	assert.Equal(t, "second", got[1].ID)
}

func TestDirectory_UpdateAccount(t *testing.T) {
	ctx := context.Background()
	d := NewDirectory()
	d.Seed(&repository.Account{ID: "u1", Login: "ana", FirstName: "Ana"})

	managed := true
	last := "Pérez"
	got, err := d.UpdateAccount(ctx, "u1", repository.AccountUpdate{ExternallyManaged: &managed, LastName: &last})
	require.NoError(t, err)
	assert.True(t, got.ExternallyManaged)
	assert.Equal(t, "Ana", got.FirstName)
	assert.Equal(t, "Pérez", got.LastName)

	_, err = d.UpdateAccount(ctx, "missing", repository.AccountUpdate{})
	assert.True(t, repository.IsNotFound(err))
}

func TestDirectory_TagExternal(t *testing.T) {
	ctx := context.Background()
	d := NewDirectory()
	d.Seed(&repository.Account{ID: "u1", Login: "ana"})
	d.Seed(&repository.Account{ID: "u2", Login: "bob"})

	require.NoError(t, d.TagExternal(ctx, "u1", "google", "g-1"))
	// idempotente
	require.NoError(t, d.TagExternal(ctx, "u1", "google", "g-1"))

	got, err := d.FindByExternalID(ctx, "google", "g-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "u1", got[0].ID)

	err = d.TagExternal(ctx, "u2", "google", "g-1")
	assert.True(t, repository.IsConflict(err))

	// reemplazo del external id del mismo provider
	require.NoError(t, d.TagExternal(ctx, "u1", "google", "g-2"))
	got, err = d.FindByExternalID(ctx, "google", "g-1")
	require.NoError(t, err)
	assert.Empty(t, got)

	err = d.TagExternal(ctx, "missing", "google", "g-3")
	assert.True(t, repository.IsNotFound(err))
}

func TestDirectory_ConcurrentCreateSameIdentity(t *testing.T) {
	const n = 16
	d := NewDirectory()

	var (
		wg        sync.WaitGroup
		created   atomic.Int32
		conflicts atomic.Int32
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.CreateAccount(context.Background(), repository.NewAccount{
				Login:       "race@example.com",
				Email:       "race@example.com",
				ExternalIDs: map[string]string{"google": "g-race"},
			})
			switch {
			case err == nil:
				created.Add(1)
			case repository.IsConflict(err):
				conflicts.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, created.Load())
	assert.EqualValues(t, n-1, conflicts.Load())
	assert.Equal(t, 1, d.Len())
}
