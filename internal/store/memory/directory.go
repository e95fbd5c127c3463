// Package memory implementa el directorio de cuentas en memoria (dev y tests).
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/fedlogin/internal/domain/repository"
)

// Directory is a mutex-guarded AccountDirectory. Login uniqueness and external id
// uniqueness are enforced under the same lock as creation.
type Directory struct {
	mu         sync.RWMutex
	accounts   map[string]*repository.Account
	order      []string
	byLogin    map[string]string
	byExternal map[string][]string
	now        func() time.Time
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{
		accounts:   map[string]*repository.Account{},
		byLogin:    map[string]string{},
		byExternal: map[string][]string{},
		now:        time.Now,
	}
}

func externalKey(provider, externalID string) string {
	return provider + "|" + externalID
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Seed inserts a as-is, skipping uniqueness checks. Used to load fixtures, including
// inconsistent ones.
func (d *Directory) Seed(a *repository.Account) {
	d.mu.Lock()
	defer d.mu.Unlock()

	c := a.Clone()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = d.now()
	}
	d.accounts[c.ID] = c
	d.order = append(d.order, c.ID)
	d.byLogin[normalize(c.Login)] = c.ID
	for p, ext := range c.ExternalIDs {
		k := externalKey(p, ext)
		d.byExternal[k] = append(d.byExternal[k], c.ID)
	}
}

// Len returns the number of accounts.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.accounts)
}

func (d *Directory) FindByExternalID(_ context.Context, provider, externalID string) ([]*repository.Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ids := d.byExternal[externalKey(provider, externalID)]
	out := make([]*repository.Account, 0, len(ids))
	for _, id := range ids {
		if a, ok := d.accounts[id]; ok {
			out = append(out, a.Clone())
		}
	}
	return out, nil
}

func (d *Directory) FindByEmail(_ context.Context, email string) (*repository.Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	want := normalize(email)
	for _, id := range d.order {
		if a := d.accounts[id]; normalize(a.Email) == want {
			return a.Clone(), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (d *Directory) CreateAccount(_ context.Context, in repository.NewAccount) (*repository.Account, error) {
	if strings.TrimSpace(in.Login) == "" {
		return nil, repository.ErrInvalidInput
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, taken := d.byLogin[normalize(in.Login)]; taken {
		return nil, repository.ErrConflict
	}
	for p, ext := range in.ExternalIDs {
		if len(d.byExternal[externalKey(p, ext)]) > 0 {
			return nil, repository.ErrConflict
		}
	}

	now := d.now()
	a := &repository.Account{
		ID:                uuid.NewString(),
		Login:             in.Login,
		Email:             in.Email,
		FirstName:         in.FirstName,
		LastName:          in.LastName,
		Role:              in.Role,
		ExternallyManaged: in.ExternallyManaged,
		AvatarURL:         in.AvatarURL,
		ExternalIDs:       map[string]string{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	for p, ext := range in.ExternalIDs {
		a.ExternalIDs[p] = ext
		k := externalKey(p, ext)
		d.byExternal[k] = append(d.byExternal[k], a.ID)
	}
	d.accounts[a.ID] = a
	d.order = append(d.order, a.ID)
	d.byLogin[normalize(a.Login)] = a.ID
	return a.Clone(), nil
}

func (d *Directory) UpdateAccount(_ context.Context, id string, upd repository.AccountUpdate) (*repository.Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	a, ok := d.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if upd.FirstName != nil {
		a.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		a.LastName = *upd.LastName
	}
	if upd.Role != nil {
		a.Role = *upd.Role
	}
	if upd.AvatarURL != nil {
		a.AvatarURL = *upd.AvatarURL
	}
	if upd.ExternallyManaged != nil {
		a.ExternallyManaged = *upd.ExternallyManaged
	}
	if !upd.Empty() {
		a.UpdatedAt = d.now()
	}
	return a.Clone(), nil
}

func (d *Directory) TagExternal(_ context.Context, id, provider, externalID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	a, ok := d.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	k := externalKey(provider, externalID)
	for _, other := range d.byExternal[k] {
		if other != id {
			return repository.ErrConflict
		}
	}

	// Un provider tiene un único external id por cuenta: se reemplaza el anterior.
	if prev, had := a.ExternalIDs[provider]; had && prev != externalID {
		d.byExternal[externalKey(provider, prev)] = without(d.byExternal[externalKey(provider, prev)], id)
	}
	if a.ExternalIDs == nil {
		a.ExternalIDs = map[string]string{}
	}
	if a.ExternalIDs[provider] != externalID {
		a.ExternalIDs[provider] = externalID
		d.byExternal[k] = append(d.byExternal[k], id)
		a.UpdatedAt = d.now()
	}
	return nil
}

func (d *Directory) Ping(context.Context) error { return nil }

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
