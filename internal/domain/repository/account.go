package repository

import (
	"context"
	"time"
)

// Account es una cuenta local. El directorio es el dueño del almacenamiento.
type Account struct {
	ID                string
	Login             string
	Email             string
	FirstName         string
	LastName          string
	Role              string
	ExternallyManaged bool
	AvatarURL         string
	// ExternalIDs: provider -> external id.
	ExternalIDs map[string]string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Clone devuelve una copia profunda (los stores en memoria no comparten mapas).
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	out := *a
	out.ExternalIDs = make(map[string]string, len(a.ExternalIDs))
	for k, v := range a.ExternalIDs {
		out.ExternalIDs[k] = v
	}
	return &out
}

// NewAccount son los campos de creación. ExternallyManaged, AvatarURL y ExternalIDs
// se persisten en la misma operación que la cuenta.
type NewAccount struct {
	Login             string
	Email             string
	FirstName         string
	LastName          string
	Role              string
	ExternallyManaged bool
	AvatarURL         string
	ExternalIDs       map[string]string
}

// AccountUpdate es un patch parcial: solo se aplican los campos no-nil.
type AccountUpdate struct {
	FirstName         *string
	LastName          *string
	Role              *string
	AvatarURL         *string
	ExternallyManaged *bool
}

// Empty indica que el patch no modifica nada.
func (u AccountUpdate) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Role == nil &&
		u.AvatarURL == nil && u.ExternallyManaged == nil
}

// AccountDirectory es el contrato del User Directory.
type AccountDirectory interface {
	// FindByExternalID lista las cuentas vinculadas a (provider, externalID),
	// ordenadas por creación. Lista vacía si no hay ninguna.
	FindByExternalID(ctx context.Context, provider, externalID string) ([]*Account, error)

	// FindByEmail retorna ErrNotFound si no existe.
	FindByEmail(ctx context.Context, email string) (*Account, error)

	// CreateAccount retorna ErrConflict si el login o algún external id ya existe.
	CreateAccount(ctx context.Context, in NewAccount) (*Account, error)

	// UpdateAccount retorna ErrNotFound si la cuenta no existe.
	UpdateAccount(ctx context.Context, id string, upd AccountUpdate) (*Account, error)

	// TagExternal registra (provider, externalID) para la cuenta.
	// ErrConflict si ese external id ya pertenece a otra cuenta.
	TagExternal(ctx context.Context, id, provider, externalID string) error

	Ping(ctx context.Context) error
}
