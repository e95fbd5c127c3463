package pg

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/fedlogin/internal/domain/repository"
)

// accountColumns lee la cuenta con sus external ids agregados como objeto JSON.
const accountColumns = `
	a.id::text, a.login, a.email, a.first_name, a.last_name, a.role,
	a.externally_managed, a.avatar_url,
	COALESCE((SELECT jsonb_object_agg(i.provider, i.external_id)
	          FROM account_identities i WHERE i.account_id = a.id), '{}'::jsonb),
	a.created_at, a.updated_at`

// Directory implementa repository.AccountDirectory sobre las tablas accounts y account_identities.
type Directory struct {
	db DB
}

// NewDirectory crea el directorio. db suele ser un *pgxpool.Pool.
func NewDirectory(db DB) *Directory {
	return &Directory{db: db}
}

func scanAccount(row pgx.Row) (*repository.Account, error) {
	var (
		a   repository.Account
		ext []byte
	)
	if err := row.Scan(
		&a.ID, &a.Login, &a.Email, &a.FirstName, &a.LastName, &a.Role,
		&a.ExternallyManaged, &a.AvatarURL, &ext,
		&a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	a.ExternalIDs = map[string]string{}
	if len(ext) > 0 {
		if err := json.Unmarshal(ext, &a.ExternalIDs); err != nil {
			return nil, err
		}
	}
	return &a, nil
}

func (d *Directory) FindByExternalID(ctx context.Context, provider, externalID string) ([]*repository.Account, error) {
	rows, err := d.db.Query(ctx, `
		SELECT `+accountColumns+`
		FROM accounts a
		JOIN account_identities x ON x.account_id = a.id
		WHERE x.provider = $1 AND x.external_id = $2
		ORDER BY a.created_at, a.id`,
		provider, externalID,
	)
	if err != nil {
		return nil, mapErr("find by external id", err)
	}
	defer rows.Close()

	var out []*repository.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, mapErr("scan account", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("find by external id", err)
	}
	return out, nil
}

func (d *Directory) FindByEmail(ctx context.Context, email string) (*repository.Account, error) {
	a, err := scanAccount(d.db.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts a
		WHERE lower(a.email) = lower($1)
		ORDER BY a.created_at, a.id
		LIMIT 1`,
		strings.TrimSpace(email),
	))
	if err != nil {
		return nil, mapErr("find by email", err)
	}
	return a, nil
}

func (d *Directory) getByID(ctx context.Context, id string) (*repository.Account, error) {
	a, err := scanAccount(d.db.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts a
		WHERE a.id = $1`,
		id,
	))
	if err != nil {
		return nil, mapErr("get account", err)
	}
	return a, nil
}

// CreateAccount inserta la cuenta y sus identidades externas en una sola transacción.
func (d *Directory) CreateAccount(ctx context.Context, in repository.NewAccount) (*repository.Account, error) {
	if strings.TrimSpace(in.Login) == "" {
		return nil, repository.ErrInvalidInput
	}

	tx, err := d.db.Begin(ctx)
	if err != nil {
		return nil, mapErr("begin", err)
	}
	defer tx.Rollback(ctx)

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
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO accounts (id, login, email, first_name, last_name, role, externally_managed, avatar_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		a.ID, a.Login, a.Email, a.FirstName, a.LastName, a.Role, a.ExternallyManaged, a.AvatarURL,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, mapErr("insert account", err)
	}

	for provider, ext := range in.ExternalIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO account_identities (account_id, provider, external_id)
			VALUES ($1, $2, $3)`,
			a.ID, provider, ext,
		); err != nil {
			return nil, mapErr("insert identity", err)
		}
		a.ExternalIDs[provider] = ext
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, mapErr("commit", err)
	}
	return a, nil
}

func (d *Directory) UpdateAccount(ctx context.Context, id string, upd repository.AccountUpdate) (*repository.Account, error) {
	if upd.Empty() {
		return d.getByID(ctx, id)
	}
	tag, err := d.db.Exec(ctx, `
		UPDATE accounts SET
			first_name         = COALESCE($2, first_name),
			last_name          = COALESCE($3, last_name),
			role               = COALESCE($4, role),
			avatar_url         = COALESCE($5, avatar_url),
			externally_managed = COALESCE($6, externally_managed),
			updated_at         = NOW()
		WHERE id = $1`,
		id, upd.FirstName, upd.LastName, upd.Role, upd.AvatarURL, upd.ExternallyManaged,
	)
	if err != nil {
		return nil, mapErr("update account", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, repository.ErrNotFound
	}
	return d.getByID(ctx, id)
}

// TagExternal reemplaza el external id del provider para la cuenta. El índice único
// (provider, external_id) rechaza ids ya vinculados a otra cuenta.
func (d *Directory) TagExternal(ctx context.Context, id, provider, externalID string) error {
	_, err := d.db.Exec(ctx, `
		INSERT INTO account_identities (account_id, provider, external_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (account_id, provider)
		DO UPDATE SET external_id = EXCLUDED.external_id, updated_at = NOW()`,
		id, provider, externalID,
	)
	return mapErr("tag external", err)
}

func (d *Directory) Ping(ctx context.Context) error {
	return d.db.Ping(ctx)
}
