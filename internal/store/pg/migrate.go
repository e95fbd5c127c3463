package pg

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"
)

// Las migraciones SQL se embeben en el binario.
// Formato de archivo: {version}_{name}.sql (ej: 0001_accounts.sql)

// Migrator aplica migraciones SQL a una base PostgreSQL.
type Migrator struct {
	migrationsFS  embed.FS
	migrationsDir string
}

// NewMigrator crea un nuevo Migrator.
func NewMigrator(migrationsFS embed.FS, migrationsDir string) *Migrator {
	return &Migrator{
		migrationsFS:  migrationsFS,
		migrationsDir: migrationsDir,
	}
}

// Migration representa una migración individual.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// MigrationResult resultado de aplicar migraciones.
type MigrationResult struct {
	Applied  []int
	Skipped  []int
	Failed   *int
	Duration time.Duration
}

var migrationFilePattern = regexp.MustCompile(`^(\d+)_(.+)\.sql$`)

// ParseMigrations lee las migraciones del FS embebido, ordenadas por versión.
func (m *Migrator) ParseMigrations() ([]Migration, error) {
	var migrations []Migration

	err := fs.WalkDir(m.migrationsFS, m.migrationsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		matches := migrationFilePattern.FindStringSubmatch(filepath.Base(path))
		if matches == nil {
			return nil // Ignorar archivos que no coinciden
		}
		version, _ := strconv.Atoi(matches[1])
		content, err := m.migrationsFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		migrations = append(migrations, Migration{Version: version, Name: matches[2], SQL: string(content)})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

const createMigrationsTable = `
	CREATE TABLE IF NOT EXISTS _migrations (
		version INT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		applied_at TIMESTAMPTZ DEFAULT NOW()
	)`

// Run aplica las migraciones pendientes. Cada migración corre en su propia transacción.
func (m *Migrator) Run(ctx context.Context, db DB) (*MigrationResult, error) {
	start := time.Now()
	result := &MigrationResult{}
	done := func(err error) (*MigrationResult, error) {
		result.Duration = time.Since(start)
		return result, err
	}

	if _, err := db.Exec(ctx, createMigrationsTable); err != nil {
		return done(fmt.Errorf("creating migrations table: %w", err))
	}
	applied, err := m.appliedVersions(ctx, db)
	if err != nil {
		return done(fmt.Errorf("getting applied migrations: %w", err))
	}
	migrations, err := m.ParseMigrations()
	if err != nil {
		return done(fmt.Errorf("parsing migrations: %w", err))
	}

	for _, mig := range migrations {
		if applied[mig.Version] {
			result.Skipped = append(result.Skipped, mig.Version)
			continue
		}
		if err := m.apply(ctx, db, mig); err != nil {
			v := mig.Version
			result.Failed = &v
			return done(fmt.Errorf("applying migration %d_%s: %w", mig.Version, mig.Name, err))
		}
		result.Applied = append(result.Applied, mig.Version)
	}
	return done(nil)
}

// Pending lista las versiones que aún no se aplicaron.
func (m *Migrator) Pending(ctx context.Context, db DB) ([]int, error) {
	var exists bool
	if err := db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)`,
		"_migrations",
	).Scan(&exists); err != nil {
		return nil, err
	}

	applied := map[int]bool{}
	if exists {
		var err error
		if applied, err = m.appliedVersions(ctx, db); err != nil {
			return nil, err
		}
	}

	migrations, err := m.ParseMigrations()
	if err != nil {
		return nil, err
	}
	var pending []int
	for _, mig := range migrations {
		if !applied[mig.Version] {
			pending = append(pending, mig.Version)
		}
	}
	return pending, nil
}

func (m *Migrator) appliedVersions(ctx context.Context, db DB) (map[int]bool, error) {
	rows, err := db.Query(ctx, `SELECT version FROM _migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func (m *Migrator) apply(ctx context.Context, db DB, mig Migration) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, mig.SQL); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO _migrations (version, name) VALUES ($1, $2)`,
		mig.Version, mig.Name,
	); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
