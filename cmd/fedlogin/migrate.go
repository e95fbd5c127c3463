package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/fedlogin/internal/config"
	"github.com/dropDatabas3/fedlogin/internal/store/pg"
	migrations "github.com/dropDatabas3/fedlogin/migrations/postgres"
)

func newMigrateCmd(loadCfg func() (*config.Config, error)) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones embebidas del directorio Postgres",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadCfg()
			if err != nil {
				return err
			}
			if cfg.Directory.Driver != "postgres" {
				return errors.New("migrate requires directory.driver=postgres")
			}

			ctx := cmd.Context()
			pool, err := pg.NewPool(ctx, cfg.Directory.DSN, pg.PoolConfig{MaxConns: 2})
			if err != nil {
				return err
			}
			defer pool.Close()

			m := pg.NewMigrator(migrations.AccountsFS, migrations.AccountsDir)
			out := cmd.OutOrStdout()
			if dryRun {
				pending, err := m.Pending(ctx, pool)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "pending: %v\n", pending)
				return nil
			}

			res, err := m.Run(ctx, pool)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "applied=%v skipped=%v duration=%s\n", res.Applied, res.Skipped, res.Duration)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Solo lista las migraciones pendientes")
	return cmd
}
