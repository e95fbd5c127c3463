package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/fedlogin/internal/app"
	"github.com/dropDatabas3/fedlogin/internal/config"
	"github.com/dropDatabas3/fedlogin/internal/http/server"
	"github.com/dropDatabas3/fedlogin/internal/observability/logger"
)

func newServeCmd(loadCfg func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadCfg()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			c, err := app.New(ctx, cfg, app.Options{})
			if err != nil {
				return err
			}
			defer func() {
				if err := c.Close(); err != nil {
					logger.L().Warn("container close", logger.Err(err))
				}
			}()
			c.Start(logger.ToContext(ctx, logger.L()))

			return server.New(server.Config{
				Addr:            cfg.Server.Addr,
				ReadTimeout:     cfg.Server.ReadTimeout,
				WriteTimeout:    cfg.Server.WriteTimeout,
				ShutdownTimeout: cfg.Server.ShutdownTimeout,
			}, c.Handler).Run(ctx)
		},
	}
}

