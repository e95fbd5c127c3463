// Command fedlogin corre el broker de login federado (Google / Facebook).
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/fedlogin/internal/config"
	"github.com/dropDatabas3/fedlogin/internal/observability/logger"
)

const defaultConfigPath = "configs/fedlogin.yaml"

var version = "dev"

func envOr(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

// loadConfig lee la config, inicializa el logger y valida.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); err != nil && os.IsNotExist(err) && path == defaultConfigPath {
		// sin archivo: defaults + entorno
		path = ""
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	if cfg.App.Version == "" {
		cfg.App.Version = version
	}
	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Logging.Level,
		ServiceName: "fedlogin",
		Version:     cfg.App.Version,
	})
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config invalid: %w", err)
	}
	return cfg, nil
}

func newRootCmd() *cobra.Command {
	configPath := envOr("CONFIG_PATH", defaultConfigPath)

	root := &cobra.Command{
		Use:           "fedlogin",
		Short:         "Broker de login federado (Google / Facebook)",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", configPath, "Ruta del YAML de config (env CONFIG_PATH)")

	cfgFn := func() (*config.Config, error) { return loadConfig(configPath) }
	root.AddCommand(newServeCmd(cfgFn), newMigrateCmd(cfgFn), newNonceCmd(cfgFn))
	return root
}

func main() {
	// .env es opcional
	_ = godotenv.Load()

	err := newRootCmd().Execute()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
