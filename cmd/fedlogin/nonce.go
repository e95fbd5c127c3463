package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/fedlogin/internal/config"
	"github.com/dropDatabas3/fedlogin/internal/security/nonce"
)

func newNonceCmd(loadCfg func() (*config.Config, error)) *cobra.Command {
	var action string
	cmd := &cobra.Command{
		Use:   "nonce",
		Short: "Imprime un nonce firmado (debug del flujo Facebook)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadCfg()
			if err != nil {
				return err
			}
			if cfg.Nonce.Secret == "" {
				return errors.New("nonce.secret is required (FEDLOGIN_NONCE_SECRET)")
			}
			iss, err := nonce.NewIssuer(cfg.Nonce.Secret, cfg.Nonce.TTL)
			if err != nil {
				return err
			}
			tok, err := iss.Issue(action)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&action, "action", nonce.ActionFacebookLogin, "Acción que protege el nonce")
	return cmd
}
