package main

import (
	"fmt"

	"github.com/KevinKickass/RoverLink/internal/auth"
	"github.com/KevinKickass/RoverLink/internal/config"
	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	var (
		name string
		role string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an operator access token",
		Long:  `Sign an access token with the secret named by auth.jwt_secret_env.`,
		Example: `  # Token for someone who may drive
  roverlink token --name alice --role operator

  # Token for someone who may only watch
  roverlink token --name bob --role viewer`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			perm, err := auth.ParsePermission(role)
			if err != nil {
				return err
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			jwt, err := auth.NewJWTHandler(cfg.Auth.GetJWTSecret(), cfg.Auth.AccessTokenTTL)
			if err != nil {
				return err
			}

			token, err := jwt.GenerateAccessToken(name, perm)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&name, "name", "n", "", "Operator name")
	flags.StringVarP(&role, "role", "r", "operator", "Role: viewer or operator")
	cmd.MarkFlagRequired("name")

	return cmd
}
