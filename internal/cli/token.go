package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/security"
)

// NewTokenCommand creates the token command.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		loginID string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for a login id",
		Long: `Mint a signed bearer token for the given login id using JWT_SECRET.

Intended for local development and smoke tests against the API.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ttl <= 0 {
				return fmt.Errorf("ttl must be positive")
			}
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			tokens, err := security.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer)
			if err != nil {
				return err
			}
			token, err := tokens.Mint(loginID, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&loginID, "login", "", "login id the token authenticates")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("login")

	return cmd
}
