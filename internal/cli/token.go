package cli

import (
	"fmt"

	"mcq-contest-service/internal/auth"
	"mcq-contest-service/internal/config"
	"mcq-contest-service/internal/domain"

	"github.com/spf13/cobra"
)

// NewTokenCmd mints a bearer token, for operators and local testing.
func NewTokenCmd(configPath *string) *cobra.Command {
	var (
		userID string
		name   string
		role   string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a signed access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			issuer, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, config.TTLDuration(cfg.Auth.TokenTTL, defaultTokenTTL))
			if err != nil {
				return err
			}
			token, err := issuer.Issue(domain.Identity{ID: userID, DisplayName: name, Role: domain.Role(role)})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id (token subject)")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleStudent), "student or admin")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
