package main

import (
	"fmt"
	"os"

	"github.com/rgehrsitz/quotego/internal/identity"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an agent token for the API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, _ := cmd.Flags().GetString("secret")
		if secret == "" {
			secret = os.Getenv("JWT_SECRET")
		}
		agent, _ := cmd.Flags().GetString("agent")
		name, _ := cmd.Flags().GetString("name")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		issuer, err := identity.NewIssuer(secret, ttl)
		if err != nil {
			return err
		}
		token, err := issuer.Issue(agent, name)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func initTokenCommand() {
	tokenCmd.Flags().String("secret", "", "Signing secret (default: $JWT_SECRET)")
	tokenCmd.Flags().String("agent", "", "Agent ID placed in the token subject")
	tokenCmd.Flags().String("name", "", "Agent display name")
	tokenCmd.Flags().Duration("ttl", 0, "Token lifetime; 0 issues a token without expiry")

	rootCmd.AddCommand(tokenCmd)
}
