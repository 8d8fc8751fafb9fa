package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/streamline/internal/auth"
)

func newTokenCmd(o *rootOptions) *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Manage bearer tokens",
	}

	issueCmd := &cobra.Command{
		Use:   "issue <subject>",
		Short: "Issue a bearer token signed with auth.signing_key",
		Long: `Issue an HS256 bearer token for subject and print it.

The token is accepted by "streamline serve" when it runs with the same
signing key. Expiry is auth.token_ttl (default 60m).

Examples:
  AUTH_SIGNING_KEY=$(openssl rand -hex 32) streamline token issue ada`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.loadConfig()
			if err != nil {
				return err
			}
			_, issuer, err := auth.FromConfig(cfg.Auth)
			if err != nil {
				return err
			}
			if issuer == nil {
				return errors.New("auth.signing_key must be set to issue tokens")
			}
			token, err := issuer.Issue(args[0])
			if err != nil {
				return fmt.Errorf("failed to issue token: %w", err)
			}
			fmt.Fprintln(o.stdout, token)
			return nil
		},
	}

	tokenCmd.AddCommand(issueCmd)
	return tokenCmd
}
