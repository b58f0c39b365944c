package app

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/alexchoi0/driftwatch/clientauth"
	"github.com/alexchoi0/driftwatch/handshake"
)

func browserHandshake(env *environment) clientauth.HandshakeFunc {
	return func(ctx context.Context, apiURL string) (string, error) {
		c := &handshake.Coordinator{
			APIURL:      apiURL,
			Timeout:     env.timeout,
			Out:         env.out,
			OpenBrowser: env.openBrowser,
		}
		return c.Run(ctx)
	}
}

func newAuthCommand(env *environment) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage authentication with the driftwatch server",
	}
	authCmd.AddCommand(newAuthLoginCommand(env))
	authCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return env.service().Status()
		},
	})
	authCmd.AddCommand(&cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return env.service().Logout(cmd.Context())
		},
	})
	return authCmd
}

func newAuthLoginCommand(env *environment) *cobra.Command {
	var opts clientauth.LoginOptions

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with driftwatch",
		Long: `Authenticate with driftwatch.

Without --token a browser window opens on the driftwatch login page and the
credential is delivered back to a temporary listener on 127.0.0.1.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := env.service().Login(cmd.Context(), opts)
			return err
		},
	}
	cmd.Flags().StringVar(&opts.Token, "token", "", "API token (skip browser auth)")
	cmd.Flags().StringVar(&opts.APIURL, "api-url", "", "API URL (for self-hosted instances)")
	cmd.Flags().StringVar(&opts.RPCURL, "rpc-url", "", "RPC URL (for self-hosted instances)")
	cmd.Flags().DurationVar(&env.timeout, "timeout", handshake.DefaultTimeout, "How long to wait for the browser login")
	return cmd
}
