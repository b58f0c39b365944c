package app

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexchoi0/driftwatch/clientconfig"
)

func newConfigCommand(env *environment) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change CLI settings",
	}

	var apiURL, rpcURL string
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Set the API and RPC endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if apiURL == "" && rpcURL == "" {
				return errors.New("nothing to set: pass --api-url and/or --rpc-url")
			}
			cfg, err := env.store.LoadFile()
			if errors.Is(err, clientconfig.ErrNotAuthenticated) {
				cfg = &clientconfig.Config{}
			} else if err != nil {
				return err
			}
			updated := cfg.WithAPIURL(apiURL).WithRPCURL(rpcURL)
			if err := env.store.Save(cmd.Context(), updated); err != nil {
				return err
			}
			fmt.Fprintln(env.out, "Configuration updated")
			return nil
		},
	}
	setCmd.Flags().StringVar(&apiURL, "api-url", "", "API URL")
	setCmd.Flags().StringVar(&rpcURL, "rpc-url", "", "RPC URL")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := env.store.Load()
			if errors.Is(err, clientconfig.ErrNotAuthenticated) {
				cfg, err = env.store.LoadFile()
				if errors.Is(err, clientconfig.ErrNotAuthenticated) {
					cfg, err = &clientconfig.Config{APIURL: clientconfig.DefaultAPIURL, RPCURL: clientconfig.DefaultRPCURL}, nil
				}
			}
			if err != nil {
				return err
			}
			path, _ := env.store.Path()
			token := "(none)"
			if cfg.Token != "" {
				token = cfg.TokenPreview()
			}
			fmt.Fprintf(env.out, "Config file: %s\n", path)
			fmt.Fprintf(env.out, "API URL: %s\n", cfg.APIURL)
			fmt.Fprintf(env.out, "RPC URL: %s\n", cfg.RPCURL)
			fmt.Fprintf(env.out, "Token: %s\n", token)
			return nil
		},
	}

	configCmd.AddCommand(setCmd, showCmd)
	return configCmd
}
