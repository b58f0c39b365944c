// Package app wires the driftwatch command tree.
package app

import (
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexchoi0/driftwatch/clientauth"
	"github.com/alexchoi0/driftwatch/clientconfig"
	"github.com/alexchoi0/driftwatch/internal/logging"
)

// environment carries the collaborators commands use; tests replace them.
type environment struct {
	store       *clientconfig.Store
	out         io.Writer
	errOut      io.Writer
	handshake   func(env *environment) clientauth.HandshakeFunc
	newVerifier clientauth.VerifierFactory
	timeout     time.Duration
	openBrowser func(url string) error // nil opens the system browser
}

func defaultEnvironment() *environment {
	return &environment{
		store:       clientconfig.NewStore(""),
		out:         os.Stdout,
		errOut:      os.Stderr,
		handshake:   browserHandshake,
		newVerifier: clientauth.NewAPIVerifier,
	}
}

// NewRootCmd creates the root command for the driftwatch CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(defaultEnvironment())
}

func newRootCmd(env *environment) *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:               "driftwatch",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		SilenceErrors:     true,
		Short:             "driftwatch tracks benchmark results and catches performance regressions",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logging.CLI(env.errOut, verbose)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	rootCmd.SetOut(env.out)
	rootCmd.SetErr(env.errOut)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newAuthCommand(env))
	rootCmd.AddCommand(newConfigCommand(env))
	return rootCmd
}

func (env *environment) service() *clientauth.Service {
	return &clientauth.Service{
		Store:       env.store,
		Handshake:   env.handshake(env),
		NewVerifier: env.newVerifier,
		Out:         env.out,
	}
}
