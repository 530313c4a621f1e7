package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rentalx-dev/rentalx/internal/cli/commands"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the command tree around opts
func NewRootCmd(opts *commands.Options) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rentalx",
		Short: "Rentalx - car rental account from the terminal",
		Long: `Rentalx CLI - Sign in to the rentalx API and manage your session.

The session survives restarts: it is kept in a local SQLite file by default,
or in the OS keychain or Redis (see 'rentalx config').`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.APIURL, "api-url", "", "API base URL (or set RENTALX_API_URL)")
	rootCmd.PersistentFlags().StringVar(&opts.Store, "store", "", "Session store: sqlite, keyring, redis (or set RENTALX_SESSION_STORE)")

	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rentalx version %s\n", version)
		},
	})

	// Add all subcommands
	rootCmd.AddCommand(commands.NewLoginCmd(opts))
	rootCmd.AddCommand(commands.NewLogoutCmd(opts))
	rootCmd.AddCommand(commands.NewWhoamiCmd(opts))
	rootCmd.AddCommand(commands.NewProfileCmd(opts))
	rootCmd.AddCommand(commands.NewSignupCmd(opts))
	rootCmd.AddCommand(commands.NewConfigCmd(opts))

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	if err := NewRootCmd(&commands.Options{}).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
