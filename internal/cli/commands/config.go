package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rentalx-dev/rentalx/internal/cli/userconfig"
	"github.com/rentalx-dev/rentalx/internal/config"
)

// NewConfigCmd creates the config command group
func NewConfigCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change CLI settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			path, err := userconfig.GetConfigPath()
			if err != nil {
				return err
			}

			out := opts.out()
			fmt.Fprintf(out, "config file:   %s\n", path)
			fmt.Fprintf(out, "api_url:       %s\n", cfg.Client.APIURL)
			fmt.Fprintf(out, "session_store: %s\n", cfg.Client.SessionStore)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get [key]",
		Short: "Print values stored in the config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, err := userconfig.Load()
			if err != nil {
				return err
			}

			keys := userconfig.Keys
			if len(args) == 1 {
				keys = args
			}

			out := opts.out()
			for _, key := range keys {
				value, err := uc.Get(key)
				if err != nil {
					return err
				}
				if value == "" {
					value = "(not set)"
				}
				if len(args) == 1 {
					fmt.Fprintln(out, value)
				} else {
					fmt.Fprintf(out, "%s: %s\n", key, value)
				}
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Persist a setting (api_url, session_store)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			if key == "session_store" {
				value = strings.ToLower(strings.TrimSpace(value))
				if err := config.ValidateStore(value); err != nil {
					return err
				}
			}

			uc, err := userconfig.Load()
			if err != nil {
				return err
			}
			if err := uc.Set(key, value); err != nil {
				return err
			}
			if err := userconfig.Save(uc); err != nil {
				return err
			}

			fmt.Fprintf(opts.out(), "✓ %s = %s\n", key, value)
			return nil
		},
	})

	return cmd
}
