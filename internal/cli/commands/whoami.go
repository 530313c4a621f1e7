package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd(opts *Options) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Long: `Show the signed-in user from the stored session.

With --remote the stored token is also checked against the API.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(cmd.Context(), opts, remote)
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "Verify the session against the API")

	return cmd
}

func runWhoami(ctx context.Context, opts *Options, remote bool) error {
	rt, err := opts.open(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	out := opts.out()

	current := rt.manager.Current()
	if !current.IsAuthenticated() {
		fmt.Fprintln(out, "Not logged in")
		return nil
	}

	printSession(out, current)

	if remote {
		user, err := rt.client.Profile(ctx)
		if err != nil {
			return fmt.Errorf("failed to verify session: %w", err)
		}
		fmt.Fprintf(out, "  API: verified as %s\n", user.Email)
	}

	return nil
}
