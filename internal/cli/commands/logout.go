package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

const signOutPrompt = "Sign out? You will need a connection to sign in again"

// NewLogoutCmd creates the logout command
func NewLogoutCmd(opts *Options) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(cmd.Context(), opts, yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func runLogout(ctx context.Context, opts *Options, yes bool) error {
	rt, err := opts.open(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	out := opts.out()

	if !rt.manager.IsAuthenticated() {
		// Still clear the store: a record without a token is never restored
		rt.manager.SignOut(ctx)
		fmt.Fprintln(out, "Not logged in")
		return nil
	}

	if !yes {
		ok, err := opts.confirm(signOutPrompt)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Cancelled")
			return nil
		}
	}

	rt.manager.SignOut(ctx)
	fmt.Fprintln(out, "✓ Logged out")

	return nil
}
