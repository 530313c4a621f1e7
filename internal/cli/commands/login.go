package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rentalx-dev/rentalx/internal/forms"
)

// NewLoginCmd creates the login command
func NewLoginCmd(opts *Options) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the rentalx API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd.Context(), opts, email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set RENTALX_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set RENTALX_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(ctx context.Context, opts *Options, email, password string) error {
	// Check for environment variables (useful for CI/CD)
	if email == "" {
		email = os.Getenv("RENTALX_EMAIL")
	}
	if password == "" {
		password = os.Getenv("RENTALX_PASSWORD")
	}

	if email == "" {
		return fmt.Errorf("email is required (use --email flag or RENTALX_EMAIL env var)")
	}

	if password == "" {
		var err error
		if password, err = opts.readPassword("Password: "); err != nil {
			return err
		}
	}

	if err := forms.Validate(forms.SignInForm{Email: email, Password: password}); err != nil {
		return err
	}

	rt, err := opts.open(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	out := opts.out()
	fmt.Fprintf(out, "Logging in to %s...\n", rt.cfg.Client.APIURL)

	s, err := rt.manager.SignIn(ctx, email, password)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "✓ Login successful!")
	printSession(out, s)

	return nil
}
