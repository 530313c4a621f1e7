package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rentalx-dev/rentalx/internal/api"
	"github.com/rentalx-dev/rentalx/internal/forms"
)

// NewSignupCmd creates the signup command
func NewSignupCmd(opts *Options) *cobra.Command {
	var form forms.CreateUserForm

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a rentalx account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSignup(cmd.Context(), opts, form)
		},
	}

	cmd.Flags().StringVar(&form.Name, "name", "", "Full name")
	cmd.Flags().StringVar(&form.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&form.Password, "password", "", "Password (will prompt if not provided)")
	cmd.Flags().StringVar(&form.PasswordConfirmation, "password-confirmation", "", "Password confirmation (defaults to --password)")

	return cmd
}

func runSignup(ctx context.Context, opts *Options, form forms.CreateUserForm) error {
	var err error

	if form.Password == "" {
		if form.Password, err = opts.readPassword("Password: "); err != nil {
			return err
		}
		if form.PasswordConfirmation == "" {
			if form.PasswordConfirmation, err = opts.readPassword("Confirm password: "); err != nil {
				return err
			}
		}
	} else if form.PasswordConfirmation == "" {
		form.PasswordConfirmation = form.Password
	}

	if err := forms.Validate(form); err != nil {
		return err
	}

	rt, err := opts.open(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	user, err := rt.client.CreateUser(ctx, api.CreateUserRequest{
		Name:                 form.Name,
		Email:                form.Email,
		Password:             form.Password,
		PasswordConfirmation: form.PasswordConfirmation,
	})
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	out := opts.out()
	fmt.Fprintf(out, "✓ Account created for %s (%s)\n", user.Name, user.Email)
	fmt.Fprintln(out, "Run 'rentalx login' to sign in.")

	return nil
}
