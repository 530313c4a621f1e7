package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rentalx-dev/rentalx/internal/forms"
	"github.com/rentalx-dev/rentalx/internal/session"
)

// NewProfileCmd creates the profile command group
func NewProfileCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage the signed-in user's profile",
	}

	cmd.AddCommand(newProfileUpdateCmd(opts))

	return cmd
}

func newProfileUpdateCmd(opts *Options) *cobra.Command {
	var name, driverLicense, avatar string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Edit name, driver license and avatar",
		Long: `Edit the profile of the stored session.

Flags that are not given keep their current value. The change is local to
this device and is not sent to the API.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			current := rt.manager.Current()
			form := forms.ProfileForm{
				Name:          current.Name,
				DriverLicense: current.DriverLicense,
				Avatar:        current.Avatar,
			}
			if cmd.Flags().Changed("name") {
				form.Name = name
			}
			if cmd.Flags().Changed("driver-license") {
				form.DriverLicense = driverLicense
			}
			if cmd.Flags().Changed("avatar") {
				form.Avatar = avatar
			}

			return runProfileUpdate(cmd.Context(), opts, rt, form)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Full name")
	cmd.Flags().StringVar(&driverLicense, "driver-license", "", "Driver license number")
	cmd.Flags().StringVar(&avatar, "avatar", "", "Avatar URL (empty to remove)")

	return cmd
}

func runProfileUpdate(ctx context.Context, opts *Options, rt *runtime, form forms.ProfileForm) error {
	current := rt.manager.Current()
	if !current.IsAuthenticated() {
		return session.ErrNotAuthenticated
	}

	if err := forms.Validate(form); err != nil {
		return err
	}

	updated, err := rt.manager.UpdateUser(ctx, session.Session{
		UserID:        current.UserID,
		Name:          form.Name,
		DriverLicense: form.DriverLicense,
		Avatar:        form.Avatar,
	})
	if err != nil {
		return err
	}

	out := opts.out()
	fmt.Fprintln(out, "✓ Profile updated")
	printSession(out, updated)

	return nil
}
