package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/redmonkez12/dichoptic/cmd/dichoptic/ui"
)

func authCommands(a *app) []*cobra.Command {
	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			if err := ui.Credentials(&email, &password); err != nil {
				return err
			}

			u, err := a.client.Register(cmd.Context(), email, password)
			if err != nil {
				return fail(err)
			}
			ui.PrintSuccess("Registered " + u.Email)
			ui.PrintNotice("Check your inbox for the verification link, then run `dichoptic verify <token>`.")
			return nil
		},
	}
	credentialFlags(registerCmd)

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			if err := ui.Credentials(&email, &password); err != nil {
				return err
			}

			if err := a.client.Login(cmd.Context(), email, password); err != nil {
				return fail(err)
			}
			ui.PrintSuccess("Logged in as " + email)
			return nil
		},
	}
	credentialFlags(loginCmd)

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.client.Logout(cmd.Context()); err != nil {
				return fail(err)
			}
			ui.PrintSuccess("Logged out")
			return nil
		},
	}

	whoamiCmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.client.Profile(cmd.Context())
			if err != nil {
				return fail(err)
			}
			ui.PrintProfile(p)
			return nil
		},
	}

	verifyCmd := &cobra.Command{
		Use:   "verify <token>",
		Short: "Confirm an email address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printMessage(a.client.VerifyEmail(cmd.Context(), args[0]))
		},
	}

	resendCmd := &cobra.Command{
		Use:   "resend-verification",
		Short: "Send the verification email again",
		RunE: withEmail(func(ctx context.Context, email string) (string, error) {
			return a.client.ResendVerification(ctx, email)
		}),
	}
	resendCmd.Flags().String("email", "", "Account email")

	forgotCmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Request a password reset email",
		RunE: withEmail(func(ctx context.Context, email string) (string, error) {
			return a.client.ForgotPassword(ctx, email)
		}),
	}
	forgotCmd.Flags().String("email", "", "Account email")

	resetCmd := &cobra.Command{
		Use:   "reset-password <token>",
		Short: "Choose a new password using a reset token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, _ := cmd.Flags().GetString("password")
			if password == "" {
				if err := ui.Input("New password", &password, true); err != nil {
					return err
				}
			}
			return printMessage(a.client.ResetPassword(cmd.Context(), args[0], password))
		},
	}
	resetCmd.Flags().String("password", "", "New password")

	return []*cobra.Command{registerCmd, loginCmd, logoutCmd, whoamiCmd, verifyCmd, resendCmd, forgotCmd, resetCmd}
}

func credentialFlags(cmd *cobra.Command) {
	cmd.Flags().String("email", "", "Account email")
	cmd.Flags().String("password", "", "Account password (prompted when empty)")
}

func withEmail(fn func(ctx context.Context, email string) (string, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		email, _ := cmd.Flags().GetString("email")
		if email == "" {
			if err := ui.Input("Email", &email, false); err != nil {
				return err
			}
		}
		return printMessage(fn(cmd.Context(), email))
	}
}

func printMessage(msg string, err error) error {
	if err != nil {
		return fail(err)
	}
	ui.PrintSuccess(msg)
	return nil
}
