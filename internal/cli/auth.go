package cli

import (
	"fmt"

	"github.com/chepyr/go-task-board/internal/taskclient"
	"github.com/spf13/cobra"
)

func credentialFlags(cmd *cobra.Command, email, password *string) {
	cmd.Flags().StringVarP(email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
}

func signUpCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.store.SignUp(a.context(cmd), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account created for %s. Sign in with `taskctl signin`.\n", user.Email)
			return nil
		},
	}
	credentialFlags(cmd, &email, &password)
	return cmd
}

func signInCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.store.SignIn(a.context(cmd), email, password)
			if err != nil {
				return err
			}
			if res.User == nil {
				return fmt.Errorf("sign in: store returned no user")
			}
			if err := a.saveSession(taskclient.Session{User: *res.User, AccessToken: res.AccessToken}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", res.User.Email)
			return nil
		},
	}
	credentialFlags(cmd, &email, &password)
	return cmd
}

func signOutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Sign out and forget the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadSession()
			if err != nil {
				return err
			}
			if err := a.store.SignOut(a.context(cmd), s.AccessToken); err != nil {
				// the local session goes away even if the store call fails
				a.log.Warn("sign out", "error", err)
			}
			if err := a.clearSession(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadSession()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", s.User.Email, s.User.ID)
			return nil
		},
	}
}
