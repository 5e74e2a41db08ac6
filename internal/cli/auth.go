package cli

import (
	"errors"
	"fmt"

	"github.com/sadopc/taskr/internal/store"
	"github.com/spf13/cobra"
)

func signupCmd(configPath *string) *cobra.Command {
	var u store.User

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a user account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(*configPath, func(e *env) error {
				added, err := e.users.AddUser(u)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created user %d (%s)\n", added.ID, added.Email)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&u.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&u.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&u.Password, "password", "", "Password")
	cmd.Flags().StringVar(&u.PhoneNo, "phone", "", "Phone number")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")

	return cmd
}

func loginCmd(configPath *string) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in; the session persists until logout",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(*configPath, func(e *env) error {
				u, err := e.session.Authenticate(email, password)
				if err != nil {
					return err
				}
				if u == nil {
					return errors.New("invalid email or password")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", u.Name)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")

	return cmd
}

func logoutCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(*configPath, func(e *env) error {
				if err := e.session.Logout(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
				return nil
			})
		},
	}
}

func whoamiCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(*configPath, func(e *env) error {
				u := e.session.CurrentUser()
				if u == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> (id %d)\n", u.Name, u.Email, u.ID)
				return nil
			})
		},
	}
}
