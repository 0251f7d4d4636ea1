package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/parisxmas/central-admin/internal/presenter"
	"github.com/parisxmas/central-admin/internal/requestdata"
	"github.com/parisxmas/central-admin/internal/resources"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and remember the session.",
	Long: "Log in with an email address and password. The password is read " +
		"from CENTRAL_PASSWORD or from standard input.",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		if email == "" {
			return fmt.Errorf("--email is required")
		}
		password := os.Getenv("CENTRAL_PASSWORD")
		if password == "" {
			fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read password: %w", err)
			}
			password = strings.TrimRight(line, "\r\n")
		}

		c, err := cliConsole()
		if err != nil {
			return err
		}
		// Resume a remembered session so that logging in again ends it.
		_ = c.Restore(cmd.Context())
		if err := c.Login(cmd.Context(), email, password); err != nil {
			return alertError(c, err)
		}
		user, _ := requestdata.Data[presenter.User](c.Data, resources.CurrentUser)
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s.\n", user.NameOrEmail())
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the remembered session.",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := signedIn(cmd.Context())
		if err != nil {
			return err
		}
		if err := c.Logout(cmd.Context()); err != nil {
			return alertError(c, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in user.",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := signedIn(cmd.Context())
		if err != nil {
			return err
		}
		user, _ := requestdata.Data[presenter.User](c.Data, resources.CurrentUser)
		s, _ := c.Session.Session()
		return printTable(cmd.OutOrStdout(), user,
			[]string{"ID", "NAME", "EMAIL", "SESSION EXPIRES"},
			[][]string{{fmt.Sprint(user.ID), user.DisplayName, user.Email, formatTime(&s.ExpiresAt)}})
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
	loginCmd.Flags().String("email", "", "Email address")
}
