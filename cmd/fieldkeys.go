package cmd

import (
	"fmt"
	"strconv"

	"github.com/parisxmas/central-admin/internal/presenter"
	"github.com/spf13/cobra"
)

var fieldKeysCmd = &cobra.Command{
	Use:     "field-keys",
	Aliases: []string{"app-users"},
	Short:   "Manage the app users of a project.",
}

var fieldKeysListCmd = &cobra.Command{
	Use:   "list PROJECT_ID",
	Short: "List app users.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := projectArg(args[0])
		if err != nil {
			return err
		}
		c, err := signedIn(cmd.Context())
		if err != nil {
			return err
		}
		view, err := c.FieldKeys(cmd.Context(), projectID)
		if err != nil {
			return alertError(c, err)
		}
		rows := make([][]string, 0, len(view.FieldKeys))
		for _, k := range view.FieldKeys {
			rows = append(rows, fieldKeyRow(k))
		}
		return printTable(cmd.OutOrStdout(), view,
			[]string{"ID", "DISPLAY NAME", "STATUS", "CREATED", "LAST USED"}, rows)
	},
}

var fieldKeysCreateCmd = &cobra.Command{
	Use:   "create PROJECT_ID DISPLAY_NAME",
	Short: "Create an app user.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := projectArg(args[0])
		if err != nil {
			return err
		}
		c, err := signedIn(cmd.Context())
		if err != nil {
			return err
		}
		key, err := c.CreateFieldKey(cmd.Context(), projectID, args[1])
		if err != nil {
			return alertError(c, err)
		}
		return printTable(cmd.OutOrStdout(), key,
			[]string{"ID", "DISPLAY NAME", "STATUS", "CREATED", "LAST USED"},
			[][]string{fieldKeyRow(key)})
	},
}

var fieldKeysRevokeCmd = &cobra.Command{
	Use:   "revoke PROJECT_ID APP_USER_ID",
	Short: "Revoke the access of an app user.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := projectArg(args[0])
		if err != nil {
			return err
		}
		id, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid app user id %q", args[1])
		}
		c, err := signedIn(cmd.Context())
		if err != nil {
			return err
		}
		// Revoking needs the app user's token, which only the list carries.
		if _, err := c.FieldKeys(cmd.Context(), projectID); err != nil {
			return alertError(c, err)
		}
		if _, err := c.RevokeFieldKey(cmd.Context(), projectID, id); err != nil {
			return alertError(c, err)
		}
		a, _ := c.Banner.Current()
		fmt.Fprintln(cmd.OutOrStdout(), a.Message)
		return nil
	},
}

func fieldKeyRow(k presenter.FieldKey) []string {
	status := "active"
	if k.Revoked() {
		status = "revoked"
	}
	created := k.CreatedAt
	return []string{strconv.Itoa(k.ID), k.DisplayName, status, formatTime(&created), formatTime(k.LastUsed)}
}

func init() {
	rootCmd.AddCommand(fieldKeysCmd)
	fieldKeysCmd.AddCommand(fieldKeysListCmd, fieldKeysCreateCmd, fieldKeysRevokeCmd)
}
