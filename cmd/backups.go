package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "Show the status of automatic backups.",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := signedIn(cmd.Context())
		if err != nil {
			return err
		}
		view, err := c.Backups(cmd.Context())
		if err != nil {
			return alertError(c, err)
		}
		last := view.Config.Latest
		lastRun, result := "-", "-"
		if last != nil {
			lastRun = formatTime(&last.LoggedAt)
			result = "failed"
			if last.Succeeded() {
				result = "succeeded"
			}
		}
		return printTable(cmd.OutOrStdout(), view,
			[]string{"STATUS", "TYPE", "LAST RUN", "RESULT"},
			[][]string{{view.Status, orDash(view.Config.Type), lastRun, result}})
	},
}

var backupsTerminateCmd = &cobra.Command{
	Use:   "terminate",
	Short: "Turn off automatic backups.",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := signedIn(cmd.Context())
		if err != nil {
			return err
		}
		if err := c.TerminateBackups(cmd.Context()); err != nil {
			return alertError(c, err)
		}
		a, _ := c.Banner.Current()
		fmt.Fprintln(cmd.OutOrStdout(), a.Message)
		return nil
	},
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	rootCmd.AddCommand(backupsCmd)
	backupsCmd.AddCommand(backupsTerminateCmd)
}
