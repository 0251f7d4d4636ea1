package cmd

import (
	"fmt"
	"strconv"

	"github.com/parisxmas/central-admin/internal/presenter"
	"github.com/spf13/cobra"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List projects.",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := signedIn(cmd.Context())
		if err != nil {
			return err
		}
		view, err := c.Home(cmd.Context())
		if err != nil {
			return alertError(c, err)
		}
		rows := make([][]string, 0, len(view.Projects))
		for _, p := range view.Projects {
			rows = append(rows, []string{
				strconv.Itoa(p.ID), p.NameWithArchived(), count(p.Forms),
				count(p.AppUsers), yesNo(p.Encrypted()), formatTime(p.LastSubmission),
			})
		}
		return printTable(cmd.OutOrStdout(), view,
			[]string{"ID", "NAME", "FORMS", "APP USERS", "ENCRYPTED", "LAST SUBMISSION"}, rows)
	},
}

var formsCmd = &cobra.Command{
	Use:   "forms PROJECT_ID",
	Short: "List the forms of a project.",
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
		view, err := c.Project(cmd.Context(), projectID)
		if err != nil {
			return alertError(c, err)
		}
		rows := make([][]string, 0, len(view.Forms))
		for _, f := range view.Forms {
			rows = append(rows, formRow(f))
		}
		return printTable(cmd.OutOrStdout(), view,
			[]string{"ID", "NAME", "VERSION", "STATE", "SUBMISSIONS", "LAST SUBMISSION"}, rows)
	},
}

func formRow(f presenter.Form) []string {
	state := f.State
	if !f.Published() {
		state = "draft"
	}
	return []string{f.XMLFormID, f.NameOrID(), f.VersionOrBlank(), state,
		count(f.Submissions), formatTime(f.LastSubmission)}
}

func projectArg(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid project id %q", s)
	}
	return n, nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func init() {
	rootCmd.AddCommand(projectsCmd, formsCmd)
}
