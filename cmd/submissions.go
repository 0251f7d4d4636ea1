package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var submissionsCmd = &cobra.Command{
	Use:   "submissions PROJECT_ID XML_FORM_ID",
	Short: "List one page of a form's submissions.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := projectArg(args[0])
		if err != nil {
			return err
		}
		pageSize, _ := cmd.Flags().GetInt("page-size")
		skip, _ := cmd.Flags().GetInt("skip")

		c, err := signedIn(cmd.Context())
		if err != nil {
			return err
		}
		view, err := c.Submissions(cmd.Context(), projectID, args[1], pageSize, skip)
		if err != nil {
			return alertError(c, err)
		}
		rows := make([][]string, 0, len(view.Page.Value))
		for _, s := range view.Page.Value {
			submitted := s.System.SubmissionDate
			rows = append(rows, []string{
				s.InstanceID(), s.SubmitterName(), formatTime(&submitted), s.ReviewState(),
				count(s.MissingAttachments()), yesNo(s.Edited()),
			})
		}
		if err := printTable(cmd.OutOrStdout(), view,
			[]string{"INSTANCE ID", "SUBMITTER", "SUBMITTED", "REVIEW STATE", "MISSING FILES", "EDITED"}, rows); err != nil {
			return err
		}
		if !jsonMode {
			total := len(view.Page.Value)
			if view.Page.Count != nil {
				total = *view.Page.Count
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Showing %s-%s of %s.\n",
				count(skip+1), count(skip+len(view.Page.Value)), count(total))
			if view.HasMore {
				fmt.Fprintf(cmd.ErrOrStderr(), "More: --skip %d\n", skip+view.PageSize)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(submissionsCmd)
	submissionsCmd.Flags().Int("page-size", 0, "Submissions per page (default 250)")
	submissionsCmd.Flags().Int("skip", 0, "Submissions to skip")
}
