package cmd

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var attachmentsCmd = &cobra.Command{
	Use:   "attachments",
	Short: "Manage form attachments.",
}

var attachmentsListCmd = &cobra.Command{
	Use:   "list PROJECT_ID XML_FORM_ID",
	Short: "List the attachments of a form draft.",
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
		view, err := c.FormDraft(cmd.Context(), projectID, args[1])
		if err != nil {
			return alertError(c, err)
		}
		rows := make([][]string, 0, len(view.Attachments))
		for _, a := range view.Attachments {
			status := "uploaded"
			if a.Missing() {
				status = "missing"
			}
			rows = append(rows, []string{a.Name, a.Type, status, formatTime(a.UpdatedAt)})
		}
		return printTable(cmd.OutOrStdout(), view, []string{"NAME", "TYPE", "STATUS", "UPDATED"}, rows)
	},
}

var attachmentsUploadCmd = &cobra.Command{
	Use:   "upload PROJECT_ID XML_FORM_ID FILE",
	Short: "Upload a file to a form draft.",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := projectArg(args[0])
		if err != nil {
			return err
		}
		name, _ := cmd.Flags().GetString("name")
		if name == "" {
			name = filepath.Base(args[2])
		}

		f, err := os.Open(args[2])
		if err != nil {
			return err
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return err
		}

		c, err := signedIn(cmd.Context())
		if err != nil {
			return err
		}
		contentType := mime.TypeByExtension(filepath.Ext(name))
		if err := c.UploadAttachment(cmd.Context(), projectID, args[1], name, f, info.Size(), contentType); err != nil {
			return alertError(c, err)
		}
		a, _ := c.Banner.Current()
		fmt.Fprintln(cmd.OutOrStdout(), a.Message)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(attachmentsCmd)
	attachmentsCmd.AddCommand(attachmentsListCmd, attachmentsUploadCmd)
	attachmentsUploadCmd.Flags().String("name", "", "Attachment name (default: file name)")
}
