package cmd

import (
	"fmt"
	"strings"

	"github.com/parisxmas/central-admin/internal/central"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

var openCmd = &cobra.Command{
	Use:   "open [PROJECT_ID [XML_FORM_ID]]",
	Short: "Open the web UI of the server, a project or a form in the browser.",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, xmlFormID := 0, ""
		if len(args) > 0 {
			id, err := projectArg(args[0])
			if err != nil {
				return err
			}
			projectID = id
		}
		if len(args) > 1 {
			xmlFormID = args[1]
		}
		url := strings.TrimRight(cfg.CentralURL, "/") + central.WebPath(projectID, xmlFormID)
		if printOnly, _ := cmd.Flags().GetBool("print"); printOnly {
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		}
		return browser.OpenURL(url)
	},
}

func init() {
	rootCmd.AddCommand(openCmd)
	openCmd.Flags().Bool("print", false, "Print the URL instead of opening it")
}
