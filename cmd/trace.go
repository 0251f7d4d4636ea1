package cmd

import (
	"errors"
	"strconv"

	"github.com/parisxmas/central-admin/internal/requesttrace"
	"github.com/spf13/cobra"
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Show recorded request state transitions.",
	Long:  "Show the request state transitions recorded in CENTRAL_TRACE_DB by `central-admin serve`.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.TraceDB == "" {
			return errors.New("CENTRAL_TRACE_DB is not set")
		}
		consoleID, _ := cmd.Flags().GetString("console")
		limit, _ := cmd.Flags().GetInt("limit")

		recorder, err := requesttrace.Open(cfg.TraceDB)
		if err != nil {
			return err
		}
		defer recorder.Close()
		recs, err := recorder.Transitions(consoleID, limit)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(recs))
		for _, rec := range recs {
			errText := "-"
			if rec.Error != nil {
				errText = *rec.Error
			}
			at := rec.At
			rows = append(rows, []string{formatTime(&at), rec.Console, rec.Key,
				strconv.FormatInt(rec.Token, 10), rec.From + " -> " + rec.To, errText})
		}
		return printTable(cmd.OutOrStdout(), recs,
			[]string{"AT", "CONSOLE", "KEY", "TOKEN", "TRANSITION", "ERROR"}, rows)
	},
}

func init() {
	rootCmd.AddCommand(traceCmd)
	traceCmd.Flags().String("console", "", "Only show transitions of this console")
	traceCmd.Flags().Int("limit", 50, "Number of transitions to show (0 for all)")
}
