package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/departures-cli/internal/ledger"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Summarize the spreadsheet ledger",
	RunE: func(cmd *cobra.Command, _ []string) error {
		entries, err := ledger.Read(cfg.Ledger.Path, cfg.Ledger.Sheet)
		if err != nil {
			return err
		}
		formatLedgerSummary(cmd.OutOrStdout(), cfg.Ledger.Path, cfg.Ledger.Sheet, ledger.Summarize(entries))
		return nil
	},
}

func formatLedgerSummary(out io.Writer, path, sheet string, s ledger.Summary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "File:\t%s [%s]\n", path, sheet)
	fmt.Fprintf(w, "Rows:\t%d\n", s.Rows)
	fmt.Fprintf(w, "On time:\t%d\n", s.OnTime)
	fmt.Fprintf(w, "Delayed:\t%d\n", s.Delayed)
	fmt.Fprintf(w, "Runs:\t%d\n", s.Runs)
	if s.Runs > 0 {
		fmt.Fprintf(w, "First run:\t%s\n", s.First)
		fmt.Fprintf(w, "Last run:\t%s\n", s.Last)
	}
	w.Flush() //nolint:errcheck
}

func init() {
	rootCmd.AddCommand(ledgerCmd)
}
