package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/departures-cli/internal/model"
	"github.com/sells-group/departures-cli/internal/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded capture runs",
	Long:  "Lists capture runs from the SQLite history, newest first. Requires store.path.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		runs, err := st.ListRuns(ctx, historyLimit)
		if err != nil {
			return eris.Wrap(err, "history list")
		}
		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(cmd.OutOrStdout(), runs)
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print the flights captured by one run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		flights, err := st.RunFlights(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "history show")
		}
		if len(flights) == 0 {
			return eris.Errorf("no flights recorded for run %s", args[0])
		}

		formatRunFlights(cmd.OutOrStdout(), flights)
		return nil
	},
}

func openHistory(cmd *cobra.Command) (store.Store, error) {
	st, err := initStore(cmd.Context())
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, eris.New("capture history is disabled (set store.path or DEPARTURES_STORE_PATH)")
	}
	return st, nil
}

func formatRunsList(out io.Writer, runs []store.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCAPTURED\tFLIGHTS\tON-TIME\tDELAYED\tSKIPPED")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\n", r.ID, r.CapturedAt, r.Flights, r.OnTime, r.Delayed, r.Skipped)
	}
	w.Flush() //nolint:errcheck
}

func formatRunFlights(out io.Writer, flights []model.FlightRecord) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(model.RecordColumns(), "\t")))
	for _, f := range flights {
		fmt.Fprintln(w, strings.Join(f.Values(), "\t"))
	}
	w.Flush() //nolint:errcheck
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum runs to list (0 for all)")
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}
