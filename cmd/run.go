package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/departures-cli/internal/extract"
	"github.com/sells-group/departures-cli/internal/fetcher"
	"github.com/sells-group/departures-cli/internal/ledger"
	"github.com/sells-group/departures-cli/internal/pipeline"
)

var (
	runHold   time.Duration
	runNoHold bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Capture the departures board once, then hold",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close() //nolint:errcheck
		}

		ex, err := extract.New(cfg.Extract)
		if err != nil {
			return eris.Wrap(err, "init extractor")
		}
		lw, err := ledger.NewWriter(cfg.Ledger)
		if err != nil {
			return eris.Wrap(err, "init ledger")
		}

		opts := pipeline.Options{
			SourceURL: cfg.Source.URL,
			Fetcher: fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
				UserAgent: cfg.Source.UserAgent,
				Timeout:   time.Duration(cfg.Source.TimeoutSecs) * time.Second,
			}),
			Extractor:    ex,
			SnapshotPath: cfg.Snapshot.Path,
			Ledger:       lw,
			Store:        st,
			Console:      cmd.OutOrStdout(),
		}
		p, err := pipeline.New(opts)
		if err != nil {
			return err
		}

		result, err := p.Run(ctx)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		if !result.Empty {
			zap.L().Info("capture complete",
				zap.Int("flights", len(result.Batch.Flights)),
				zap.Int("skipped", result.Skipped),
				zap.String("timestamp", result.Batch.Timestamp),
			)
		}

		hold(ctx, cmd)
		return nil
	},
}

func hold(ctx context.Context, cmd *cobra.Command) {
	if runNoHold {
		return
	}
	d := cfg.Run.Hold
	if cmd.Flags().Changed("hold") {
		d = runHold
	}
	pipeline.Hold(ctx, d)
}

func init() {
	runCmd.Flags().DurationVar(&runHold, "hold", 120*time.Second, "delay before exit (overrides run.hold)")
	runCmd.Flags().BoolVar(&runNoHold, "no-hold", false, "exit as soon as the capture finishes")
	rootCmd.AddCommand(runCmd)
}
