package main

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/departures-cli/internal/model"
	"github.com/sells-group/departures-cli/internal/snapshot"
)

var snapshotFormat string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Print the latest JSON snapshot",
	RunE: func(cmd *cobra.Command, _ []string) error {
		batch, err := snapshot.Read(cfg.Snapshot.Path)
		if err != nil {
			return err
		}
		return writeSnapshot(cmd.OutOrStdout(), *batch, snapshotFormat)
	},
}

func writeSnapshot(w io.Writer, batch model.CaptureBatch, format string) error {
	switch format {
	case "json":
		data, err := snapshot.Encode(batch)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(batch); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return enc.Close()
	default:
		return eris.Errorf("unsupported format %q (want json or yaml)", format)
	}
}

func init() {
	snapshotCmd.Flags().StringVar(&snapshotFormat, "format", "json", "output format: json or yaml")
	rootCmd.AddCommand(snapshotCmd)
}
