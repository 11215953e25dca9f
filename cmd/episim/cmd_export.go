package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/episim-dev/episim/internal/store"
)

func newExportCmd() *cobra.Command {
	var (
		dbPath  string
		format  string
		outPath string
	)
	cmd := &cobra.Command{
		Use:   "export <run-id>",
		Short: "Export a stored run's result series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid run id %q", args[0])
			}

			st, err := store.Open(dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			_, res, err := st.LoadRun(context.Background(), id)
			if err != nil {
				return err
			}

			out := os.Stdout
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("create output file: %w", err)
				}
				defer f.Close()
				out = f
			}

			switch format {
			case "csv":
				return res.ExportCSV(out)
			case "arrow":
				return res.ExportArrowIPC(out)
			default:
				return fmt.Errorf("unknown format %q (want csv or arrow)", format)
			}
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "episim.db", "Run database path")
	cmd.Flags().StringVar(&format, "format", "csv", "Export format: csv or arrow")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output path (default stdout)")
	return cmd
}
