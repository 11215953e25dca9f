package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/episim-dev/episim/internal/logging"
	"github.com/episim-dev/episim/internal/scenario"
	"github.com/episim-dev/episim/internal/store"
)

func newRunCmd() *cobra.Command {
	var (
		outPath string
		dbPath  string
		label   string
	)
	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a simulation scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, log := loggerFromFlags(cmd)

			sc, err := scenario.Load(args[0])
			if err != nil {
				return err
			}
			if label != "" {
				sc.Label = label
			}
			s, err := sc.Build()
			if err != nil {
				return err
			}
			s.Log = log
			s.Tracer = logging.NewStepTracer(filepath.Dir(args[0]), level)
			defer s.Tracer.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			res, err := s.Run(ctx)
			if err != nil {
				return err
			}

			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("create output file: %w", err)
				}
				defer f.Close()
				if err := res.ExportCSV(f); err != nil {
					return err
				}
				log.Info("results written", "path", outPath)
			}

			if dbPath != "" {
				st, err := store.Open(dbPath)
				if err != nil {
					return err
				}
				defer st.Close()
				id, err := st.SaveRun(ctx, s.Pars, res)
				if err != nil {
					return err
				}
				log.Info("run stored", "db", dbPath, "run_id", id)
			}

			if outPath == "" && dbPath == "" {
				return res.ExportCSV(os.Stdout)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write results CSV to this path (default stdout)")
	cmd.Flags().StringVar(&dbPath, "db", "", "Also store the run in this SQLite database")
	cmd.Flags().StringVar(&label, "label", "", "Override the scenario label")
	return cmd
}
