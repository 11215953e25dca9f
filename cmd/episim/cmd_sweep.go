package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/episim-dev/episim/internal/scenario"
	"github.com/episim-dev/episim/internal/sim"
)

func newSweepCmd() *cobra.Command {
	var (
		nSeeds  int
		workers int
	)
	cmd := &cobra.Command{
		Use:   "sweep <scenario.yaml>",
		Short: "Run a scenario across multiple random seeds",
		Long: `sweep runs the same scenario once per seed (0..N-1) in parallel and
prints the mean final value of every result series across seeds.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log := loggerFromFlags(cmd)

			sc, err := scenario.Load(args[0])
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			build := func(seed uint64) (*sim.Sim, error) {
				s, err := sc.Build()
				if err != nil {
					return nil, err
				}
				s.Pars.RandSeed = seed
				s.Log = log
				return s, nil
			}

			runs := sim.Sweep(ctx, build, nSeeds, workers)
			for _, r := range runs {
				if r.Err != nil {
					fmt.Fprintf(os.Stderr, "seed %d failed: %v\n", r.Seed, r.Err)
				}
			}

			keys, means, nOK := sim.SweepSummary(runs)
			if nOK == 0 {
				return fmt.Errorf("sweep: all %d runs failed", nSeeds)
			}
			fmt.Printf("sweep: %d/%d runs succeeded, mean final values:\n", nOK, nSeeds)
			for _, k := range keys {
				fmt.Printf("  %-40s %.4f\n", k, means[k])
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&nSeeds, "seeds", 10, "Number of seeds to run")
	cmd.Flags().IntVar(&workers, "workers", runtime.NumCPU(), "Maximum parallel runs")
	return cmd
}
