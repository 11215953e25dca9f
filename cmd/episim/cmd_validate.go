package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/episim-dev/episim/internal/scenario"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <scenario.yaml>",
		Short: "Check a scenario file without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := scenario.Load(args[0])
			if err != nil {
				return err
			}
			s, err := sc.Build()
			if err != nil {
				return err
			}
			if err := s.Init(); err != nil {
				return err
			}
			fmt.Printf("%s: ok (%d agents, %d diseases, %d networks, %d steps)\n",
				args[0], s.Pars.NAgents, len(s.Diseases), len(s.Networks), s.Pars.Npts())
			return nil
		},
	}
}
