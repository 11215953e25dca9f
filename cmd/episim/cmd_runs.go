package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/episim-dev/episim/internal/store"
)

func newRunsCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List runs stored in a database",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			metas, err := st.ListRuns(context.Background())
			if err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(metas)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tLABEL\tCREATED\tSEED\tAGENTS\tSPAN")
			for _, m := range metas {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%g-%g\n",
					m.ID, m.Label, m.CreatedAt.Format("2006-01-02 15:04"),
					m.Pars.RandSeed, m.Pars.NAgents, m.Pars.Start, m.Pars.Stop)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "episim.db", "Run database path")
	return cmd
}
