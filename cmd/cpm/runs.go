package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"mad-cpm/internal/storage"
)

func newRunsCommand(logger *log.Logger) *cobra.Command {
	var path string
	var runID int64
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored runs, or the per-type areas of one run",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := storage.OpenDuckDB(ctx, path)
			if err != nil {
				return err
			}
			defer db.Close()
			store := storage.NewTrackStore(db)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

			if runID == 0 {
				runs, err := store.Runs(ctx)
				if err != nil {
					return err
				}
				logger.Debug("listing runs", "db", path, "count", len(runs))
				fmt.Fprintln(w, "id\tname\tseed\ttemperature\textent\tticks\tstarted")
				for _, r := range runs {
					fmt.Fprintf(w, "%d\t%s\t%d\t%g\t%s\t%d\t%s\n",
						r.ID, r.Name, r.Seed, r.Temperature, r.Extent, r.Ticks, r.StartedAt.Format(time.DateTime))
				}
				return w.Flush()
			}

			areas, err := store.TypeAreas(ctx, runID)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "mcs\ttype\tcells\tmean area")
			for _, a := range areas {
				fmt.Fprintf(w, "%d\t%d\t%d\t%.2f\n", a.Time, a.Type, a.Cells, a.MeanArea)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&path, "db", "tracks.duckdb", "DuckDB file written by cpm run --db")
	cmd.Flags().Int64Var(&runID, "run", 0, "show mean areas of this run")
	return cmd
}
