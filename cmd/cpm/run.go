package main

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"mad-cpm/internal/runner"
)

func newRunCommand(logger *log.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a scenario and record its trajectories",
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := loadScenario(cmd, map[string]string{
				"seed":         "seed",
				"ticks":        "ticks",
				"temperature":  "temperature",
				"output.every": "every",
				"output.movie": "movie",
				"output.chart": "chart",
				"output.db":    "db",
			})
			if err != nil {
				return err
			}
			res, err := runner.Run(cmd.Context(), sc, logger.WithPrefix("run"))
			if res != nil {
				for _, s := range res.Summaries {
					fmt.Fprintf(cmd.OutOrStdout(), "type %d: cells=%d area=%.1f±%.1f perimeter=%.1f msd=%.2f\n",
						s.Type, s.Cells, s.MeanArea, s.StdArea, s.MeanPerim, s.MSD)
				}
			}
			return err
		},
	}
	f := cmd.Flags()
	f.Int64("seed", 0, "random seed")
	f.Int("ticks", 0, "Monte Carlo steps to run")
	f.Float64("temperature", 0, "Metropolis temperature")
	f.Int("every", 0, "record every N steps")
	f.String("movie", "", "write an MJPEG AVI movie to this path")
	f.String("chart", "", "write a PNG chart of mean cell areas to this path")
	f.String("db", "", "store trajectories in this DuckDB file")
	return cmd
}
