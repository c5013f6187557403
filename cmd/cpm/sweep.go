package main

import (
	"fmt"
	"runtime"
	"text/tabwriter"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"mad-cpm/internal/runner"
)

func newSweepCommand(logger *log.Logger) *cobra.Command {
	cfg := runner.SweepConfig{Logger: logger.WithPrefix("sweep")}
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Vary one parameter over replicated runs",
		Example: "  cpm sweep --param temperature --values 5,10,20 --replicates 4\n" +
			"  cpm sweep -c sorting.yaml --param t2.lambda_act --values 0,40,80",
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := loadScenario(cmd, map[string]string{
				"seed":  "seed",
				"ticks": "ticks",
			})
			if err != nil {
				return err
			}
			cfg.Scenario = sc
			logger.Info("sweeping", "param", cfg.Key, "values", cfg.Values,
				"replicates", cfg.Replicates, "workers", cfg.Workers, "ticks", sc.Ticks)
			points, err := runner.Sweep(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "value\ttype\truns\tcells\tarea\tarea sd\tmsd\tmsd sd")
			for _, p := range points {
				fmt.Fprintf(w, "%g\t%d\t%d\t%.1f\t%.2f\t%.2f\t%.3f\t%.3f\n",
					p.Value, p.Type, p.Runs, p.Cells, p.MeanArea, p.StdArea, p.MSD, p.StdMSD)
			}
			return w.Flush()
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.Key, "param", "temperature", `parameter to vary: "temperature" or "t<type>.<key>"`)
	f.Float64SliceVar(&cfg.Values, "values", nil, "comma separated parameter values")
	f.IntVar(&cfg.Replicates, "replicates", 3, "runs per value, seeded consecutively")
	f.IntVar(&cfg.Workers, "workers", runtime.NumCPU(), "parallel runs")
	f.Int64("seed", 0, "first seed")
	f.Int("ticks", 0, "Monte Carlo steps per run")
	cmd.MarkFlagRequired("values")
	return cmd
}
