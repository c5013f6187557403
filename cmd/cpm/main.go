// Command cpm runs Cellular Potts scenarios headless: single recorded runs,
// parameter sweeps and queries over stored trajectories.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"mad-cpm/internal/scenario"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           log.InfoLevel,
		ReportTimestamp: true,
	})
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("could not load .env file", "err", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := newRootCommand(logger).ExecuteContext(ctx); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

func newRootCommand(logger *log.Logger) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:           "cpm",
		Short:         "Cellular Potts Model simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logger.SetLevel(log.DebugLevel)
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	cmd.PersistentFlags().StringP("scenario", "c", "", "scenario file (yaml, toml or json)")

	cmd.AddCommand(
		newRunCommand(logger),
		newSweepCommand(logger),
		newRunsCommand(logger),
	)
	return cmd
}

// loadScenario reads the scenario file named by --scenario, if any, with
// CPM_* environment variables and the given flags layered on top.
func loadScenario(cmd *cobra.Command, flags map[string]string) (scenario.Scenario, error) {
	v := scenario.NewViper()
	for key, name := range flags {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return scenario.Scenario{}, err
		}
	}
	path, _ := cmd.Flags().GetString("scenario")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return scenario.Scenario{}, err
		}
	}
	return scenario.FromViper(v)
}
