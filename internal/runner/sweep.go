package runner

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"mad-cpm/internal/record"
	"mad-cpm/internal/scenario"
	"mad-cpm/internal/sims/tissue"
)

// SweepConfig varies one parameter of a scenario. Key uses the viewer's
// parameter names: "temperature" or "t<type>.<constraint>".
type SweepConfig struct {
	Scenario   scenario.Scenario
	Key        string
	Values     []float64
	Replicates int
	Workers    int
	Logger     *log.Logger
}

// SweepPoint aggregates the replicates of one value for one cell type.
type SweepPoint struct {
	Value    float64
	Type     int
	Runs     int
	Cells    float64
	MeanArea float64
	StdArea  float64
	MSD      float64
	StdMSD   float64
}

// Sweep runs every value Replicates times with consecutive seeds starting at
// the scenario seed. Outputs configured in the scenario are not written.
func Sweep(ctx context.Context, cfg SweepConfig) ([]SweepPoint, error) {
	if len(cfg.Values) == 0 {
		return nil, fmt.Errorf("sweep %s: no values", cfg.Key)
	}
	reps := max(cfg.Replicates, 1)
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	sc := cfg.Scenario
	sc.Output = scenario.Output{}

	results := make([][][]record.Summary, len(cfg.Values))
	for i := range results {
		results[i] = make([][]record.Summary, reps)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))
	for i, value := range cfg.Values {
		for r := 0; r < reps; r++ {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				run := sc
				run.Seed = sc.Seed + int64(r)
				sums, err := sweepOne(run, cfg.Key, value)
				if err != nil {
					return fmt.Errorf("sweep %s=%g seed %d: %w", cfg.Key, value, run.Seed, err)
				}
				results[i][r] = sums
				logger.Debug("sweep run done", "key", cfg.Key, "value", value, "seed", run.Seed)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []SweepPoint
	for i, value := range cfg.Values {
		for typ := 1; typ < sc.Types; typ++ {
			var cells, area, msd []float64
			for _, sums := range results[i] {
				s := sums[typ-1]
				if s.Cells == 0 {
					continue
				}
				cells = append(cells, float64(s.Cells))
				area = append(area, s.MeanArea)
				msd = append(msd, s.MSD)
			}
			p := SweepPoint{Value: value, Type: typ, Runs: len(area)}
			if p.Runs > 0 {
				p.Cells = stat.Mean(cells, nil)
				p.MeanArea, p.StdArea = stat.MeanStdDev(area, nil)
				p.MSD, p.StdMSD = stat.MeanStdDev(msd, nil)
			}
			if p.Runs < 2 {
				p.StdArea, p.StdMSD = 0, 0
			}
			out = append(out, p)
		}
	}
	return out, nil
}

func sweepOne(sc scenario.Scenario, key string, value float64) ([]record.Summary, error) {
	world, err := tissue.New(tissue.Config{Scenario: sc})
	if err != nil {
		return nil, err
	}
	if !world.SetParameter(key, value) {
		return nil, fmt.Errorf("parameter %q rejected value %g", key, value)
	}
	sim := world.Simulation()
	trace := record.NewTrace()
	trace.Record(sim)
	if err := world.Advance(sc.Ticks); err != nil {
		return nil, err
	}
	trace.Record(sim)
	sums := make([]record.Summary, 0, sim.Types()-1)
	for typ := 1; typ < sim.Types(); typ++ {
		sums = append(sums, trace.Summarize(typ))
	}
	return sums, nil
}
