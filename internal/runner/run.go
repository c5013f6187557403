// Package runner drives headless simulations: single recorded runs and
// parallel parameter sweeps.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"mad-cpm/internal/record"
	"mad-cpm/internal/scenario"
	"mad-cpm/internal/sims/tissue"
	"mad-cpm/internal/storage"
)

// Result summarizes a finished run.
type Result struct {
	// RunID is the database id, zero when no database was configured.
	RunID     int64
	Time      int
	Frames    int
	Summaries []record.Summary
	Trace     *record.Trace
}

// Run builds the scenario and advances it sc.Ticks Monte Carlo steps,
// recording every sc.Output.Every steps. On cancellation the partial result
// is returned together with the context error.
func Run(ctx context.Context, sc scenario.Scenario, logger *log.Logger) (res *Result, err error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if sc.Ticks < 0 {
		return nil, fmt.Errorf("negative tick count %d", sc.Ticks)
	}
	world, err := tissue.New(tissue.Config{Scenario: sc, Membranes: true, Logger: logger})
	if err != nil {
		return nil, err
	}
	sim := world.Simulation()
	size := world.Size()
	res = &Result{Trace: record.NewTrace()}

	var movie *record.Movie
	if sc.Output.Movie != "" {
		movie, err = record.NewMovie(sc.Output.Movie, size.W, size.H, sc.Output.Scale, sc.Output.FPS)
		if err != nil {
			return nil, err
		}
		defer func() {
			err = errors.Join(err, movie.Close())
		}()
	}

	var store *storage.TrackStore
	if sc.Output.DB != "" {
		db, err := storage.OpenDuckDB(ctx, sc.Output.DB)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		store = storage.NewTrackStore(db)
		res.RunID, err = store.InsertRun(ctx, storage.Run{
			Name:        sc.Name,
			Seed:        sc.Seed,
			Temperature: sc.Temperature,
			Extent:      extentString(sim.Extent(), sim.Dims()),
			Ticks:       sc.Ticks,
			StartedAt:   time.Now().UTC(),
		})
		if err != nil {
			return nil, err
		}
	}

	capture := func() error {
		samples := res.Trace.Record(sim)
		if movie != nil {
			if err := movie.AddFrame(world.Cells(), world.Palette()); err != nil {
				return err
			}
			res.Frames = movie.Frames()
		}
		if store != nil {
			if err := store.InsertSamples(ctx, res.RunID, samples); err != nil {
				return err
			}
		}
		return nil
	}

	logger.Info("run started", "scenario", sc.Name, "seed", sc.Seed, "ticks", sc.Ticks, "cells", sim.Stats().LiveCells)
	if err := capture(); err != nil {
		return nil, err
	}
	every := max(sc.Output.Every, 1)
	for done := 0; done < sc.Ticks; {
		if err := ctx.Err(); err != nil {
			res.finish(world)
			return res, err
		}
		n := min(every, sc.Ticks-done)
		if err := world.Advance(n); err != nil {
			return nil, err
		}
		done += n
		if err := capture(); err != nil {
			return nil, err
		}
		st := sim.Stats()
		logger.Debug("progress", "mcs", st.Time, "cells", st.LiveCells, "active", st.ActiveSites, "energy", sim.Energy())
	}
	res.finish(world)

	if sc.Output.Chart != "" {
		if err := writeAreaChart(sc.Output.Chart, res.Trace); err != nil {
			return nil, err
		}
	}
	logger.Info("run finished", "mcs", res.Time, "frames", res.Frames, "run_id", res.RunID)
	return res, nil
}

func (r *Result) finish(world *tissue.World) {
	sim := world.Simulation()
	r.Time = sim.Time()
	r.Summaries = r.Summaries[:0]
	for typ := 1; typ < sim.Types(); typ++ {
		r.Summaries = append(r.Summaries, r.Trace.Summarize(typ))
	}
}

func writeAreaChart(path string, t *record.Trace) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart: %w", err)
	}
	if err := record.AreaChart(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func extentString(ext [3]int, dims int) string {
	parts := make([]string, dims)
	for ax := range parts {
		parts[ax] = strconv.Itoa(ext[ax])
	}
	return strings.Join(parts, "x")
}
