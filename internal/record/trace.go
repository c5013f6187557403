// Package record captures what a headless run produces: per-cell trajectory
// samples, summary statistics, movies and charts.
package record

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"mad-cpm/pkg/cpm"
)

// Sample is one cell observed at one Monte Carlo step. Track is the centroid
// with periodic wraps undone since the first observation of the cell.
type Sample struct {
	Time      int
	ID        uint32
	Type      int
	Area      int
	Perimeter int
	Pos       [3]float64
	Track     [3]float64
}

// Trace accumulates samples and an energy series over a run.
type Trace struct {
	samples []Sample
	times   []float64
	energy  []float64

	last  map[uint32][3]float64
	track map[uint32][3]float64
}

// NewTrace returns an empty trace.
func NewTrace() *Trace {
	return &Trace{last: map[uint32][3]float64{}, track: map[uint32][3]float64{}}
}

// Record observes every live cell of sim and returns the new samples.
func (t *Trace) Record(sim *cpm.Simulation) []Sample {
	lat := sim.Lattice()
	ext := lat.Extent()
	now := sim.Time()
	start := len(t.samples)
	for _, c := range sim.Centroids() {
		cell, err := sim.Cell(c.ID)
		if err != nil {
			continue
		}
		tr, seen := t.track[c.ID]
		if !seen {
			tr = c.Pos
		} else {
			d := stepDisplacement(t.last[c.ID], c.Pos, ext, lat.Dims(), lat.Periodic())
			for ax := range tr {
				tr[ax] += d[ax]
			}
		}
		t.last[c.ID] = c.Pos
		t.track[c.ID] = tr
		t.samples = append(t.samples, Sample{
			Time:      now,
			ID:        c.ID,
			Type:      cell.Type,
			Area:      cell.Area,
			Perimeter: cell.Perimeter,
			Pos:       c.Pos,
			Track:     tr,
		})
	}
	t.times = append(t.times, float64(now))
	t.energy = append(t.energy, sim.Energy())
	return t.samples[start:]
}

// stepDisplacement is the shortest move from prev to cur, taking the
// minimum image on periodic axes.
func stepDisplacement(prev, cur [3]float64, ext [3]int, dims int, periodic bool) [3]float64 {
	var d [3]float64
	for ax := 0; ax < dims; ax++ {
		d[ax] = cur[ax] - prev[ax]
		if periodic {
			e := float64(ext[ax])
			d[ax] -= e * math.Round(d[ax]/e)
		}
	}
	return d
}

// Samples returns everything recorded so far.
func (t *Trace) Samples() []Sample { return t.samples }

// Times returns the recorded step numbers.
func (t *Trace) Times() []float64 { return t.times }

// Energy returns the Hamiltonian at each recorded step.
func (t *Trace) Energy() []float64 { return t.energy }

// Summary describes one cell type at one recorded step. MSD is the mean
// squared displacement since each cell's first sample.
type Summary struct {
	Type      int
	Time      int
	Cells     int
	MeanArea  float64
	StdArea   float64
	MeanPerim float64
	MSD       float64
}

// Summarize returns per-type statistics of the last recorded step.
func (t *Trace) Summarize(typ int) Summary {
	if len(t.samples) == 0 {
		return Summary{Type: typ}
	}
	return t.summarizeAt(typ, t.samples[len(t.samples)-1].Time)
}

func (t *Trace) summarizeAt(typ, time int) Summary {
	first := map[uint32][3]float64{}
	var area, perim, sq []float64
	for _, s := range t.samples {
		if s.Type != typ {
			continue
		}
		if _, ok := first[s.ID]; !ok {
			first[s.ID] = s.Track
		}
		if s.Time != time {
			continue
		}
		area = append(area, float64(s.Area))
		perim = append(perim, float64(s.Perimeter))
		f := first[s.ID]
		var d2 float64
		for ax := range f {
			d := s.Track[ax] - f[ax]
			d2 += d * d
		}
		sq = append(sq, d2)
	}
	sum := Summary{Type: typ, Time: time, Cells: len(area)}
	if len(area) == 0 {
		return sum
	}
	sum.MeanArea, sum.StdArea = stat.MeanStdDev(area, nil)
	if len(area) == 1 {
		sum.StdArea = 0
	}
	sum.MeanPerim = stat.Mean(perim, nil)
	sum.MSD = stat.Mean(sq, nil)
	return sum
}

// AreaSeries returns the mean area of typ at every recorded step. Steps
// without cells of typ report 0.
func (t *Trace) AreaSeries(typ int) []float64 {
	out := make([]float64, len(t.times))
	for k, tm := range t.times {
		out[k] = t.summarizeAt(typ, int(tm)).MeanArea
	}
	return out
}

// Types lists the cell types seen in the trace.
func (t *Trace) Types() []int {
	var out []int
	for _, s := range t.samples {
		if !slices.Contains(out, s.Type) {
			out = append(out, s.Type)
		}
	}
	slices.Sort(out)
	return out
}
