package record

import (
	"fmt"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Series is one named line of a chart.
type Series struct {
	Name string
	X, Y []float64
}

var seriesColors = []drawing.Color{
	chart.ColorRed,
	chart.ColorBlue,
	chart.ColorGreen,
	{R: 255, G: 165, B: 0, A: 255},
	chart.ColorBlack,
}

// WriteChart renders the series as a PNG line chart.
func WriteChart(w io.Writer, title, xName, yName string, series []Series) error {
	if len(series) == 0 {
		return fmt.Errorf("chart: no series")
	}
	graph := chart.Chart{
		Title:  title,
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{Name: xName},
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for k, s := range series {
		if len(s.X) < 2 || len(s.X) != len(s.Y) {
			return fmt.Errorf("chart: series %q needs at least 2 paired points, got %d/%d", s.Name, len(s.X), len(s.Y))
		}
		for _, y := range s.Y {
			lo, hi = math.Min(lo, y), math.Max(hi, y)
		}
		graph.Series = append(graph.Series, chart.ContinuousSeries{
			Name:    s.Name,
			XValues: s.X,
			YValues: s.Y,
			Style: chart.Style{
				StrokeColor: seriesColors[k%len(seriesColors)],
				StrokeWidth: 2,
			},
		})
	}
	// flat series would leave a zero y-range
	pad := math.Max((hi-lo)*0.05, 1)
	graph.YAxis = chart.YAxis{Name: yName, Range: &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("chart: render: %w", err)
	}
	return nil
}

// AreaChart plots the mean area of every cell type in the trace.
func AreaChart(w io.Writer, t *Trace) error {
	var series []Series
	for _, typ := range t.Types() {
		series = append(series, Series{Name: fmt.Sprintf("type %d", typ), X: t.Times(), Y: t.AreaSeries(typ)})
	}
	return WriteChart(w, "Mean cell area", "MCS", "area", series)
}
