package record

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestWriteChartPNG(t *testing.T) {
	var buf bytes.Buffer
	err := WriteChart(&buf, "areas", "MCS", "area", []Series{
		{Name: "a", X: []float64{0, 10, 20}, Y: []float64{1, 15, 22}},
		{Name: "flat", X: []float64{0, 10, 20}, Y: []float64{5, 5, 5}},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestWriteChartRejectsShortSeries(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WriteChart(&buf, "", "", "", nil))
	assert.Error(t, WriteChart(&buf, "", "", "", []Series{{Name: "one", X: []float64{1}, Y: []float64{1}}}))
	assert.Error(t, WriteChart(&buf, "", "", "", []Series{{Name: "uneven", X: []float64{1, 2}, Y: []float64{1}}}))
}

func TestAreaChartFromTrace(t *testing.T) {
	sim := newTestSim(t)
	tr := NewTrace()
	tr.Record(sim)
	require.NoError(t, sim.Run(5))
	tr.Record(sim)

	var buf bytes.Buffer
	require.NoError(t, AreaChart(&buf, tr))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}
