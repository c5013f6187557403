package record

import (
	"bytes"
	"fmt"
	"image/color"
	"image/jpeg"

	"github.com/icza/mjpeg"

	"mad-cpm/internal/render"
)

// Movie writes display planes as frames of an MJPEG AVI file.
type Movie struct {
	aw     mjpeg.AviWriter
	w, h   int
	scale  int
	buf    bytes.Buffer
	opts   jpeg.Options
	frames int
}

// NewMovie opens path for a w*h plane drawn at scale.
func NewMovie(path string, w, h, scale, fps int) (*Movie, error) {
	scale = max(scale, 1)
	if fps < 1 {
		return nil, fmt.Errorf("movie: fps must be positive, got %d", fps)
	}
	aw, err := mjpeg.New(path, int32(w*scale), int32(h*scale), int32(fps))
	if err != nil {
		return nil, fmt.Errorf("movie: create %s: %w", path, err)
	}
	return &Movie{aw: aw, w: w, h: h, scale: scale, opts: jpeg.Options{Quality: 90}}, nil
}

// AddFrame encodes one display plane.
func (m *Movie) AddFrame(cells []uint8, palette []color.RGBA) error {
	if len(cells) != m.w*m.h {
		return fmt.Errorf("movie: frame has %d cells, want %d", len(cells), m.w*m.h)
	}
	m.buf.Reset()
	if err := jpeg.Encode(&m.buf, render.Frame(cells, palette, m.w, m.h, m.scale), &m.opts); err != nil {
		return fmt.Errorf("movie: encode frame %d: %w", m.frames, err)
	}
	if err := m.aw.AddFrame(m.buf.Bytes()); err != nil {
		return fmt.Errorf("movie: write frame %d: %w", m.frames, err)
	}
	m.frames++
	return nil
}

// Frames returns the number of frames written.
func (m *Movie) Frames() int { return m.frames }

// Close finalizes the AVI index.
func (m *Movie) Close() error { return m.aw.Close() }
