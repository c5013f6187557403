// Package render turns display planes into pixels, both for the ebiten
// viewer and for headless frame capture.
package render

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// fillPaletteRGBA converts cell values into RGBA pixels using a palette. When
// the palette is empty the buffer is cleared to transparent black.
func fillPaletteRGBA(buf []byte, cells []uint8, palette []color.RGBA) {
	if len(palette) == 0 {
		clear(buf[:4*len(cells)])
		return
	}

	last := len(palette) - 1
	for i, c := range cells {
		idx := min(int(c), last)
		base := i * 4
		col := palette[idx]
		buf[base+0] = col.R
		buf[base+1] = col.G
		buf[base+2] = col.B
		buf[base+3] = col.A
	}
}

// fillHeatRGBA tints each pixel by a value in [0, 1]. Zero stays transparent.
func fillHeatRGBA(buf []byte, values []float64, tint color.RGBA, maxAlpha uint8) {
	for i, v := range values {
		base := i * 4
		v = max(0, min(v, 1))
		if v == 0 {
			buf[base+0], buf[base+1], buf[base+2], buf[base+3] = 0, 0, 0, 0
			continue
		}
		// premultiplied, as ebiten expects
		a := v * float64(maxAlpha) / 255
		buf[base+0] = uint8(float64(tint.R)*a + 0.5)
		buf[base+1] = uint8(float64(tint.G)*a + 0.5)
		buf[base+2] = uint8(float64(tint.B)*a + 0.5)
		buf[base+3] = uint8(a*255 + 0.5)
	}
}

// Frame renders a display plane into an image of w*scale by h*scale pixels.
func Frame(cells []uint8, palette []color.RGBA, w, h, scale int) *image.RGBA {
	if scale < 1 {
		scale = 1
	}
	src := image.NewRGBA(image.Rect(0, 0, w, h))
	if len(cells) == w*h {
		fillPaletteRGBA(src.Pix, cells, palette)
	}
	if scale == 1 {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, w*scale, h*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}
