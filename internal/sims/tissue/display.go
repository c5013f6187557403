package tissue

import "image/color"

const (
	displayTypeMask     = 0x3f
	displayMembraneBit  = 0x40
	displayPaletteSize  = 0x80
	membraneShadeWeight = 0.55
)

var tissuePalette = buildTissuePalette()

// Palette exposes the color palette for the display buffer.
func (w *World) Palette() []color.RGBA {
	return tissuePalette
}

// Palette returns the shared tissue palette without a World.
func Palette() []color.RGBA {
	return tissuePalette
}

var typeColors = []color.RGBA{
	{R: 18, G: 18, B: 24, A: 255},
	{R: 222, G: 92, B: 74, A: 255},
	{R: 72, G: 150, B: 220, A: 255},
	{R: 240, G: 196, B: 64, A: 255},
	{R: 96, G: 190, B: 110, A: 255},
	{R: 170, G: 110, B: 200, A: 255},
	{R: 230, G: 140, B: 60, A: 255},
	{R: 120, G: 200, B: 200, A: 255},
}

func buildTissuePalette() []color.RGBA {
	palette := make([]color.RGBA, displayPaletteSize)
	for i := range palette {
		typ := i & displayTypeMask
		base := typeColors[0]
		if typ > 0 {
			base = typeColors[1+(typ-1)%(len(typeColors)-1)]
		}
		if i&displayMembraneBit != 0 {
			base = shade(base, membraneShadeWeight)
		}
		palette[i] = base
	}
	return palette
}

func shade(c color.RGBA, weight float64) color.RGBA {
	inv := 1 - weight
	return color.RGBA{
		R: uint8(float64(c.R)*inv + 0.5),
		G: uint8(float64(c.G)*inv + 0.5),
		B: uint8(float64(c.B)*inv + 0.5),
		A: c.A,
	}
}

func encodeDisplayValue(typ uint8, membrane bool) uint8 {
	value := typ & displayTypeMask
	if membrane {
		value |= displayMembraneBit
	}
	return value
}

func (w *World) rebuildDisplay() {
	lat := w.sim.Lattice()
	border := lat.Border()
	for i := range w.display {
		site := w.planeSite(i)
		membrane := w.cfg.Membranes && lat.ID(site) != 0 && border.Contains(site)
		w.display[i] = encodeDisplayValue(lat.Type(site), membrane)
	}
}
