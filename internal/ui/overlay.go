//go:build ebiten

package ui

import (
	"image/color"

	"mad-cpm/internal/core"
	"mad-cpm/internal/render"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

type actFieldProvider interface {
	ActField() []float64
}

type centroidProvider interface {
	Centroids() [][2]float64
}

var (
	actTint       = color.RGBA{R: 255, G: 150, B: 40, A: 255}
	centroidColor = color.RGBA{R: 250, G: 250, B: 250, A: 230}
)

// Overlay draws optional debugging layers on top of the cells: A toggles the
// act field, C the cell centroids.
type Overlay struct {
	sim   core.Sim
	scale int

	showAct       bool
	showCentroids bool

	heat  *render.GridPainter
	pixel *ebiten.Image
}

// NewOverlay constructs an overlay for sim drawn at scale.
func NewOverlay(sim core.Sim, scale int) *Overlay {
	o := &Overlay{sim: sim, scale: max(scale, 1)}
	o.pixel = ebiten.NewImage(1, 1)
	o.pixel.Fill(color.White)
	return o
}

// Update handles the toggle keys.
func (o *Overlay) Update() {
	if inpututil.IsKeyJustPressed(ebiten.KeyA) {
		o.showAct = !o.showAct
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		o.showCentroids = !o.showCentroids
	}
}

// Draw renders the enabled layers onto screen.
func (o *Overlay) Draw(screen *ebiten.Image) {
	size := o.sim.Size()
	if size.W <= 0 || size.H <= 0 {
		return
	}
	if p, ok := o.sim.(actFieldProvider); ok && o.showAct {
		if o.heat == nil {
			o.heat = render.NewGridPainter(size.W, size.H)
		}
		if w, h := o.heat.Size(); w != size.W || h != size.H {
			o.heat = render.NewGridPainter(size.W, size.H)
		}
		o.heat.BlitHeat(screen, p.ActField(), actTint, o.scale)
	}
	if p, ok := o.sim.(centroidProvider); ok && o.showCentroids {
		dot := float64(max(o.scale, 2))
		s := float64(o.scale)
		for _, c := range p.Centroids() {
			op := &ebiten.DrawImageOptions{}
			op.GeoM.Scale(dot, dot)
			op.GeoM.Translate((c[0]+0.5)*s-dot/2, (c[1]+0.5)*s-dot/2)
			op.ColorScale.ScaleWithColor(centroidColor)
			screen.DrawImage(o.pixel, op)
		}
	}
}
