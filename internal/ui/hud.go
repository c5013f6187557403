//go:build ebiten

package ui

import (
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"

	"mad-cpm/internal/core"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

var (
	panelColor  = color.RGBA{R: 16, G: 16, B: 20, A: 255}
	titleColor  = color.RGBA{R: 200, G: 200, B: 210, A: 255}
	labelColor  = color.RGBA{R: 220, G: 220, B: 230, A: 255}
	mutedColor  = color.RGBA{R: 160, G: 160, B: 170, A: 255}
	buttonColor = color.RGBA{R: 54, G: 56, B: 64, A: 255}
	idleColor   = color.RGBA{R: 32, G: 34, B: 40, A: 255}
)

// HUD renders the parameter steppers and run status to the right of the view.
type HUD struct {
	sim     core.Sim
	setter  core.ParameterSetter
	width   int
	panel   *ebiten.Image
	pixel   *ebiten.Image
	offsetX int
	title   string

	controls []controlState
	status   []string
}

type controlState struct {
	control  core.ParameterControl
	value    float64
	hasValue bool

	top       int
	minusRect image.Rectangle
	plusRect  image.Rectangle
}

// NewHUD constructs a HUD for the sim. A non-positive width disables it.
func NewHUD(sim core.Sim, width int) *HUD {
	h := &HUD{sim: sim, width: max(width, 0), title: strings.ToUpper(sim.Name())}
	if h.width > 0 {
		h.pixel = ebiten.NewImage(1, 1)
		h.pixel.Fill(color.White)
	}
	if p, ok := sim.(core.ParameterControlsProvider); ok {
		for i, ctrl := range p.ParameterControls() {
			top := controlsTop + i*lineHeight
			y := top + (lineHeight-buttonSize)/2
			plus := image.Rect(h.width-panelPadding-buttonSize, y, h.width-panelPadding, y+buttonSize)
			minus := plus.Sub(image.Pt(buttonSize+buttonGap, 0))
			h.controls = append(h.controls, controlState{control: ctrl, top: top, minusRect: minus, plusRect: plus})
		}
	}
	h.setter, _ = sim.(core.ParameterSetter)
	return h
}

// Width returns the panel width in screen pixels.
func (h *HUD) Width() int {
	if h == nil {
		return 0
	}
	return h.width
}

// Update refreshes values from the sim and handles clicks on the steppers.
func (h *HUD) Update(offsetX int) {
	if h == nil || h.width == 0 {
		return
	}
	h.offsetX = offsetX
	if p, ok := h.sim.(core.StatusProvider); ok {
		h.status = p.Status()
	}
	var snap core.ParameterSnapshot
	if p, ok := h.sim.(core.ParameterProvider); ok {
		snap = p.Parameters()
	}
	for i := range h.controls {
		c := &h.controls[i]
		param, ok := snap.Lookup(c.control.Key)
		c.value, c.hasValue = param.Value, ok
	}
	if h.setter == nil || !inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		return
	}
	mx, my := ebiten.CursorPosition()
	p := image.Pt(mx-h.offsetX, my)
	for i := range h.controls {
		c := &h.controls[i]
		if !c.hasValue {
			continue
		}
		switch {
		case p.In(c.minusRect):
			h.adjust(c, -1)
			return
		case p.In(c.plusRect):
			h.adjust(c, 1)
			return
		}
	}
}

func (h *HUD) adjust(c *controlState, dir float64) {
	target := c.control.Clamp(c.value + dir*c.control.Step)
	if math.Abs(target-c.value) < 1e-9 {
		return
	}
	if h.setter.SetParameter(c.control.Key, target) {
		c.value = target
	}
}

func (h *HUD) canAdjust(c *controlState, dir float64) bool {
	if h.setter == nil || !c.hasValue {
		return false
	}
	return math.Abs(c.control.Clamp(c.value+dir*c.control.Step)-c.value) >= 1e-9
}

// Draw paints the panel at offsetX, matching the scaled sim height.
func (h *HUD) Draw(screen *ebiten.Image, offsetX int, scale int) {
	if h == nil || h.width == 0 {
		return
	}
	height := h.sim.Size().H * max(scale, 1)
	if h.panel == nil || h.panel.Bounds().Dy() != height {
		h.panel = ebiten.NewImage(h.width, height)
	}
	h.panel.Fill(panelColor)

	face := basicfont.Face7x13
	text.Draw(h.panel, h.title, face, panelPadding, panelPadding+headerBaseline, titleColor)
	if len(h.controls) == 0 {
		text.Draw(h.panel, "No adjustable parameters", face, panelPadding, controlsTop+labelBaseline, mutedColor)
	}
	for i := range h.controls {
		c := &h.controls[i]
		y := c.top + labelBaseline
		text.Draw(h.panel, c.control.Label, face, panelPadding, y, labelColor)
		value, col := "--", mutedColor
		if c.hasValue {
			value, col = formatValue(c.control, c.value), labelColor
		}
		w := text.BoundString(face, value).Dx()
		text.Draw(h.panel, value, face, c.minusRect.Min.X-buttonGap-w, y, col)
		h.drawButton(c.minusRect, "-", h.canAdjust(c, -1))
		h.drawButton(c.plusRect, "+", h.canAdjust(c, 1))
	}
	y := controlsTop + max(len(h.controls), 1)*lineHeight + statusGap
	for _, line := range h.status {
		text.Draw(h.panel, line, face, panelPadding, y, mutedColor)
		y += statusLine
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(offsetX), 0)
	screen.DrawImage(h.panel, op)
}

func (h *HUD) drawButton(r image.Rectangle, label string, enabled bool) {
	bg, fg := buttonColor, labelColor
	if !enabled {
		bg, fg = idleColor, mutedColor
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(r.Dx()), float64(r.Dy()))
	op.GeoM.Translate(float64(r.Min.X), float64(r.Min.Y))
	op.ColorScale.ScaleWithColor(bg)
	h.panel.DrawImage(h.pixel, op)

	face := basicfont.Face7x13
	b := text.BoundString(face, label)
	x := r.Min.X + (r.Dx()-b.Dx())/2
	y := r.Min.Y + (r.Dy()-b.Dy())/2 + b.Dy()
	text.Draw(h.panel, label, face, x, y, fg)
}

func formatValue(ctrl core.ParameterControl, v float64) string {
	prec := 0
	switch {
	case ctrl.Step < 0.01:
		prec = 3
	case ctrl.Step < 0.1:
		prec = 2
	case ctrl.Step < 1:
		prec = 1
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}

const (
	panelPadding   = 12
	lineHeight     = 36
	buttonSize     = 24
	buttonGap      = 6
	headerBaseline = 18
	labelBaseline  = 24
	statusGap      = 12
	statusLine     = 16
	controlsTop    = panelPadding + headerBaseline + 14
)
