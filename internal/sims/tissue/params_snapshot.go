package tissue

import (
	"fmt"
	"strconv"
	"strings"

	"mad-cpm/internal/core"
	"mad-cpm/pkg/cpm"
)

// Parameters reports the engine settings and the constraint table.
func (w *World) Parameters() core.ParameterSnapshot {
	st := w.sim.Stats()
	ext := w.sim.Extent()
	groups := []core.ParameterGroup{
		{
			Name: "Engine",
			Params: []core.Parameter{
				intParam("w", "Width", ext[0]),
				intParam("h", "Height", ext[1]),
				intParam("seed", "Seed", int(w.cfg.Scenario.Seed)),
				floatParam("temperature", "Temperature", w.sim.Temperature()),
				intParam("time", "MCS", st.Time),
			},
		},
	}
	for typ := 1; typ < w.sim.Types(); typ++ {
		p, _ := w.sim.Params(typ)
		groups = append(groups, core.ParameterGroup{
			Name: fmt.Sprintf("Type %d", typ),
			Params: []core.Parameter{
				floatParam(typeKey(typ, cpm.KeyLambdaArea), "Area lambda", p.LambdaArea),
				floatParam(typeKey(typ, cpm.KeyTargetArea), "Target area", p.TargetArea),
				floatParam(typeKey(typ, cpm.KeyLambdaPerimeter), "Perimeter lambda", p.LambdaPerimeter),
				floatParam(typeKey(typ, cpm.KeyTargetPerimeter), "Target perimeter", p.TargetPerimeter),
				floatParam(typeKey(typ, cpm.KeyMaxAct), "Max act", p.MaxAct),
				floatParam(typeKey(typ, cpm.KeyLambdaAct), "Act lambda", p.LambdaAct),
				floatParam(typeKey(typ, cpm.KeyLambdaPersistence), "Persistence lambda", p.LambdaPersistence),
			},
		})
	}
	return core.ParameterSnapshot{Groups: groups}
}

// ParameterControls lists the HUD steppers.
func (w *World) ParameterControls() []core.ParameterControl {
	controls := []core.ParameterControl{
		{Key: "temperature", Label: "Temperature", Step: 2, HasMin: true},
	}
	for typ := 1; typ < w.sim.Types(); typ++ {
		controls = append(controls,
			core.ParameterControl{Key: typeKey(typ, cpm.KeyTargetArea), Label: fmt.Sprintf("T%d area", typ), Step: 5, HasMin: true},
			core.ParameterControl{Key: typeKey(typ, cpm.KeyLambdaAct), Label: fmt.Sprintf("T%d act", typ), Step: 10, HasMin: true},
			core.ParameterControl{Key: typeKey(typ, cpm.KeyLambdaPersistence), Label: fmt.Sprintf("T%d persist", typ), Step: 5},
		)
	}
	return controls
}

// SetParameter applies a HUD adjustment to the running simulation.
func (w *World) SetParameter(key string, value float64) bool {
	if key == "temperature" {
		return w.sim.SetTemperature(value) == nil
	}
	typ, name, ok := parseTypeKey(key)
	if !ok {
		return false
	}
	return w.sim.SetConstraintValues(typ, cpm.NoType, map[string]float64{name: value}) == nil
}

// Status summarizes the run for the HUD.
func (w *World) Status() []string {
	st := w.sim.Stats()
	rate := 0.0
	if st.Proposals > 0 {
		rate = 100 * float64(st.Accepted) / float64(st.Proposals)
	}
	return []string{
		fmt.Sprintf("MCS %d", st.Time),
		fmt.Sprintf("cells %d  active %d", st.LiveCells, st.ActiveSites),
		fmt.Sprintf("accepted %.1f%%", rate),
	}
}

func typeKey(typ int, name string) string {
	return "t" + strconv.Itoa(typ) + "." + name
}

func parseTypeKey(key string) (int, string, bool) {
	head, name, ok := strings.Cut(key, ".")
	if !ok || !strings.HasPrefix(head, "t") {
		return 0, "", false
	}
	typ, err := strconv.Atoi(head[1:])
	if err != nil {
		return 0, "", false
	}
	return typ, name, true
}

func intParam(key, label string, value int) core.Parameter {
	return core.Parameter{Key: key, Label: label, Value: float64(value), Integer: true}
}

func floatParam(key, label string, value float64) core.Parameter {
	return core.Parameter{Key: key, Label: label, Value: value}
}
