package cpm

import (
	"fmt"
	"math"
	"sort"
)

// NoType marks the absence of a second cell type in SetConstraintValues.
const NoType = -1

// Parameter keys accepted by SetConstraintValues.
const (
	KeyLambdaArea           = "lambda_area"
	KeyTargetArea           = "target_area"
	KeyLambdaPerimeter      = "lambda_perimeter"
	KeyTargetPerimeter      = "target_perimeter"
	KeyAdhesion             = "adhesion"
	KeyMaxAct               = "max_act"
	KeyLambdaAct            = "lambda_act"
	KeyLambdaPersistence    = "lambda_persistence"
	KeyPersistenceDiffusion = "persistence_diffusion"
	KeyPersistenceTime      = "persistence_time"
	KeyFixed                = "fixed"
	KeyLambdaConnectedness  = "lambda_connectedness"
	KeyLambdaChemotaxis     = "lambda_chemotaxis"
)

// Keys lists every recognized constraint key in sorted order.
func Keys() []string {
	keys := []string{
		KeyLambdaArea, KeyTargetArea, KeyLambdaPerimeter, KeyTargetPerimeter,
		KeyAdhesion, KeyMaxAct, KeyLambdaAct, KeyLambdaPersistence,
		KeyPersistenceDiffusion, KeyPersistenceTime, KeyFixed,
		KeyLambdaConnectedness, KeyLambdaChemotaxis,
	}
	sort.Strings(keys)
	return keys
}

// Constraints is a partial update of the parameters of one cell type. Nil
// fields keep their current value.
type Constraints struct {
	LambdaArea           *float64
	TargetArea           *float64
	LambdaPerimeter      *float64
	TargetPerimeter      *float64
	MaxAct               *float64
	LambdaAct            *float64
	LambdaPersistence    *float64
	PersistenceDiffusion *float64
	PersistenceTime      *int
	Fixed                *bool
	LambdaConnectedness  *float64
	LambdaChemotaxis     *float64
}

// Ptr returns a pointer to v, for filling Constraints literals.
func Ptr[T any](v T) *T { return &v }

// TypeParams is the full parameter set of one cell type.
type TypeParams struct {
	LambdaArea           float64
	TargetArea           float64
	LambdaPerimeter      float64
	TargetPerimeter      float64
	MaxAct               float64
	LambdaAct            float64
	LambdaPersistence    float64
	PersistenceDiffusion float64
	PersistenceTime      int
	Fixed                bool
	LambdaConnectedness  float64
	LambdaChemotaxis     float64
}

type constraintTable struct {
	types    int
	dims     int
	params   []TypeParams
	adhesion []float64

	perimeterOn   bool
	actOn         bool
	persistenceOn bool
	connectedOn   bool
	chemotaxisOn  bool
}

func newConstraintTable(types, dims int) *constraintTable {
	params := make([]TypeParams, types)
	for i := range params {
		params[i].PersistenceTime = 1
	}
	return &constraintTable{
		types:    types,
		dims:     dims,
		params:   params,
		adhesion: make([]float64, types*types),
	}
}

func (c *constraintTable) J(a, b uint8) float64 {
	return c.adhesion[int(a)*c.types+int(b)]
}

func (c *constraintTable) checkType(t int) error {
	if t < 0 || t >= c.types {
		return fmt.Errorf("%w: cell type %d not in [0, %d)", ErrConfiguration, t, c.types)
	}
	return nil
}

func (c *constraintTable) refreshToggles() {
	c.perimeterOn, c.actOn, c.persistenceOn = false, false, false
	c.connectedOn, c.chemotaxisOn = false, false
	for _, p := range c.params {
		c.perimeterOn = c.perimeterOn || p.LambdaPerimeter != 0
		c.actOn = c.actOn || (p.LambdaAct != 0 && p.MaxAct != 0)
		c.persistenceOn = c.persistenceOn || p.LambdaPersistence != 0
		c.connectedOn = c.connectedOn || p.LambdaConnectedness != 0
		c.chemotaxisOn = c.chemotaxisOn || p.LambdaChemotaxis != 0
	}
}

func checkFinite(key string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be finite, got %v", ErrConfiguration, key, v)
	}
	return nil
}

func checkNonNegative(key string, v *float64) error {
	if v == nil {
		return nil
	}
	if err := checkFinite(key, *v); err != nil {
		return err
	}
	if *v < 0 {
		return fmt.Errorf("%w: %s must be >= 0, got %v", ErrConfiguration, key, *v)
	}
	return nil
}

func (c *constraintTable) validate(u Constraints) error {
	for _, f := range []struct {
		key string
		v   *float64
	}{
		{KeyLambdaArea, u.LambdaArea},
		{KeyTargetArea, u.TargetArea},
		{KeyLambdaPerimeter, u.LambdaPerimeter},
		{KeyTargetPerimeter, u.TargetPerimeter},
		{KeyMaxAct, u.MaxAct},
		{KeyLambdaAct, u.LambdaAct},
		{KeyLambdaConnectedness, u.LambdaConnectedness},
	} {
		if err := checkNonNegative(f.key, f.v); err != nil {
			return err
		}
	}
	if u.LambdaPersistence != nil {
		if err := checkFinite(KeyLambdaPersistence, *u.LambdaPersistence); err != nil {
			return err
		}
	}
	if u.LambdaChemotaxis != nil {
		if err := checkFinite(KeyLambdaChemotaxis, *u.LambdaChemotaxis); err != nil {
			return err
		}
	}
	if d := u.PersistenceDiffusion; d != nil {
		if err := checkFinite(KeyPersistenceDiffusion, *d); err != nil {
			return err
		}
		if *d < 0 || *d > 1 {
			return fmt.Errorf("%w: %s must be in [0, 1], got %v", ErrConfiguration, KeyPersistenceDiffusion, *d)
		}
	}
	if u.PersistenceTime != nil && *u.PersistenceTime < 1 {
		return fmt.Errorf("%w: %s must be >= 1, got %d", ErrConfiguration, KeyPersistenceTime, *u.PersistenceTime)
	}
	if u.LambdaConnectedness != nil && *u.LambdaConnectedness != 0 && c.dims != 2 {
		return fmt.Errorf("%w: %s is only defined on 2D lattices", ErrConfiguration, KeyLambdaConnectedness)
	}
	return nil
}

func (c *constraintTable) apply(t int, u Constraints) {
	p := &c.params[t]
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	set(&p.LambdaArea, u.LambdaArea)
	set(&p.TargetArea, u.TargetArea)
	set(&p.LambdaPerimeter, u.LambdaPerimeter)
	set(&p.TargetPerimeter, u.TargetPerimeter)
	set(&p.MaxAct, u.MaxAct)
	set(&p.LambdaAct, u.LambdaAct)
	set(&p.LambdaPersistence, u.LambdaPersistence)
	set(&p.PersistenceDiffusion, u.PersistenceDiffusion)
	set(&p.LambdaConnectedness, u.LambdaConnectedness)
	set(&p.LambdaChemotaxis, u.LambdaChemotaxis)
	if u.PersistenceTime != nil {
		p.PersistenceTime = *u.PersistenceTime
	}
	if u.Fixed != nil {
		p.Fixed = *u.Fixed
	}
	c.refreshToggles()
}

func (c *constraintTable) setAdhesion(a, b int, j float64) {
	c.adhesion[a*c.types+b] = j
	c.adhesion[b*c.types+a] = j
}

// constraintsFromValues converts a key/value update into a Constraints record
// and an optional adhesion value. Unknown keys are rejected.
func constraintsFromValues(values map[string]float64) (Constraints, *float64, error) {
	var u Constraints
	var adhesion *float64
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := values[k]
		switch k {
		case KeyLambdaArea:
			u.LambdaArea = Ptr(v)
		case KeyTargetArea:
			u.TargetArea = Ptr(v)
		case KeyLambdaPerimeter:
			u.LambdaPerimeter = Ptr(v)
		case KeyTargetPerimeter:
			u.TargetPerimeter = Ptr(v)
		case KeyMaxAct:
			u.MaxAct = Ptr(v)
		case KeyLambdaAct:
			u.LambdaAct = Ptr(v)
		case KeyLambdaPersistence:
			u.LambdaPersistence = Ptr(v)
		case KeyPersistenceDiffusion:
			u.PersistenceDiffusion = Ptr(v)
		case KeyLambdaConnectedness:
			u.LambdaConnectedness = Ptr(v)
		case KeyLambdaChemotaxis:
			u.LambdaChemotaxis = Ptr(v)
		case KeyPersistenceTime:
			if v != math.Trunc(v) || math.IsInf(v, 0) || v > math.MaxInt32 {
				return u, nil, fmt.Errorf("%w: %s must be an integer, got %v", ErrConfiguration, k, v)
			}
			u.PersistenceTime = Ptr(int(v))
		case KeyFixed:
			if v != 0 && v != 1 {
				return u, nil, fmt.Errorf("%w: %s must be 0 or 1, got %v", ErrConfiguration, k, v)
			}
			u.Fixed = Ptr(v == 1)
		case KeyAdhesion:
			if err := checkFinite(k, v); err != nil {
				return u, nil, err
			}
			adhesion = Ptr(v)
		default:
			return u, nil, fmt.Errorf("%w: unknown constraint %q", ErrConfiguration, k)
		}
	}
	return u, adhesion, nil
}
