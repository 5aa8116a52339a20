package jump

import (
	"fmt"

	"github.com/san-kum/bungeesim/internal/dynamo"
	"github.com/san-kum/bungeesim/internal/physics"
)

// Samples is the number of output points of every trajectory: 1000 equal
// intervals over [0, Duration].
const Samples = 1001

// Replacement values for out-of-range inputs.
const (
	DefaultStartHeight   = 80.0
	DefaultDuration      = 20.0
	DefaultNaturalLength = 20.0
	DefaultK             = 100.0
	DefaultMass          = 100.0
)

// Inputs are the unvalidated parameters of one jump, in SI units.
// The natural length of the rope is StartHeight - RopeLength.
type Inputs struct {
	StartHeight   float64 `json:"start_height" yaml:"start_height"`
	Duration      float64 `json:"duration" yaml:"duration"`
	K             float64 `json:"k" yaml:"k"`
	RopeLength    float64 `json:"rope_length" yaml:"rope_length"`
	Mass          float64 `json:"mass" yaml:"mass"`
	DragLinear    float64 `json:"drag_linear" yaml:"drag_linear"`
	DragQuadratic float64 `json:"drag_quadratic" yaml:"drag_quadratic"`
}

// Sanitized holds inputs after out-of-range values were replaced.
type Sanitized struct {
	StartHeight float64
	Duration    float64
	Params      physics.BungeeParams
}

// Inputs converts back to raw inputs so sanitization can be applied again.
func (s Sanitized) Inputs() Inputs {
	return Inputs{
		StartHeight:   s.StartHeight,
		Duration:      s.Duration,
		K:             s.Params.K,
		RopeLength:    s.StartHeight - s.Params.NaturalLength,
		Mass:          s.Params.Mass,
		DragLinear:    s.Params.DragLinear,
		DragQuadratic: s.Params.DragQuadratic,
	}
}

// Trajectory is a sequence of [height, velocity] states on a uniform grid.
type Trajectory []dynamo.State

func (tr Trajectory) Heights() []float64 {
	return tr.column(physics.Height)
}

func (tr Trajectory) Velocities() []float64 {
	return tr.column(physics.Velocity)
}

func (tr Trajectory) column(idx int) []float64 {
	out := make([]float64, len(tr))
	for i, x := range tr {
		out[i] = x[idx]
	}
	return out
}

// Diagnostics are human-readable messages in the order they were produced.
type Diagnostics []string

type Outcome int

const (
	Safe Outcome = iota
	GroundImpactSlackRope
	GroundImpactWeakSpring
)

var outcomeNames = map[Outcome]string{
	Safe:                   "safe",
	GroundImpactSlackRope:  "ground_impact_slack_rope",
	GroundImpactWeakSpring: "ground_impact_weak_spring",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

func (o Outcome) HitGround() bool { return o != Safe }

func (o Outcome) MarshalText() ([]byte, error) {
	if _, ok := outcomeNames[o]; !ok {
		return nil, fmt.Errorf("unknown outcome %d", int(o))
	}
	return []byte(o.String()), nil
}

func (o *Outcome) UnmarshalText(text []byte) error {
	parsed, err := ParseOutcome(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

func ParseOutcome(s string) (Outcome, error) {
	for o, name := range outcomeNames {
		if name == s {
			return o, nil
		}
	}
	return Safe, fmt.Errorf("unknown outcome: %q", s)
}

// Result is a complete simulated jump.
type Result struct {
	Inputs      Inputs
	StartHeight float64
	Duration    float64
	Params      physics.BungeeParams
	Times       []float64
	Trajectory  Trajectory
	Diagnostics Diagnostics
	Outcome     Outcome
	// ImpactIndex is the sample at which the ground phase was spliced in,
	// or -1 for a safe jump.
	ImpactIndex int
	ImpactTime  float64
	Metrics     map[string]float64
}

// Dt is the spacing of the output grid.
func (r *Result) Dt() float64 {
	if len(r.Times) < 2 {
		return 0
	}
	return r.Times[1] - r.Times[0]
}
