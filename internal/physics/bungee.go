package physics

import (
	"math"

	"github.com/san-kum/bungeesim/internal/dynamo"
)

// StandardGravity in m/s^2.
const StandardGravity = 9.80665

// State indices of a bungee jump state.
const (
	Height   = 0
	Velocity = 1
)

// BungeeParams are the physical parameters of one jump, in SI units.
type BungeeParams struct {
	K             float64 `json:"k"`              // rope spring constant, N/m
	NaturalLength float64 `json:"natural_length"` // height above ground at which the rope starts to stretch, m
	Mass          float64 `json:"mass"`           // jumper mass, kg
	DragLinear    float64 `json:"drag_linear"`    // linear drag coefficient c1, kg/s
	DragQuadratic float64 `json:"drag_quadratic"` // quadratic drag coefficient c2, kg/m
}

// Bungee is a jumper on a one-sided linear spring with linear and
// quadratic air drag. State is [height, velocity], height above ground
// and velocity positive upward.
type Bungee struct {
	p BungeeParams
}

func NewBungee(p BungeeParams) *Bungee {
	return &Bungee{p: p}
}

func (b *Bungee) Params() BungeeParams { return b.p }

func (b *Bungee) StateDim() int { return 2 }

// SpringForce is the rope tension at height h. The rope never pushes.
func (b *Bungee) SpringForce(h float64) float64 {
	if h > b.p.NaturalLength {
		return 0
	}
	return b.p.K * (b.p.NaturalLength - h)
}

func (b *Bungee) Acceleration(h, v float64) float64 {
	airLinear := b.p.DragLinear / b.p.Mass * v
	airQuadratic := b.p.DragQuadratic / b.p.Mass * math.Abs(v) * v
	return -StandardGravity + b.SpringForce(h)/b.p.Mass - airLinear - airQuadratic
}

func (b *Bungee) Derive(x dynamo.State, t float64) dynamo.State {
	h, v := x[Height], x[Velocity]
	a := b.Acceleration(h, v)

	// Below ground and still falling: hold height so the post-impact
	// integration stays bounded. Velocity keeps evolving.
	if h < 0 && v < 0 {
		return dynamo.State{0, a}
	}
	return dynamo.State{v, a}
}

// Energy is kinetic plus gravitational plus elastic energy, in joules.
func (b *Bungee) Energy(x dynamo.State) float64 {
	h, v := x[Height], x[Velocity]
	e := 0.5*b.p.Mass*v*v + b.p.Mass*StandardGravity*h
	if h <= b.p.NaturalLength {
		stretch := b.p.NaturalLength - h
		e += 0.5 * b.p.K * stretch * stretch
	}
	return e
}
