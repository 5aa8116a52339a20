package metrics

import (
	"math"

	"github.com/san-kum/bungeesim/internal/dynamo"
	"github.com/san-kum/bungeesim/internal/physics"
)

// Observe feeds every state of a sampled trajectory to each metric and
// collects the values by name.
func Observe(states []dynamo.State, times []float64, ms ...dynamo.Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		m.Reset()
		for i, x := range states {
			t := 0.0
			if i < len(times) {
				t = times[i]
			}
			m.Observe(x, t)
		}
		out[m.Name()] = m.Value()
	}
	return out
}

type MinHeight struct {
	min     float64
	samples int
}

func NewMinHeight() *MinHeight { return &MinHeight{} }

func (m *MinHeight) Name() string { return "min_height" }

func (m *MinHeight) Observe(x dynamo.State, t float64) {
	h := x[physics.Height]
	if m.samples == 0 || h < m.min {
		m.min = h
	}
	m.samples++
}

func (m *MinHeight) Value() float64 { return m.min }

func (m *MinHeight) Reset() {
	m.min = 0
	m.samples = 0
}

type PeakSpeed struct {
	peak float64
}

func NewPeakSpeed() *PeakSpeed { return &PeakSpeed{} }

func (p *PeakSpeed) Name() string { return "peak_speed" }

func (p *PeakSpeed) Observe(x dynamo.State, t float64) {
	p.peak = math.Max(p.peak, math.Abs(x[physics.Velocity]))
}

func (p *PeakSpeed) Value() float64 { return p.peak }
func (p *PeakSpeed) Reset()         { p.peak = 0 }

// MaxStretch is the largest rope extension below the natural length.
type MaxStretch struct {
	naturalLength float64
	max           float64
}

func NewMaxStretch(naturalLength float64) *MaxStretch {
	return &MaxStretch{naturalLength: naturalLength}
}

func (m *MaxStretch) Name() string { return "max_stretch" }

func (m *MaxStretch) Observe(x dynamo.State, t float64) {
	m.max = math.Max(m.max, m.naturalLength-x[physics.Height])
}

func (m *MaxStretch) Value() float64 { return m.max }
func (m *MaxStretch) Reset()         { m.max = 0 }

// EnergyLoss is the fraction of the first observed mechanical energy that
// is missing from the last one.
type EnergyLoss struct {
	dyn           dynamo.Hamiltonian
	initialEnergy float64
	currentEnergy float64
	samples       int
}

func NewEnergyLoss(dyn dynamo.Hamiltonian) *EnergyLoss {
	return &EnergyLoss{dyn: dyn}
}

func (e *EnergyLoss) Name() string { return "energy_loss" }

func (e *EnergyLoss) Observe(x dynamo.State, t float64) {
	energy := e.dyn.Energy(x)
	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.currentEnergy = energy
	e.samples++
}

func (e *EnergyLoss) Value() float64 {
	if e.samples == 0 || e.initialEnergy == 0 {
		return 0
	}
	return (e.initialEnergy - e.currentEnergy) / math.Abs(e.initialEnergy)
}

func (e *EnergyLoss) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.samples = 0
}
