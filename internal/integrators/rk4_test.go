package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/bungeesim/internal/dynamo"
)

type simpleDynamics struct{}

func (s *simpleDynamics) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func (s *simpleDynamics) StateDim() int { return 2 }

func TestRK4Accuracy(t *testing.T) {
	dyn := &simpleDynamics{}
	integ := NewRK4()

	x0 := dynamo.State{1.0, 0.0}
	dt := 0.01
	steps := 100

	x := x0
	for i := 0; i < steps; i++ {
		x = integ.Step(dyn, x, float64(i)*dt, dt)
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-4 {
		t.Errorf("position error too large: got %.6f, expected %.6f", x[0], expectedX)
	}

	if math.Abs(x[1]-expectedV) > 1e-4 {
		t.Errorf("velocity error too large: got %.6f, expected %.6f", x[1], expectedV)
	}
}

func TestRK4FreeFall(t *testing.T) {
	// constant acceleration is integrated exactly by RK4
	integ := NewRK4()
	x := dynamo.State{80, 0}
	for i := 0; i < 200; i++ {
		x = integ.Step(&constantAccel{a: -9.80665}, x, float64(i)*0.01, 0.01)
	}

	wantH := 80 - 0.5*9.80665*4
	if math.Abs(x[0]-wantH) > 1e-9 {
		t.Errorf("height after 2s = %.9f, want %.9f", x[0], wantH)
	}
	if math.Abs(x[1]+9.80665*2) > 1e-9 {
		t.Errorf("velocity after 2s = %.9f, want %.9f", x[1], -9.80665*2)
	}
}

type constantAccel struct{ a float64 }

func (c *constantAccel) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{x[1], c.a}
}

func (c *constantAccel) StateDim() int { return 2 }
