package jump

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/bungeesim/internal/dynamo"
	"github.com/san-kum/bungeesim/internal/integrators"
	"github.com/san-kum/bungeesim/internal/logging"
	"github.com/san-kum/bungeesim/internal/metrics"
	"github.com/san-kum/bungeesim/internal/physics"
)

// Simulator runs complete jumps. It holds no per-run state and is safe for
// concurrent use.
type Simulator struct {
	integrator string
	solverOpts dynamo.SolverOptions
	solver     *dynamo.Solver
	logger     *slog.Logger
}

type Option func(*Simulator)

func WithIntegrator(name string) Option {
	return func(s *Simulator) { s.integrator = name }
}

func WithSolverOptions(opts dynamo.SolverOptions) Option {
	return func(s *Simulator) { s.solverOpts = opts }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Simulator) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func New(opts ...Option) (*Simulator, error) {
	s := &Simulator{
		integrator: integrators.Default,
		solverOpts: dynamo.DefaultSolverOptions(),
		logger:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}

	mk, err := integrators.Factory(s.integrator)
	if err != nil {
		return nil, err
	}
	if s.integrator == "" {
		s.integrator = integrators.Default
	}
	s.solver = dynamo.NewSolver(mk, s.solverOpts)
	return s, nil
}

func (s *Simulator) Integrator() string { return s.integrator }

// Simulate runs one jump with the default integrator and tolerances.
func Simulate(ctx context.Context, in Inputs) (*Result, error) {
	s, err := New()
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, in)
}

// Run sanitizes the inputs, integrates the jump and, when the jumper
// reaches the ground, integrates a second phase from rest on the ground,
// classifies the impact and splices both phases into one trajectory.
// Only solver failures are returned as errors.
func (s *Simulator) Run(ctx context.Context, in Inputs) (*Result, error) {
	san, diags := Sanitize(in)
	for _, d := range diags {
		s.logger.Warn("input corrected", "diagnostic", d)
	}

	sys := physics.NewBungee(san.Params)
	times := dynamo.Linspace(0, san.Duration, Samples)
	dt := times[1] - times[0]

	states, err := s.solver.Solve(ctx, sys, dynamo.State{san.StartHeight, 0}, times)
	if err != nil {
		return nil, fmt.Errorf("jump phase: %w", err)
	}
	primary := Trajectory(states)
	s.traceSamples(ctx, "jump", times, primary)

	res := &Result{
		Inputs:      in,
		StartHeight: san.StartHeight,
		Duration:    san.Duration,
		Params:      san.Params,
		Times:       times,
		ImpactIndex: -1,
	}

	if !HitsGround(primary) {
		diags = append(diags, msgSafe)
		res.Outcome = Safe
		res.Trajectory = primary
	} else {
		idx := ImpactIndex(primary)
		impactTime := float64(idx) * dt

		states, err := s.solver.Solve(ctx, sys, dynamo.State{0, 0}, times)
		if err != nil {
			return nil, fmt.Errorf("ground phase: %w", err)
		}
		crash := Trajectory(states)
		s.traceSamples(ctx, "ground", times, crash)

		res.Outcome = Classify(crash)
		diags = append(diags, fmt.Sprintf(msgImpact, impactTime))
		if res.Outcome == GroundImpactSlackRope {
			zeroVelocities(crash)
			diags = append(diags, fmt.Sprintf(msgVelocity, impactTime), reasonSlack)
		} else {
			diags = append(diags, reasonSpringK)
		}

		res.Trajectory = Splice(primary, crash, idx)
		res.ImpactIndex = idx
		res.ImpactTime = impactTime
	}

	res.Diagnostics = diags
	res.Metrics = metrics.Observe(res.Trajectory, res.Times,
		metrics.NewMinHeight(),
		metrics.NewPeakSpeed(),
		metrics.NewMaxStretch(san.Params.NaturalLength),
		metrics.NewEnergyLoss(sys),
	)

	s.logger.Debug("jump simulated",
		"integrator", s.integrator,
		"outcome", res.Outcome,
		"impact_index", res.ImpactIndex,
		"min_height", res.Metrics["min_height"],
	)

	return res, nil
}

// traceSamples logs every sample of a phase at trace level.
func (s *Simulator) traceSamples(ctx context.Context, phase string, times []float64, tr Trajectory) {
	if !s.logger.Enabled(ctx, logging.LevelTrace) {
		return
	}
	for i, x := range tr {
		s.logger.Log(ctx, logging.LevelTrace, "sample",
			"phase", phase,
			"index", i,
			"t", times[i],
			"height", x[physics.Height],
			"velocity", x[physics.Velocity],
		)
	}
}
