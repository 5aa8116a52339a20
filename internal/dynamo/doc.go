// Package dynamo provides core simulation primitives for dynamical systems.
//
// The package defines the fundamental interfaces and types for numerical
// simulation of ordinary differential equations (ODEs):
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [Integrator]: fixed-step numerical integrator interface
//   - [AdaptiveIntegrator]: integrator with embedded error estimation
//   - [Solver]: samples a trajectory on a fixed output time grid
//
// # Example
//
//	sys := physics.NewBungee(params)
//	solver := dynamo.NewSolver(func() dynamo.Integrator { return integrators.NewRK45() }, dynamo.DefaultSolverOptions())
//	states, err := solver.Solve(ctx, sys, dynamo.State{80, 0}, dynamo.Linspace(0, 20, 1001))
//
// # Output grid
//
// The output grid only fixes where states are reported. An adaptive
// integrator takes as many internal steps between two grid points as its
// tolerance requires; a fixed-step integrator takes [SolverOptions.Substeps].
package dynamo
