// Package dynamo provides the core contracts for simulating continuous-time
// dynamical systems.
//
// The package defines the fundamental interfaces and types shared by the
// models, integrators and the simulation driver:
//
//   - [State]: vector representing system state
//   - [Model]: a system dX/dt = f(X) that also exposes named signals
//   - [Integrator]: fixed-step numerical integrator
//
// # Example
//
//	m, _ := models.FromTransferFunction([]float64{1}, []float64{1, 1})
//	s, _ := sim.New(sim.Config{Horizon: 10, Dt: 0.01, Scheme: integrators.SchemeRK4}, m)
//	_ = s.Run(ctx)
//
// # Thread Safety
//
// Models are NOT thread-safe. Independent runs may execute in parallel as
// long as each owns its model exclusively.
package dynamo
