// Package control implements the fixed-point lock engine.
//
// The engine is made of four identical channels arranged as a 2x2 matrix:
//
//   - [PID]: proportional-integral-derivative channel with anti-windup,
//     integrator reset and hold
//   - [Relock]: sweep state machine that searches for lock when a monitored
//     signal leaves its window
//   - [Matrix]: the four (PID, Relock) pairs summed into two outputs
//   - [Limiter]: output clamp whose rail flags feed back into the next tick
//
// # Usage
//
//	var m control.Matrix
//	var lim control.Limiter
//	p := control.DefaultParams()
//	raw := m.Step(&p, control.MatrixInput{In: in, Rail: rail})
//	out, rail := lim.Step(raw.Raw, p.Limits)
//
// Every Step is a total function of the previous state and the parameter
// snapshot; nothing in this package allocates or blocks.
package control
