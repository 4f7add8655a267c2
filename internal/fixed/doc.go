// Package fixed holds the fixed-point conventions shared by the lock engine.
//
// All signals are 14-bit signed [Sample] values. Gains are unsigned register
// values that are multiplied into a wide intermediate and shifted back down:
//
//   - proportional: (error * Kp) >> [PSR]
//   - integral:     accumulator >> [ISR], accumulator += error * Ki
//   - derivative:   (error * Kd) >> [DSR], first-differenced
//   - relock ramp:  accumulator >> [StepShift]
//
// Overflow at every stage is resolved by [Saturate], never by wraparound.
package fixed
