// Package engine runs the lock controller one tick at a time.
//
// Each tick takes a single snapshot of the parameter store, steps the 2x2
// controller matrix with the rail flags left by the previous tick, passes
// the raw outputs through the limiter and keeps the new rail flags for the
// next tick. The Simulator closes the loop through a Plant.
package engine
