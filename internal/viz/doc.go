// Package viz renders lock runs in the terminal.
//
// Stored traces are drawn with asciigraph. The live view is a Bubble Tea
// program that steps a simulator and lets the operator write parameters
// while the loop runs.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	Tab   - Select the next PID channel
//	L     - Toggle relock on the selected channel
//	H     - Toggle hold
//	I     - Toggle integrator reset
//	V     - Toggle inverted error
//	Up/Dn - Move the setpoint
//	+/-   - Ticks per frame
//	R     - Reset the engine and plant
//	?     - Show help
package viz
