// Package analysis inspects stored traces for residual oscillation.
//
//   - [PowerSpectrum]: one-sided magnitude spectrum of a mean-removed series
//   - [DominantFrequency]: strongest non-DC bin in cycles per tick
//
// A locked loop that rings shows up as a sharp peak:
//
//	f, mag := analysis.DominantFrequency(series)
//	if mag > threshold {
//	    // loop oscillates with period 1/f ticks
//	}
package analysis
