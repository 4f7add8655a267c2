package control

import (
	"errors"
	"math"

	"github.com/san-kum/lockbox/internal/fixed"
)

// Timestep is the sample period the integral gain is scaled by.
const Timestep = 8e-9

var ErrNegativeGain = errors.New("control: negative gain")

func toRegister(v float64, bits uint) (uint32, error) {
	if v < 0 || math.IsNaN(v) {
		return 0, ErrNegativeGain
	}
	if math.IsInf(v, 1) {
		return uint32(fixed.Max(bits)), nil
	}
	r := math.Round(v)
	if r > float64(fixed.Max(bits)) {
		return uint32(fixed.Max(bits)), nil
	}
	return uint32(r), nil
}

// KpFromGain converts a proportional gain to its register value.
func KpFromGain(kp float64) (uint32, error) {
	return toRegister(kp*(1<<fixed.PSR), fixed.KpBits)
}

func KpGain(reg uint32) float64 {
	return float64(reg) / (1 << fixed.PSR)
}

// KiFromGain converts an integral gain in 1/s to its register value, folding
// in the sample period.
func KiFromGain(ki float64) (uint32, error) {
	return toRegister(ki*(1<<fixed.ISR)*Timestep, fixed.KiBits)
}

func KiGain(reg uint32) float64 {
	return float64(reg) / ((1 << fixed.ISR) * Timestep)
}

// StepsizeFromRate converts a sweep rate in counts per tick to a stepsize
// register value.
func StepsizeFromRate(countsPerTick float64) (uint32, error) {
	return toRegister(countsPerTick*(1<<fixed.StepShift), fixed.StepsizeBits)
}

func StepsizeRate(reg uint32) float64 {
	return float64(reg) / (1 << fixed.StepShift)
}
