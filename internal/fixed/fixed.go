package fixed

const (
	SampleBits = 14
	SampleMax  = 1<<(SampleBits-1) - 1
	SampleMin  = -1 << (SampleBits - 1)

	PSR       = 12
	ISR       = 28
	DSR       = 10
	StepShift = 18

	KpBits       = 24
	KiBits       = 24
	KdBits       = 14
	StepsizeBits = 24

	// IntegratorBits leaves one guard bit above a full-scale integral term.
	// The integral is taken as acc >> ISR, so a 29-bit accumulator could
	// only ever contribute ±1 count; the register must be ISR bits wider
	// than a Sample.
	IntegratorBits = ISR + SampleBits + 1
	// SweepBits is the width of the relock ramp accumulators.
	SweepBits = SampleBits + StepShift + 1
)

// Sample is a normalized 14-bit signed count.
type Sample int16

func (s Sample) Valid() bool {
	return s >= SampleMin && s <= SampleMax
}

// InRange reports whether v fits a Sample without saturation.
func InRange(v int64) bool {
	return v >= SampleMin && v <= SampleMax
}

// Saturate pins v to the signed range of a bits-wide register. The bits above
// the sign position must all equal the sign, otherwise the value overflowed
// and is replaced by the rail it overflowed toward.
func Saturate(v int64, bits uint) int64 {
	over := v >> (bits - 1)
	if over == 0 || over == -1 {
		return v
	}
	if over < 0 {
		return -1 << (bits - 1)
	}
	return 1<<(bits-1) - 1
}

// SaturateSample narrows v to the Sample range.
func SaturateSample(v int64) Sample {
	return Sample(Saturate(v, SampleBits))
}

// Max returns the largest unsigned value of a bits-wide register.
func Max(bits uint) int64 {
	return 1<<bits - 1
}

// Mask truncates a non-negative register value to its maximum instead of
// wrapping. Negative values are the caller's concern.
func Mask(v int64, bits uint) int64 {
	if m := Max(bits); v > m {
		return m
	}
	return v
}
