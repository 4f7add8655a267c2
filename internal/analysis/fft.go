package analysis

import (
	"math"
	"math/cmplx"
)

// FFT is a radix-2 transform. len(data) must be a power of two.
func FFT(data []float64) []complex128 {
	n := len(data)
	if n <= 1 {
		result := make([]complex128, n)
		for i := range data {
			result[i] = complex(data[i], 0)
		}
		return result
	}

	if n%2 != 0 {
		panic("fft requires power of 2 length")
	}

	even := make([]float64, n/2)
	odd := make([]float64, n/2)

	for i := 0; i < n/2; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}

	feven := FFT(even)
	fodd := FFT(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		result[k] = feven[k] + w*fodd[k]
		result[k+n/2] = feven[k] - w*fodd[k]
	}

	return result
}

// window returns the last power-of-two samples of data with the mean removed.
func window(data []float64) []float64 {
	n := 1
	for n*2 <= len(data) {
		n *= 2
	}
	if len(data) == 0 {
		return nil
	}
	w := append([]float64(nil), data[len(data)-n:]...)
	mean := 0.0
	for _, v := range w {
		mean += v
	}
	mean /= float64(n)
	for i := range w {
		w[i] -= mean
	}
	return w
}

// PowerSpectrum returns bin magnitudes 0..n/2-1 of the trailing power-of-two
// window of data, normalized so a full-scale sine of amplitude A peaks at A.
func PowerSpectrum(data []float64) []float64 {
	w := window(data)
	if len(w) < 2 {
		return nil
	}
	fft := FFT(w)
	ps := make([]float64, len(fft)/2)

	scale := 2 / float64(len(w))
	for i := range ps {
		ps[i] = cmplx.Abs(fft[i]) * scale
	}

	return ps
}

// DominantFrequency returns the frequency in cycles per tick of the largest
// non-DC bin and its magnitude. Both are zero for fewer than four samples.
func DominantFrequency(data []float64) (float64, float64) {
	ps := PowerSpectrum(data)
	if len(ps) < 2 {
		return 0, 0
	}
	maxIdx := 1
	for i := 2; i < len(ps); i++ {
		if ps[i] > ps[maxIdx] {
			maxIdx = i
		}
	}
	n := 2 * len(ps)
	return float64(maxIdx) / float64(n), ps[maxIdx]
}
