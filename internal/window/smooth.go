package window

import "math"

const (
	// KernelLength is the number of taps in the smoothing kernel.
	KernelLength = 25
	// KernelDecay is the weight ratio between consecutive taps.
	KernelDecay = 0.95
)

var kernel = newKernel()

func newKernel() []float64 {
	k := make([]float64, KernelLength)
	var sum float64
	for i := range k {
		k[i] = math.Pow(KernelDecay, float64(i))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// Smooth applies the causal kernel to values, oldest first. Outputs near the
// start, where fewer than KernelLength samples exist, are renormalized over
// the taps that were used.
func Smooth(values []float64) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		out[i] = smoothAt(values, i)
	}
	return out
}

// SmoothLast returns the smoothed value of the newest sample, or 0 for no
// samples.
func SmoothLast(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return smoothAt(values, len(values)-1)
}

func smoothAt(values []float64, i int) float64 {
	var acc, weight float64
	for k := 0; k < KernelLength && k <= i; k++ {
		acc += kernel[k] * values[i-k]
		weight += kernel[k]
	}
	return acc / weight
}
