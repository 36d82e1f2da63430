package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

const minRingingSamples = 8

// Ringing finds the strongest periodic component of a series once its
// linear trend is removed. period is in ticks and share is that component's
// fraction of the total power. Flat or short series report zero for both.
func Ringing(series []float64) (period, share float64) {
	n := len(series)
	if n < minRingingSamples {
		return 0, 0
	}

	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	residual := make([]float64, n)
	copy(residual, series)
	if slope, intercept, ok := fitLine(xs, series); ok {
		for i := range residual {
			residual[i] -= slope*xs[i] + intercept
		}
	}

	spectrum := fft.FFTReal(residual)
	best, bestK, total := 0.0, 0, 0.0
	for k := 1; k <= n/2; k++ {
		p := cmplx.Abs(spectrum[k])
		p *= p
		total += p
		if p > best {
			best, bestK = p, k
		}
	}
	if total <= 1e-12*float64(n) || bestK == 0 {
		return 0, 0
	}
	return float64(n) / float64(bestK), best / total
}
