package analysis

import (
	"math"
)

// Convergence describes the alpha curve of a run and when each metric
// stopped changing.
type Convergence struct {
	Ticks int
	// Per-tick alpha multiplier fitted over the whole curve.
	DecayRate float64
	// Ticks a run starting at the first alpha needs to settle at DecayRate.
	// Zero when the curve does not decay.
	Predicted int
	// First tick from which the series stays within tolerance of its final
	// value.
	Plateau map[string]int
}

// Converge fits alpha_k = a0 * rate^k by least squares on ln(alpha).
// Non-positive alphas are ignored. Reheats inside the curve bias the fit.
func Converge(alphas []float64, threshold float64, series map[string][]float64, tol float64) Convergence {
	c := Convergence{
		Ticks:   len(alphas),
		Plateau: make(map[string]int, len(series)),
	}

	xs := make([]float64, 0, len(alphas))
	ys := make([]float64, 0, len(alphas))
	for i, a := range alphas {
		if a > 0 {
			xs = append(xs, float64(i))
			ys = append(ys, math.Log(a))
		}
	}
	if slope, _, ok := fitLine(xs, ys); ok {
		c.DecayRate = math.Exp(slope)
	}
	if c.DecayRate > 0 && c.DecayRate < 1 && len(alphas) > 0 && alphas[0] > threshold && threshold > 0 {
		c.Predicted = int(math.Floor(math.Log(threshold/alphas[0])/math.Log(c.DecayRate))) + 1
	}

	for name, values := range series {
		c.Plateau[name] = plateau(values, tol)
	}
	return c
}

func plateau(values []float64, tol float64) int {
	if len(values) == 0 {
		return 0
	}
	final := values[len(values)-1]
	limit := tol * math.Max(1, math.Abs(final))
	for i := len(values) - 1; i >= 0; i-- {
		if math.Abs(values[i]-final) > limit {
			return i + 2
		}
	}
	return 1
}

// fitLine returns slope and intercept of the least squares line through the
// points. ok is false with fewer than two distinct xs.
func fitLine(xs, ys []float64) (slope, intercept float64, ok bool) {
	n := float64(len(xs))
	if len(xs) < 2 {
		return 0, 0, false
	}
	var sx, sy, sxx, sxy float64
	for i := range xs {
		sx += xs[i]
		sy += ys[i]
		sxx += xs[i] * xs[i]
		sxy += xs[i] * ys[i]
	}
	den := n*sxx - sx*sx
	if den == 0 {
		return 0, 0, false
	}
	slope = (n*sxy - sx*sy) / den
	intercept = (sy - slope*sx) / n
	return slope, intercept, true
}
