package metrics

import "github.com/san-kum/forceradar/internal/sim"

// AlphaHistory records the alpha of every observed tick. Its value is the
// most recent alpha.
type AlphaHistory struct {
	name   string
	values []float64
}

func NewAlphaHistory() *AlphaHistory {
	return &AlphaHistory{name: "alpha"}
}

func (a *AlphaHistory) Name() string { return a.name }

func (a *AlphaHistory) Observe(f *sim.Frame) {
	a.values = append(a.values, f.Alpha)
}

func (a *AlphaHistory) Value() float64 {
	if len(a.values) == 0 {
		return 0
	}
	return a.values[len(a.values)-1]
}

func (a *AlphaHistory) Values() []float64 { return a.values }

func (a *AlphaHistory) Reset() { a.values = a.values[:0] }
