package metrics

import (
	"math"

	"github.com/san-kum/forceradar/internal/sim"
)

// AnchorError is the mean distance between points and the anchor they are
// pulled toward, in the latest frame.
type AnchorError struct {
	name    string
	current float64
	worst   float64
}

func NewAnchorError() *AnchorError {
	return &AnchorError{name: "anchor_error"}
}

func (a *AnchorError) Name() string { return a.name }

func (a *AnchorError) Observe(f *sim.Frame) {
	if len(f.Points) == 0 {
		a.current = 0
		return
	}
	sum := 0.0
	worst := 0.0
	for _, p := range f.Points {
		d := math.Hypot(p.X-p.AnchorX, p.Y-p.AnchorY)
		sum += d
		worst = math.Max(worst, d)
	}
	a.current = sum / float64(len(f.Points))
	a.worst = worst
}

func (a *AnchorError) Value() float64 { return a.current }

// Worst is the largest single distance in the latest frame.
func (a *AnchorError) Worst() float64 { return a.worst }

func (a *AnchorError) Reset() {
	a.current = 0
	a.worst = 0
}
