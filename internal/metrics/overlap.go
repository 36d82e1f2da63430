package metrics

import (
	"math"

	"github.com/san-kum/forceradar/internal/sim"
)

// Overlap counts pairs of points closer than the sum of their radii plus
// padding in the latest frame.
type Overlap struct {
	name    string
	padding float64
	count   int
	peak    int
}

func NewOverlap(padding float64) *Overlap {
	return &Overlap{
		name:    "overlap",
		padding: padding,
	}
}

func (o *Overlap) Name() string { return o.name }

func (o *Overlap) Observe(f *sim.Frame) {
	o.count = CountOverlaps(f.Points, o.padding)
	o.peak = max(o.peak, o.count)
}

func (o *Overlap) Value() float64 { return float64(o.count) }

// Peak is the highest count seen since the last reset.
func (o *Overlap) Peak() int { return o.peak }

func (o *Overlap) Reset() {
	o.count = 0
	o.peak = 0
}

// CountOverlaps checks every pair of points. Coincident points count as
// overlapping.
func CountOverlaps(points []sim.PointView, padding float64) int {
	n := 0
	for i := range points {
		a := points[i]
		for j := i + 1; j < len(points); j++ {
			b := points[j]
			if math.Hypot(a.X-b.X, a.Y-b.Y) < a.Radius+b.Radius+padding {
				n++
			}
		}
	}
	return n
}
