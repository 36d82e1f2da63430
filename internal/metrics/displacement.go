package metrics

import (
	"math"

	"github.com/san-kum/forceradar/internal/sim"
)

// Displacement averages how far points move per tick, over the whole run.
// Points are matched between frames by id.
type Displacement struct {
	name    string
	prev    map[string][2]float64
	last    float64
	sum     float64
	samples int
}

func NewDisplacement() *Displacement {
	return &Displacement{
		name: "displacement",
		prev: make(map[string][2]float64),
	}
}

func (d *Displacement) Name() string { return d.name }

func (d *Displacement) Observe(f *sim.Frame) {
	moved, matched := 0.0, 0
	next := make(map[string][2]float64, len(f.Points))
	for _, p := range f.Points {
		if q, ok := d.prev[p.ID]; ok {
			moved += math.Hypot(p.X-q[0], p.Y-q[1])
			matched++
		}
		next[p.ID] = [2]float64{p.X, p.Y}
	}
	d.prev = next
	if matched == 0 {
		return
	}
	d.last = moved / float64(matched)
	d.sum += d.last
	d.samples++
}

func (d *Displacement) Value() float64 {
	if d.samples == 0 {
		return 0
	}
	return d.sum / float64(d.samples)
}

// Last is the mean movement of the most recent tick.
func (d *Displacement) Last() float64 { return d.last }

func (d *Displacement) Reset() {
	d.prev = make(map[string][2]float64)
	d.last = 0
	d.sum = 0
	d.samples = 0
}
