package gravity

import (
	"math"

	"github.com/san-kum/forceradar/internal/entity"
	"gonum.org/v1/gonum/spatial/r2"
)

// SubAnchors spreads one anchor per group over the target's footprint.
//
// Outer targets lay their anchors out evenly along their width, a single
// group sitting on the primary anchor. The center target spaces them
// around a circle of half its width, starting at the top, even for one
// group. Offsets are then pushed away from the target center by offset
// (toward it when negative), rotated with the target and translated onto
// its primary anchor.
func SubAnchors(t *entity.Target, groupIDs []string, offset float64) map[string]r2.Vec {
	out := make(map[string]r2.Vec, len(groupIDs))
	origin := r2.Vec{X: t.X, Y: t.Y}
	n := len(groupIDs)
	if n == 1 && !t.IsCenter() {
		out[groupIDs[0]] = origin
		return out
	}

	theta := t.Rotation() * math.Pi / 180
	for i, id := range groupIDs {
		local := localOffset(t, i, n)
		local = push(local, offset)
		out[id] = r2.Add(origin, r2.Rotate(local, theta, r2.Vec{}))
	}
	return out
}

func localOffset(t *entity.Target, i, n int) r2.Vec {
	if t.IsCenter() {
		angle := 2*math.Pi*float64(i)/float64(n) - math.Pi/2
		radius := t.Width / 2
		return r2.Vec{X: radius * math.Cos(angle), Y: radius * math.Sin(angle)}
	}
	spacing := t.Width / float64(n)
	return r2.Vec{X: -t.Width/2 + spacing*(float64(i)+0.5)}
}

// push changes the length of v by offset, never flipping its direction.
func push(v r2.Vec, offset float64) r2.Vec {
	l := r2.Norm(v)
	if l == 0 || offset == 0 {
		return v
	}
	nl := math.Max(0, l+offset)
	return r2.Scale(nl/l, v)
}
