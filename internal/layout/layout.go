// Package layout places targets on the chart and derives the static
// obstacle points that keep the simulation off target geometry.
//
// Outer targets sit on a ring around the chart center. Their primary
// anchor is pulled inward from the ring by the chart's target inset so
// points gather in front of the target rather than on top of it.
package layout

import (
	"math"
	"math/rand"

	"github.com/san-kum/forceradar/internal/config"
	"github.com/san-kum/forceradar/internal/entity"
	"github.com/san-kum/forceradar/internal/gravity"
	"gonum.org/v1/gonum/spatial/r2"
)

// Center returns the chart center.
func Center(c config.Chart) r2.Vec {
	return r2.Vec{X: c.Width / 2, Y: c.Height / 2}
}

// RingRadius is the distance from the chart center to the middle of every
// outer target.
func RingRadius(c config.Chart) float64 {
	return (math.Min(c.Width, c.Height) - c.TargetHeight) / 2
}

// EvenAngles spreads n angles evenly around the circle starting at start.
func EvenAngles(n int, start float64) []float64 {
	out := make([]float64, n)
	for i := range n {
		out[i] = entity.NormalizeAngle(start + float64(i)*360/float64(n))
	}
	return out
}

// Direction is the unit vector of an angle in screen coordinates, where y
// grows downward.
func Direction(deg float64) r2.Vec {
	switch entity.NormalizeAngle(deg) {
	case 0:
		return r2.Vec{X: 1, Y: 0}
	case 90:
		return r2.Vec{X: 0, Y: -1}
	case 180:
		return r2.Vec{X: -1, Y: 0}
	case 270:
		return r2.Vec{X: 0, Y: 1}
	}
	rad := deg * math.Pi / 180
	return r2.Vec{X: math.Cos(rad), Y: -math.Sin(rad)}
}

// PlaceCenter puts the center target in the middle of the chart and
// spreads group anchors on a ring around it. clearance is the largest
// point radius plus padding; the ring sits at BlockerRadius+clearance so a
// point resting on its anchor just touches the center blocker.
func PlaceCenter(c config.Chart, t *entity.Target, groupIDs []string, clearance float64) {
	mid := Center(c)
	t.X, t.Y = mid.X, mid.Y
	t.DrawX, t.DrawY = mid.X, mid.Y
	t.Width, t.Height = c.HexagonSize, c.HexagonSize*math.Sqrt(3)/2

	ring := BlockerRadius(c) + clearance
	t.SetAnchors(gravity.SubAnchors(t, groupIDs, ring-t.Width/2+c.AnchorOffset))
}

// BlockerRadius is the radius of the static point filling the center
// hexagon.
func BlockerRadius(c config.Chart) float64 {
	return c.HexagonSize - 5
}

// Place positions an outer target on the ring at its current angle and
// recomputes its group anchors.
func Place(c config.Chart, t *entity.Target, groupIDs []string) {
	mid := Center(c)
	dir := Direction(t.Angle())
	radius := RingRadius(c)

	box := r2.Add(mid, r2.Scale(radius, dir))
	anchor := r2.Add(mid, r2.Scale(math.Max(0, radius-c.TargetInset), dir))

	t.DrawX, t.DrawY = box.X, box.Y
	t.X, t.Y = anchor.X, anchor.Y
	t.Width, t.Height = c.TargetWidth, c.TargetHeight
	t.SetAnchors(gravity.SubAnchors(t, groupIDs, c.AnchorOffset))
}

// Seed places a movable point near anchor, inside the angular sector of
// its group. The sector is 2*pi/groupCount wide, so groups start apart.
func Seed(rng *rand.Rand, p *entity.Point, anchor r2.Vec, groupIndex, groupCount int, radius float64) {
	if groupCount < 1 {
		groupCount = 1
	}
	variance := math.Pi / float64(groupCount)
	base := 2 * math.Pi * float64(groupIndex) / float64(groupCount)
	angle := base + (rng.Float64()*2-1)*variance
	dist := rng.Float64() * radius
	p.MoveTo(anchor.X+math.Cos(angle)*dist, anchor.Y+math.Sin(angle)*dist)
}
