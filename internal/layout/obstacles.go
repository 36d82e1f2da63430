package layout

import (
	"math"

	"github.com/san-kum/forceradar/internal/config"
	"github.com/san-kum/forceradar/internal/entity"
	"gonum.org/v1/gonum/spatial/r2"
)

// Hexagon returns the outline of the center target, flat side up.
func Hexagon(t *entity.Target) []r2.Vec {
	w, h := t.Width, t.Height
	x, y := t.DrawX-w/2, t.DrawY-h/2
	return []r2.Vec{
		{X: x + w*0.25, Y: y},
		{X: x + w*0.75, Y: y},
		{X: x + w, Y: y + h*0.5},
		{X: x + w*0.75, Y: y + h},
		{X: x + w*0.25, Y: y + h},
		{X: x, Y: y + h*0.5},
	}
}

// Box returns the rotated outline of an outer target.
func Box(t *entity.Target) []r2.Vec {
	hw, hh := t.Width/2, t.Height/2
	center := r2.Vec{X: t.DrawX, Y: t.DrawY}
	theta := t.Rotation() * math.Pi / 180

	corners := []r2.Vec{{X: -hw, Y: -hh}, {X: hw, Y: -hh}, {X: hw, Y: hh}, {X: -hw, Y: hh}}
	for i, c := range corners {
		corners[i] = r2.Add(center, r2.Rotate(c, theta, r2.Vec{}))
	}
	return corners
}

// CenterObstacles samples the hexagon outline every CollisionPrecision and
// adds one large blocker covering the hexagon's interior.
func CenterObstacles(c config.Chart, t *entity.Target) []*entity.Point {
	points := Sample(Hexagon(t), true, c.CollisionPrecision)
	points = append(points, entity.NewObstacle(t.DrawX, t.DrawY, BlockerRadius(c)))
	return points
}

// TargetObstacles samples the outline of an outer target.
func TargetObstacles(c config.Chart, t *entity.Target) []*entity.Point {
	return Sample(Box(t), true, c.CollisionPrecision)
}

// PerimeterObstacles rings the chart just outside the target ring.
func PerimeterObstacles(c config.Chart) []*entity.Point {
	mid := Center(c)
	radius := RingRadius(c) + c.TargetHeight/2
	n := int(math.Ceil(2 * math.Pi * radius / c.CollisionPrecision))

	points := make([]*entity.Point, 0, n)
	for i := range n {
		a := 2 * math.Pi * float64(i) / float64(n)
		points = append(points, entity.NewObstacle(
			mid.X+radius*math.Cos(a),
			mid.Y+radius*math.Sin(a),
			c.CollisionPrecision/2,
		))
	}
	return points
}

// Sample places static points of radius precision/2 along a polyline at
// even arc-length steps no longer than precision.
func Sample(vertices []r2.Vec, closed bool, precision float64) []*entity.Point {
	if len(vertices) < 2 || precision <= 0 {
		return nil
	}

	segments := len(vertices) - 1
	if closed {
		segments++
	}
	lengths := make([]float64, segments)
	total := 0.0
	for i := range segments {
		a, b := vertices[i], vertices[(i+1)%len(vertices)]
		lengths[i] = r2.Norm(r2.Sub(b, a))
		total += lengths[i]
	}
	if total == 0 {
		return nil
	}

	n := int(math.Ceil(total/precision - 1e-9))
	points := make([]*entity.Point, 0, n)
	seg, start := 0, 0.0
	for i := range n {
		d := float64(i) / float64(n) * total
		for seg < segments-1 && d > start+lengths[seg] {
			start += lengths[seg]
			seg++
		}
		a, b := vertices[seg], vertices[(seg+1)%len(vertices)]
		f := 0.0
		if lengths[seg] > 0 {
			f = (d - start) / lengths[seg]
		}
		pos := r2.Add(a, r2.Scale(f, r2.Sub(b, a)))
		points = append(points, entity.NewObstacle(pos.X, pos.Y, precision/2))
	}
	return points
}
