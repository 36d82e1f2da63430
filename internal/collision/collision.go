// Package collision separates overlapping points.
//
// Each pass rebuilds a quadtree over the current positions and, for every
// point, visits only the quadrants intersecting that point's search box.
// Overlapping movable pairs are pushed apart symmetrically; a movable point
// overlapping a static obstacle is pushed alone, amplified by
// RepulseFactor. Points at exactly the same position are separated by a
// random jitter.
package collision

import (
	"math"
	"math/rand"

	"github.com/san-kum/forceradar/internal/entity"
	"github.com/san-kum/forceradar/internal/quadtree"
)

type Resolver struct {
	// Padding is added to the sum of radii of every pair.
	Padding float64

	// RepulseFactor scales the displacement of a movable point hitting a
	// static one.
	RepulseFactor float64

	// When IgnoreCrossTarget is set and the global alpha drops below
	// CrossTargetThreshold, pairs assigned to different targets are left
	// alone.
	IgnoreCrossTarget    bool
	CrossTargetThreshold float64

	// Jitter bounds the displacement applied to coincident points.
	Jitter float64

	Rand *rand.Rand
}

// Stats summarises one pass.
type Stats struct {
	Pairs      int // candidate pairs examined
	Overlaps   int // pairs displaced
	Coincident int // pairs jittered
	Skipped    int // pairs exempt as cross-target
}

func (s *Stats) add(o Stats) {
	s.Pairs += o.Pairs
	s.Overlaps += o.Overlaps
	s.Coincident += o.Coincident
	s.Skipped += o.Skipped
}

// Resolve runs one collision pass over points, static and movable alike.
func (r *Resolver) Resolve(points []*entity.Point, alphaScale, globalAlpha float64) Stats {
	tree := quadtree.Build(points)

	var total Stats
	for _, d := range points {
		total.add(r.resolvePoint(tree, d, alphaScale, globalAlpha))
	}
	return total
}

func (r *Resolver) resolvePoint(tree *quadtree.Tree, d *entity.Point, alphaScale, globalAlpha float64) Stats {
	var st Stats
	Neighbors(tree, d, r.Padding, func(q *entity.Point) {
		r.resolvePair(d, q, alphaScale, globalAlpha, &st)
	})
	return st
}

// Neighbors calls fn for every point other than d whose bounding box
// intersects d's search box of half-width 2*d.Radius+padding. Quadrants
// lying entirely outside the search box are pruned.
func Neighbors(tree *quadtree.Tree, d *entity.Point, padding float64, fn func(q *entity.Point)) {
	search := 2*d.Radius + padding
	nx1, nx2 := d.X()-search, d.X()+search
	ny1, ny2 := d.Y()-search, d.Y()+search

	tree.Visit(func(n *quadtree.Node, x0, y0, x1, y1 float64) bool {
		if Outside(x0, y0, x1, y1, nx1, ny1, nx2, ny2) {
			return true
		}
		for _, q := range n.Points() {
			if q == d {
				continue
			}
			qx, qy := q.Pos()
			if Outside(qx-q.Radius, qy-q.Radius, qx+q.Radius, qy+q.Radius, nx1, ny1, nx2, ny2) {
				continue
			}
			fn(q)
		}
		return false
	})
}

func (r *Resolver) resolvePair(d, q *entity.Point, alphaScale, globalAlpha float64, st *Stats) {
	if d.Static() && q.Static() {
		return
	}
	st.Pairs++

	if r.exempt(d, q, globalAlpha) {
		st.Skipped++
		return
	}

	dx, dy := d.X()-q.X(), d.Y()-q.Y()
	dist := math.Sqrt(dx*dx + dy*dy)
	minDist := d.Radius + q.Radius + r.Padding

	if dist == 0 {
		st.Coincident++
		r.jitter(d)
		r.jitter(q)
		return
	}
	if dist >= minDist {
		return
	}

	st.Overlaps++
	factor := (dist - minDist) / dist * alphaScale
	dx, dy = dx*factor, dy*factor

	switch {
	case !d.Static() && !q.Static():
		d.Translate(-dx, -dy)
		q.Translate(dx, dy)
	case d.Static():
		q.Translate(dx*r.RepulseFactor, dy*r.RepulseFactor)
	default:
		d.Translate(-dx*r.RepulseFactor, -dy*r.RepulseFactor)
	}
}

func (r *Resolver) exempt(d, q *entity.Point, globalAlpha float64) bool {
	if !r.IgnoreCrossTarget || globalAlpha >= r.CrossTargetThreshold {
		return false
	}
	dt, qt := d.Target(), q.Target()
	return dt != nil && qt != nil && dt != qt
}

// jitter nudges a movable point in a random direction by a non-zero
// distance of at most r.Jitter.
func (r *Resolver) jitter(p *entity.Point) {
	if p.Static() {
		return
	}
	mag := r.Jitter
	if mag <= 0 {
		mag = 1
	}
	angle := r.rand().Float64() * 2 * math.Pi
	dist := mag * (0.5 + 0.5*r.rand().Float64())
	p.Translate(math.Cos(angle)*dist, math.Sin(angle)*dist)
}

func (r *Resolver) rand() *rand.Rand {
	if r.Rand == nil {
		r.Rand = rand.New(rand.NewSource(rand.Int63()))
	}
	return r.Rand
}

// Outside reports whether the box [x0,x1]x[y0,y1] lies entirely outside
// [nx1,nx2]x[ny1,ny2].
func Outside(x0, y0, x1, y1, nx1, ny1, nx2, ny2 float64) bool {
	return x0 > nx2 || x1 < nx1 || y0 > ny2 || y1 < ny1
}
