// Package quadtree indexes points for pruned neighbour queries.
//
// The tree is rebuilt from scratch whenever positions change; nodes are
// never updated in place. Every leaf holds one position. Points with
// identical coordinates share that leaf as a chain in insertion order, so
// the first inserted point is the leaf's primary point. Points too close
// for their quadrant to be halved any further (a few ULPs apart) are
// chained the same way.
package quadtree

import (
	"math"

	"github.com/san-kum/forceradar/internal/entity"
)

// Node is either internal (up to four children) or a leaf (one or more
// coincident or inseparable points).
type Node struct {
	children [4]*Node
	points   []*entity.Point
}

func (n *Node) Leaf() bool { return len(n.points) > 0 }

// Point returns the leaf's primary point, nil for internal nodes.
func (n *Node) Point() *entity.Point {
	if len(n.points) == 0 {
		return nil
	}
	return n.points[0]
}

// Points returns every point stored at the leaf.
func (n *Node) Points() []*entity.Point { return n.points }

// Child returns quadrant i: 0 top-left, 1 top-right, 2 bottom-left,
// 3 bottom-right, in screen coordinates.
func (n *Node) Child(i int) *Node { return n.children[i] }

type Tree struct {
	root           *Node
	x0, y0, x1, y1 float64
	size           int
}

// VisitFunc receives a node and its bounds. Returning true skips the
// node's children.
type VisitFunc func(n *Node, x0, y0, x1, y1 float64) bool

// Build indexes the given points. Points with NaN or infinite coordinates
// are left out.
func Build(points []*entity.Point) *Tree {
	t := &Tree{}

	first := true
	for _, p := range points {
		x, y := p.Pos()
		if !valid(x, y) {
			continue
		}
		if first {
			t.x0, t.y0, t.x1, t.y1 = x, y, x, y
			first = false
			continue
		}
		t.x0 = math.Min(t.x0, x)
		t.y0 = math.Min(t.y0, y)
		t.x1 = math.Max(t.x1, x)
		t.y1 = math.Max(t.y1, y)
	}
	if first {
		return t
	}

	// square cells keep quadrant splits isotropic
	w := math.Max(t.x1-t.x0, t.y1-t.y0)
	if w <= 0 {
		w = 1
	}
	t.x1, t.y1 = t.x0+w, t.y0+w

	for _, p := range points {
		t.insert(p)
	}
	return t
}

func (t *Tree) Root() *Node { return t.root }
func (t *Tree) Size() int   { return t.size }

func (t *Tree) Extent() (x0, y0, x1, y1 float64) {
	return t.x0, t.y0, t.x1, t.y1
}

func (t *Tree) insert(p *entity.Point) {
	x, y := p.Pos()
	if !valid(x, y) {
		return
	}
	t.size++

	if t.root == nil {
		t.root = leaf(p)
		return
	}

	var parent *Node
	var i int
	node := t.root
	x0, y0, x1, y1 := t.x0, t.y0, t.x1, t.y1

	for !node.Leaf() {
		parent = node
		i, x0, y0, x1, y1 = quadrant(x, y, x0, y0, x1, y1)
		node = parent.children[i]
		if node == nil {
			parent.children[i] = leaf(p)
			return
		}
	}

	qx, qy := node.points[0].Pos()
	if qx == x && qy == y {
		node.points = append(node.points, p)
		return
	}

	// split until the new point and the existing leaf land apart
	existing := node
	for {
		j, nx0, ny0, nx1, ny1 := quadrant(x, y, x0, y0, x1, y1)
		k, _, _, _, _ := quadrant(qx, qy, x0, y0, x1, y1)
		if j == k && !splittable(x, qx, x0, x1) && !splittable(y, qy, y0, y1) {
			existing.points = append(existing.points, p)
			return
		}

		split := &Node{}
		if parent == nil {
			t.root = split
		} else {
			parent.children[i] = split
		}
		if j != k {
			split.children[j] = leaf(p)
			split.children[k] = existing
			return
		}
		parent, i = split, j
		x0, y0, x1, y1 = nx0, ny0, nx1, ny1
	}
}

// splittable reports whether halving [lo, hi] further can still separate
// a from b along one axis.
func splittable(a, b, lo, hi float64) bool {
	if a == b {
		return false
	}
	m := (lo + hi) / 2
	return m > lo && m < hi
}

// Visit walks the tree depth-first in pre-order, children in quadrant
// order.
func (t *Tree) Visit(fn VisitFunc) {
	if t.root == nil {
		return
	}

	type quad struct {
		node           *Node
		x0, y0, x1, y1 float64
	}

	stack := []quad{{t.root, t.x0, t.y0, t.x1, t.y1}}
	for len(stack) > 0 {
		q := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if fn(q.node, q.x0, q.y0, q.x1, q.y1) || q.node.Leaf() {
			continue
		}

		xm, ym := (q.x0+q.x1)/2, (q.y0+q.y1)/2
		bounds := [4][4]float64{
			{q.x0, q.y0, xm, ym},
			{xm, q.y0, q.x1, ym},
			{q.x0, ym, xm, q.y1},
			{xm, ym, q.x1, q.y1},
		}
		for c := 3; c >= 0; c-- {
			if child := q.node.children[c]; child != nil {
				b := bounds[c]
				stack = append(stack, quad{child, b[0], b[1], b[2], b[3]})
			}
		}
	}
}

// Find returns the point closest to (x, y) within radius, or nil. A
// radius <= 0 searches without limit.
func (t *Tree) Find(x, y, radius float64) *entity.Point {
	best := math.Inf(1)
	if radius > 0 {
		best = radius * radius
	}

	var found *entity.Point
	t.Visit(func(n *Node, x0, y0, x1, y1 float64) bool {
		dx := math.Max(0, math.Max(x0-x, x-x1))
		dy := math.Max(0, math.Max(y0-y, y-y1))
		if dx*dx+dy*dy > best {
			return true
		}
		if p := n.Point(); p != nil {
			px, py := p.Pos()
			if d2 := (px-x)*(px-x) + (py-y)*(py-y); d2 <= best {
				best, found = d2, p
			}
		}
		return false
	})
	return found
}

func leaf(p *entity.Point) *Node {
	return &Node{points: []*entity.Point{p}}
}

func quadrant(x, y, x0, y0, x1, y1 float64) (int, float64, float64, float64, float64) {
	xm, ym := (x0+x1)/2, (y0+y1)/2
	i := 0
	if x >= xm {
		i |= 1
		x0 = xm
	} else {
		x1 = xm
	}
	if y >= ym {
		i |= 2
		y0 = ym
	} else {
		y1 = ym
	}
	return i, x0, y0, x1, y1
}

func valid(x, y float64) bool {
	return !math.IsNaN(x) && !math.IsNaN(y) && !math.IsInf(x, 0) && !math.IsInf(y, 0)
}
