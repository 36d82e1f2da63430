package collision

import (
	"math"
	"math/rand"
	"testing"

	"github.com/san-kum/forceradar/internal/entity"
	"github.com/san-kum/forceradar/internal/quadtree"
)

func movable(id string, x, y, r float64) *entity.Point {
	p := entity.NewPoint(id, r)
	p.MoveTo(x, y)
	return p
}

func dist(a, b *entity.Point) float64 {
	return math.Hypot(a.X()-b.X(), a.Y()-b.Y())
}

func newResolver(repulse float64) *Resolver {
	return &Resolver{
		Padding:       1,
		RepulseFactor: repulse,
		Jitter:        1,
		Rand:          rand.New(rand.NewSource(7)),
	}
}

func TestCoincidentPointsSeparate(t *testing.T) {
	a := movable("a", 100, 100, 5)
	b := movable("b", 100, 100, 5)

	st := newResolver(1).Resolve([]*entity.Point{a, b}, 0.5, 0.1)

	if st.Coincident == 0 {
		t.Fatal("coincident branch did not fire")
	}
	movedA := a.X() != 100 || a.Y() != 100
	movedB := b.X() != 100 || b.Y() != 100
	if !movedA && !movedB {
		t.Fatal("neither point moved")
	}
	if a.X() == b.X() && a.Y() == b.Y() {
		t.Error("points still coincide")
	}
}

func TestCoincidentJitterIsRandom(t *testing.T) {
	r := &Resolver{Padding: 1, RepulseFactor: 1, Jitter: 1}
	var xs []float64
	for range 3 {
		a := movable("a", 0, 0, 5)
		b := movable("b", 0, 0, 5)
		r.resolvePair(a, b, 0.5, 0.1, &Stats{})
		xs = append(xs, a.X())
	}
	if xs[0] == xs[1] && xs[1] == xs[2] {
		t.Error("jitter repeated the same displacement")
	}
}

func TestStaticObstaclePushesMovable(t *testing.T) {
	m := movable("m", 0, 0, 5)
	s := entity.NewObstacle(3, 0, 5)

	newResolver(1).Resolve([]*entity.Point{m, s}, 1, 0.1)

	if got := dist(m, s); got < 11-1e-9 {
		t.Errorf("expected distance >= 11, got %v", got)
	}
	if s.X() != 3 || s.Y() != 0 {
		t.Errorf("static point moved to (%v, %v)", s.X(), s.Y())
	}
}

func TestStaticRepulseAmplified(t *testing.T) {
	run := func(factor float64) float64 {
		m := movable("m", 0, 0, 5)
		s := entity.NewObstacle(3, 0, 5)
		r := newResolver(factor)
		r.resolvePair(m, s, 0.5, 0.1, &Stats{})
		return -m.X()
	}
	if base, amp := run(1), run(1.5); amp <= base {
		t.Errorf("expected amplified push, got %v <= %v", amp, base)
	}
}

func TestSeparationIncreasesDistance(t *testing.T) {
	tests := []struct {
		name   string
		bx, by float64
	}{
		{"horizontal", 4, 0},
		{"diagonal", 3, 3},
		{"close", 0.1, 0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := movable("a", 0, 0, 5)
			b := movable("b", tt.bx, tt.by, 5)
			before := dist(a, b)

			newResolver(1).Resolve([]*entity.Point{a, b}, 0.5, 0.1)

			if after := dist(a, b); after <= before {
				t.Errorf("distance did not increase: %v -> %v", before, after)
			}
		})
	}
}

func TestSymmetricSplit(t *testing.T) {
	a := movable("a", 0, 0, 5)
	b := movable("b", 4, 0, 5)

	newResolver(1).resolvePair(a, b, 0.5, 0.1, &Stats{})

	// factor = (4-11)/4*0.5, each side moves |factor|*4 = 3.5
	if math.Abs(a.X()+3.5) > 1e-9 || math.Abs(b.X()-7.5) > 1e-9 {
		t.Errorf("unexpected positions a=%v b=%v", a.X(), b.X())
	}
}

func TestBothStaticNoop(t *testing.T) {
	a := entity.NewObstacle(0, 0, 5)
	b := entity.NewObstacle(1, 0, 5)
	st := newResolver(1).Resolve([]*entity.Point{a, b}, 0.5, 0.1)

	if st.Pairs != 0 || a.X() != 0 || b.X() != 1 {
		t.Error("static pair was resolved")
	}
}

func TestStaticInvarianceUnderLoad(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	var points []*entity.Point
	var obstacles []*entity.Point
	for range 60 {
		points = append(points, movable("", rng.Float64()*50, rng.Float64()*50, 4))
	}
	for i := range 40 {
		o := entity.NewObstacle(float64(i)*2.5, 25, 1.25)
		obstacles = append(obstacles, o)
		points = append(points, o)
	}

	r := newResolver(1.5)
	for range 20 {
		r.Resolve(points, 0.5, 0.1)
	}
	for i, o := range obstacles {
		if o.X() != float64(i)*2.5 || o.Y() != 25 {
			t.Fatalf("obstacle %d moved to (%v, %v)", i, o.X(), o.Y())
		}
	}
}

func TestCrossTargetExemption(t *testing.T) {
	ta, tb := entity.NewTarget("a"), entity.NewTarget("b")
	setup := func() (*entity.Point, *entity.Point) {
		a := movable("a", 0, 0, 5)
		b := movable("b", 4, 0, 5)
		a.SetTarget(ta)
		b.SetTarget(tb)
		return a, b
	}
	r := newResolver(1)
	r.IgnoreCrossTarget = true
	r.CrossTargetThreshold = 0.02

	a, b := setup()
	st := r.Resolve([]*entity.Point{a, b}, 0.5, 0.01)
	if st.Skipped == 0 || a.X() != 0 || b.X() != 4 {
		t.Error("cross-target pair resolved below threshold")
	}

	a, b = setup()
	r.Resolve([]*entity.Point{a, b}, 0.5, 0.05)
	if a.X() == 0 {
		t.Error("cross-target pair skipped above threshold")
	}

	a, b = setup()
	b.SetTarget(ta)
	r.Resolve([]*entity.Point{a, b}, 0.5, 0.01)
	if a.X() == 0 {
		t.Error("same-target pair skipped")
	}

	a, b = setup()
	b.SetTarget(nil)
	r.Resolve([]*entity.Point{a, b}, 0.5, 0.01)
	if a.X() == 0 {
		t.Error("untargeted pair skipped")
	}

	r.IgnoreCrossTarget = false
	a, b = setup()
	r.Resolve([]*entity.Point{a, b}, 0.5, 0.01)
	if a.X() == 0 {
		t.Error("exemption applied while disabled")
	}
}

func TestOutside(t *testing.T) {
	tests := []struct {
		name           string
		x0, y0, x1, y1 float64
		want           bool
	}{
		{"inside", 1, 1, 2, 2, false},
		{"overlapping", -5, -5, 1, 1, false},
		{"left", -10, 0, -6, 5, true},
		{"right", 6, 0, 10, 5, true},
		{"above", 0, -10, 5, -6, true},
		{"below", 0, 6, 5, 10, true},
		{"touching", 5, 5, 6, 6, false},
	}
	for _, tt := range tests {
		if got := Outside(tt.x0, tt.y0, tt.x1, tt.y1, -5, -5, 5, 5); got != tt.want {
			t.Errorf("%s: Outside = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestNeighborsPruning(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	points := make([]*entity.Point, 300)
	for i := range points {
		points[i] = movable("", rng.Float64()*400, rng.Float64()*400, 2+rng.Float64()*4)
	}
	tree := quadtree.Build(points)
	const padding = 1.0

	for _, d := range points {
		s := 2*d.Radius + padding
		found := make(map[*entity.Point]bool)
		Neighbors(tree, d, padding, func(q *entity.Point) {
			found[q] = true
			if Outside(q.X()-q.Radius, q.Y()-q.Radius, q.X()+q.Radius, q.Y()+q.Radius,
				d.X()-s, d.Y()-s, d.X()+s, d.Y()+s) {
				t.Fatalf("neighbor outside search box")
			}
		})

		// every overlapping pair with q no larger than d must be found
		for _, q := range points {
			if q == d || q.Radius > d.Radius {
				continue
			}
			if dist(d, q) < d.Radius+q.Radius+padding && !found[q] {
				t.Fatalf("overlapping neighbor missed")
			}
		}
	}
}
