package entity

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
)

// CenterTargetID identifies the target every point starts on.
const CenterTargetID = "FRC_CENTER_TARGET"

type Target struct {
	ID    string
	Title string
	Color string

	// Primary anchor.
	X, Y float64

	// Center of the drawn target box. Render-only.
	DrawX, DrawY float64

	// Footprint of the rendered target, used for sub-anchor spread and
	// obstacle generation.
	Width, Height float64

	angle   float64
	center  bool
	anchors map[string]r2.Vec
	roster  map[*Point]struct{}
}

func NewTarget(id string) *Target {
	return &Target{
		ID:      id,
		Color:   DefaultColor,
		anchors: make(map[string]r2.Vec),
		roster:  make(map[*Point]struct{}),
	}
}

func NewCenterTarget() *Target {
	t := NewTarget(CenterTargetID)
	t.center = true
	return t
}

func (t *Target) IsCenter() bool { return t.center }

// Angle is the placement angle in degrees, counter-clockwise from the
// positive x axis, within [0, 360).
func (t *Target) Angle() float64 { return t.angle }

func (t *Target) SetAngle(deg float64) *Target {
	t.angle = NormalizeAngle(deg)
	return t
}

// SetAnchors replaces the per-group sub-anchors.
func (t *Target) SetAnchors(anchors map[string]r2.Vec) {
	t.anchors = make(map[string]r2.Vec, len(anchors))
	for k, v := range anchors {
		t.anchors[k] = v
	}
}

func (t *Target) SubAnchor(groupID string) (r2.Vec, bool) {
	v, ok := t.anchors[groupID]
	return v, ok
}

// Anchor returns the coordinate a point of the given group is attracted
// to, falling back to the primary anchor.
func (t *Target) Anchor(groupID string) r2.Vec {
	if v, ok := t.SubAnchor(groupID); ok {
		return v
	}
	return r2.Vec{X: t.X, Y: t.Y}
}

func (t *Target) AnchorX(groupID string) float64 { return t.Anchor(groupID).X }
func (t *Target) AnchorY(groupID string) float64 { return t.Anchor(groupID).Y }

func (t *Target) add(p *Point)    { t.roster[p] = struct{}{} }
func (t *Target) remove(p *Point) { delete(t.roster, p) }

func (t *Target) Has(p *Point) bool {
	_, ok := t.roster[p]
	return ok
}

func (t *Target) Len() int { return len(t.roster) }

// Members returns the roster sorted by point id.
func (t *Target) Members() []*Point {
	out := make([]*Point, 0, len(t.roster))
	for p := range t.roster {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ActiveCount counts active members of a group. An empty group id counts
// members without a group.
func (t *Target) ActiveCount(groupID string) int {
	n := 0
	for p := range t.roster {
		if p.active && p.GroupID() == groupID {
			n++
		}
	}
	return n
}

func (t *Target) TotalActive() int {
	n := 0
	for p := range t.roster {
		if p.active {
			n++
		}
	}
	return n
}

// GroupCounts maps group id to the number of active members.
func (t *Target) GroupCounts() map[string]int {
	counts := make(map[string]int)
	for p := range t.roster {
		if p.active {
			counts[p.GroupID()]++
		}
	}
	return counts
}

// NormalizeAngle folds degrees into [0, 360).
func NormalizeAngle(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// Rotation is the clockwise on-screen rotation in degrees that lays the
// target tangent to the ring around the chart center. Targets on the left
// half are flipped so their label reads upright.
func (t *Target) Rotation() float64 {
	if t.center {
		return 0
	}
	switch t.angle {
	case 0:
		return -90
	case 180:
		return 90
	case 90, 270:
		return 0
	}
	if q := Quadrant(t.angle); q == 3 || q == 4 {
		return -90 - t.angle
	}
	return 90 - t.angle
}

// Quadrant returns the plane quadrant (1-4) of an angle in degrees within
// [0, 360], or 0 outside that range.
func Quadrant(deg float64) int {
	switch {
	case deg >= 0 && deg <= 90:
		return 1
	case deg > 90 && deg <= 180:
		return 2
	case deg > 180 && deg <= 270:
		return 3
	case deg > 270 && deg <= 360:
		return 4
	}
	return 0
}
