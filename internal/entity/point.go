package entity

type Point struct {
	ID     string
	Label  string
	Value  float64
	Radius float64

	x, y   float64
	static bool
	active bool
	color  string
	group  *Group
	target *Target
}

// NewPoint creates an active, movable point at the origin.
func NewPoint(id string, radius float64) *Point {
	return &Point{
		ID:     id,
		Value:  1,
		Radius: radius,
		active: true,
	}
}

// NewObstacle creates a static collision-only point. Its position is fixed
// for the lifetime of the point.
func NewObstacle(x, y, radius float64) *Point {
	return &Point{
		x:      x,
		y:      y,
		Radius: radius,
		static: true,
	}
}

func (p *Point) X() float64              { return p.x }
func (p *Point) Y() float64              { return p.y }
func (p *Point) Pos() (float64, float64) { return p.x, p.y }
func (p *Point) Static() bool            { return p.static }
func (p *Point) Active() bool            { return p.active }
func (p *Point) Target() *Target         { return p.target }
func (p *Point) Group() *Group           { return p.group }

// Translate moves the point by (dx, dy). Static points ignore it.
func (p *Point) Translate(dx, dy float64) {
	if p.static {
		return
	}
	p.x += dx
	p.y += dy
}

// MoveTo places the point at (x, y). Static points ignore it.
func (p *Point) MoveTo(x, y float64) {
	if p.static {
		return
	}
	p.x, p.y = x, y
}

// SetTarget reassigns the point, keeping both rosters consistent.
// Static points never hold a target; false is returned for them.
func (p *Point) SetTarget(t *Target) bool {
	if p.static {
		return false
	}
	if p.target == t {
		return true
	}
	if p.target != nil {
		p.target.remove(p)
	}
	p.target = t
	if t != nil {
		t.add(p)
	}
	return true
}

func (p *Point) GroupID() string {
	if p.group == nil {
		return ""
	}
	return p.group.ID
}

func (p *Point) SetGroup(g *Group) { p.group = g }

func (p *Point) SetActive(active bool) { p.active = active }

// SetColor overrides the group color. An empty string restores it.
func (p *Point) SetColor(color string) { p.color = color }

// BaseColor is the explicit color, else the group color, else DefaultColor.
func (p *Point) BaseColor() string {
	if p.color != "" {
		return p.color
	}
	if p.group != nil && p.group.Color != "" {
		return p.group.Color
	}
	return DefaultColor
}

// Color is the render color: the base color, greyed out when inactive.
func (p *Point) Color() string {
	if !p.active {
		return Inactive(p.BaseColor())
	}
	return p.BaseColor()
}
