package sim

import (
	"time"

	"github.com/san-kum/forceradar/internal/collision"
)

type State int

const (
	Idle State = iota
	Seeded
	Running
	Settled
	Reheated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Seeded:
		return "seeded"
	case Running:
		return "running"
	case Settled:
		return "settled"
	case Reheated:
		return "reheated"
	}
	return "unknown"
}

// PointView is the render-facing copy of a point.
type PointView struct {
	ID     string  `json:"id"`
	Label  string  `json:"label,omitempty"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
	Color  string  `json:"color"`
	Active bool    `json:"active"`
	Target string  `json:"target,omitempty"`
	Group  string  `json:"group,omitempty"`

	// Anchor the point is currently pulled toward.
	AnchorX float64 `json:"anchor_x"`
	AnchorY float64 `json:"anchor_y"`
}

type TargetView struct {
	ID       string         `json:"id"`
	Title    string         `json:"title,omitempty"`
	Color    string         `json:"color"`
	Center   bool           `json:"center,omitempty"`
	X        float64        `json:"x"`
	Y        float64        `json:"y"`
	Width    float64        `json:"width"`
	Height   float64        `json:"height"`
	Angle    float64        `json:"angle"`
	Rotation float64        `json:"rotation"`
	Counts   map[string]int `json:"counts,omitempty"`
}

// Frame is a snapshot of the simulation handed to observers once per tick.
// It shares nothing with the live entities.
type Frame struct {
	Tick       int             `json:"tick"`
	Alpha      float64         `json:"alpha"`
	State      State           `json:"-"`
	Points     []PointView     `json:"points"`
	Targets    []TargetView    `json:"targets"`
	Collisions collision.Stats `json:"collisions"`
}

type Observer interface {
	OnTick(f *Frame)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(f *Frame)

func (fn ObserverFunc) OnTick(f *Frame) { fn(f) }

type Metric interface {
	Name() string
	Observe(f *Frame)
	Value() float64
	Reset()
}

// PointState is one entry of a batch update. Nil fields are left
// unchanged. An empty Target moves the point back to the center target; an
// empty Group clears it.
type PointState struct {
	ID     string
	Target *string
	Group  *string
	Color  *string
	Active *bool
}

type Result struct {
	Ticks    int
	Settled  bool
	Duration time.Duration
	// Alpha used by each tick.
	Alphas []float64
	// Per-tick value of every metric, keyed by metric name.
	Series  map[string][]float64
	Metrics map[string]float64
	Final   *Frame
}
