package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultInitialAlpha         = 0.1
	DefaultReheatAlpha          = 0.1
	DefaultStopThreshold        = 0.005
	DefaultFriction             = 0.99
	DefaultGravityStrength      = 1.0
	DefaultCollisionAlphaScale  = 0.5
	DefaultNodePadding          = 1.0
	DefaultStaticRepulseFactor  = 1.5
	DefaultCrossTargetThreshold = 0.02
	DefaultJitter               = 1.0
	DefaultPointRadius          = 4.0
	DefaultSeedRadius           = 40.0
	DefaultMaxTicks             = 2000

	DefaultWidth              = 800.0
	DefaultHeight             = 800.0
	DefaultTargetWidth        = 120.0
	DefaultTargetHeight       = 30.0
	DefaultTargetInset        = 40.0
	DefaultHexagonSize        = 60.0
	DefaultCollisionPrecision = 2.5
	DefaultStartAngle         = 90.0
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Seed       int64      `yaml:"seed"`
	MaxTicks   int        `yaml:"max_ticks"`
	Simulation Simulation `yaml:"simulation"`
	Chart      Chart      `yaml:"chart"`
	Generator  Generator  `yaml:"generator"`
}

// Simulation holds the force tunables. It is copied into the simulation at
// construction and never changed afterwards.
type Simulation struct {
	// Alpha set when points are seeded.
	InitialAlpha float64 `yaml:"initial_alpha"`
	// Alpha restored by a reheat without explicit value.
	ReheatAlpha float64 `yaml:"reheat_alpha"`
	// The loop settles once alpha falls below this.
	StopThreshold float64 `yaml:"stop_threshold"`
	// Per-tick alpha decay multiplier, in (0, 1).
	Friction float64 `yaml:"friction"`
	// Gravity moves points alpha*GravityStrength of the way to their anchor.
	GravityStrength float64 `yaml:"gravity_strength"`
	// Fixed alpha scale of the collision pass.
	CollisionAlphaScale float64 `yaml:"collision_alpha_scale"`
	// Extra gap kept between any two points.
	NodePadding float64 `yaml:"node_padding"`
	// Amplifies pushes from static obstacles.
	StaticRepulseFactor float64 `yaml:"static_repulse_factor"`
	// Skip pairs on different targets once alpha < CrossTargetThreshold.
	IgnoreCrossTarget    bool    `yaml:"ignore_cross_target"`
	CrossTargetThreshold float64 `yaml:"cross_target_threshold"`
	// Upper bound of the random nudge applied to coincident points.
	Jitter float64 `yaml:"jitter"`
	// Radius of points that do not specify one.
	PointRadius float64 `yaml:"point_radius"`
	// Seeded points start within this distance of their anchor.
	SeedRadius float64 `yaml:"seed_radius"`
}

// Chart describes the plane the targets are laid out on.
type Chart struct {
	Width              float64 `yaml:"width"`
	Height             float64 `yaml:"height"`
	TargetWidth        float64 `yaml:"target_width"`
	TargetHeight       float64 `yaml:"target_height"`
	TargetInset        float64 `yaml:"target_inset"`
	HexagonSize        float64 `yaml:"hexagon_size"`
	CollisionPrecision float64 `yaml:"collision_precision"`
	AnchorOffset       float64 `yaml:"anchor_offset"`
	StartAngle         float64 `yaml:"start_angle"`
	Perimeter          bool    `yaml:"perimeter"`
	TargetObstacles    bool    `yaml:"target_obstacles"`
}

// Generator sizes random datasets.
type Generator struct {
	Groups    int `yaml:"groups"`
	Targets   int `yaml:"targets"`
	MinPoints int `yaml:"min_points"`
	MaxPoints int `yaml:"max_points"`
}

func DefaultSimulation() Simulation {
	return Simulation{
		InitialAlpha:         DefaultInitialAlpha,
		ReheatAlpha:          DefaultReheatAlpha,
		StopThreshold:        DefaultStopThreshold,
		Friction:             DefaultFriction,
		GravityStrength:      DefaultGravityStrength,
		CollisionAlphaScale:  DefaultCollisionAlphaScale,
		NodePadding:          DefaultNodePadding,
		StaticRepulseFactor:  DefaultStaticRepulseFactor,
		IgnoreCrossTarget:    true,
		CrossTargetThreshold: DefaultCrossTargetThreshold,
		Jitter:               DefaultJitter,
		PointRadius:          DefaultPointRadius,
		SeedRadius:           DefaultSeedRadius,
	}
}

func DefaultChart() Chart {
	return Chart{
		Width:              DefaultWidth,
		Height:             DefaultHeight,
		TargetWidth:        DefaultTargetWidth,
		TargetHeight:       DefaultTargetHeight,
		TargetInset:        DefaultTargetInset,
		HexagonSize:        DefaultHexagonSize,
		CollisionPrecision: DefaultCollisionPrecision,
		StartAngle:         DefaultStartAngle,
		Perimeter:          true,
	}
}

func DefaultConfig() *Config {
	return &Config{
		MaxTicks:   DefaultMaxTicks,
		Simulation: DefaultSimulation(),
		Chart:      DefaultChart(),
		Generator: Generator{
			Groups:    3,
			Targets:   6,
			MinPoints: 0,
			MaxPoints: 50,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.MaxTicks < 0 {
		return fmt.Errorf("%w: max_ticks must not be negative, got %d", ErrInvalidConfig, c.MaxTicks)
	}
	if err := c.Simulation.Validate(); err != nil {
		return err
	}
	if err := c.Chart.Validate(); err != nil {
		return err
	}
	return c.Generator.Validate()
}

func (s Simulation) Validate() error {
	positive := []struct {
		name  string
		value float64
	}{
		{"initial_alpha", s.InitialAlpha},
		{"reheat_alpha", s.ReheatAlpha},
		{"stop_threshold", s.StopThreshold},
		{"gravity_strength", s.GravityStrength},
		{"collision_alpha_scale", s.CollisionAlphaScale},
		{"static_repulse_factor", s.StaticRepulseFactor},
		{"jitter", s.Jitter},
		{"point_radius", s.PointRadius},
	}
	// negated comparisons also reject NaN
	for _, p := range positive {
		if !(p.value > 0) {
			return fmt.Errorf("%w: %s must be positive, got %f", ErrInvalidConfig, p.name, p.value)
		}
	}
	if !(s.Friction > 0 && s.Friction < 1) {
		return fmt.Errorf("%w: friction must be in (0, 1), got %f", ErrInvalidConfig, s.Friction)
	}
	if s.StopThreshold >= s.InitialAlpha {
		return fmt.Errorf("%w: stop_threshold %f must be below initial_alpha %f", ErrInvalidConfig, s.StopThreshold, s.InitialAlpha)
	}
	if s.StopThreshold >= s.ReheatAlpha {
		return fmt.Errorf("%w: stop_threshold %f must be below reheat_alpha %f", ErrInvalidConfig, s.StopThreshold, s.ReheatAlpha)
	}
	if !(s.NodePadding >= 0) {
		return fmt.Errorf("%w: node_padding must not be negative, got %f", ErrInvalidConfig, s.NodePadding)
	}
	if !(s.CrossTargetThreshold >= 0) {
		return fmt.Errorf("%w: cross_target_threshold must not be negative, got %f", ErrInvalidConfig, s.CrossTargetThreshold)
	}
	if !(s.SeedRadius >= 0) {
		return fmt.Errorf("%w: seed_radius must not be negative, got %f", ErrInvalidConfig, s.SeedRadius)
	}
	return nil
}

func (c Chart) Validate() error {
	if !(c.Width > 0 && c.Height > 0) {
		return fmt.Errorf("%w: chart size must be positive, got %fx%f", ErrInvalidConfig, c.Width, c.Height)
	}
	if !(c.TargetWidth >= 0 && c.TargetHeight >= 0 && c.TargetInset >= 0) {
		return fmt.Errorf("%w: target geometry must not be negative", ErrInvalidConfig)
	}
	if !(c.HexagonSize > 5) {
		return fmt.Errorf("%w: hexagon_size must exceed 5, got %f", ErrInvalidConfig, c.HexagonSize)
	}
	if !(c.CollisionPrecision > 0) {
		return fmt.Errorf("%w: collision_precision must be positive, got %f", ErrInvalidConfig, c.CollisionPrecision)
	}
	return nil
}

func (g Generator) Validate() error {
	if g.Groups < 1 || g.Targets < 0 {
		return fmt.Errorf("%w: generator needs at least one group, got %d groups %d targets", ErrInvalidConfig, g.Groups, g.Targets)
	}
	if g.MinPoints < 0 || g.MaxPoints < g.MinPoints {
		return fmt.Errorf("%w: generator point range [%d, %d] invalid", ErrInvalidConfig, g.MinPoints, g.MaxPoints)
	}
	return nil
}
