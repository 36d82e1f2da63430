package config

import (
	"fmt"
	"sort"
)

// params maps the yaml name of every numeric simulation tunable to its
// field.
var params = map[string]func(*Simulation) *float64{
	"initial_alpha":          func(s *Simulation) *float64 { return &s.InitialAlpha },
	"reheat_alpha":           func(s *Simulation) *float64 { return &s.ReheatAlpha },
	"stop_threshold":         func(s *Simulation) *float64 { return &s.StopThreshold },
	"friction":               func(s *Simulation) *float64 { return &s.Friction },
	"gravity_strength":       func(s *Simulation) *float64 { return &s.GravityStrength },
	"collision_alpha_scale":  func(s *Simulation) *float64 { return &s.CollisionAlphaScale },
	"node_padding":           func(s *Simulation) *float64 { return &s.NodePadding },
	"static_repulse_factor":  func(s *Simulation) *float64 { return &s.StaticRepulseFactor },
	"cross_target_threshold": func(s *Simulation) *float64 { return &s.CrossTargetThreshold },
	"jitter":                 func(s *Simulation) *float64 { return &s.Jitter },
	"point_radius":           func(s *Simulation) *float64 { return &s.PointRadius },
	"seed_radius":            func(s *Simulation) *float64 { return &s.SeedRadius },
}

// Set changes a tunable by its yaml name. The result is not validated.
func (s *Simulation) Set(name string, v float64) error {
	field, ok := params[name]
	if !ok {
		return fmt.Errorf("unknown parameter %q (available: %v)", name, ParamNames())
	}
	*field(s) = v
	return nil
}

// Get reads a tunable by its yaml name.
func (s Simulation) Get(name string) (float64, bool) {
	field, ok := params[name]
	if !ok {
		return 0, false
	}
	return *field(&s), true
}

func ParamNames() []string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
