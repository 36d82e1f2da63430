package config

import "sort"

// Presets tweak the defaults for common chart shapes.
var Presets = map[string]func(*Config){
	"default": func(*Config) {},
	"dense": func(c *Config) {
		c.Simulation.PointRadius = 2.5
		c.Simulation.NodePadding = 0.5
		c.Generator.Groups = 4
		c.Generator.MaxPoints = 150
	},
	"loose": func(c *Config) {
		c.Simulation.PointRadius = 5
		c.Simulation.NodePadding = 3
		c.Chart.AnchorOffset = 15
	},
	"quick": func(c *Config) {
		c.Simulation.Friction = 0.95
		c.Simulation.InitialAlpha = 0.2
		c.Simulation.ReheatAlpha = 0.15
	},
	"strict": func(c *Config) {
		c.Simulation.IgnoreCrossTarget = false
		c.Simulation.StaticRepulseFactor = 1.0
		c.Chart.TargetObstacles = true
	},
	"small": func(c *Config) {
		c.Chart.Width, c.Chart.Height = 400, 400
		c.Chart.TargetWidth, c.Chart.TargetHeight = 60, 20
		c.Chart.TargetInset = 25
		c.Chart.HexagonSize = 30
		c.Generator.Targets = 4
		c.Generator.MaxPoints = 15
	},
}

// GetPreset returns the default config with the named preset applied, or
// nil when no such preset exists.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
