package metrics

import "github.com/san-kum/forceradar/internal/sim"

// Standard returns the metrics recorded by every CLI run.
func Standard(padding float64) []sim.Metric {
	return []sim.Metric{
		NewAlphaHistory(),
		NewOverlap(padding),
		NewAnchorError(),
		NewDisplacement(),
	}
}
