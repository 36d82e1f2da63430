// Package metrics summarises simulation frames into scalar values.
//
// Every type implements sim.Metric: the simulation calls Observe once per
// tick with the frame it hands to observers, and reports Value at the end
// of a run.
package metrics
