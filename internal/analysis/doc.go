// Package analysis summarises how a run converged.
//
//   - [Converge]: fitted alpha decay, predicted length and per-metric plateaus
//   - [Ringing]: dominant period of a metric series from its power spectrum
//   - [Scatter]: plain-text plot of a frame
//
// A run that settles cleanly has an alpha decay rate equal to the configured
// friction and metrics that flatten well before the last tick:
//
//	c := analysis.Converge(result.Alphas, cfg.StopThreshold, result.Series, 0.01)
//	if c.Plateau["overlap"] < c.Ticks/2 {
//	    // layout stopped changing early
//	}
package analysis
