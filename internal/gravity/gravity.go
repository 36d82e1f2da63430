// Package gravity pulls points toward the anchor of their target.
//
// The pull is exponential: every step covers a fixed fraction of the
// remaining distance, so far-away points move faster than points already
// close to their anchor.
package gravity

import (
	"github.com/san-kum/forceradar/internal/entity"
)

// Apply moves p a fraction alphaScale of the way to its group's anchor on
// its target. Static and untargeted points are left alone.
func Apply(p *entity.Point, alphaScale float64) {
	t := p.Target()
	if t == nil || p.Static() {
		return
	}
	a := t.Anchor(p.GroupID())
	p.Translate((a.X-p.X())*alphaScale, (a.Y-p.Y())*alphaScale)
}

func ApplyAll(points []*entity.Point, alphaScale float64) {
	for _, p := range points {
		Apply(p, alphaScale)
	}
}
