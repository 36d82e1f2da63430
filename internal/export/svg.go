// Package export writes simulation frames in formats other tools can read.
package export

import (
	"fmt"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"
	"github.com/san-kum/forceradar/internal/sim"
)

// SVGOptions controls the snapshot drawn by WriteSVG.
type SVGOptions struct {
	// Chart size in simulation units.
	Width, Height float64
	// Pixels per simulation unit. Zero means 1.
	Scale float64
	// Draw a cross on every group anchor.
	Anchors    bool
	Background string
}

// WriteSVG draws a frame: targets as outlined boxes rotated onto the ring,
// the center target as a circle, and every point as a filled circle.
func WriteSVG(w io.Writer, f *sim.Frame, opts SVGOptions) error {
	if f == nil {
		return fmt.Errorf("export svg: nil frame")
	}
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}
	px := func(v float64) int { return int(math.Round(v * scale)) }
	bg := opts.Background
	if bg == "" {
		bg = "#ffffff"
	}

	canvas := svg.New(w)
	canvas.Start(px(opts.Width), px(opts.Height))
	canvas.Title(fmt.Sprintf("tick %d", f.Tick))
	canvas.Rect(0, 0, px(opts.Width), px(opts.Height), "fill:"+bg)

	for _, t := range f.Targets {
		stroke := fmt.Sprintf("fill:none;stroke:%s;stroke-width:1", t.Color)
		if t.Center {
			canvas.Circle(px(t.X), px(t.Y), px(t.Width/2), stroke)
			continue
		}
		canvas.Gtransform(fmt.Sprintf("rotate(%g %d %d)", t.Rotation, px(t.X), px(t.Y)))
		canvas.Rect(px(t.X-t.Width/2), px(t.Y-t.Height/2), px(t.Width), px(t.Height), stroke)
		canvas.Gend()
	}

	if opts.Anchors {
		seen := make(map[[2]int]bool)
		for _, p := range f.Points {
			key := [2]int{px(p.AnchorX), px(p.AnchorY)}
			if seen[key] {
				continue
			}
			seen[key] = true
			canvas.Line(key[0]-3, key[1], key[0]+3, key[1], "stroke:#999999")
			canvas.Line(key[0], key[1]-3, key[0], key[1]+3, "stroke:#999999")
		}
	}

	for _, p := range f.Points {
		r := max(1, px(p.Radius))
		canvas.Circle(px(p.X), px(p.Y), r, "fill:"+p.Color)
	}

	canvas.End()
	return nil
}
