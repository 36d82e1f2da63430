package entity

import (
	colorful "github.com/lucasb-eyer/go-colorful"
)

const (
	DefaultColor  = "#000000"
	InactiveColor = "#cccccc"
)

var grey, _ = colorful.Hex(InactiveColor)

// Palette returns n evenly spaced hues at fixed chroma and lightness.
func Palette(n int) []string {
	out := make([]string, n)
	for i := range n {
		h := float64(i) * 360 / float64(n)
		out[i] = colorful.Hcl(h, 0.6, 0.65).Clamped().Hex()
	}
	return out
}

// AssignColors fills in the color of every group that has none.
func AssignColors(groups []*Group) {
	pal := Palette(len(groups))
	for i, g := range groups {
		if g.Color == "" {
			g.Color = pal[i]
		}
	}
}

// Inactive greys out a hex color. Unparseable input yields InactiveColor.
func Inactive(hex string) string {
	c, err := colorful.Hex(hex)
	if err != nil {
		return InactiveColor
	}
	return c.BlendLab(grey, 0.75).Clamped().Hex()
}
