package analysis

import (
	"strings"

	"github.com/san-kum/forceradar/internal/sim"
)

// Scatter draws a frame as text on a width x height grid covering the
// chart. Targets show as '#' (the center as '+'), active points as '•'
// and inactive points as '·'. Points win over targets sharing a cell.
func Scatter(f *sim.Frame, chartW, chartH float64, width, height int) string {
	if f == nil || width <= 0 || height <= 0 || chartW <= 0 || chartH <= 0 {
		return ""
	}

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}
	plot := func(x, y float64, r rune) {
		col := int(x / chartW * float64(width-1))
		row := int(y / chartH * float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			grid[row][col] = r
		}
	}

	for _, t := range f.Targets {
		if t.Center {
			plot(t.X, t.Y, '+')
		} else {
			plot(t.X, t.Y, '#')
		}
	}
	for _, p := range f.Points {
		if !p.Active {
			plot(p.X, p.Y, '·')
		}
	}
	for _, p := range f.Points {
		if p.Active {
			plot(p.X, p.Y, '•')
		}
	}

	var sb strings.Builder
	for _, row := range grid {
		sb.WriteString(strings.TrimRight(string(row), " "))
		sb.WriteRune('\n')
	}
	return sb.String()
}
