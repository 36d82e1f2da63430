package viz

import "github.com/charmbracelet/lipgloss"

// Theme colors the stats panel and the chart furniture. Point colors always
// come from their group.
type Theme struct {
	Name     string
	Accent   lipgloss.Color
	Text     lipgloss.Color
	Muted    lipgloss.Color
	Border   lipgloss.Color
	Target   string
	Obstacle string
	Success  lipgloss.Color
	Warning  lipgloss.Color
}

var (
	ThemeNight = Theme{
		Name:     "night",
		Accent:   lipgloss.Color("#00ccff"),
		Text:     lipgloss.Color("#dddddd"),
		Muted:    lipgloss.Color("#666688"),
		Border:   lipgloss.Color("#444466"),
		Target:   "#8888aa",
		Obstacle: "#333344",
		Success:  lipgloss.Color("#00ff88"),
		Warning:  lipgloss.Color("#ffaa00"),
	}

	ThemePaper = Theme{
		Name:     "paper",
		Accent:   lipgloss.Color("#0055aa"),
		Text:     lipgloss.Color("#222222"),
		Muted:    lipgloss.Color("#888888"),
		Border:   lipgloss.Color("#bbbbbb"),
		Target:   "#555555",
		Obstacle: "#cccccc",
		Success:  lipgloss.Color("#227733"),
		Warning:  lipgloss.Color("#aa5500"),
	}

	ThemeMono = Theme{
		Name:     "mono",
		Accent:   lipgloss.Color("#ffffff"),
		Text:     lipgloss.Color("#cccccc"),
		Muted:    lipgloss.Color("#777777"),
		Border:   lipgloss.Color("#555555"),
		Target:   "#aaaaaa",
		Obstacle: "#444444",
		Success:  lipgloss.Color("#ffffff"),
		Warning:  lipgloss.Color("#aaaaaa"),
	}
)

var themes = []Theme{ThemeNight, ThemePaper, ThemeMono}

// GetTheme returns the named theme, or the first one.
func GetTheme(name string) Theme {
	for _, t := range themes {
		if t.Name == name {
			return t
		}
	}
	return themes[0]
}

// NextTheme cycles through the built-in themes.
func NextTheme(current Theme) Theme {
	for i, t := range themes {
		if t.Name == current.Name {
			return themes[(i+1)%len(themes)]
		}
	}
	return themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}
