package viz

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/forceradar/internal/automation"
	"github.com/san-kum/forceradar/internal/entity"
	"github.com/san-kum/forceradar/internal/layout"
	"github.com/san-kum/forceradar/internal/metrics"
	"github.com/san-kum/forceradar/internal/sim"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	width           = 60
	height          = 30
	historyCapacity = 600
	shuffleDelay    = 20 * time.Millisecond
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model steps a simulation once per frame and draws it on a braille canvas
// next to a stats panel.
type Model struct {
	sim            *sim.Simulation
	title          string
	rng            *rand.Rand
	canvas         *Canvas
	theme          Theme
	styles         styles
	running        bool
	showAnchors    bool
	showObstacles  bool
	alphaHistory   []float64
	overlapHistory []float64
	batch          sim.BatchToken
	status         string
}

// NewModel wraps a loaded simulation. rng drives the shuffle and toggle
// keys; nil seeds one from the clock.
func NewModel(s *sim.Simulation, title string, rng *rand.Rand) Model {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	theme := ThemeNight
	m := Model{
		sim:            s,
		title:          title,
		rng:            rng,
		canvas:         NewCanvas(width, height),
		theme:          theme,
		styles:         newStyles(theme),
		running:        true,
		alphaHistory:   make([]float64, 0, historyCapacity),
		overlapHistory: make([]float64, 0, historyCapacity),
	}
	m.draw()
	return m
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles keys and advances the simulation on every TickMsg.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.sim.TriggerForce()
			m.status = "reheated"
		case "s":
			m.shuffle()
		case "a":
			m.toggleGroup()
		case "c":
			if n := m.sim.CancelBatch(m.batch); n > 0 {
				m.status = fmt.Sprintf("cancelled %d moves", n)
			}
		case "v":
			m.showAnchors = !m.showAnchors
		case "o":
			m.showObstacles = !m.showObstacles
		case "t":
			m.theme = NextTheme(m.theme)
			m.styles = newStyles(m.theme)
			m.status = "theme " + m.theme.Name
		}
		m.draw()
	case TickMsg:
		if m.running {
			m.step()
		}
		m.draw()
		return m, tick()
	}
	return m, nil
}

func (m *Model) step() {
	if !m.sim.Tick() {
		return
	}
	f := m.sim.Frame()
	m.alphaHistory = appendCapped(m.alphaHistory, f.Alpha)
	padding := m.sim.Config().NodePadding
	m.overlapHistory = appendCapped(m.overlapHistory, float64(metrics.CountOverlaps(f.Points, padding)))
}

func appendCapped(values []float64, v float64) []float64 {
	if len(values) >= historyCapacity {
		values = append(values[:0], values[1:]...)
	}
	return append(values, v)
}

// shuffle sends every point to a random target, one point per shuffleDelay.
func (m *Model) shuffle() {
	batch := automation.Shuffle(m.sim, m.rng)
	if len(batch) == 0 {
		return
	}
	m.batch = m.sim.SetPointsState(batch, shuffleDelay, 0)
	m.status = fmt.Sprintf("shuffling %d points", len(batch))
}

// toggleGroup flips the active flag of every point in one random group.
func (m *Model) toggleGroup() {
	groups := m.sim.Groups()
	if len(groups) == 0 {
		return
	}
	g := groups[m.rng.Intn(len(groups))]

	var batch []sim.PointState
	for _, p := range m.sim.Points() {
		if p.GroupID() != g.ID {
			continue
		}
		active := !p.Active()
		batch = append(batch, sim.PointState{ID: p.ID, Active: &active})
	}
	if len(batch) == 0 {
		m.status = "group " + g.ID + " is empty"
		return
	}
	m.batch = m.sim.SetPointsState(batch, 0, 0)
	m.status = fmt.Sprintf("toggled group %s", g.ID)
}

// project maps chart coordinates to canvas dots, keeping the aspect ratio.
func (m *Model) project(x, y float64) (int, int) {
	c := m.sim.Chart()
	dw, dh := m.canvas.Dots()
	scale := math.Min(float64(dw)/c.Width, float64(dh)/c.Height)
	ox := (float64(dw) - c.Width*scale) / 2
	oy := (float64(dh) - c.Height*scale) / 2
	return int(math.Round(ox + x*scale)), int(math.Round(oy + y*scale))
}

func (m *Model) scale() float64 {
	c := m.sim.Chart()
	dw, dh := m.canvas.Dots()
	return math.Min(float64(dw)/c.Width, float64(dh)/c.Height)
}

func (m *Model) draw() {
	m.canvas.Clear()

	if m.showObstacles {
		for _, o := range m.sim.Obstacles() {
			x, y := m.project(o.X(), o.Y())
			m.canvas.SetColor(x, y, m.theme.Obstacle)
		}
	}

	for _, t := range m.sim.Targets() {
		if t.IsCenter() {
			m.outline(layout.Hexagon(t), m.theme.Target)
		} else {
			m.outline(layout.Box(t), m.theme.Target)
		}
	}

	if m.showAnchors {
		groups := m.sim.GroupIDs()
		for _, t := range m.sim.Targets() {
			for _, g := range groups {
				a := t.Anchor(g)
				x, y := m.project(a.X, a.Y)
				m.canvas.DrawLine(x-1, y, x+1, y, m.theme.Target)
				m.canvas.DrawLine(x, y-1, x, y+1, m.theme.Target)
			}
		}
	}

	scale := m.scale()
	for _, p := range m.sim.Points() {
		x, y := m.project(p.X(), p.Y())
		m.canvas.FillCircle(x, y, p.Radius*scale, p.Color())
	}
}

func (m *Model) outline(vertices []r2.Vec, color string) {
	xs := make([]int, len(vertices))
	ys := make([]int, len(vertices))
	for i, v := range vertices {
		xs[i], ys[i] = m.project(v.X, v.Y)
	}
	m.canvas.DrawPolygon(xs, ys, color)
}

// View renders the canvas and the stats panel side by side.
func (m Model) View() string {
	st := m.styles
	canvasView := st.canvas.Render(m.canvas.Render())

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.title)) + "\n")

	state := m.sim.State()
	switch {
	case !m.running:
		s.WriteString(st.paused.Render("PAUSED"))
	case state == sim.Settled || state == sim.Idle:
		s.WriteString(st.settled.Render(strings.ToUpper(state.String())))
	default:
		s.WriteString(st.running.Render(strings.ToUpper(state.String())))
	}
	s.WriteString("\n\n")

	if len(m.alphaHistory) > 1 {
		chart := asciigraph.Plot(m.alphaHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Alpha"))
		s.WriteString(st.graph.Render(chart) + "\n\n")
	}

	cfg := m.sim.Config()
	stats := m.sim.Stats()
	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Tick", fmt.Sprintf("%d", m.sim.Ticks()))
	row("Alpha", fmt.Sprintf("%.4f", m.sim.Alpha()))
	s.WriteString(st.label.Render("") + ProgressBar(m.sim.Alpha()/cfg.InitialAlpha, 20, st.bar, st.barLow) + "\n")
	row("Points", fmt.Sprintf("%d", len(m.sim.Points())))
	row("Pairs", fmt.Sprintf("%d", stats.Pairs))
	row("Displaced", fmt.Sprintf("%d", stats.Overlaps))
	row("Skipped", fmt.Sprintf("%d", stats.Skipped))
	overlaps := 0.0
	if n := len(m.overlapHistory); n > 0 {
		overlaps = m.overlapHistory[n-1]
	}
	row("Overlaps", fmt.Sprintf("%.0f %s", overlaps, Sparkline(m.overlapHistory, 16)))
	row("Pending", fmt.Sprintf("%d", m.sim.PendingTasks()))

	s.WriteString("\nTARGETS\n")
	s.WriteString(m.targetCounts())

	if m.status != "" {
		s.WriteString("\n" + st.value.Render(m.status) + "\n")
	}
	s.WriteString(st.help.Render("─────────────────────\nSP:Pause R:Reheat Q:Quit\nS:Shuffle A:Toggle C:Cancel\nV:Anchors O:Obstacles T:Theme"))

	statsView := st.stats.Render(s.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
}

// targetCounts lists active points per target, center first.
func (m Model) targetCounts() string {
	var b strings.Builder
	for _, t := range m.sim.Targets() {
		name := t.Title
		if name == "" {
			name = t.ID
		}
		if t.IsCenter() {
			name = "(center)"
		}
		counts := t.GroupCounts()
		groups := make([]string, 0, len(counts))
		for g := range counts {
			groups = append(groups, g)
		}
		sort.Strings(groups)

		parts := make([]string, 0, len(groups))
		for _, g := range groups {
			parts = append(parts, lipgloss.NewStyle().Foreground(lipgloss.Color(m.groupColor(g))).Render(fmt.Sprintf("%d", counts[g])))
		}
		b.WriteString(m.styles.label.Render(truncate(name, 11)) + strings.Join(parts, " ") + "\n")
	}
	return b.String()
}

func (m Model) groupColor(id string) string {
	for _, g := range m.sim.Groups() {
		if g.ID == id {
			return g.Color
		}
	}
	return entity.InactiveColor
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// Run starts the live view and blocks until the user quits.
func Run(s *sim.Simulation, title string, rng *rand.Rand) error {
	_, err := tea.NewProgram(NewModel(s, title, rng), tea.WithAltScreen()).Run()
	return err
}
