package storage

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/forceradar/internal/config"
	"github.com/san-kum/forceradar/internal/sim"
)

func testResult() *sim.Result {
	return &sim.Result{
		Ticks:   3,
		Settled: true,
		Alphas:  []float64{0.1, 0.099, 0.09801},
		Series: map[string][]float64{
			"overlap":      {4, 2, 0},
			"anchor_error": {10, 5, 2.5},
			"alpha":        {0.1, 0.099, 0.098},
		},
		Metrics: map[string]float64{"overlap": 0, "anchor_error": 2.5},
		Final: &sim.Frame{
			Tick:  3,
			Alpha: 0.09801,
			Points: []sim.PointView{
				{ID: "p1", X: 1.5, Y: 2.25, Radius: 4, Color: "#ff0000", Active: true, Target: "a", Group: "g", AnchorX: 10, AnchorY: 20},
				{ID: "p,2", X: -3, Y: 0.1234567, Radius: 4, Color: "#cccccc", Target: "FRC_CENTER_TARGET"},
			},
			Targets: []sim.TargetView{
				{ID: "FRC_CENTER_TARGET", Center: true, X: 400, Y: 400},
				{ID: "a", Title: "Alpha", X: 400, Y: 15, Width: 120, Height: 30, Angle: 90},
			},
		},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	info := RunInfo{
		Dataset:    "data/demo set.yaml",
		Preset:     "dense",
		Seed:       42,
		Simulation: config.DefaultSimulation(),
		Chart:      config.DefaultChart(),
	}
	runID, err := st.Save(info, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if filepath.Base(runID) != runID || runID[:9] != "demo_set_" {
		t.Errorf("unexpected run id %q", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Seed != 42 || meta.Preset != "dense" || meta.Ticks != 3 || !meta.Settled {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.Points != 2 || len(meta.Targets) != 2 {
		t.Errorf("expected 2 points and 2 targets, got %d and %d", meta.Points, len(meta.Targets))
	}
	if meta.Metrics["anchor_error"] != 2.5 {
		t.Errorf("expected anchor_error 2.5, got %f", meta.Metrics["anchor_error"])
	}
	if meta.Simulation.Friction != config.DefaultFriction {
		t.Error("simulation config not stored")
	}
}

func TestStoreLoadFrame(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save(RunInfo{Dataset: "demo"}, testResult())
	if err != nil {
		t.Fatal(err)
	}

	frame, err := st.LoadFrame(runID)
	if err != nil {
		t.Fatalf("load frame failed: %v", err)
	}
	if len(frame.Points) != 2 || len(frame.Targets) != 2 {
		t.Fatalf("unexpected frame sizes %d %d", len(frame.Points), len(frame.Targets))
	}

	want := testResult().Final.Points
	for i, p := range frame.Points {
		w := want[i]
		if p.ID != w.ID || p.Color != w.Color || p.Active != w.Active || p.Target != w.Target || p.Group != w.Group {
			t.Errorf("point %d: expected %+v, got %+v", i, w, p)
		}
		if math.Abs(p.X-w.X) > 1e-6 || math.Abs(p.Y-w.Y) > 1e-6 || p.AnchorY != w.AnchorY {
			t.Errorf("point %d: position mismatch %+v", i, p)
		}
	}
	if frame.Tick != 3 || frame.Alpha != 0.09801 {
		t.Errorf("unexpected tick/alpha %d %v", frame.Tick, frame.Alpha)
	}
}

func TestStoreLoadHistory(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save(RunInfo{}, testResult())
	if err != nil {
		t.Fatal(err)
	}

	h, err := st.LoadHistory(runID)
	if err != nil {
		t.Fatalf("load history failed: %v", err)
	}
	if len(h.Ticks) != 3 || h.Ticks[0] != 1 {
		t.Fatalf("unexpected ticks %v", h.Ticks)
	}
	wantCols := []string{"alpha", "anchor_error", "overlap"}
	if len(h.Columns) != len(wantCols) {
		t.Fatalf("expected columns %v, got %v", wantCols, h.Columns)
	}
	for i, c := range wantCols {
		if h.Columns[i] != c {
			t.Errorf("column %d: expected %s, got %s", i, c, h.Columns[i])
		}
	}
	if h.Values["overlap"][1] != 2 || h.Values["alpha"][0] != 0.1 || len(h.Values["alpha"]) != 3 {
		t.Errorf("unexpected values %v", h.Values)
	}
}

func TestStoreList(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	runs, err := st.List()
	if err != nil || len(runs) != 0 {
		t.Fatalf("expected empty list, got %v %v", runs, err)
	}

	first, _ := st.Save(RunInfo{Dataset: "one"}, testResult())
	second, _ := st.Save(RunInfo{Dataset: "two"}, testResult())

	// Junk directories are skipped.
	if err := os.MkdirAll(filepath.Join(dir, "junk"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != first || runs[1].ID != second {
		t.Errorf("runs not in save order: %s %s", runs[0].ID, runs[1].ID)
	}
}

func TestStoreMissingRun(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Load("nope"); err == nil {
		t.Error("expected error for missing run")
	}
	if _, err := st.LoadFrame("nope"); err == nil {
		t.Error("expected error for missing frame")
	}
	if _, err := st.LoadHistory("nope"); err == nil {
		t.Error("expected error for missing history")
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct{ in, want string }{
		{"demo.yaml", "demo"},
		{"dir/my data.json", "my_data"},
		{"ok-name_1", "ok-name_1"},
	}
	for _, tt := range tests {
		if got := sanitize(tt.in); got != tt.want {
			t.Errorf("sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
