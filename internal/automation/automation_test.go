package automation

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/forceradar/internal/config"
	"github.com/san-kum/forceradar/internal/dataset"
	"github.com/san-kum/forceradar/internal/sim"
)

func testDataset() *dataset.Dataset {
	return &dataset.Dataset{
		Groups:  []dataset.GroupRecord{{ID: "g1"}, {ID: "g2"}},
		Targets: []dataset.TargetRecord{{ID: "a"}, {ID: "b"}},
		Points: []dataset.PointRecord{
			{ID: "p1", Target: "a", Group: "g1"},
			{ID: "p2", Target: "b", Group: "g2"},
			{ID: "p3", Group: "g1"},
		},
	}
}

func newRunner(t *testing.T) (*Runner, *sim.FakeClock) {
	t.Helper()
	clock := sim.NewFakeClock(time.Unix(0, 0))
	s, err := sim.New(config.DefaultSimulation(), sim.WithClock(clock), sim.WithRand(rand.New(rand.NewSource(1))))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.LoadDataset(testDataset()); err != nil {
		t.Fatal(err)
	}
	r := &Runner{
		Sim:  s,
		Rand: rand.New(rand.NewSource(2)),
		Wait: func(context.Context) error {
			clock.Advance(time.Second)
			return nil
		},
	}
	return r, clock
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	doc := `name: demo
steps:
  - at: 10
    action: move
    point: p1
    target: b
  - at: 20
    action: state
    delay: 20ms
    points:
      - id: p2
        active: false
`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}
	sc, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if sc.Name != "demo" || len(sc.Steps) != 2 {
		t.Fatalf("unexpected scenario %+v", sc)
	}
	st := sc.Steps[1]
	if st.Delay != 20*time.Millisecond || st.Points[0].Active == nil || *st.Points[0].Active {
		t.Errorf("unexpected state step %+v", st)
	}
	if st.Points[0].Target != nil {
		t.Error("missing fields should stay nil")
	}
}

func TestScenarioValidate(t *testing.T) {
	tests := []struct {
		name string
		step Step
		want string
	}{
		{"unknown action", Step{Action: "explode"}, "unknown action"},
		{"negative tick", Step{At: -1, Action: ActionReheat}, "negative tick"},
		{"move without point", Step{Action: ActionMove}, "needs a point"},
		{"empty state", Step{Action: ActionState}, "needs points"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := Scenario{Steps: []Step{tt.step}}
			err := sc.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestRunnerAppliesSteps(t *testing.T) {
	r, _ := newRunner(t)
	sc := &Scenario{Steps: []Step{
		{At: 20, Action: ActionReheat, Alpha: 0.2},
		{At: 10, Action: ActionMove, Point: "p1", Target: "b"},
		{At: 30, Action: ActionState, Delay: time.Second, Points: []Change{
			{ID: "p2", Active: new(bool)},
			{ID: "p3", Target: ptr("a")},
		}},
	}}

	result, err := r.Run(context.Background(), sc)
	if err != nil {
		t.Fatal(err)
	}
	if result.Ticks != r.Sim.Ticks() || len(result.Alphas) != result.Ticks {
		t.Errorf("result covers %d ticks (%d alphas), simulation ran %d", result.Ticks, len(result.Alphas), r.Sim.Ticks())
	}
	if !result.Settled || r.Sim.PendingTasks() != 0 {
		t.Errorf("expected a settled run with nothing pending, got settled=%t pending=%d", result.Settled, r.Sim.PendingTasks())
	}

	p1, _ := r.Sim.Point("p1")
	p2, _ := r.Sim.Point("p2")
	p3, _ := r.Sim.Point("p3")
	if p1.Target().ID != "b" || p3.Target().ID != "a" {
		t.Errorf("moves not applied: p1 on %s, p3 on %s", p1.Target().ID, p3.Target().ID)
	}
	if p2.Active() {
		t.Error("p2 should be inactive")
	}
	if result.Alphas[20] != 0.2 {
		t.Errorf("reheat at tick 20 not visible, alpha %v", result.Alphas[20])
	}
}

func TestRunnerFiresLateStepsAfterSettling(t *testing.T) {
	r, _ := newRunner(t)
	sc := &Scenario{Steps: []Step{{At: 1_000_000, Action: ActionReheat}}}

	result, err := r.Run(context.Background(), sc)
	if err != nil {
		t.Fatal(err)
	}
	// One full settle from the initial alpha, another from the reheat.
	if result.Ticks < 2*250 || result.Ticks >= 1_000_000 {
		t.Errorf("unexpected tick count %d", result.Ticks)
	}
}

func TestRunnerMaxTicks(t *testing.T) {
	r, _ := newRunner(t)
	sc := &Scenario{MaxTicks: 50, Steps: []Step{{At: 100, Action: ActionReheat}}}
	result, err := r.Run(context.Background(), sc)
	if err != nil {
		t.Fatal(err)
	}
	if result.Ticks != 50 || result.Settled {
		t.Errorf("expected an unsettled 50 tick run, got %d settled=%t", result.Ticks, result.Settled)
	}
}

func TestRunnerCancelDropsPendingMoves(t *testing.T) {
	r, _ := newRunner(t)
	sc := &Scenario{Steps: []Step{
		{At: 5, Action: ActionShuffle, Delay: time.Hour},
		{At: 6, Action: ActionCancel},
	}}
	if _, err := r.Run(context.Background(), sc); err != nil {
		t.Fatal(err)
	}
	if r.Sim.PendingTasks() != 0 {
		t.Errorf("cancel left %d tasks", r.Sim.PendingTasks())
	}
}

func TestShuffle(t *testing.T) {
	r, _ := newRunner(t)
	batch := Shuffle(r.Sim, rand.New(rand.NewSource(3)))
	if len(batch) != 3 {
		t.Fatalf("expected 3 items, got %d", len(batch))
	}
	valid := map[string]bool{"": true, "a": true, "b": true}
	for _, ps := range batch {
		if ps.Target == nil || !valid[*ps.Target] {
			t.Errorf("point %s sent to unexpected target %v", ps.ID, ps.Target)
		}
	}
}

func TestRunSweep(t *testing.T) {
	cfg := config.DefaultConfig()
	results, err := RunSweep(context.Background(), cfg, testDataset(), ParameterSweep{
		Param: "friction",
		Min:   0.9,
		Max:   0.98,
		Steps: 2,
		Seeds: Seeds(1, 2),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	// Alpha decay alone decides the length: 0.1*f^k < 0.005.
	if results[0].MeanTicks != 29 || results[1].MeanTicks != 149 {
		t.Errorf("unexpected ticks %v and %v", results[0].MeanTicks, results[1].MeanTicks)
	}
	if results[0].Settled != 2 || results[0].Trials != 2 {
		t.Errorf("unexpected summary %+v", results[0].Summary)
	}
	if cfg.Simulation.Friction != config.DefaultFriction {
		t.Error("sweep modified the base config")
	}
}

func TestRunSweepRejectsBadInput(t *testing.T) {
	cfg := config.DefaultConfig()
	ds := testDataset()
	seeds := Seeds(1, 1)
	if _, err := RunSweep(context.Background(), cfg, ds, ParameterSweep{Param: "nope", Steps: 1, Seeds: seeds}); err == nil {
		t.Error("expected an error for an unknown parameter")
	}
	if _, err := RunSweep(context.Background(), cfg, ds, ParameterSweep{Param: "friction", Min: 1.5, Steps: 1, Seeds: seeds}); err == nil {
		t.Error("expected an error for an invalid value")
	}
	if _, err := RunSweep(context.Background(), cfg, ds, ParameterSweep{Param: "friction", Steps: 0, Seeds: seeds}); err == nil {
		t.Error("expected an error for zero steps")
	}
}

func TestSummaryMetric(t *testing.T) {
	s := Summarize([]Trial{
		{Ticks: 10, Settled: true, Overlap: 2, AnchorError: 1},
		{Ticks: 30, Overlap: 0, AnchorError: 3},
	})
	checks := map[string]float64{"ticks": 20, "overlap": 1, "anchor_error": 2, "unsettled": 0.5}
	for name, want := range checks {
		got, err := s.Metric(name)
		if err != nil || got != want {
			t.Errorf("%s: expected %v, got %v (%v)", name, want, got, err)
		}
	}
	if _, err := s.Metric("nope"); err == nil {
		t.Error("expected an error for an unknown metric")
	}
}

func ptr[T any](v T) *T { return &v }
