package automation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"sort"
	"time"

	"github.com/san-kum/forceradar/internal/sim"
	"gopkg.in/yaml.v3"
)

const (
	ActionReheat  = "reheat"
	ActionMove    = "move"
	ActionState   = "state"
	ActionShuffle = "shuffle"
	ActionCancel  = "cancel"

	// DefaultPollInterval is how long a settled run waits for delayed moves.
	DefaultPollInterval = 5 * time.Millisecond
)

// Scenario is a scripted sequence of actions applied to a running
// simulation.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Tick limit of the whole scenario; zero means unlimited.
	MaxTicks int    `yaml:"max_ticks"`
	Steps    []Step `yaml:"steps"`
}

// Step fires once the simulation has run At ticks, or as soon as it settles
// before getting there.
type Step struct {
	At     int    `yaml:"at"`
	Action string `yaml:"action"`
	// Reheat alpha; zero uses the configured one.
	Alpha float64 `yaml:"alpha"`
	// Point and Target of a move. An empty target is the center.
	Point  string `yaml:"point"`
	Target string `yaml:"target"`
	// Spacing between the items of a state or shuffle batch.
	Delay  time.Duration `yaml:"delay"`
	Points []Change      `yaml:"points"`
}

// Change is one item of a state step. Nil fields are left alone.
type Change struct {
	ID     string  `yaml:"id"`
	Target *string `yaml:"target"`
	Group  *string `yaml:"group"`
	Color  *string `yaml:"color"`
	Active *bool   `yaml:"active"`
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &scenario, nil
}

func (sc *Scenario) Validate() error {
	for i, step := range sc.Steps {
		if step.At < 0 {
			return fmt.Errorf("step %d: negative tick %d", i+1, step.At)
		}
		switch step.Action {
		case ActionReheat, ActionShuffle, ActionCancel:
		case ActionMove:
			if step.Point == "" {
				return fmt.Errorf("step %d: move needs a point", i+1)
			}
		case ActionState:
			if len(step.Points) == 0 {
				return fmt.Errorf("step %d: state needs points", i+1)
			}
		default:
			return fmt.Errorf("step %d: unknown action %q", i+1, step.Action)
		}
	}
	return nil
}

// Runner plays scenarios against a loaded simulation.
type Runner struct {
	Sim  *sim.Simulation
	Rand *rand.Rand
	Log  *slog.Logger
	// Wait blocks while a settled simulation has delayed moves pending.
	// Nil sleeps DefaultPollInterval.
	Wait func(ctx context.Context) error

	batch sim.BatchToken
}

// Run executes the steps in tick order and keeps ticking until the
// simulation settles with nothing pending. The returned result covers the
// whole scenario.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*sim.Result, error) {
	if r.Rand == nil {
		r.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if r.Log == nil {
		r.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	steps := make([]Step, len(sc.Steps))
	copy(steps, sc.Steps)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].At < steps[j].At })

	total := &sim.Result{Series: make(map[string][]float64)}
	budget := func() int {
		if sc.MaxTicks <= 0 {
			return 0
		}
		return sc.MaxTicks - total.Ticks
	}

	for _, step := range steps {
		for r.Sim.Ticks() < step.At {
			limit := step.At - r.Sim.Ticks()
			if b := budget(); b > 0 && b < limit {
				limit = b
			}
			part, err := r.Sim.Run(ctx, limit)
			merge(total, part)
			if err != nil {
				return total, err
			}
			if sc.MaxTicks > 0 && total.Ticks >= sc.MaxTicks {
				return total, nil
			}
			if part.Ticks < limit {
				break
			}
		}
		r.apply(step)
	}

	for {
		if sc.MaxTicks > 0 && total.Ticks >= sc.MaxTicks {
			return total, nil
		}
		part, err := r.Sim.Run(ctx, budget())
		merge(total, part)
		if err != nil {
			return total, err
		}
		if r.Sim.PendingTasks() == 0 {
			return total, nil
		}
		if err := r.wait(ctx); err != nil {
			return total, err
		}
	}
}

func (r *Runner) wait(ctx context.Context) error {
	if r.Wait != nil {
		return r.Wait(ctx)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(DefaultPollInterval):
		return nil
	}
}

func (r *Runner) apply(step Step) {
	r.Log.Info("scenario step", "at", step.At, "tick", r.Sim.Ticks(), "action", step.Action)

	switch step.Action {
	case ActionReheat:
		r.Sim.TriggerForce(step.Alpha)
	case ActionMove:
		r.Sim.SetPointTarget(step.Point, step.Target, true)
	case ActionState:
		batch := make([]sim.PointState, len(step.Points))
		for i, c := range step.Points {
			batch[i] = sim.PointState{ID: c.ID, Target: c.Target, Group: c.Group, Color: c.Color, Active: c.Active}
		}
		r.batch = r.Sim.SetPointsState(batch, step.Delay, step.Alpha)
	case ActionShuffle:
		r.batch = r.Sim.SetPointsState(Shuffle(r.Sim, r.Rand), step.Delay, step.Alpha)
	case ActionCancel:
		n := r.Sim.CancelBatch(r.batch)
		r.Log.Info("batch cancelled", "dropped", n)
	}
}

// Shuffle builds a batch sending every point to a random target, the
// center included.
func Shuffle(s *sim.Simulation, rng *rand.Rand) []sim.PointState {
	targets := s.Targets()
	points := s.Points()
	batch := make([]sim.PointState, 0, len(points))
	if len(targets) == 0 {
		return batch
	}
	for _, p := range points {
		t := targets[rng.Intn(len(targets))]
		id := t.ID
		if t.IsCenter() {
			id = ""
		}
		batch = append(batch, sim.PointState{ID: p.ID, Target: &id})
	}
	return batch
}

func merge(total, part *sim.Result) {
	if part == nil {
		return
	}
	total.Ticks += part.Ticks
	total.Duration += part.Duration
	total.Settled = part.Settled
	total.Alphas = append(total.Alphas, part.Alphas...)
	for name, values := range part.Series {
		total.Series[name] = append(total.Series[name], values...)
	}
	// A run that did not tick has reset metrics; keep the earlier values.
	if part.Ticks > 0 || total.Metrics == nil {
		total.Metrics = part.Metrics
	}
	total.Final = part.Final
}
