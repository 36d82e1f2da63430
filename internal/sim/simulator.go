package sim

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/san-kum/forceradar/internal/collision"
	"github.com/san-kum/forceradar/internal/config"
	"github.com/san-kum/forceradar/internal/dataset"
	"github.com/san-kum/forceradar/internal/entity"
	"github.com/san-kum/forceradar/internal/gravity"
	"github.com/san-kum/forceradar/internal/layout"
)

// Simulation owns the entities of one dataset and advances them one tick
// at a time. It is not safe for concurrent use.
type Simulation struct {
	cfg   config.Simulation
	chart config.Chart

	log      *slog.Logger
	rng      *rand.Rand
	sched    *Scheduler
	resolver *collision.Resolver
	onWarn   func(*ReferenceWarning)

	points    []*entity.Point
	obstacles []*entity.Point
	all       []*entity.Point
	targets   []*entity.Target
	groups    []*entity.Group

	pointByID  map[string]*entity.Point
	targetByID map[string]*entity.Target
	groupByID  map[string]*entity.Group
	groupIndex map[string]int

	alpha     float64
	lastAlpha float64
	state     State
	tick      int
	stats     collision.Stats

	metrics   []Metric
	observers []Observer
}

type Option func(*Simulation)

func WithLogger(l *slog.Logger) Option {
	return func(s *Simulation) { s.log = l }
}

func WithClock(c Clock) Option {
	return func(s *Simulation) { s.sched = NewScheduler(c) }
}

func WithRand(r *rand.Rand) Option {
	return func(s *Simulation) { s.rng = r }
}

func WithChart(c config.Chart) Option {
	return func(s *Simulation) { s.chart = c }
}

// WithWarningHandler registers fn to receive every reference warning in
// addition to the log.
func WithWarningHandler(fn func(*ReferenceWarning)) Option {
	return func(s *Simulation) { s.onWarn = fn }
}

// New validates cfg and returns an idle simulation.
func New(cfg config.Simulation, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Simulation{
		cfg:   cfg,
		chart: config.DefaultChart(),
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		state: Idle,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.chart.Validate(); err != nil {
		return nil, err
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if s.sched == nil {
		s.sched = NewScheduler(SystemClock())
	}

	s.resolver = &collision.Resolver{
		Padding:              cfg.NodePadding,
		RepulseFactor:        cfg.StaticRepulseFactor,
		IgnoreCrossTarget:    cfg.IgnoreCrossTarget,
		CrossTargetThreshold: cfg.CrossTargetThreshold,
		Jitter:               cfg.Jitter,
		Rand:                 s.rng,
	}
	s.reset()
	return s, nil
}

func (s *Simulation) reset() {
	center := entity.NewCenterTarget()
	s.points, s.obstacles, s.all = nil, nil, nil
	layout.PlaceCenter(s.chart, center, nil, s.centerClearance())
	s.targets = []*entity.Target{center}
	s.groups = nil
	s.pointByID = map[string]*entity.Point{}
	s.targetByID = map[string]*entity.Target{center.ID: center}
	s.groupByID = map[string]*entity.Group{}
	s.groupIndex = map[string]int{}
}

func (s *Simulation) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulation) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// LoadDocument validates a decoded dataset document and loads it. A
// malformed document leaves the current dataset untouched.
func (s *Simulation) LoadDocument(doc any) error {
	ds, err := dataset.Parse(doc)
	if err != nil {
		return err
	}
	return s.LoadDataset(ds)
}

// LoadDataset replaces every entity with the contents of ds, places the
// targets, generates obstacles and seeds the points. Pending delayed
// updates of the previous dataset are cancelled.
func (s *Simulation) LoadDataset(ds *dataset.Dataset) error {
	if ds == nil {
		return &ValidationError{Field: "dataset", Reason: "must not be nil"}
	}
	if err := ds.Validate(); err != nil {
		return err
	}

	s.reset()
	center := s.targets[0]

	for i, rec := range ds.Groups {
		g := entity.NewGroup(rec.ID, rec.Label, rec.Color)
		s.groups = append(s.groups, g)
		s.groupByID[g.ID] = g
		s.groupIndex[g.ID] = i
	}
	entity.AssignColors(s.groups)
	groupIDs := s.GroupIDs()

	angles := layout.EvenAngles(len(ds.Targets), s.chart.StartAngle)
	for i, rec := range ds.Targets {
		t := entity.NewTarget(rec.ID)
		t.Title = rec.Title
		if rec.Color != "" {
			t.Color = rec.Color
		}
		if rec.Angle != nil {
			t.SetAngle(*rec.Angle)
		} else {
			t.SetAngle(angles[i])
		}
		layout.Place(s.chart, t, groupIDs)
		s.targets = append(s.targets, t)
		s.targetByID[t.ID] = t
	}

	for _, rec := range ds.Points {
		radius := rec.Radius
		if radius <= 0 {
			radius = s.cfg.PointRadius
		}
		p := entity.NewPoint(rec.ID, radius)
		p.Label = rec.Label
		if rec.Value != 0 {
			p.Value = rec.Value
		}
		if rec.Active != nil {
			p.SetActive(*rec.Active)
		}
		p.SetColor(rec.Color)

		if rec.Group != "" {
			if g, ok := s.groupByID[rec.Group]; ok {
				p.SetGroup(g)
			} else {
				s.warn("load", "group", rec.Group, ErrUnknownGroup)
			}
		}

		t := center
		if rec.Target != "" {
			if found, ok := s.targetByID[rec.Target]; ok {
				t = found
			} else {
				s.warn("load", "target", rec.Target, ErrUnknownTarget)
			}
		}
		p.SetTarget(t)

		s.points = append(s.points, p)
		s.pointByID[p.ID] = p
	}
	layout.PlaceCenter(s.chart, center, groupIDs, s.centerClearance())

	s.obstacles = layout.CenterObstacles(s.chart, center)
	if s.chart.Perimeter {
		s.obstacles = append(s.obstacles, layout.PerimeterObstacles(s.chart)...)
	}
	if s.chart.TargetObstacles {
		for _, t := range s.targets[1:] {
			s.obstacles = append(s.obstacles, layout.TargetObstacles(s.chart, t)...)
		}
	}
	s.all = make([]*entity.Point, 0, len(s.points)+len(s.obstacles))
	s.all = append(s.all, s.points...)
	s.all = append(s.all, s.obstacles...)

	s.seed()
	s.sched.NewBatch()
	s.tick = 0
	s.stats = collision.Stats{}
	s.alpha = s.cfg.InitialAlpha
	s.lastAlpha = 0
	if len(s.points) == 0 {
		s.state = Idle
	} else {
		s.state = Seeded
	}

	s.log.Info("dataset loaded",
		"points", len(s.points),
		"targets", len(s.targets)-1,
		"groups", len(s.groups),
		"obstacles", len(s.obstacles),
	)
	return nil
}

// centerClearance is the distance beyond the center blocker at which the
// largest loaded point touches it without overlapping.
func (s *Simulation) centerClearance() float64 {
	r := s.cfg.PointRadius
	for _, p := range s.points {
		r = math.Max(r, p.Radius)
	}
	return r + s.cfg.NodePadding
}

func (s *Simulation) seed() {
	n := len(s.groups)
	for _, p := range s.points {
		anchor := p.Target().Anchor(p.GroupID())
		layout.Seed(s.rng, p, anchor, s.groupIndex[p.GroupID()], n, s.cfg.SeedRadius)
	}
}

// Tick advances the simulation by one step: due delayed tasks, gravity,
// collision, observers, alpha decay. It reports whether points moved; an
// idle or settled simulation only runs its due tasks.
func (s *Simulation) Tick() bool {
	s.sched.RunDue()
	if s.state == Idle || s.state == Settled {
		return false
	}
	s.state = Running

	alpha := s.alpha
	gravity.ApplyAll(s.points, alpha*s.cfg.GravityStrength)
	s.stats = s.resolver.Resolve(s.all, s.cfg.CollisionAlphaScale, alpha)
	s.tick++
	s.lastAlpha = alpha

	if len(s.observers) > 0 || len(s.metrics) > 0 {
		f := s.Frame()
		for _, m := range s.metrics {
			m.Observe(f)
		}
		for _, o := range s.observers {
			o.OnTick(f)
		}
	}

	s.alpha *= s.cfg.Friction
	if s.alpha < s.cfg.StopThreshold {
		s.state = Settled
		s.log.Debug("simulation settled", "tick", s.tick, "alpha", s.alpha)
	}
	return true
}

// TriggerForce reheats the simulation to alpha, or to the configured reheat
// alpha when none (or a non-positive one) is given.
func (s *Simulation) TriggerForce(alpha ...float64) {
	a := s.cfg.ReheatAlpha
	if len(alpha) > 0 && alpha[0] > 0 {
		a = alpha[0]
	}
	s.alpha = a
	if s.state != Idle {
		s.state = Reheated
	}
	s.log.Debug("simulation reheated", "alpha", a)
}

// SetPointTarget moves a point to the target with the given id. An empty
// id means the center target. Unknown ids are reported and leave
// everything unchanged.
func (s *Simulation) SetPointTarget(pointID, targetID string, reheat bool) bool {
	t, ok := s.lookupTarget("set-target", targetID)
	if !ok {
		return false
	}
	return s.SetPointTargetRef(pointID, t, reheat)
}

// SetPointTargetRef is SetPointTarget with a target reference. A nil
// target means the center target; a target not owned by this simulation is
// reported.
func (s *Simulation) SetPointTargetRef(pointID string, t *entity.Target, reheat bool) bool {
	if t == nil {
		t = s.targets[0]
	}
	if owned, ok := s.targetByID[t.ID]; !ok || owned != t {
		s.warn("set-target", "target", t.ID, ErrUnknownTarget)
		return false
	}
	p, ok := s.lookupPoint("set-target", pointID)
	if !ok {
		return false
	}
	p.SetTarget(t)
	if reheat {
		s.TriggerForce()
	}
	return true
}

// SetPointsState applies a batch of point updates. Any batch still pending
// is cancelled first. With a positive delay item i is applied i*delay from
// now, each followed by a reheat; otherwise all items apply at once with a
// single reheat. Unknown references skip only the affected item or field.
func (s *Simulation) SetPointsState(batch []PointState, delay time.Duration, reheatAlpha float64) BatchToken {
	token := s.sched.NewBatch()

	if delay <= 0 {
		applied := 0
		for _, ps := range batch {
			if s.applyState(ps) {
				applied++
			}
		}
		if applied > 0 {
			s.TriggerForce(reheatAlpha)
		}
		return token
	}

	for i, ps := range batch {
		s.sched.Schedule(token, time.Duration(i)*delay, func() {
			if s.applyState(ps) {
				s.TriggerForce(reheatAlpha)
			}
		})
	}
	s.log.Debug("batch scheduled", "token", token, "items", len(batch), "delay", delay)
	return token
}

// CancelBatch drops the pending items of a delayed batch.
func (s *Simulation) CancelBatch(token BatchToken) int {
	return s.sched.Cancel(token)
}

func (s *Simulation) PendingTasks() int { return s.sched.Pending() }

func (s *Simulation) applyState(ps PointState) bool {
	p, ok := s.lookupPoint("set-state", ps.ID)
	if !ok {
		return false
	}

	if ps.Target != nil {
		if t, ok := s.lookupTarget("set-state", *ps.Target); ok {
			p.SetTarget(t)
		}
	}
	if ps.Group != nil {
		if *ps.Group == "" {
			p.SetGroup(nil)
		} else if g, ok := s.groupByID[*ps.Group]; ok {
			p.SetGroup(g)
		} else {
			s.warn("set-state", "group", *ps.Group, ErrUnknownGroup)
		}
	}
	if ps.Color != nil {
		p.SetColor(*ps.Color)
	}
	if ps.Active != nil {
		p.SetActive(*ps.Active)
	}
	return true
}

func (s *Simulation) lookupPoint(op, id string) (*entity.Point, bool) {
	p, ok := s.pointByID[id]
	if !ok {
		s.warn(op, "point", id, ErrUnknownPoint)
	}
	return p, ok
}

func (s *Simulation) lookupTarget(op, id string) (*entity.Target, bool) {
	if id == "" {
		return s.targets[0], true
	}
	t, ok := s.targetByID[id]
	if !ok {
		s.warn(op, "target", id, ErrUnknownTarget)
	}
	return t, ok
}

func (s *Simulation) warn(op, kind, id string, err error) {
	w := &ReferenceWarning{Op: op, Kind: kind, ID: id, Err: err}
	s.log.Warn("reference skipped", "op", op, "kind", kind, "id", id, "err", err)
	if s.onWarn != nil {
		s.onWarn(w)
	}
}

// Run ticks until the simulation settles, maxTicks steps were taken
// (unlimited when maxTicks <= 0) or ctx is done. Delayed tasks that are
// not yet due when the simulation settles stay queued.
func (s *Simulation) Run(ctx context.Context, maxTicks int) (*Result, error) {
	return s.RunWithCallback(ctx, maxTicks, nil)
}

// RunWithCallback is Run with fn invoked after every tick. Returning false
// from fn stops the run.
func (s *Simulation) RunWithCallback(ctx context.Context, maxTicks int, fn func(f *Frame) bool) (*Result, error) {
	if s.state == Idle {
		return nil, fmt.Errorf("run: no points loaded")
	}

	result := &Result{
		Alphas:  make([]float64, 0, 64),
		Series:  make(map[string][]float64, len(s.metrics)),
		Metrics: make(map[string]float64, len(s.metrics)),
	}
	for _, m := range s.metrics {
		m.Reset()
	}

	start := time.Now()
	for maxTicks <= 0 || result.Ticks < maxTicks {
		select {
		case <-ctx.Done():
			result.Duration = time.Since(start)
			result.Final = s.Frame()
			return result, ctx.Err()
		default:
		}

		if !s.Tick() {
			break
		}
		result.Ticks++
		result.Alphas = append(result.Alphas, s.lastAlpha)
		for _, m := range s.metrics {
			result.Series[m.Name()] = append(result.Series[m.Name()], m.Value())
		}

		if fn != nil && !fn(s.Frame()) {
			break
		}
	}

	result.Duration = time.Since(start)
	result.Settled = s.state == Settled
	result.Final = s.Frame()
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	s.log.Info("run finished",
		"ticks", result.Ticks,
		"settled", result.Settled,
		"alpha", s.alpha,
		"duration", result.Duration,
	)
	return result, nil
}

// Frame returns a snapshot of the movable points and targets.
func (s *Simulation) Frame() *Frame {
	f := &Frame{
		Tick:       s.tick,
		Alpha:      s.lastAlpha,
		State:      s.state,
		Points:     make([]PointView, len(s.points)),
		Targets:    make([]TargetView, len(s.targets)),
		Collisions: s.stats,
	}
	if s.tick == 0 {
		f.Alpha = s.alpha
	}

	for i, p := range s.points {
		t := p.Target()
		a := t.Anchor(p.GroupID())
		f.Points[i] = PointView{
			ID:      p.ID,
			Label:   p.Label,
			X:       p.X(),
			Y:       p.Y(),
			Radius:  p.Radius,
			Color:   p.Color(),
			Active:  p.Active(),
			Target:  t.ID,
			Group:   p.GroupID(),
			AnchorX: a.X,
			AnchorY: a.Y,
		}
	}
	for i, t := range s.targets {
		f.Targets[i] = TargetView{
			ID:       t.ID,
			Title:    t.Title,
			Color:    t.Color,
			Center:   t.IsCenter(),
			X:        t.DrawX,
			Y:        t.DrawY,
			Width:    t.Width,
			Height:   t.Height,
			Angle:    t.Angle(),
			Rotation: t.Rotation(),
			Counts:   t.GroupCounts(),
		}
	}
	return f
}

func (s *Simulation) Alpha() float64            { return s.alpha }
func (s *Simulation) State() State              { return s.state }
func (s *Simulation) Ticks() int                { return s.tick }
func (s *Simulation) Stats() collision.Stats    { return s.stats }
func (s *Simulation) Config() config.Simulation { return s.cfg }
func (s *Simulation) Chart() config.Chart       { return s.chart }

// Points returns the movable points in dataset order.
func (s *Simulation) Points() []*entity.Point { return s.points }

func (s *Simulation) Obstacles() []*entity.Point { return s.obstacles }

// Targets returns the center target followed by the dataset targets.
func (s *Simulation) Targets() []*entity.Target { return s.targets }

func (s *Simulation) Groups() []*entity.Group { return s.groups }

func (s *Simulation) Point(id string) (*entity.Point, bool) {
	p, ok := s.pointByID[id]
	return p, ok
}

func (s *Simulation) Target(id string) (*entity.Target, bool) {
	t, ok := s.targetByID[id]
	return t, ok
}

func (s *Simulation) CenterTarget() *entity.Target { return s.targets[0] }

func (s *Simulation) GroupIDs() []string {
	ids := make([]string, len(s.groups))
	for i, g := range s.groups {
		ids[i] = g.ID
	}
	return ids
}
