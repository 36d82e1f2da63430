package sim

import (
	"context"
	"math"
	"math/rand"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/forceradar/internal/config"
	"github.com/san-kum/forceradar/internal/dataset"
	"github.com/san-kum/forceradar/internal/entity"
)

var _ = Describe("Simulation", func() {
	var (
		s     *Simulation
		clock *FakeClock
	)

	BeforeEach(func() {
		var err error
		clock = NewFakeClock(epoch)
		s, err = New(config.DefaultSimulation(),
			WithClock(clock),
			WithRand(rand.New(rand.NewSource(42))),
		)
		Expect(err).NotTo(HaveOccurred())
	})

	It("starts idle", func() {
		Expect(s.State()).To(Equal(Idle))
		Expect(s.Points()).To(BeEmpty())
		Expect(s.Targets()).To(HaveLen(1))
	})

	Context("with one point per target", func() {
		BeforeEach(func() {
			ds := &dataset.Dataset{
				Targets: []dataset.TargetRecord{{ID: "n"}, {ID: "e"}, {ID: "s"}, {ID: "w"}},
				Points: []dataset.PointRecord{
					{ID: "p-n", Target: "n"},
					{ID: "p-e", Target: "e"},
					{ID: "p-s", Target: "s"},
					{ID: "p-w", Target: "w"},
				},
			}
			Expect(s.LoadDataset(ds)).To(Succeed())
		})

		It("moves through seeded, running and settled", func() {
			Expect(s.State()).To(Equal(Seeded))

			Expect(s.Tick()).To(BeTrue())
			Expect(s.State()).To(Equal(Running))

			res, err := s.Run(context.Background(), 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Settled).To(BeTrue())
			Expect(s.State()).To(Equal(Settled))
		})

		It("converges every point onto its anchor", func() {
			_, err := s.Run(context.Background(), 0)
			Expect(err).NotTo(HaveOccurred())

			for _, p := range s.Points() {
				a := p.Target().Anchor(p.GroupID())
				Expect(math.Hypot(p.X()-a.X, p.Y()-a.Y)).To(BeNumerically("<", 0.5), p.ID)
			}
		})

		It("lays targets out counter-clockwise from the top", func() {
			n, _ := s.Target("n")
			e, _ := s.Target("e")
			Expect(n.Angle()).To(Equal(90.0))
			Expect(e.Angle()).To(Equal(180.0))
			Expect(n.Y).To(BeNumerically("<", 400))
			Expect(e.X).To(BeNumerically("<", 400))
		})

		It("follows a reassignment after a reheat", func() {
			_, err := s.Run(context.Background(), 0)
			Expect(err).NotTo(HaveOccurred())

			Expect(s.SetPointTarget("p-n", "s", true)).To(BeTrue())
			Expect(s.State()).To(Equal(Reheated))

			south, _ := s.Target("s")
			p, _ := s.Point("p-n")
			before := math.Hypot(p.X()-south.X, p.Y()-south.Y)

			_, err = s.Run(context.Background(), 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(math.Hypot(p.X()-south.X, p.Y()-south.Y)).To(BeNumerically("<", before))
			Expect(south.Members()).To(HaveLen(2))
		})
	})

	Context("with points on the center target", func() {
		BeforeEach(func() {
			ds := &dataset.Dataset{
				Groups: []dataset.GroupRecord{{ID: "g1"}, {ID: "g2"}},
				Points: []dataset.PointRecord{
					{ID: "c1", Group: "g1"},
					{ID: "c2", Group: "g2"},
				},
			}
			Expect(s.LoadDataset(ds)).To(Succeed())
		})

		It("rests each point on its anchor just outside the blocker", func() {
			_, err := s.Run(context.Background(), 0)
			Expect(err).NotTo(HaveOccurred())

			center := s.CenterTarget()
			cfg := s.Config()
			contact := config.DefaultChart().HexagonSize - 5 + cfg.PointRadius + cfg.NodePadding
			for _, p := range s.Points() {
				Expect(p.Target().IsCenter()).To(BeTrue())
				a := p.Target().Anchor(p.GroupID())
				Expect(math.Hypot(a.X-center.X, a.Y-center.Y)).To(BeNumerically("~", contact, 1e-9))
				Expect(math.Hypot(p.X()-a.X, p.Y()-a.Y)).To(BeNumerically("<", 0.5), p.ID)
			}
		})
	})

	Context("with a crowded target", func() {
		BeforeEach(func() {
			ds := &dataset.Dataset{
				Groups:  []dataset.GroupRecord{{ID: "x"}, {ID: "y"}},
				Targets: []dataset.TargetRecord{{ID: "t"}},
			}
			for i := range 40 {
				group := "x"
				if i%2 == 1 {
					group = "y"
				}
				ds.Points = append(ds.Points, dataset.PointRecord{
					ID: string(rune('A'+i%26)) + string(rune('a'+i/26)), Target: "t", Group: group,
				})
			}
			Expect(s.LoadDataset(ds)).To(Succeed())
		})

		It("keeps obstacles fixed and separates most overlaps", func() {
			type pos struct{ x, y float64 }
			fixed := map[*entity.Point]pos{}
			for _, o := range s.Obstacles() {
				fixed[o] = pos{o.X(), o.Y()}
			}

			_, err := s.Run(context.Background(), 0)
			Expect(err).NotTo(HaveOccurred())

			for o, p := range fixed {
				Expect(o.X()).To(Equal(p.x))
				Expect(o.Y()).To(Equal(p.y))
			}

			points := s.Points()
			overlaps := 0
			for i := range points {
				for j := i + 1; j < len(points); j++ {
					a, b := points[i], points[j]
					if math.Hypot(a.X()-b.X(), a.Y()-b.Y()) < (a.Radius+b.Radius)*0.5 {
						overlaps++
					}
				}
			}
			Expect(overlaps).To(BeZero())
		})

		It("splits the groups toward their own sub-anchors", func() {
			_, err := s.Run(context.Background(), 0)
			Expect(err).NotTo(HaveOccurred())

			t, _ := s.Target("t")
			ax, ay := t.Anchor("x"), t.Anchor("y")
			closer := 0
			for _, p := range s.Points() {
				own, other := ax, ay
				if p.GroupID() == "y" {
					own, other = ay, ax
				}
				if math.Hypot(p.X()-own.X, p.Y()-own.Y) < math.Hypot(p.X()-other.X, p.Y()-other.Y) {
					closer++
				}
			}
			Expect(closer).To(BeNumerically(">=", len(s.Points())*3/4))
		})
	})

	Context("with a staggered batch", func() {
		BeforeEach(func() {
			Expect(s.LoadDataset(testDataset())).To(Succeed())
		})

		It("applies one item per delay step", func() {
			s.SetPointsState([]PointState{
				{ID: "p1", Active: ptr(false)},
				{ID: "p2", Active: ptr(false)},
				{ID: "p3", Active: ptr(false)},
			}, 50*time.Millisecond, 0)

			inactive := func() int {
				n := 0
				for _, p := range s.Points() {
					if !p.Active() {
						n++
					}
				}
				return n
			}

			// p4 starts inactive.
			Expect(inactive()).To(Equal(1))
			s.Tick()
			Expect(inactive()).To(Equal(2))
			clock.Advance(50 * time.Millisecond)
			s.Tick()
			Expect(inactive()).To(Equal(3))
			clock.Advance(50 * time.Millisecond)
			s.Tick()
			Expect(inactive()).To(Equal(4))
			Expect(s.PendingTasks()).To(BeZero())
		})

		It("drops the pending items when a new dataset is loaded", func() {
			s.SetPointsState([]PointState{
				{ID: "p1", Target: ptr("b")},
				{ID: "p2", Target: ptr("a")},
			}, time.Second, 0)
			Expect(s.PendingTasks()).To(Equal(2))

			Expect(s.LoadDataset(testDataset())).To(Succeed())
			Expect(s.PendingTasks()).To(BeZero())
		})
	})
})
