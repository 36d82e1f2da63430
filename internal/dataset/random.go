package dataset

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/forceradar/internal/config"
)

// Random builds a demo dataset: g.Groups groups of g.MinPoints..g.MaxPoints
// points each and g.Targets targets. Every point is assigned to a random
// target, or left on the center one.
func Random(rng *rand.Rand, g config.Generator) *Dataset {
	ds := &Dataset{}

	for i := range g.Targets {
		ds.Targets = append(ds.Targets, TargetRecord{
			ID:    fmt.Sprintf("t%d", i),
			Title: fmt.Sprintf("Target %d", i+1),
		})
	}

	for i := range g.Groups {
		group := GroupRecord{
			ID:    fmt.Sprintf("g%d", i),
			Label: fmt.Sprintf("Group %d", i+1),
		}
		ds.Groups = append(ds.Groups, group)

		amount := float64(g.MinPoints) + rng.Float64()*float64(g.MaxPoints-g.MinPoints)
		n := int(math.Ceil(amount))
		for j := range n {
			rec := PointRecord{
				ID:    fmt.Sprintf("%s-p%d", group.ID, j),
				Group: group.ID,
				Value: 1,
			}
			if k := rng.Intn(g.Targets + 1); k < g.Targets {
				rec.Target = ds.Targets[k].ID
			}
			ds.Points = append(ds.Points, rec)
		}
	}
	return ds
}
