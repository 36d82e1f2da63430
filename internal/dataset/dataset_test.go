package dataset

import (
	"errors"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/forceradar/internal/config"
)

const sample = `
groups:
  - {id: g1, label: One, color: "#ff0000"}
  - {id: g2}
targets:
  - {id: a, title: Alpha, angle: 45}
  - {id: b}
points:
  - {id: p1, target: a, group: g1, radius: 3}
  - {id: p2, group: g2, active: false, value: 2.5}
`

func TestDecode(t *testing.T) {
	ds, err := Decode(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(ds.Points) != 2 || len(ds.Targets) != 2 || len(ds.Groups) != 2 {
		t.Fatalf("unexpected sizes: %d points %d targets %d groups", len(ds.Points), len(ds.Targets), len(ds.Groups))
	}

	p1, p2 := ds.Points[0], ds.Points[1]
	if p1.Target != "a" || p1.Group != "g1" || p1.Radius != 3 || p1.Active != nil {
		t.Errorf("unexpected p1: %+v", p1)
	}
	if p2.Active == nil || *p2.Active || p2.Value != 2.5 {
		t.Errorf("unexpected p2: %+v", p2)
	}
	if ds.Targets[0].Angle == nil || *ds.Targets[0].Angle != 45 {
		t.Error("angle not parsed")
	}
	if ds.Targets[1].Angle != nil {
		t.Error("absent angle should stay nil")
	}
}

func TestDecodeJSON(t *testing.T) {
	doc := `{"targets": [{"id": "a"}], "points": [{"id": "p", "target": "a"}]}`
	ds, err := Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if ds.Points[0].Target != "a" {
		t.Errorf("unexpected point %+v", ds.Points[0])
	}
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name  string
		doc   any
		field string
	}{
		{"not a mapping", []any{}, "dataset"},
		{"targets not array", map[string]any{"targets": "not-an-array", "points": []any{}}, "targets"},
		{"points not array", map[string]any{"targets": []any{}, "points": 3}, "points"},
		{"points missing", map[string]any{"targets": []any{}}, "points"},
		{"groups not array", map[string]any{"targets": []any{}, "points": []any{}, "groups": true}, "groups"},
		{"numeric point id", map[string]any{"targets": []any{}, "points": []any{map[string]any{"id": 1}}}, "points[0].id"},
		{"missing target id", map[string]any{"targets": []any{map[string]any{"title": "x"}}, "points": []any{}}, "targets[0].id"},
		{"empty group id", map[string]any{"targets": []any{}, "points": []any{}, "groups": []any{map[string]any{"id": ""}}}, "groups[0].id"},
		{"point not mapping", map[string]any{"targets": []any{}, "points": []any{"p"}}, "points[0]"},
		{"bad radius", map[string]any{"targets": []any{}, "points": []any{map[string]any{"id": "p", "radius": "big"}}}, "points[0].radius"},
		{"bad active", map[string]any{"targets": []any{}, "points": []any{map[string]any{"id": "p", "active": "yes"}}}, "points[0].active"},
		{"duplicate point", map[string]any{"targets": []any{}, "points": []any{map[string]any{"id": "p"}, map[string]any{"id": "p"}}}, "points[1].id"},
		{"reserved target id", map[string]any{"targets": []any{map[string]any{"id": "a"}, map[string]any{"id": "FRC_CENTER_TARGET"}}, "points": []any{}}, "targets[1].id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.doc)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, verr.Field)
			}
		})
	}
}

func TestDecodeEmpty(t *testing.T) {
	_, err := Decode(strings.NewReader(""))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestSaveLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ds.yaml")
	active := false
	angle := 30.0
	ds := &Dataset{
		Targets: []TargetRecord{{ID: "a", Angle: &angle}},
		Points:  []PointRecord{{ID: "p", Target: "a", Active: &active}},
	}
	if err := Save(path, ds); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Points[0].Active == nil || *loaded.Points[0].Active {
		t.Error("active flag lost")
	}
	if *loaded.Targets[0].Angle != 30 {
		t.Error("angle lost")
	}
}

func TestRandom(t *testing.T) {
	g := config.Generator{Groups: 3, Targets: 4, MinPoints: 5, MaxPoints: 10}
	ds := Random(rand.New(rand.NewSource(1)), g)

	if err := ds.Validate(); err != nil {
		t.Fatalf("random dataset invalid: %v", err)
	}
	if len(ds.Groups) != 3 || len(ds.Targets) != 4 {
		t.Errorf("unexpected sizes %d groups %d targets", len(ds.Groups), len(ds.Targets))
	}

	perGroup := make(map[string]int)
	targets := map[string]bool{"": true}
	for _, tr := range ds.Targets {
		targets[tr.ID] = true
	}
	for _, p := range ds.Points {
		perGroup[p.Group]++
		if !targets[p.Target] {
			t.Errorf("point %s references unknown target %s", p.ID, p.Target)
		}
	}
	for id, n := range perGroup {
		if n < g.MinPoints || n > g.MaxPoints {
			t.Errorf("group %s has %d points, want %d..%d", id, n, g.MinPoints, g.MaxPoints)
		}
	}

	again := Random(rand.New(rand.NewSource(1)), g)
	if len(again.Points) != len(ds.Points) {
		t.Error("same seed produced a different dataset")
	}
}
