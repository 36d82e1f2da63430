// Package dataset reads, validates and generates the records a simulation
// is loaded from.
//
// Documents are decoded with yaml.v3, which also accepts JSON, into a
// generic tree first so that shape errors (a non-array "points", a numeric
// id) surface as a [ValidationError] naming the offending field instead of
// a decoder type error.
package dataset

import (
	"fmt"
	"io"
	"os"

	"github.com/san-kum/forceradar/internal/entity"
	"gopkg.in/yaml.v3"
)

type Dataset struct {
	Points  []PointRecord  `yaml:"points" json:"points"`
	Targets []TargetRecord `yaml:"targets" json:"targets"`
	Groups  []GroupRecord  `yaml:"groups,omitempty" json:"groups,omitempty"`
}

type PointRecord struct {
	ID     string  `yaml:"id" json:"id"`
	Target string  `yaml:"target,omitempty" json:"target,omitempty"`
	Group  string  `yaml:"group,omitempty" json:"group,omitempty"`
	Color  string  `yaml:"color,omitempty" json:"color,omitempty"`
	Label  string  `yaml:"label,omitempty" json:"label,omitempty"`
	Value  float64 `yaml:"value,omitempty" json:"value,omitempty"`
	Radius float64 `yaml:"radius,omitempty" json:"radius,omitempty"`
	Active *bool   `yaml:"active,omitempty" json:"active,omitempty"`
}

type TargetRecord struct {
	ID    string   `yaml:"id" json:"id"`
	Title string   `yaml:"title,omitempty" json:"title,omitempty"`
	Color string   `yaml:"color,omitempty" json:"color,omitempty"`
	Angle *float64 `yaml:"angle,omitempty" json:"angle,omitempty"`
}

type GroupRecord struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label,omitempty" json:"label,omitempty"`
	Color string `yaml:"color,omitempty" json:"color,omitempty"`
}

// ValidationError reports a malformed dataset. It aborts the load.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid dataset: %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks ids: every point, target and group id must be non-empty
// and unique within its kind. Targets may not use the center target's id.
func (d *Dataset) Validate() error {
	seen := make(map[string]bool)
	for i, p := range d.Points {
		field := fmt.Sprintf("points[%d].id", i)
		if p.ID == "" {
			return invalid(field, "must be a non-empty string")
		}
		if seen[p.ID] {
			return invalid(field, "duplicate id %q", p.ID)
		}
		seen[p.ID] = true
	}

	clear(seen)
	for i, t := range d.Targets {
		field := fmt.Sprintf("targets[%d].id", i)
		if t.ID == "" {
			return invalid(field, "must be a non-empty string")
		}
		if t.ID == entity.CenterTargetID {
			return invalid(field, "%q is reserved for the center target", t.ID)
		}
		if seen[t.ID] {
			return invalid(field, "duplicate id %q", t.ID)
		}
		seen[t.ID] = true
	}

	clear(seen)
	for i, g := range d.Groups {
		field := fmt.Sprintf("groups[%d].id", i)
		if g.ID == "" {
			return invalid(field, "must be a non-empty string")
		}
		if seen[g.ID] {
			return invalid(field, "duplicate id %q", g.ID)
		}
		seen[g.ID] = true
	}
	return nil
}

// Decode reads a YAML or JSON document.
func Decode(r io.Reader) (*Dataset, error) {
	var doc any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, invalid("dataset", "empty document")
		}
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	return Parse(doc)
}

func LoadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

func Save(path string, d *Dataset) error {
	data, err := yaml.Marshal(d)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
