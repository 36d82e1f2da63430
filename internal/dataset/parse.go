package dataset

import "fmt"

// Parse validates a decoded document tree and converts it into a Dataset.
// "points" and "targets" must be arrays, "groups" is optional; every
// element must be a mapping with a string id.
func Parse(doc any) (*Dataset, error) {
	root, ok := doc.(map[string]any)
	if !ok {
		return nil, invalid("dataset", "must be a mapping, got %s", kind(doc))
	}

	points, err := array(root, "points", true)
	if err != nil {
		return nil, err
	}
	targets, err := array(root, "targets", true)
	if err != nil {
		return nil, err
	}
	groups, err := array(root, "groups", false)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{
		Points:  make([]PointRecord, 0, len(points)),
		Targets: make([]TargetRecord, 0, len(targets)),
		Groups:  make([]GroupRecord, 0, len(groups)),
	}

	for i, raw := range points {
		f := fields{prefix: fmt.Sprintf("points[%d]", i)}
		if f.m, ok = raw.(map[string]any); !ok {
			return nil, invalid(f.prefix, "must be a mapping, got %s", kind(raw))
		}
		rec := PointRecord{
			ID:     f.id(),
			Target: f.str("target"),
			Group:  f.str("group"),
			Color:  f.str("color"),
			Label:  f.str("label"),
			Value:  f.num("value"),
			Radius: f.num("radius"),
			Active: f.boolean("active"),
		}
		if f.err != nil {
			return nil, f.err
		}
		ds.Points = append(ds.Points, rec)
	}

	for i, raw := range targets {
		f := fields{prefix: fmt.Sprintf("targets[%d]", i)}
		if f.m, ok = raw.(map[string]any); !ok {
			return nil, invalid(f.prefix, "must be a mapping, got %s", kind(raw))
		}
		rec := TargetRecord{
			ID:    f.id(),
			Title: f.str("title"),
			Color: f.str("color"),
		}
		if _, has := f.m["angle"]; has {
			angle := f.num("angle")
			rec.Angle = &angle
		}
		if f.err != nil {
			return nil, f.err
		}
		ds.Targets = append(ds.Targets, rec)
	}

	for i, raw := range groups {
		f := fields{prefix: fmt.Sprintf("groups[%d]", i)}
		if f.m, ok = raw.(map[string]any); !ok {
			return nil, invalid(f.prefix, "must be a mapping, got %s", kind(raw))
		}
		rec := GroupRecord{
			ID:    f.id(),
			Label: f.str("label"),
			Color: f.str("color"),
		}
		if f.err != nil {
			return nil, f.err
		}
		ds.Groups = append(ds.Groups, rec)
	}

	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

func array(root map[string]any, key string, required bool) ([]any, error) {
	v, ok := root[key]
	if !ok || v == nil {
		if required {
			return nil, invalid(key, "must be an array, got nothing")
		}
		return nil, nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, invalid(key, "must be an array, got %s", kind(v))
	}
	return arr, nil
}

// fields reads typed values out of one record, keeping the first error.
type fields struct {
	prefix string
	m      map[string]any
	err    error
}

func (f *fields) fail(key, format string, args ...any) {
	if f.err == nil {
		f.err = invalid(f.prefix+"."+key, format, args...)
	}
}

func (f *fields) id() string {
	v, ok := f.m["id"]
	if !ok {
		f.fail("id", "missing")
		return ""
	}
	s, ok := v.(string)
	if !ok {
		f.fail("id", "must be a string, got %s", kind(v))
		return ""
	}
	if s == "" {
		f.fail("id", "must be a non-empty string")
	}
	return s
}

func (f *fields) str(key string) string {
	v, ok := f.m[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		f.fail(key, "must be a string, got %s", kind(v))
	}
	return s
}

func (f *fields) num(key string) float64 {
	v, ok := f.m[key]
	if !ok || v == nil {
		return 0
	}
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	case float64:
		return n
	}
	f.fail(key, "must be a number, got %s", kind(v))
	return 0
}

func (f *fields) boolean(key string) *bool {
	v, ok := f.m[key]
	if !ok || v == nil {
		return nil
	}
	b, ok := v.(bool)
	if !ok {
		f.fail(key, "must be a boolean, got %s", kind(v))
		return nil
	}
	return &b
}

func kind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int64, uint64, float64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "mapping"
	}
	return fmt.Sprintf("%T", v)
}
